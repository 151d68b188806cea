package adpcm

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/Hangman/TuningFork/internal/decodeerr"
	"github.com/Hangman/TuningFork/pcm"
	"github.com/Hangman/TuningFork/wave"
)

const stage = "adpcm"

const (
	preambleBytesMono   = 4
	preambleBytesStereo = 8
)

// state is one channel's predictor state, per §3: the reconstructed sample
// (reinterpreted as signed on output), the step-index, and the derived
// step. predictor and step evolve with wrapping 16-bit arithmetic, matching
// the reference decoder's behavior bit for bit.
type state struct {
	predictor uint16
	stepIndex int
	step      uint16
}

func newState(preamble []byte) state {
	idx := int(preamble[2])
	if idx < 0 {
		idx = 0
	}
	if idx > 88 {
		idx = 88
	}
	return state{
		predictor: uint16(preamble[0]) | uint16(preamble[1])<<8,
		stepIndex: idx,
		step:      stepTable[idx],
	}
}

// decodeNibble advances the state by one 4-bit codeword and returns the
// resulting predictor value.
func (s *state) decodeNibble(n uint8) int16 {
	sign := n & 8
	delta := n & 7

	idx := s.stepIndex + int(indexTable[n])
	if idx < 0 {
		idx = 0
	}
	if idx > 88 {
		idx = 88
	}
	s.stepIndex = idx

	step := s.step
	var diff uint16 = step >> 3
	if delta&4 != 0 {
		diff += step
	}
	if delta&2 != 0 {
		diff += step >> 1
	}
	if delta&1 != 0 {
		diff += step >> 2
	}

	if sign != 0 {
		s.predictor -= diff
	} else {
		s.predictor += diff
	}
	s.step = stepTable[s.stepIndex]
	return int16(s.predictor)
}

// DecodeRaw decodes a stream of back-to-back ADPCM blocks, each up to
// blockSize bytes, into packed little-endian 16-bit PCM. stereo selects the
// 8-byte dual-preamble block layout over the 4-byte mono layout. A final
// block shorter than blockSize is decoded as-is, matching the reference
// decoder rather than treating a short trailer as truncation.
//
// ctx is checked once per block, so a cancelled context stops decoding at
// the next block boundary.
func DecodeRaw(ctx context.Context, data []byte, blockSize int, stereo bool) ([]byte, error) {
	preambleBytes := preambleBytesMono
	if stereo {
		preambleBytes = preambleBytesStereo
	}
	if blockSize < preambleBytes {
		return nil, decodeerr.Newf(decodeerr.Corrupt, stage, "block size %d smaller than preamble size %d", blockSize, preambleBytes)
	}

	out := make([]byte, 0, len(data)*4)
	// left/right accumulate across every block in the call; they are
	// interleaved once after the loop rather than flushed per block.
	var left, right []int16

	for offset := 0; offset < len(data); offset += blockSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := offset + blockSize
		if end > len(data) {
			end = len(data)
		}
		block := data[offset:end]
		if len(block) < preambleBytes {
			return nil, decodeerr.Newf(decodeerr.UnexpectedEOF, stage, "trailing block of %d bytes shorter than %d-byte preamble", len(block), preambleBytes)
		}

		if !stereo {
			st := newState(block[:preambleBytesMono])
			for _, b := range block[preambleBytesMono:] {
				for _, nibble := range [2]uint8{b & 0xF, b >> 4} {
					s := st.decodeNibble(nibble)
					out = append(out, byte(uint16(s)), byte(uint16(s)>>8))
				}
			}
			continue
		}

		states := [2]state{newState(block[0:4]), newState(block[4:8])}
		ch, span := 0, 0
		for _, b := range block[preambleBytesStereo:] {
			for _, nibble := range [2]uint8{b & 0xF, b >> 4} {
				s := states[ch].decodeNibble(nibble)
				if ch == 0 {
					left = append(left, s)
				} else {
					right = append(right, s)
				}
			}
			span++
			if span == 4 {
				span = 0
				ch ^= 1
			}
		}
	}

	if stereo {
		n := len(left)
		if len(right) < n {
			n = len(right)
		}
		for i := 0; i < n; i++ {
			out = append(out, byte(uint16(left[i])), byte(uint16(left[i])>>8))
			out = append(out, byte(uint16(right[i])), byte(uint16(right[i])>>8))
		}
	}
	return out, nil
}

// DecodeWaveFile decodes a WAVE-embedded IMA ADPCM stream, returning a PCM
// record at 16 bits per sample.
func DecodeWaveFile(ctx context.Context, data []byte, log *slog.Logger) (*pcm.Record, error) {
	f, err := wave.Walk(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	stereo := f.Format.NumChannels == 2
	blockSize := int(f.Format.BlockAlign)
	if log != nil {
		log.Debug("adpcm wave decode", "channels", f.Format.NumChannels, "sample_rate", f.Format.SampleRate, "block_align", blockSize)
	}
	pcmData, err := DecodeRaw(ctx, f.Data, blockSize, stereo)
	if err != nil {
		return nil, err
	}
	return &pcm.Record{
		Data:          pcmData,
		SampleRate:    f.Format.SampleRate,
		BitsPerSample: 16,
		NumChannels:   uint8(f.Format.NumChannels),
		BlockSize:     uint32(f.Format.BlockAlign),
	}, nil
}
