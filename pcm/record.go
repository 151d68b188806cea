// Package pcm assembles decoded planar audio samples into the interleaved
// byte layout shared by both decoders' output.
package pcm

import "github.com/Hangman/TuningFork/internal/decodeerr"

const stage = "pcm"

// Record is a decoded PCM buffer plus the parameters needed to interpret
// it: sample rate, bit depth, channel count, and a nominal block size.
type Record struct {
	Data          []byte
	SampleRate    uint32
	BitsPerSample uint8
	NumChannels   uint8
	BlockSize     uint32
}

// channelOrder maps a channel count to the index, within a planar input,
// of each output channel position: channelOrder[n][k] is the planar
// channel feeding output position k.
var channelOrder = map[int][]int{
	1: {0},
	2: {0, 1},
	3: {0, 1, 2},
	4: {0, 1, 2, 3},
	5: {0, 1, 2, 3, 4},
	6: {0, 1, 2, 3, 4, 5},
	7: {0, 1, 2, 3, 4, 5, 6},
	8: {0, 1, 2, 3, 4, 5, 6, 7},
}

// Interleave packs planar per-channel int32 samples into little-endian
// bytes truncated to ceil(bitsPerSample/8) bytes per sample, in canonical
// channel order.
func Interleave(planar [][]int32, bitsPerSample uint8) ([]byte, error) {
	numCh := len(planar)
	order, ok := channelOrder[numCh]
	if !ok {
		return nil, decodeerr.Newf(decodeerr.UnsupportedFeature, stage, "unsupported channel count %d", numCh)
	}
	if numCh == 0 {
		return nil, nil
	}
	blockSize := len(planar[0])
	bytesPerSample := int((bitsPerSample + 7) / 8)

	out := make([]byte, blockSize*numCh*bytesPerSample)
	pos := 0
	for i := 0; i < blockSize; i++ {
		for _, ch := range order {
			v := uint32(planar[ch][i])
			for b := 0; b < bytesPerSample; b++ {
				out[pos] = byte(v >> (8 * b))
				pos++
			}
		}
	}
	return out, nil
}
