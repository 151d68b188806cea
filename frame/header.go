// Package frame decodes FLAC audio frames: the frame header, the per-channel
// subframes (dispatching to CONSTANT/VERBATIM/FIXED/LPC decoding with
// partitioned Rice residuals), inter-channel decorrelation, and the frame
// footer.
package frame

import (
	"log/slog"

	"github.com/Hangman/TuningFork/internal/bits"
	"github.com/Hangman/TuningFork/internal/decodeerr"
	"github.com/Hangman/TuningFork/meta"
)

const stage = "frame"

// syncCode is the 14-bit pattern every frame header begins with:
// 0b11111111111110.
const syncCode = 0x3FFE

// ChannelAssignment is the raw 4-bit channel assignment code from the frame
// header. Codes 0-7 mean "NumChannels independent channels"; 8-10 select one
// of the inter-channel decorrelation modes.
type ChannelAssignment uint8

// Channel assignment codes with dedicated decorrelation modes.
const (
	LeftSide  ChannelAssignment = 8
	RightSide ChannelAssignment = 9
	MidSide   ChannelAssignment = 10
)

// NumChannels returns the channel count implied by the assignment code.
func (c ChannelAssignment) NumChannels() int {
	if c <= 7 {
		return int(c) + 1
	}
	return 2
}

// Stereo reports whether c selects an inter-channel decorrelation mode
// rather than independent channels.
func (c ChannelAssignment) Stereo() bool {
	return c >= LeftSide && c <= MidSide
}

func (c ChannelAssignment) String() string {
	switch {
	case c == LeftSide:
		return "left/side"
	case c == RightSide:
		return "right/side"
	case c == MidSide:
		return "mid/side"
	case c <= 7:
		return "independent"
	default:
		return "reserved"
	}
}

// Header is a parsed FLAC frame header.
type Header struct {
	// HasVariableBlockSize is the stream's blocking strategy: false for a
	// fixed-sample-count stream (Number is a frame index), true for a
	// variable-sample-count stream (Number is a sample index).
	HasVariableBlockSize bool
	// Number is the frame number or starting sample number, per
	// HasVariableBlockSize.
	Number uint64
	// BlockSize is the number of samples per channel in this frame.
	BlockSize uint32
	// SampleRate in Hz.
	SampleRate uint32
	// ChannelAssignment selects independent channels or a decorrelation
	// mode.
	ChannelAssignment ChannelAssignment
	// BitsPerSample is the frame's sample bit depth.
	BitsPerSample uint8
}

var sampleRateTable = [16]uint32{
	1: 88200, 2: 176400, 3: 192000, 4: 8000, 5: 16000, 6: 22050, 7: 24000,
	8: 32000, 9: 44100, 10: 48000, 11: 96000,
}

var sampleSizeTable = [8]uint8{
	1: 8, 2: 12, 4: 16, 5: 20, 6: 24, 7: 32,
}

// ReadHeader reads one frame header, or reports ok=false if the stream ends
// cleanly at this frame boundary (zero bytes available before any header
// byte is consumed).
//
// expectedRate is the sample rate established by STREAMINFO (or a prior
// frame); a frame whose own sample_rate code resolves to a different value
// is rejected as UnsupportedFeature, since mid-stream sample rate changes
// are not supported.
func ReadHeader(br *bits.Reader, si *meta.StreamInfo, expectedRate uint32, log *slog.Logger) (hdr *Header, ok bool, err error) {
	first, present, err := br.ReadByteOrEOF()
	if err != nil {
		return nil, false, err
	}
	if !present {
		return nil, false, nil
	}
	br.Prime(first)

	// field 0: sync_code(14) | reserved(1) | blocking_strategy(1)
	syncAndFlags, err := br.ReadBits(16)
	if err != nil {
		return nil, false, err
	}
	sync := syncAndFlags >> 2
	if sync != syncCode {
		return nil, false, decodeerr.Newf(decodeerr.InvalidHeader, stage, "invalid sync code: got %014b", sync)
	}
	if syncAndFlags&0x2 != 0 {
		return nil, false, decodeerr.New(decodeerr.InvalidHeader, stage, "reserved sync bit must be 0")
	}
	hdr = &Header{HasVariableBlockSize: syncAndFlags&0x1 != 0}

	fields, err := br.ReadBits(4 + 4 + 4 + 3 + 1)
	if err != nil {
		return nil, false, err
	}
	blockSizeCode := uint8(fields >> 12 & 0xF)
	sampleRateCode := uint8(fields >> 8 & 0xF)
	channelCode := uint8(fields >> 4 & 0xF)
	sampleSizeCode := uint8(fields >> 1 & 0x7)
	if fields&0x1 != 0 {
		return nil, false, decodeerr.New(decodeerr.InvalidHeader, stage, "reserved header bit must be 0")
	}

	if channelCode > 10 {
		return nil, false, decodeerr.Newf(decodeerr.InvalidHeader, stage, "invalid channel assignment code %d", channelCode)
	}
	hdr.ChannelAssignment = ChannelAssignment(channelCode)

	switch sampleSizeCode {
	case 0:
		hdr.BitsPerSample = si.BitsPerSample
	case 3:
		return nil, false, decodeerr.Newf(decodeerr.InvalidHeader, stage, "reserved sample size code %03b", sampleSizeCode)
	default:
		hdr.BitsPerSample = sampleSizeTable[sampleSizeCode]
	}

	hdr.Number, err = br.ReadUTF8Int()
	if err != nil {
		return nil, false, err
	}

	switch {
	case blockSizeCode == 0:
		return nil, false, decodeerr.New(decodeerr.InvalidHeader, stage, "reserved block size code 0000")
	case blockSizeCode == 1:
		hdr.BlockSize = 192
	case blockSizeCode >= 2 && blockSizeCode <= 5:
		hdr.BlockSize = 576 << (blockSizeCode - 2)
	case blockSizeCode == 6:
		v, err := br.ReadBits(8)
		if err != nil {
			return nil, false, err
		}
		hdr.BlockSize = uint32(v) + 1
	case blockSizeCode == 7:
		v, err := br.ReadBits(16)
		if err != nil {
			return nil, false, err
		}
		hdr.BlockSize = uint32(v) + 1
	default: // 8..15
		hdr.BlockSize = 256 << (blockSizeCode - 8)
	}

	switch {
	case sampleRateCode == 0:
		hdr.SampleRate = si.SampleRate
	case sampleRateCode <= 11:
		hdr.SampleRate = sampleRateTable[sampleRateCode]
	case sampleRateCode == 12:
		v, err := br.ReadBits(8)
		if err != nil {
			return nil, false, err
		}
		hdr.SampleRate = uint32(v) * 1000
	case sampleRateCode == 13:
		v, err := br.ReadBits(16)
		if err != nil {
			return nil, false, err
		}
		hdr.SampleRate = uint32(v)
	case sampleRateCode == 14:
		v, err := br.ReadBits(16)
		if err != nil {
			return nil, false, err
		}
		hdr.SampleRate = uint32(v) * 10
	default: // 15
		return nil, false, decodeerr.New(decodeerr.InvalidHeader, stage, "invalid sample rate code 1111")
	}

	crc, err := br.ReadBits(8)
	if err != nil {
		return nil, false, err
	}
	_ = crc // CRC-8 is read but not validated; see §7/§9.

	if expectedRate != 0 && hdr.SampleRate != expectedRate {
		return nil, false, decodeerr.Newf(decodeerr.UnsupportedFeature, stage, "mid-stream sample rate change: expected %d Hz, got %d Hz", expectedRate, hdr.SampleRate)
	}
	if hdr.ChannelAssignment.NumChannels() != int(si.NumChannels) {
		return nil, false, decodeerr.Newf(decodeerr.InvalidHeader, stage, "frame channel count %d does not match stream channel count %d", hdr.ChannelAssignment.NumChannels(), si.NumChannels)
	}
	if hdr.BlockSize > uint32(si.MaxBlockSize) {
		return nil, false, decodeerr.Newf(decodeerr.Corrupt, stage, "frame block size %d exceeds stream max %d", hdr.BlockSize, si.MaxBlockSize)
	}

	if log != nil {
		log.Debug("frame header", "number", hdr.Number, "block_size", hdr.BlockSize, "channel_assignment", hdr.ChannelAssignment, "bits_per_sample", hdr.BitsPerSample)
	}
	return hdr, true, nil
}
