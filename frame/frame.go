package frame

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"

	"github.com/mewkiz/pkg/hashutil/crc16"
	"github.com/mewkiz/pkg/hashutil/crc8"

	"github.com/Hangman/TuningFork/internal/bits"
	"github.com/Hangman/TuningFork/meta"
)

// Decoder decodes successive frames of a single FLAC stream, reusing a
// planar sample buffer across frames to avoid a per-frame allocation.
type Decoder struct {
	si           *meta.StreamInfo
	log          *slog.Logger
	expectedRate uint32
	buf          [][]int32 // [channel][sample], capacity si.MaxBlockSize
}

// NewDecoder returns a Decoder for a stream described by si. log may be nil,
// in which case diagnostic logging (CRC mismatches, per-frame trace) is
// suppressed.
func NewDecoder(si *meta.StreamInfo, log *slog.Logger) *Decoder {
	buf := make([][]int32, si.NumChannels)
	for i := range buf {
		buf[i] = make([]int32, si.MaxBlockSize)
	}
	return &Decoder{si: si, log: log, expectedRate: si.SampleRate, buf: buf}
}

// Next decodes the next frame from r. It reports ok=false with a nil error
// when r is cleanly exhausted at a frame boundary.
//
// ctx is checked once, before any bytes are read, so a cancelled context
// stops decoding at the next frame boundary without tearing down a frame
// already in progress.
//
// The returned [][]int32 aliases the Decoder's internal buffer and is only
// valid until the next call to Next.
func (d *Decoder) Next(ctx context.Context, r io.Reader) (samples [][]int32, hdr *Header, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, false, err
	}

	var capture bytes.Buffer
	tee := io.TeeReader(r, &capture)
	br := bits.NewReader(tee)

	hdr, ok, err = ReadHeader(br, d.si, d.expectedRate, d.log)
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	headerLen := capture.Len()
	d.checkHeaderCRC(capture.Bytes()[:headerLen])

	numCh := hdr.ChannelAssignment.NumChannels()
	frame := d.buf
	for i := range frame {
		frame[i] = d.buf[i][:hdr.BlockSize]
	}

	bps := uint(hdr.BitsPerSample)
	switch {
	case hdr.ChannelAssignment.Stereo():
		widenLeft, widenRight := uint(0), uint(0)
		switch hdr.ChannelAssignment {
		case LeftSide:
			widenRight = 1
		case RightSide:
			widenLeft = 1
		case MidSide:
			widenRight = 1
		}
		if err := decodeSubframe(br, frame[0][:hdr.BlockSize], bps+widenLeft); err != nil {
			return nil, nil, false, err
		}
		if err := decodeSubframe(br, frame[1][:hdr.BlockSize], bps+widenRight); err != nil {
			return nil, nil, false, err
		}
		applyDecorrelation(hdr.ChannelAssignment, frame[0][:hdr.BlockSize], frame[1][:hdr.BlockSize])

	default:
		for ch := 0; ch < numCh; ch++ {
			if err := decodeSubframe(br, frame[ch][:hdr.BlockSize], bps); err != nil {
				return nil, nil, false, err
			}
		}
	}

	br.AlignToByte()
	var footer [2]byte
	if err := br.ReadExact(footer[:]); err != nil {
		return nil, nil, false, err
	}
	body := capture.Bytes()[:capture.Len()-2]
	d.checkFooterCRC(body, binary.BigEndian.Uint16(footer[:]))

	out := make([][]int32, numCh)
	for i := 0; i < numCh; i++ {
		out[i] = frame[i][:hdr.BlockSize]
	}
	return out, hdr, true, nil
}

// checkHeaderCRC logs, at debug level, whether the header's CRC-8 trailer
// (last byte of headerBytes) matches the computed checksum of the bytes
// preceding it. Per §7/§9 a mismatch is diagnostic only and never fails
// decoding.
func (d *Decoder) checkHeaderCRC(headerBytes []byte) {
	if d.log == nil || len(headerBytes) == 0 {
		return
	}
	want := headerBytes[len(headerBytes)-1]
	h := crc8.NewATM()
	h.Write(headerBytes[:len(headerBytes)-1])
	got := h.Sum8()
	if got != want {
		d.log.Debug("frame header CRC-8 mismatch", "want", want, "got", got)
	}
}

// checkFooterCRC logs, at debug level, whether body's CRC-16 matches want.
// As with the header CRC, this is diagnostic only.
func (d *Decoder) checkFooterCRC(body []byte, want uint16) {
	if d.log == nil {
		return
	}
	got := crc16.ChecksumIBM(body)
	if got != want {
		d.log.Debug("frame footer CRC-16 mismatch", "want", want, "got", got)
	}
}

// applyDecorrelation reverses the inter-channel decorrelation mode in
// place, turning ch0/ch1 from their encoded roles (left/side, side/right,
// or mid/side) into left/right.
func applyDecorrelation(mode ChannelAssignment, ch0, ch1 []int32) {
	switch mode {
	case LeftSide:
		// ch0 = left, ch1 = side.
		for i := range ch0 {
			ch1[i] = ch0[i] - ch1[i]
		}
	case RightSide:
		// ch0 = side, ch1 = right.
		for i := range ch0 {
			ch0[i] = ch1[i] + ch0[i]
		}
	case MidSide:
		// ch0 = mid, ch1 = side.
		for i := range ch0 {
			mid, side := ch0[i], ch1[i]
			right := mid - (side >> 1)
			left := right + side
			ch0[i] = left
			ch1[i] = right
		}
	}
}
