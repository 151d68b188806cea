// Package meta parses the leading metadata section of a FLAC stream: the
// "fLaC" magic, the mandatory STREAMINFO block, and any blocks that follow
// it. Only STREAMINFO is decoded into a structured type; every other block
// (PADDING, APPLICATION, SEEKTABLE, VORBIS_COMMENT, CUESHEET, PICTURE) is
// skipped by its declared length, since this decoder does not interpret
// metadata beyond what the frame decoder needs to proceed.
package meta

import (
	"encoding/binary"
	"io"

	"github.com/Hangman/TuningFork/internal/decodeerr"
)

const stage = "meta"

// FlacMagic is the four-byte signature every FLAC stream begins with.
const FlacMagic = "fLaC"

// BlockType identifies the kind of metadata block a header precedes.
type BlockType uint8

// Metadata block types, per the FLAC format.
const (
	TypeStreamInfo BlockType = iota
	TypePadding
	TypeApplication
	TypeSeekTable
	TypeVorbisComment
	TypeCueSheet
	TypePicture
)

// BlockHeader precedes every metadata block: a last-block flag, a type, and
// a 24-bit payload length.
type BlockHeader struct {
	IsLast bool
	Type   BlockType
	Length uint32
}

// StreamInfo is the mandatory first metadata block of a FLAC stream. It
// describes the stream's block-size and frame-size bounds, sample rate,
// channel count, bit depth, and total sample count.
type StreamInfo struct {
	// MinBlockSize and MaxBlockSize bound the block size (in samples) used
	// by any frame in the stream.
	MinBlockSize, MaxBlockSize uint16
	// MinFrameSize and MaxFrameSize bound the frame size (in bytes); 0 means
	// unknown.
	MinFrameSize, MaxFrameSize uint32
	// SampleRate in Hz.
	SampleRate uint32
	// NumChannels is between 1 and 8.
	NumChannels uint8
	// BitsPerSample is between 4 and 32.
	BitsPerSample uint8
	// NumSamples is the total inter-channel sample count; 0 means unknown.
	NumSamples uint64
	// MD5sum is the MD5 of the unencoded audio data. Read but never
	// verified by this decoder.
	MD5sum [16]byte
}

// ReadBlockHeader reads one 4-byte metadata block header.
func ReadBlockHeader(r io.Reader) (BlockHeader, error) {
	var raw [4]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return BlockHeader{}, decodeerr.Wrap(err, decodeerr.UnexpectedEOF, stage)
	}
	hdr := BlockHeader{
		IsLast: raw[0]&0x80 != 0,
		Type:   BlockType(raw[0] & 0x7F),
		Length: uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]),
	}
	return hdr, nil
}

// ReadStreamInfo parses the 34-byte STREAMINFO payload.
//
// Layout (big-endian): min_block_size:16, max_block_size:16,
// min_frame_size:24, max_frame_size:24, sample_rate:20, channels:3
// (0-based), bits_per_sample:5 (0-based), total_samples:36, md5:128.
func ReadStreamInfo(r io.Reader) (*StreamInfo, error) {
	var raw [34]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, decodeerr.Wrap(err, decodeerr.UnexpectedEOF, stage)
	}

	si := new(StreamInfo)
	si.MinBlockSize = binary.BigEndian.Uint16(raw[0:2])
	si.MaxBlockSize = binary.BigEndian.Uint16(raw[2:4])
	si.MinFrameSize = uint32(raw[4])<<16 | uint32(raw[5])<<8 | uint32(raw[6])
	si.MaxFrameSize = uint32(raw[7])<<16 | uint32(raw[8])<<8 | uint32(raw[9])

	// sample_rate(20) | channels(3) | bits_per_sample(5) | total_samples(36)
	// spans bytes 10..17 (64 bits).
	bits := binary.BigEndian.Uint64(raw[10:18])
	si.SampleRate = uint32(bits >> 44)
	si.NumChannels = uint8((bits>>41)&0x7) + 1
	si.BitsPerSample = uint8((bits>>36)&0x1F) + 1
	si.NumSamples = bits & (1<<36 - 1)

	copy(si.MD5sum[:], raw[18:34])

	if si.MinBlockSize > si.MaxBlockSize {
		return nil, decodeerr.Newf(decodeerr.Corrupt, stage, "min block size %d exceeds max block size %d", si.MinBlockSize, si.MaxBlockSize)
	}
	if si.NumChannels < 1 || si.NumChannels > 8 {
		return nil, decodeerr.Newf(decodeerr.Corrupt, stage, "invalid channel count %d", si.NumChannels)
	}
	if si.BitsPerSample < 4 || si.BitsPerSample > 32 {
		return nil, decodeerr.Newf(decodeerr.Corrupt, stage, "invalid bits per sample %d", si.BitsPerSample)
	}
	return si, nil
}

// Parse consumes the "fLaC" magic, the mandatory leading STREAMINFO block,
// and every metadata block that follows (skipped by length), returning the
// parsed StreamInfo. r is left positioned at the start of the first audio
// frame.
func Parse(r io.Reader) (*StreamInfo, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, decodeerr.Wrap(err, decodeerr.InvalidMagic, stage)
	}
	if string(magic[:]) != FlacMagic {
		return nil, decodeerr.Newf(decodeerr.InvalidMagic, stage, "expected %q, got %q", FlacMagic, magic)
	}

	hdr, err := ReadBlockHeader(r)
	if err != nil {
		return nil, err
	}
	if hdr.Type != TypeStreamInfo {
		return nil, decodeerr.Newf(decodeerr.InvalidHeader, stage, "first metadata block must be STREAMINFO, got type %d", hdr.Type)
	}
	if hdr.Length != 34 {
		return nil, decodeerr.Newf(decodeerr.Corrupt, stage, "STREAMINFO length must be 34, got %d", hdr.Length)
	}
	si, err := ReadStreamInfo(r)
	if err != nil {
		return nil, err
	}

	for !hdr.IsLast {
		hdr, err = ReadBlockHeader(r)
		if err != nil {
			return nil, err
		}
		if err := skip(r, int64(hdr.Length)); err != nil {
			return nil, err
		}
	}
	return si, nil
}

// skip discards n bytes without requiring the reader to support io.Seeker,
// since both the in-memory decode path (bytes.Reader) and a streaming
// io.Reader must work here.
func skip(r io.Reader, n int64) error {
	_, err := io.CopyN(io.Discard, r, n)
	if err != nil {
		return decodeerr.Wrap(err, decodeerr.UnexpectedEOF, stage)
	}
	return nil
}
