// Package wave walks a RIFF/WAVE container to locate the "fmt " and "data"
// chunks needed to decode embedded IMA ADPCM. It does not interpret any
// other chunk (LIST, fact, and similar are skipped by length), mirroring
// the metadata walker's skip-unknown-blocks discipline.
package wave

import (
	"encoding/binary"
	"io"

	"github.com/Hangman/TuningFork/internal/decodeerr"
)

const stage = "wave"

// FormatTagIMAADPCM is the WAVE format tag for IMA ADPCM.
const FormatTagIMAADPCM = 0x0011

// formatTagExtensible signals a 22-byte extension carrying a sub-format
// GUID whose leading 2 bytes are the real format tag.
const formatTagExtensible = 0xFFFE

// Format is the parsed payload of a "fmt " chunk.
type Format struct {
	Tag           uint16
	NumChannels   uint16
	SampleRate    uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// File holds the two chunks this decoder cares about.
type File struct {
	Format Format
	Data   []byte
}

// Walk reads a RIFF/WAVE container from r, locating the "fmt " and "data"
// chunks. Any other chunk is skipped by its declared length.
func Walk(r io.Reader) (*File, error) {
	var riffHdr [12]byte
	if _, err := io.ReadFull(r, riffHdr[:]); err != nil {
		return nil, decodeerr.Wrap(err, decodeerr.UnexpectedEOF, stage)
	}
	if string(riffHdr[0:4]) != "RIFF" {
		return nil, decodeerr.Newf(decodeerr.InvalidMagic, stage, "expected RIFF, got %q", riffHdr[0:4])
	}
	if string(riffHdr[8:12]) != "WAVE" {
		return nil, decodeerr.Newf(decodeerr.InvalidMagic, stage, "expected WAVE, got %q", riffHdr[8:12])
	}

	var f File
	var haveFormat, haveData bool
	for !haveFormat || !haveData {
		var chunkHdr [8]byte
		if _, err := io.ReadFull(r, chunkHdr[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, decodeerr.Wrap(err, decodeerr.UnexpectedEOF, stage)
		}
		id := string(chunkHdr[0:4])
		size := binary.LittleEndian.Uint32(chunkHdr[4:8])

		switch id {
		case "fmt ":
			format, err := readFormat(r, size)
			if err != nil {
				return nil, err
			}
			f.Format = format
			haveFormat = true
		case "data":
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, decodeerr.Wrap(err, decodeerr.UnexpectedEOF, stage)
			}
			f.Data = data
			haveData = true
		default:
			if err := skip(r, size); err != nil {
				return nil, err
			}
		}
		if size%2 == 1 {
			// RIFF chunks are word-aligned; odd-length payloads carry a pad byte.
			if err := skip(r, 1); err != nil {
				return nil, err
			}
		}
	}

	if !haveFormat {
		return nil, decodeerr.New(decodeerr.Corrupt, stage, "missing fmt chunk")
	}
	if !haveData {
		return nil, decodeerr.New(decodeerr.Corrupt, stage, "missing data chunk")
	}
	if err := validateFormat(f.Format); err != nil {
		return nil, err
	}
	return &f, nil
}

func readFormat(r io.Reader, size uint32) (Format, error) {
	if size < 16 {
		return Format{}, decodeerr.Newf(decodeerr.Corrupt, stage, "fmt chunk too small: %d bytes", size)
	}
	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Format{}, decodeerr.Wrap(err, decodeerr.UnexpectedEOF, stage)
	}
	f := Format{
		Tag:           binary.LittleEndian.Uint16(raw[0:2]),
		NumChannels:   binary.LittleEndian.Uint16(raw[2:4]),
		SampleRate:    binary.LittleEndian.Uint32(raw[4:8]),
		BlockAlign:    binary.LittleEndian.Uint16(raw[12:14]),
		BitsPerSample: binary.LittleEndian.Uint16(raw[14:16]),
	}
	if f.Tag == formatTagExtensible && len(raw) >= 18+2 {
		// cbSize(2) at raw[16:18], validBitsPerSample(2) at raw[18:20],
		// channel mask(4), then a 16-byte sub-format GUID whose first 2
		// bytes are the real format tag.
		if len(raw) >= 16+2+22 {
			f.Tag = binary.LittleEndian.Uint16(raw[16+2+6:])
		}
	}
	return f, nil
}

func validateFormat(f Format) error {
	if f.Tag != FormatTagIMAADPCM {
		return decodeerr.Newf(decodeerr.UnsupportedFeature, stage, "unsupported WAVE format tag 0x%04X", f.Tag)
	}
	if f.NumChannels != 1 && f.NumChannels != 2 {
		return decodeerr.Newf(decodeerr.UnsupportedFeature, stage, "unsupported channel count %d", f.NumChannels)
	}
	return nil
}

func skip(r io.Reader, n uint32) error {
	if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
		return decodeerr.Wrap(err, decodeerr.UnexpectedEOF, stage)
	}
	return nil
}
