package adpcm

import (
	"bytes"
	"context"
	"testing"
)

// TestDecodeRawMonoPreambleOnly covers the "empty output" scenario: a block
// containing nothing but the 4-byte preamble produces zero PCM bytes.
func TestDecodeRawMonoPreambleOnly(t *testing.T) {
	block := []byte{0x00, 0x00, 0x00, 0x00}
	got, err := DecodeRaw(context.Background(), block, len(block), false)
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("DecodeRaw() = % x, want empty", got)
	}
}

// TestDecodeRawMonoSingleByte covers the single-data-byte scenario: a
// zero-initialized mono block plus one data byte 0x77 must produce
// 0B 00 29 00.
func TestDecodeRawMonoSingleByte(t *testing.T) {
	block := []byte{0x00, 0x00, 0x00, 0x00, 0x77}
	got, err := DecodeRaw(context.Background(), block, len(block), false)
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	want := []byte{0x0B, 0x00, 0x29, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("DecodeRaw() = % x, want % x", got, want)
	}
}

func TestDecodeRawRejectsShortBlockSize(t *testing.T) {
	if _, err := DecodeRaw(context.Background(), []byte{0, 0, 0}, 3, false); err == nil {
		t.Fatal("expected error for block size smaller than preamble")
	}
}

// TestDecodeRawShortTrailingBlock covers a final block shorter than
// blockSize: the reference decoder decodes it as a smaller block rather
// than treating it as truncation, so a trailing block that still contains
// a full preamble plus one data byte must decode that byte.
func TestDecodeRawShortTrailingBlock(t *testing.T) {
	full := []byte{0x00, 0x00, 0x00, 0x00, 0x77, 0x00, 0x00, 0x00}
	short := []byte{0x00, 0x00, 0x00, 0x00, 0x77}
	data := append(append([]byte{}, full...), short...)
	got, err := DecodeRaw(context.Background(), data, len(full), false)
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	// full block: 4 data bytes -> 8 samples -> 16 bytes. short trailing
	// block: 1 data byte -> 2 samples -> 4 bytes.
	if len(got) != 16+4 {
		t.Fatalf("len(got) = %d, want %d", len(got), 16+4)
	}
	// Both blocks start from a fresh zeroed preamble, so the first sample
	// decoded in each matches the single-byte scenario above.
	if got[0] != 0x0B || got[1] != 0x00 {
		t.Errorf("full block first sample = % x, want 0b 00", got[0:2])
	}
	if got[16] != 0x0B || got[17] != 0x00 {
		t.Errorf("short block first sample = % x, want 0b 00", got[16:18])
	}
}

// TestDecodeRawRejectsTrailingBlockShorterThanPreamble covers the case
// where the final block doesn't even contain a full preamble.
func TestDecodeRawRejectsTrailingBlockShorterThanPreamble(t *testing.T) {
	data := make([]byte, 4+2)
	if _, err := DecodeRaw(context.Background(), data, 4, false); err == nil {
		t.Fatal("expected error for trailing block shorter than preamble")
	}
}

func TestStepIndexStaysInBounds(t *testing.T) {
	s := state{predictor: 0, stepIndex: 0, step: stepTable[0]}
	for n := uint8(0); n < 16; n++ {
		s.decodeNibble(n)
		if s.stepIndex < 0 || s.stepIndex > 88 {
			t.Fatalf("stepIndex = %d out of [0,88] after nibble %d", s.stepIndex, n)
		}
	}
}

func TestDecodeRawStereoInterleaves(t *testing.T) {
	// Two preambles (zeroed) followed by one 4-byte span for the left
	// channel then one 4-byte span for the right channel.
	block := make([]byte, 8+4+4)
	block[8] = 0x77 // first left nibble pair
	block[12] = 0x22 // first right nibble pair
	got, err := DecodeRaw(context.Background(), block, len(block), true)
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	// 4 bytes per channel span = 8 nibbles = 8 samples per channel -> 8
	// frames of L+R, 4 bytes each = 32 bytes.
	if len(got) != 8*4 {
		t.Fatalf("len(got) = %d, want %d", len(got), 8*4)
	}
	// First frame: left sample from nibble 0x7 (matches the mono scenario
	// above, 0x0B), right sample from nibble 0x2.
	if got[0] != 0x0B || got[1] != 0x00 {
		t.Errorf("first left sample = % x, want 0b 00", got[0:2])
	}
}
