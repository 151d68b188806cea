package frame

import (
	"bytes"
	"testing"

	"github.com/icza/bitio"

	"github.com/Hangman/TuningFork/internal/bits"
)

// TestDecodeResidualSinglePartition builds a single-partition (partition
// order 0), non-escape Rice-coded residual with predictor order 0 and
// checks the decoded values round-trip through decodeResidual.
func TestDecodeResidualSinglePartition(t *testing.T) {
	// Residual samples, pre-zigzag: 0, -1, 1, -2.
	samples := []int32{0, -1, 1, -2}
	const k = 1

	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	// method = 0 (4-bit parameter width).
	if err := bw.WriteBits(0, 2); err != nil {
		t.Fatal(err)
	}
	// partition_order = 0.
	if err := bw.WriteBits(0, 4); err != nil {
		t.Fatal(err)
	}
	// rice parameter k, 4 bits.
	if err := bw.WriteBits(k, 4); err != nil {
		t.Fatal(err)
	}
	for _, s := range samples {
		u := zigzagEncodeForTest(s)
		q := u >> k
		r := u & (1<<k - 1)
		for ; q > 0; q-- {
			if err := bw.WriteBool(false); err != nil {
				t.Fatal(err)
			}
		}
		if err := bw.WriteBool(true); err != nil {
			t.Fatal(err)
		}
		if err := bw.WriteBits(r, k); err != nil {
			t.Fatal(err)
		}
	}
	if err := bw.Close(); err != nil {
		t.Fatal(err)
	}

	br := bits.NewReader(&buf)
	dst := make([]int32, len(samples))
	if err := decodeResidual(br, dst, 0); err != nil {
		t.Fatalf("decodeResidual: %v", err)
	}
	for i, want := range samples {
		if dst[i] != want {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want)
		}
	}
}

func zigzagEncodeForTest(s int32) uint64 {
	u := uint64(s) << 1
	if s < 0 {
		u = uint64(-s)<<1 - 1
	}
	return u
}

func TestDecodeResidualEscape(t *testing.T) {
	samples := []int32{-5, 7, 0}
	const rawBits = 5

	var buf bytes.Buffer
	bw := bitio.NewWriter(&buf)
	if err := bw.WriteBits(0, 2); err != nil { // method 0
		t.Fatal(err)
	}
	if err := bw.WriteBits(0, 4); err != nil { // partition_order 0
		t.Fatal(err)
	}
	if err := bw.WriteBits(riceEscapeParam4, 4); err != nil {
		t.Fatal(err)
	}
	if err := bw.WriteBits(rawBits, 5); err != nil {
		t.Fatal(err)
	}
	for _, s := range samples {
		if err := bw.WriteBits(uint64(uint32(s))&(1<<rawBits-1), rawBits); err != nil {
			t.Fatal(err)
		}
	}
	if err := bw.Close(); err != nil {
		t.Fatal(err)
	}

	br := bits.NewReader(&buf)
	dst := make([]int32, len(samples))
	if err := decodeResidual(br, dst, 0); err != nil {
		t.Fatalf("decodeResidual: %v", err)
	}
	for i, want := range samples {
		if dst[i] != want {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want)
		}
	}
}
