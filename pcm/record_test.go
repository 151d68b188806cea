package pcm_test

import (
	"bytes"
	"testing"

	"github.com/Hangman/TuningFork/pcm"
)

func TestInterleaveStereo16Bit(t *testing.T) {
	left := []int32{1, -1}
	right := []int32{2, -2}
	got, err := pcm.Interleave([][]int32{left, right}, 16)
	if err != nil {
		t.Fatalf("Interleave: %v", err)
	}
	want := []byte{
		0x01, 0x00, 0x02, 0x00, // frame 0: L=1, R=2
		0xFF, 0xFF, 0xFE, 0xFF, // frame 1: L=-1, R=-2
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Interleave() = % x, want % x", got, want)
	}
}

func TestInterleaveRejectsUnsupportedChannelCount(t *testing.T) {
	planar := make([][]int32, 9)
	for i := range planar {
		planar[i] = []int32{0}
	}
	if _, err := pcm.Interleave(planar, 16); err == nil {
		t.Fatal("expected error for 9 channels")
	}
}
