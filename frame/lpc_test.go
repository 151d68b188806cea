package frame

import "testing"

// TestReconstructFixedOrder2 exercises the fixed predictor order 2 scenario:
// coefficients {2, -1}, warm-up samples [10, 12], and residuals that should
// reconstruct a linearly increasing sequence.
func TestReconstructFixedOrder2(t *testing.T) {
	// warm-up: 10, 12; residual (zero prediction error) should continue the
	// linear trend 10, 12, 14, 16, 18.
	dst := []int32{10, 12, 0, 0, 0}
	reconstructFixed(dst, 2)
	want := []int32{10, 12, 14, 16, 18}
	for i, w := range want {
		if dst[i] != w {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], w)
		}
	}
}

func TestReconstructLPCWithShift(t *testing.T) {
	// A single-tap predictor coef=2, shift=1 halves the doubled prior sample,
	// i.e. reconstructs a copy of the previous sample plus residual.
	dst := []int32{100, 3, 3, 3}
	reconstructLPC(dst, []int32{2}, 1)
	want := []int32{100, 103, 106, 109}
	for i, w := range want {
		if dst[i] != w {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], w)
		}
	}
}

func TestValidateLPCShiftRejectsNegative(t *testing.T) {
	// raw = 0b10001 has the top bit of the 5-bit field set: a negative shift.
	if _, err := validateLPCShift(0x11); err == nil {
		t.Fatal("expected error for negative LPC shift")
	}
}

func TestValidateLPCShiftAcceptsNonNegative(t *testing.T) {
	got, err := validateLPCShift(12)
	if err != nil {
		t.Fatalf("validateLPCShift: %v", err)
	}
	if got != 12 {
		t.Errorf("shift = %d, want 12", got)
	}
}
