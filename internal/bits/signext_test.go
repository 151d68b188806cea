package bits

import "testing"

func TestSignExtend(t *testing.T) {
	golden := []struct {
		x    uint64
		n    uint
		want int32
	}{
		{x: 0b011, n: 3, want: 3},
		{x: 0b010, n: 3, want: 2},
		{x: 0b001, n: 3, want: 1},
		{x: 0b000, n: 3, want: 0},
		{x: 0b111, n: 3, want: -1},
		{x: 0b110, n: 3, want: -2},
		{x: 0b101, n: 3, want: -3},
		{x: 0b100, n: 3, want: -4},
		{x: 0xFF, n: 8, want: -1},
		{x: 0x7F, n: 8, want: 127},
	}
	for _, g := range golden {
		got := SignExtend(g.x, g.n)
		if g.want != got {
			t.Errorf("SignExtend(0b%b, %d) = %d, want %d", g.x, g.n, got, g.want)
		}
	}
}

func TestSignExtendInvariant(t *testing.T) {
	// sign_extend(v, n) < 0 iff bit n-1 of v is set.
	for n := uint(1); n <= 32; n++ {
		for _, v := range []uint64{0, 1, 1 << (n - 1), (1 << n) - 1} {
			got := SignExtend(v, n)
			topSet := v&(1<<(n-1)) != 0
			if (got < 0) != topSet {
				t.Errorf("SignExtend(0b%b, %d) = %d; sign mismatch with top bit set=%v", v, n, got, topSet)
			}
		}
	}
}
