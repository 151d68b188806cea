package frame

import "github.com/Hangman/TuningFork/internal/decodeerr"

// fixedCoeffs holds the fixed predictor coefficients for orders 0-4, per the
// FLAC format's built-in fixed predictors.
var fixedCoeffs = [5][]int32{
	0: {},
	1: {1},
	2: {2, -1},
	3: {3, -3, 1},
	4: {4, -6, 4, -1},
}

// reconstructFixed applies a fixed predictor of order len(coeffs) to the
// residuals already stored in dst[order:], turning them into decoded
// samples in place. dst[0:order] holds the warmup samples.
func reconstructFixed(dst []int32, order int) {
	coeffs := fixedCoeffs[order]
	reconstructLPC(dst, coeffs, 0)
}

// reconstructLPC applies a quantized LPC predictor of order len(coeffs),
// right-shifted by shift, to the residuals already stored in
// dst[len(coeffs):], turning them into decoded samples in place.
func reconstructLPC(dst []int32, coeffs []int32, shift uint) {
	order := len(coeffs)
	for i := order; i < len(dst); i++ {
		var sum int64
		for j, c := range coeffs {
			sum += int64(c) * int64(dst[i-1-j])
		}
		dst[i] += int32(sum >> shift)
	}
}

// validateLPCShift validates the raw 5-bit LPC shift field. A shift field whose
// top bit is set (negative shift, per the format's two's-complement
// encoding) has no meaningful interpretation for a right-shift predictor and
// is rejected rather than silently reinterpreted.
func validateLPCShift(raw uint64) (uint, error) {
	if raw&0x10 != 0 {
		return 0, decodeerr.Newf(decodeerr.InvalidHeader, stage, "negative LPC shift %d is not supported", int8(raw|0xE0))
	}
	return uint(raw), nil
}
