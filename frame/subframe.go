package frame

import (
	"github.com/Hangman/TuningFork/internal/bits"
	"github.com/Hangman/TuningFork/internal/decodeerr"
)

// predictorKind identifies which of the four subframe predictors a subframe
// header selects.
type predictorKind uint8

const (
	predConstant predictorKind = iota
	predVerbatim
	predFixed
	predLPC
)

type subframeHeader struct {
	kind       predictorKind
	order      int
	wastedBits uint
}

// readSubframeHeader reads the subframe header: a pad bit (skipped without
// validation), a 6-bit type code, and a wasted-bits-per-sample unary flag.
func readSubframeHeader(br *bits.Reader) (subframeHeader, error) {
	v, err := br.ReadBits(8)
	if err != nil {
		return subframeHeader{}, err
	}
	typeCode := uint8(v >> 1 & 0x3F)
	hasWasted := v&0x1 != 0

	var hdr subframeHeader
	switch {
	case typeCode == 0:
		hdr.kind = predConstant
	case typeCode == 1:
		hdr.kind = predVerbatim
	case typeCode >= 8 && typeCode <= 12:
		hdr.kind = predFixed
		hdr.order = int(typeCode - 8)
	case typeCode >= 32:
		hdr.kind = predLPC
		hdr.order = int(typeCode&0x1F) + 1
	default:
		return subframeHeader{}, decodeerr.Newf(decodeerr.InvalidHeader, stage, "reserved subframe type code %06b", typeCode)
	}

	if hasWasted {
		n, err := br.ReadUnary()
		if err != nil {
			return subframeHeader{}, err
		}
		hdr.wastedBits = uint(n) + 1
	}
	return hdr, nil
}

// decodeSubframe decodes one channel's subframe into dst, a pre-sliced
// int32 buffer of length blockSize belonging to the caller's shared planar
// sample storage. bps is the number of significant bits for this channel's
// samples in this frame (already adjusted for mid/side widening by the
// caller).
func decodeSubframe(br *bits.Reader, dst []int32, bps uint) error {
	hdr, err := readSubframeHeader(br)
	if err != nil {
		return err
	}
	effBps := bps - hdr.wastedBits
	if hdr.wastedBits >= bps {
		return decodeerr.Newf(decodeerr.Corrupt, stage, "wasted bits %d leaves no sample bits (bps %d)", hdr.wastedBits, bps)
	}

	switch hdr.kind {
	case predConstant:
		v, err := br.ReadBits(effBps)
		if err != nil {
			return err
		}
		sample := bits.SignExtend(v, effBps)
		for i := range dst {
			dst[i] = sample
		}

	case predVerbatim:
		for i := range dst {
			v, err := br.ReadBits(effBps)
			if err != nil {
				return err
			}
			dst[i] = bits.SignExtend(v, effBps)
		}

	case predFixed:
		if hdr.order > len(dst) {
			return decodeerr.Newf(decodeerr.Corrupt, stage, "fixed predictor order %d exceeds block size %d", hdr.order, len(dst))
		}
		if err := readWarmup(br, dst[:hdr.order], effBps); err != nil {
			return err
		}
		if err := decodeResidual(br, dst, hdr.order); err != nil {
			return err
		}
		reconstructFixed(dst, hdr.order)

	case predLPC:
		if hdr.order > len(dst) {
			return decodeerr.Newf(decodeerr.Corrupt, stage, "LPC order %d exceeds block size %d", hdr.order, len(dst))
		}
		if err := readWarmup(br, dst[:hdr.order], effBps); err != nil {
			return err
		}
		precisionCode, err := br.ReadBits(4)
		if err != nil {
			return err
		}
		if precisionCode == 0xF {
			return decodeerr.New(decodeerr.InvalidHeader, stage, "reserved LPC precision code 1111")
		}
		precision := uint(precisionCode) + 1

		shiftRaw, err := br.ReadBits(5)
		if err != nil {
			return err
		}
		shift, err := validateLPCShift(shiftRaw)
		if err != nil {
			return err
		}

		coeffs := make([]int32, hdr.order)
		for i := range coeffs {
			v, err := br.ReadBits(precision)
			if err != nil {
				return err
			}
			coeffs[i] = bits.SignExtend(v, precision)
		}
		if err := decodeResidual(br, dst, hdr.order); err != nil {
			return err
		}
		reconstructLPC(dst, coeffs, shift)

	default:
		return decodeerr.Newf(decodeerr.UnsupportedFeature, stage, "unknown predictor kind %d", hdr.kind)
	}

	if hdr.wastedBits > 0 {
		for i := range dst {
			dst[i] <<= hdr.wastedBits
		}
	}
	return nil
}

func readWarmup(br *bits.Reader, dst []int32, bps uint) error {
	for i := range dst {
		v, err := br.ReadBits(bps)
		if err != nil {
			return err
		}
		dst[i] = bits.SignExtend(v, bps)
	}
	return nil
}
