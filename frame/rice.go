package frame

import (
	"github.com/Hangman/TuningFork/internal/bits"
	"github.com/Hangman/TuningFork/internal/decodeerr"
)

// riceEscapeParam4 and riceEscapeParam5 are the all-ones Rice parameter
// values that signal "this partition uses raw unencoded residuals" for
// method 0 (4-bit parameters) and method 1 (5-bit parameters).
const (
	riceEscapeParam4 = 0xF
	riceEscapeParam5 = 0x1F
)

// decodeResidual reads a partitioned Rice-coded residual and writes it into
// dst[predOrder:len(dst)]. dst[0:predOrder] must already hold the warmup
// samples; len(dst) is the subframe's block size.
func decodeResidual(br *bits.Reader, dst []int32, predOrder int) error {
	method, err := br.ReadBits(2)
	if err != nil {
		return err
	}
	if method > 1 {
		return decodeerr.Newf(decodeerr.InvalidHeader, stage, "unknown residual coding method %d", method)
	}
	paramWidth := uint(4)
	escapeParam := uint64(riceEscapeParam4)
	if method == 1 {
		paramWidth = 5
		escapeParam = riceEscapeParam5
	}

	partOrderBits, err := br.ReadBits(4)
	if err != nil {
		return err
	}
	partOrder := uint(partOrderBits)
	numPartitions := 1 << partOrder
	blockSize := len(dst)
	if blockSize%numPartitions != 0 {
		return decodeerr.Newf(decodeerr.Corrupt, stage, "block size %d not divisible by %d partitions", blockSize, numPartitions)
	}
	partitionLen := blockSize / numPartitions
	if partitionLen <= predOrder {
		return decodeerr.Newf(decodeerr.Corrupt, stage, "first residual partition length %d too small for predictor order %d", partitionLen, predOrder)
	}

	pos := predOrder
	for p := 0; p < numPartitions; p++ {
		n := partitionLen
		if p == 0 {
			n -= predOrder
		}

		param, err := br.ReadBits(paramWidth)
		if err != nil {
			return err
		}
		if param == escapeParam {
			rawBitsVal, err := br.ReadBits(5)
			if err != nil {
				return err
			}
			rawBits := uint(rawBitsVal)
			for i := 0; i < n; i++ {
				if rawBits == 0 {
					dst[pos] = 0
				} else {
					v, err := br.ReadBits(rawBits)
					if err != nil {
						return err
					}
					dst[pos] = bits.SignExtend(v, rawBits)
				}
				pos++
			}
			continue
		}

		k := uint(param)
		for i := 0; i < n; i++ {
			q, err := br.ReadUnary()
			if err != nil {
				return err
			}
			var r uint64
			if k > 0 {
				r, err = br.ReadBits(k)
				if err != nil {
					return err
				}
			}
			u := q<<k | r
			dst[pos] = bits.DecodeZigZag(u)
			pos++
		}
	}
	if pos != blockSize {
		return decodeerr.Newf(decodeerr.Corrupt, stage, "residual decode consumed %d samples, want %d", pos, blockSize)
	}
	return nil
}
