package bits

// DecodeZigZag inverts the zigzag mapping FLAC's Rice coder uses to fold
// signed residuals onto non-negative unary/binary codes.
//
// Examples of zigzag-coded values on the left and decoded values on the
// right:
//
//	0 =>  0
//	1 => -1
//	2 =>  1
//	3 => -2
//	4 =>  2
//	5 => -3
//	6 =>  3
//
// ref: https://developers.google.com/protocol-buffers/docs/encoding
func DecodeZigZag(u uint64) int32 {
	return int32(u>>1) ^ -int32(u&1)
}
