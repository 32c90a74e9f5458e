package alu

import "math/bits"

// bitsMulU64 returns the 128-bit product of two unsigned 64-bit operands as
// (hi, lo), via math/bits.Mul64.
func bitsMulU64(a, b uint64) (hi, lo uint64) {
	hi, lo = bits.Mul64(a, b)
	return hi, lo
}

// bitsMulS64 returns the high/low words of a signed 64x64 multiplication.
func bitsMulS64(a, b int64) (hi, lo int64) {
	ua, ub := uint64(a), uint64(b)
	h, l := bits.Mul64(ua, ub)
	h -= uint64(a>>63) & ub
	h -= uint64(b>>63) & ua
	return int64(h), int64(l)
}
