package fpu

import "math"

// --- single precision; mirrors fpu.go's double-precision set ---

func AddS(a, b float32) (float32, Flags) {
	r := a + b
	return r, flagsFrom32(a, b, r)
}

func SubS(a, b float32) (float32, Flags) { return AddS(a, -b) }

func MulS(a, b float32) (float32, Flags) {
	r := a * b
	f := flagsFrom32(a, b, r)
	if (a == 0 && isInf32(b)) || (b == 0 && isInf32(a)) {
		f |= FlagNV
	}
	return r, f
}

func DivS(a, b float32) (float32, Flags) {
	r := a / b
	f := flagsFrom32(a, b, r)
	if b == 0 && !isNaN32(a) {
		f |= FlagDZ
	}
	return r, f
}

func SqrtS(a float32) (float32, Flags) {
	r := float32(math.Sqrt(float64(a)))
	var f Flags
	if a < 0 {
		f |= FlagNV
	}
	return r, f
}

func MinS(a, b float32) (float32, Flags) {
	var f Flags
	if isNaN32(a) || isNaN32(b) {
		f |= FlagNV
	}
	if isNaN32(a) && isNaN32(b) {
		return float32(math.NaN()), f
	}
	if isNaN32(a) {
		return b, f
	}
	if isNaN32(b) {
		return a, f
	}
	if a < b {
		return a, f
	}
	return b, f
}

func MaxS(a, b float32) (float32, Flags) {
	var f Flags
	if isNaN32(a) || isNaN32(b) {
		f |= FlagNV
	}
	if isNaN32(a) && isNaN32(b) {
		return float32(math.NaN()), f
	}
	if isNaN32(a) {
		return b, f
	}
	if isNaN32(b) {
		return a, f
	}
	if a > b {
		return a, f
	}
	return b, f
}

// FmaS mirrors FmaD at single precision, promoting to float64 for the
// fused multiply-add itself since Go has no native float32 FMA.
func FmaS(a, b, c float32) (float32, Flags) {
	r := float32(math.FMA(float64(a), float64(b), float64(c)))
	var f Flags
	if isNaN32(a) || isNaN32(b) || isNaN32(c) {
		f |= FlagNV
	} else if isNaN32(r) {
		f |= FlagNV
	}
	if (a == 0 && isInf32(b)) || (b == 0 && isInf32(a)) {
		f |= FlagNV
	}
	if isInf32(r) && !isInf32(a) && !isInf32(b) && !isInf32(c) {
		f |= FlagOF
	}
	return r, f
}

func SgnjS(a, b float32) float32  { return float32(math.Copysign(float64(a), float64(b))) }
func SgnjnS(a, b float32) float32 { return float32(math.Copysign(float64(a), -float64(b))) }
func SgnjxS(a, b float32) float32 {
	if math.Signbit(float64(a)) != math.Signbit(float64(b)) {
		return -a
	}
	return a
}

func EqS(a, b float32) (bool, Flags) {
	if isNaN32(a) || isNaN32(b) {
		return false, FlagNV
	}
	return a == b, 0
}

func LtS(a, b float32) (bool, Flags) {
	if isNaN32(a) || isNaN32(b) {
		return false, FlagNV
	}
	return a < b, 0
}

func LeS(a, b float32) (bool, Flags) {
	if isNaN32(a) || isNaN32(b) {
		return false, FlagNV
	}
	return a <= b, 0
}

func ClassS(a float32) uint64 {
	return ClassD(float64(a))
}

func isNaN32(v float32) bool { return v != v }
func isInf32(v float32) bool { return math.IsInf(float64(v), 0) }

func flagsFrom32(a, b, r float32) Flags {
	var f Flags
	if isNaN32(a) || isNaN32(b) {
		f |= FlagNV
	} else if isNaN32(r) {
		f |= FlagNV
	}
	if isInf32(r) && !isInf32(a) && !isInf32(b) {
		f |= FlagOF
	}
	return f
}

// --- conversions ---

func F64ToF32(a float64) (float32, Flags) {
	r := float32(a)
	var f Flags
	if math.IsInf(float64(r), 0) && !math.IsInf(a, 0) {
		f |= FlagOF
	}
	return r, f
}

func F32ToF64(a float32) float64 { return float64(a) }

func F64ToI32(a float64) (int32, Flags) {
	if math.IsNaN(a) {
		return math.MaxInt32, FlagNV
	}
	if a >= math.MaxInt32 {
		return math.MaxInt32, FlagNV
	}
	if a <= math.MinInt32 {
		return math.MinInt32, FlagNV
	}
	return int32(a), 0
}

func F64ToU32(a float64) (uint32, Flags) {
	if math.IsNaN(a) || a < 0 {
		if a < 0 && !math.IsNaN(a) {
			return 0, FlagNV
		}
		return math.MaxUint32, FlagNV
	}
	if a >= math.MaxUint32 {
		return math.MaxUint32, FlagNV
	}
	return uint32(a), 0
}

func F64ToI64(a float64) (int64, Flags) {
	if math.IsNaN(a) {
		return math.MaxInt64, FlagNV
	}
	if a >= 9223372036854775807.0 {
		return math.MaxInt64, FlagNV
	}
	if a < -9223372036854775808.0 {
		return math.MinInt64, FlagNV
	}
	return int64(a), 0
}

func F64ToU64(a float64) (uint64, Flags) {
	if math.IsNaN(a) || a < 0 {
		if a < 0 && !math.IsNaN(a) {
			return 0, FlagNV
		}
		return math.MaxUint64, FlagNV
	}
	if a >= 18446744073709551615.0 {
		return math.MaxUint64, FlagNV
	}
	return uint64(a), 0
}

func I32ToF64(a int32) float64  { return float64(a) }
func U32ToF64(a uint32) float64 { return float64(a) }
func I64ToF64(a int64) float64  { return float64(a) }
func U64ToF64(a uint64) float64 { return float64(a) }
