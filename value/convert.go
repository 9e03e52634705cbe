package value

import "math"

// AsBool reads a Bool value. No implicit conversion from other kinds.
func (v *Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, errTypeMismatch(v.kind, "bool")
	}
	return v.num != 0, nil
}

// AsString reads a String value. Strings are opaque: never implicitly
// converted to or from numerics.
func (v *Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", errTypeMismatch(v.kind, "string")
	}
	return v.str, nil
}

// AsBytes reads a Bytes value. Bytes are opaque, same rule as AsString.
func (v *Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, errTypeMismatch(v.kind, "bytes")
	}
	out := make([]byte, len(v.bin))
	copy(out, v.bin)
	return out, nil
}

func (v *Value) AsPtr() (any, error) {
	if v.kind != KindPtr {
		return nil, errTypeMismatch(v.kind, "ptr")
	}
	return v.ptr, nil
}

// rawSigned returns the exact int64 this Value denotes, if it denotes an
// integer at all (signed or unsigned, in-range).
func (v *Value) rawSigned() (int64, bool) {
	switch {
	case v.kind.IsSigned():
		return int64(v.num), true
	case v.kind.IsInteger(): // unsigned
		if v.num > math.MaxInt64 {
			return 0, false
		}
		return int64(v.num), true
	default:
		return 0, false
	}
}

func (v *Value) rawUnsigned() (uint64, bool) {
	switch {
	case v.kind.IsSigned():
		s := int64(v.num)
		if s < 0 {
			return 0, false
		}
		return uint64(s), true
	case v.kind.IsInteger():
		return v.num, true
	default:
		return 0, false
	}
}

func fitsSigned(n int64, bits int) bool {
	min, max := signedRange(bits)
	return n >= min && n <= max
}

func signedRange(bits int) (int64, int64) {
	switch bits {
	case 8:
		return math.MinInt8, math.MaxInt8
	case 16:
		return math.MinInt16, math.MaxInt16
	case 32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

func fitsUnsigned(n uint64, bits int) bool {
	switch bits {
	case 8:
		return n <= math.MaxUint8
	case 16:
		return n <= math.MaxUint16
	case 32:
		return n <= math.MaxUint32
	default:
		return true
	}
}

// AsI64 converts an integer or float Value to int64. Integer narrowing
// succeeds iff the value fits (checked per-width by AsI8/.../AsI32); widening
// between integer kinds always succeeds. Float->integer succeeds iff
// the float is integral and in int64's range.
func (v *Value) AsI64() (int64, error) {
	if n, ok := v.rawSigned(); ok {
		return n, nil
	}
	if n, ok := v.rawUnsigned(); ok { // unsigned > MaxInt64
		return 0, errOutOfRange(n, "i64")
	}
	if v.kind.IsFloat() {
		f, _ := v.rawFloat64()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, errOutOfRange(f, "i64")
		}
		return int64(f), nil
	}
	return 0, errTypeMismatch(v.kind, "i64")
}

func (v *Value) AsU64() (uint64, error) {
	if n, ok := v.rawUnsigned(); ok {
		return n, nil
	}
	if n, ok := v.rawSigned(); ok { // negative signed
		return 0, errOutOfRange(n, "u64")
	}
	if v.kind.IsFloat() {
		f, _ := v.rawFloat64()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return 0, errOutOfRange(f, "u64")
		}
		return uint64(f), nil
	}
	return 0, errTypeMismatch(v.kind, "u64")
}

func (v *Value) AsI8() (int8, error) {
	n, err := v.AsI64()
	if err != nil {
		return 0, err
	}
	if !fitsSigned(n, 8) {
		return 0, errOutOfRange(n, "i8")
	}
	return int8(n), nil
}

func (v *Value) AsI16() (int16, error) {
	n, err := v.AsI64()
	if err != nil {
		return 0, err
	}
	if !fitsSigned(n, 16) {
		return 0, errOutOfRange(n, "i16")
	}
	return int16(n), nil
}

func (v *Value) AsI32() (int32, error) {
	n, err := v.AsI64()
	if err != nil {
		return 0, err
	}
	if !fitsSigned(n, 32) {
		return 0, errOutOfRange(n, "i32")
	}
	return int32(n), nil
}

func (v *Value) AsU8() (uint8, error) {
	n, err := v.AsU64()
	if err != nil {
		return 0, err
	}
	if !fitsUnsigned(n, 8) {
		return 0, errOutOfRange(n, "u8")
	}
	return uint8(n), nil
}

func (v *Value) AsU16() (uint16, error) {
	n, err := v.AsU64()
	if err != nil {
		return 0, err
	}
	if !fitsUnsigned(n, 16) {
		return 0, errOutOfRange(n, "u16")
	}
	return uint16(n), nil
}

func (v *Value) AsU32() (uint32, error) {
	n, err := v.AsU64()
	if err != nil {
		return 0, err
	}
	if !fitsUnsigned(n, 32) {
		return 0, errOutOfRange(n, "u32")
	}
	return uint32(n), nil
}

func (v *Value) rawFloat64() (float64, bool) {
	switch v.kind {
	case KindF64:
		return math.Float64frombits(v.num), true
	case KindF32:
		return float64(math.Float32frombits(uint32(v.num))), true
	default:
		return 0, false
	}
}

// AsF64 converts to float64. Integer->float succeeds iff the integer is
// exactly representable in float64's 53-bit mantissa.
func (v *Value) AsF64() (float64, error) {
	if f, ok := v.rawFloat64(); ok {
		return f, nil
	}
	if n, ok := v.rawSigned(); ok {
		f := float64(n)
		if int64(f) != n {
			return 0, errOutOfRange(n, "f64 (not exactly representable)")
		}
		return f, nil
	}
	if n, ok := v.rawUnsigned(); ok {
		f := float64(n)
		if uint64(f) != n {
			return 0, errOutOfRange(n, "f64 (not exactly representable)")
		}
		return f, nil
	}
	return 0, errTypeMismatch(v.kind, "f64")
}

// AsF32 converts to float32, exact-representability checked against
// float32's 24-bit mantissa.
func (v *Value) AsF32() (float32, error) {
	switch v.kind {
	case KindF32:
		return math.Float32frombits(uint32(v.num)), nil
	case KindF64:
		f := math.Float64frombits(v.num)
		f32 := float32(f)
		if float64(f32) != f {
			return 0, errOutOfRange(f, "f32 (not exactly representable)")
		}
		return f32, nil
	}
	if n, ok := v.rawSigned(); ok {
		f32 := float32(n)
		if int64(f32) != n {
			return 0, errOutOfRange(n, "f32 (not exactly representable)")
		}
		return f32, nil
	}
	if n, ok := v.rawUnsigned(); ok {
		f32 := float32(n)
		if uint64(f32) != n {
			return 0, errOutOfRange(n, "f32 (not exactly representable)")
		}
		return f32, nil
	}
	return 0, errTypeMismatch(v.kind, "f32")
}
