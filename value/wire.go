package value

import (
	"math"

	"github.com/tinylib/msgp/msgp"
)

// MarshalMsg appends v's compact binary wire encoding (used by the
// msgpack-based protocol wire format) to b. A one-byte kind tag
// precedes each value's msgpack-encoded payload so width-specific kinds
// (I8 vs I64, etc.) survive the round trip even though msgpack itself only
// distinguishes wire families, not the original language type.
func (v *Value) MarshalMsg(b []byte) (o []byte, err error) {
	o = append(b, byte(v.kind))
	switch v.kind {
	case KindNull:
		return msgp.AppendNil(o), nil
	case KindBool:
		return msgp.AppendBool(o, v.num != 0), nil
	case KindI8, KindI16, KindI32, KindI64:
		n, _ := v.rawSigned()
		return msgp.AppendInt64(o, n), nil
	case KindU8, KindU16, KindU32, KindU64:
		n, _ := v.rawUnsigned()
		return msgp.AppendUint64(o, n), nil
	case KindF32:
		f, _ := v.rawFloat64()
		return msgp.AppendFloat32(o, float32(f)), nil
	case KindF64:
		f, _ := v.rawFloat64()
		return msgp.AppendFloat64(o, f), nil
	case KindString:
		return msgp.AppendString(o, v.str), nil
	case KindBytes:
		return msgp.AppendBytes(o, v.bin), nil
	case KindPtr:
		return nil, newErr(InvalidJSON, "cannot serialise an opaque ptr value to wire format")
	case KindArray:
		o = msgp.AppendArrayHeader(o, uint32(len(v.arr)))
		for _, e := range v.arr {
			o, err = e.MarshalMsg(o)
			if err != nil {
				return nil, err
			}
		}
		return o, nil
	case KindObject:
		keys := v.obj.keyList()
		o = msgp.AppendMapHeader(o, uint32(len(keys)))
		for _, k := range keys {
			o = msgp.AppendString(o, k)
			o, err = v.obj.get(k).MarshalMsg(o)
			if err != nil {
				return nil, err
			}
		}
		return o, nil
	default:
		return nil, newErr(InvalidJSON, "unknown kind %s", v.kind)
	}
}

// UnmarshalMsg decodes a Value previously produced by MarshalMsg from the
// front of bts, returning the unconsumed remainder.
func (v *Value) UnmarshalMsg(bts []byte) (o []byte, err error) {
	if len(bts) == 0 {
		return nil, newErr(InvalidJSON, "empty wire buffer")
	}
	kind := Kind(bts[0])
	o = bts[1:]
	v.kind = kind
	switch kind {
	case KindNull:
		return msgp.ReadNilBytes(o)
	case KindBool:
		b, rest, err := msgp.ReadBoolBytes(o)
		if err != nil {
			return nil, err
		}
		if b {
			v.num = 1
		}
		return rest, nil
	case KindI8, KindI16, KindI32, KindI64:
		n, rest, err := msgp.ReadInt64Bytes(o)
		if err != nil {
			return nil, err
		}
		v.num = uint64(n)
		return rest, nil
	case KindU8, KindU16, KindU32, KindU64:
		n, rest, err := msgp.ReadUint64Bytes(o)
		if err != nil {
			return nil, err
		}
		v.num = n
		return rest, nil
	case KindF32:
		f, rest, err := msgp.ReadFloat32Bytes(o)
		if err != nil {
			return nil, err
		}
		v.num = uint64(math.Float32bits(f))
		return rest, nil
	case KindF64:
		f, rest, err := msgp.ReadFloat64Bytes(o)
		if err != nil {
			return nil, err
		}
		v.num = math.Float64bits(f)
		return rest, nil
	case KindString:
		s, rest, err := msgp.ReadStringBytes(o)
		if err != nil {
			return nil, err
		}
		v.str = s
		return rest, nil
	case KindBytes:
		b, rest, err := msgp.ReadBytesBytes(o, nil)
		if err != nil {
			return nil, err
		}
		v.bin = b
		return rest, nil
	case KindArray:
		n, rest, err := msgp.ReadArrayHeaderBytes(o)
		if err != nil {
			return nil, err
		}
		arr := make([]*Value, n)
		for i := range arr {
			e := &Value{}
			rest, err = e.UnmarshalMsg(rest)
			if err != nil {
				return nil, err
			}
			arr[i] = e
		}
		v.arr = arr
		return rest, nil
	case KindObject:
		n, rest, err := msgp.ReadMapHeaderBytes(o)
		if err != nil {
			return nil, err
		}
		obj := newOMap()
		for i := uint32(0); i < n; i++ {
			var key string
			key, rest, err = msgp.ReadStringBytes(rest)
			if err != nil {
				return nil, err
			}
			e := &Value{}
			rest, err = e.UnmarshalMsg(rest)
			if err != nil {
				return nil, err
			}
			obj.set(key, e)
		}
		v.obj = obj
		return rest, nil
	default:
		return nil, newErr(InvalidJSON, "unknown wire kind tag %d", kind)
	}
}

// ToWire is the spec's to_wire(format) restricted to the one wire format
// this module implements: msgpack.
func (v *Value) ToWire() ([]byte, error) { return v.MarshalMsg(nil) }

// FromWire is the spec's from_wire(format, bytes) counterpart to ToWire.
func FromWire(data []byte) (*Value, error) {
	v := &Value{}
	rest, err := v.UnmarshalMsg(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, newErr(InvalidJSON, "%d trailing bytes after wire value", len(rest))
	}
	return v, nil
}
