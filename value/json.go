package value

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// ToJSON serialises v to JSON. Ptr values are opaque and cannot cross a wire
// boundary: encoding one fails with an InvalidJSON error.
func (v *Value) ToJSON() ([]byte, error) {
	iface, err := v.toIface()
	if err != nil {
		return nil, err
	}
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(iface)
}

func (v *Value) toIface() (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.num != 0, nil
	case KindI8, KindI16, KindI32, KindI64:
		n, _ := v.rawSigned()
		return n, nil
	case KindU8, KindU16, KindU32, KindU64:
		n, _ := v.rawUnsigned()
		return n, nil
	case KindF32, KindF64:
		f, _ := v.rawFloat64()
		return f, nil
	case KindString:
		return v.str, nil
	case KindBytes:
		return v.bin, nil // jsoniter base64-encodes []byte, same as encoding/json
	case KindPtr:
		return nil, newErr(InvalidJSON, "cannot serialise an opaque ptr value to JSON")
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			iv, err := e.toIface()
			if err != nil {
				return nil, err
			}
			out[i] = iv
		}
		return out, nil
	case KindObject:
		out := make(map[string]any, v.obj.len())
		for _, k := range v.obj.keyList() {
			iv, err := v.obj.get(k).toIface()
			if err != nil {
				return nil, err
			}
			out[k] = iv
		}
		return out, nil
	default:
		return nil, newErr(InvalidJSON, "unknown kind %s", v.kind)
	}
}

// FromJSON parses JSON into a Value tree, walking a streaming iterator so
// object key order matches the source document: objects preserve insertion
// order. Integral numbers decode to I64, non-integral to F64.
func FromJSON(data []byte) (*Value, error) {
	it := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, data)
	v, err := decodeIterValue(it)
	if err != nil {
		return nil, newErr(InvalidJSON, "%v", err)
	}
	return v, nil
}

func decodeIterValue(it *jsoniter.Iterator) (*Value, error) {
	switch it.WhatIsNext() {
	case jsoniter.NilValue:
		it.ReadNil()
		return NewNull(), nil
	case jsoniter.BoolValue:
		return NewBool(it.ReadBool()), nil
	case jsoniter.StringValue:
		return NewString(it.ReadString()), nil
	case jsoniter.NumberValue:
		raw := it.ReadNumber()
		if n, err := raw.Int64(); err == nil {
			return NewI64(n), nil
		}
		f, err := raw.Float64()
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", raw.String(), err)
		}
		return NewF64(f), nil
	case jsoniter.ArrayValue:
		arr := NewArray()
		var elemErr error
		it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			ev, err := decodeIterValue(it)
			if err != nil {
				elemErr = err
				return false
			}
			arr.ArrayAppend(ev)
			return true
		})
		if elemErr != nil {
			return nil, elemErr
		}
		return arr, nil
	case jsoniter.ObjectValue:
		obj := NewObject()
		var fieldErr error
		it.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			fv, err := decodeIterValue(it)
			if err != nil {
				fieldErr = err
				return false
			}
			obj.ObjectSet(field, fv)
			return true
		})
		if fieldErr != nil {
			return nil, fieldErr
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unexpected JSON token")
	}
}
