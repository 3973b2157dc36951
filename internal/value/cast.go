package value

import (
	"math"
	"math/big"
	"unicode/utf8"
)

// Cast reinterprets v under the target type t. This deliberately does not
// follow full structural subtyping: each cast is a single-step
// reinterpretation so heterogeneous call results can be piped through
// annotations. Chained casts validate independently.
func Cast(v Value, t Type) (Value, error) {
	switch t.Kind {
	case KindBool:
		if b, ok := v.(*Bool); ok {
			return b, nil
		}
	case KindNull:
		if n, ok := v.(*Null); ok {
			return n, nil
		}
	case KindText:
		switch v := v.(type) {
		case *Text:
			return v, nil
		case *Blob:
			if !utf8.Valid(v.Value) {
				return nil, Errorf(DecodeError, "blob is not valid utf8 text")
			}
			return &Text{Value: string(v.Value)}, nil
		}
	case KindBlob:
		return castToBlob(v)
	case KindPrincipal:
		if id, ok := referenceID(v); ok {
			return &Principal{ID: id}, nil
		}
	case KindService:
		if id, ok := referenceID(v); ok {
			return &Service{ID: id}, nil
		}
	case KindFunc:
		// Only a source that already carries a method name can become a
		// func; the cast has nowhere else to take one from.
		if f, ok := v.(*Func); ok {
			return f, nil
		}
		return nil, Errorf(TypeError, "cannot cast %s to func: no method name to carry over", v.Kind())
	case KindNat, KindInt, KindNat8, KindNat16, KindNat32, KindNat64,
		KindInt8, KindInt16, KindInt32, KindInt64:
		return castToInteger(v, t.Kind)
	case KindFloat32, KindFloat64:
		return castToFloat(v, t.Kind)
	case KindOpt:
		return castToOpt(v, *t.Elem)
	case KindVec:
		return castToVec(v, *t.Elem)
	case KindRecord, KindVariant:
		return nil, Errorf(NotImplemented, "cannot cast to %s: use the method's remote schema instead", t.Kind)
	}
	return nil, Errorf(TypeError, "cannot cast %s to %s", v.Kind(), t)
}

func referenceID(v Value) (string, bool) {
	switch v := v.(type) {
	case *Principal:
		return v.ID, true
	case *Service:
		return v.ID, true
	case *Func:
		return v.ID, true
	}
	return "", false
}

func castToBlob(v Value) (Value, error) {
	switch v := v.(type) {
	case *Blob:
		return v, nil
	case *Text:
		return &Blob{Value: []byte(v.Value)}, nil
	case *Vec:
		bytes := make([]byte, len(v.Elems))
		for i, e := range v.Elems {
			b, err := castToInteger(e, KindNat8)
			if err != nil {
				return nil, err
			}
			bytes[i] = b.(*Nat8).Value
		}
		return &Blob{Value: bytes}, nil
	}
	return nil, Errorf(TypeError, "cannot cast %s to blob", v.Kind())
}

// integerOf extracts an exact big integer from any integer-kind value.
func integerOf(v Value) (*big.Int, bool, error) {
	switch v := v.(type) {
	case *Number:
		i, err := v.Big()
		return i, err == nil, err
	case *Nat:
		return v.Value, true, nil
	case *Int:
		return v.Value, true, nil
	case *Nat8:
		return new(big.Int).SetUint64(uint64(v.Value)), true, nil
	case *Nat16:
		return new(big.Int).SetUint64(uint64(v.Value)), true, nil
	case *Nat32:
		return new(big.Int).SetUint64(uint64(v.Value)), true, nil
	case *Nat64:
		return new(big.Int).SetUint64(v.Value), true, nil
	case *Int8:
		return big.NewInt(int64(v.Value)), true, nil
	case *Int16:
		return big.NewInt(int64(v.Value)), true, nil
	case *Int32:
		return big.NewInt(int64(v.Value)), true, nil
	case *Int64:
		return big.NewInt(v.Value), true, nil
	}
	return nil, false, nil
}

func floatOf(v Value) (float64, bool) {
	switch v := v.(type) {
	case *Float32:
		return float64(v.Value), true
	case *Float64:
		return v.Value, true
	}
	return 0, false
}

func castToInteger(v Value, kind Kind) (Value, error) {
	i, ok, err := integerOf(v)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A float truncates toward zero: the integer part is kept, never
		// rounded.
		f, isFloat := floatOf(v)
		if !isFloat {
			return nil, Errorf(TypeError, "cannot cast %s to %s", v.Kind(), kind)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, Errorf(RangeError, "cannot cast %v to %s", f, kind)
		}
		i, _ = new(big.Float).SetFloat64(math.Trunc(f)).Int(nil)
	}
	return materializeInteger(i, kind)
}

var (
	big0 = big.NewInt(0)
)

func intBounds(kind Kind) (min, max *big.Int, ok bool) {
	switch kind {
	case KindNat8:
		return big0, big.NewInt(math.MaxUint8), true
	case KindNat16:
		return big0, big.NewInt(math.MaxUint16), true
	case KindNat32:
		return big0, big.NewInt(math.MaxUint32), true
	case KindNat64:
		return big0, new(big.Int).SetUint64(math.MaxUint64), true
	case KindInt8:
		return big.NewInt(math.MinInt8), big.NewInt(math.MaxInt8), true
	case KindInt16:
		return big.NewInt(math.MinInt16), big.NewInt(math.MaxInt16), true
	case KindInt32:
		return big.NewInt(math.MinInt32), big.NewInt(math.MaxInt32), true
	case KindInt64:
		return big.NewInt(math.MinInt64), big.NewInt(math.MaxInt64), true
	}
	return nil, nil, false
}

func materializeInteger(i *big.Int, kind Kind) (Value, error) {
	switch kind {
	case KindNat:
		if i.Sign() < 0 {
			return nil, Errorf(RangeError, "%s is negative, cannot be nat", i)
		}
		return &Nat{Value: new(big.Int).Set(i)}, nil
	case KindInt:
		return &Int{Value: new(big.Int).Set(i)}, nil
	}
	min, max, ok := intBounds(kind)
	if !ok {
		return nil, Errorf(TypeError, "not an integer kind: %s", kind)
	}
	if i.Cmp(min) < 0 || i.Cmp(max) > 0 {
		return nil, Errorf(RangeError, "%s does not fit in %s", i, kind)
	}
	switch kind {
	case KindNat8:
		return &Nat8{Value: uint8(i.Uint64())}, nil
	case KindNat16:
		return &Nat16{Value: uint16(i.Uint64())}, nil
	case KindNat32:
		return &Nat32{Value: uint32(i.Uint64())}, nil
	case KindNat64:
		return &Nat64{Value: i.Uint64()}, nil
	case KindInt8:
		return &Int8{Value: int8(i.Int64())}, nil
	case KindInt16:
		return &Int16{Value: int16(i.Int64())}, nil
	case KindInt32:
		return &Int32{Value: int32(i.Int64())}, nil
	default:
		return &Int64{Value: i.Int64()}, nil
	}
}

func castToFloat(v Value, kind Kind) (Value, error) {
	var f float64
	if g, ok := floatOf(v); ok {
		f = g
	} else {
		i, ok, err := integerOf(v)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, Errorf(TypeError, "cannot cast %s to %s", v.Kind(), kind)
		}
		f, _ = new(big.Float).SetInt(i).Float64()
	}
	if kind == KindFloat32 {
		return &Float32{Value: float32(f)}, nil
	}
	return &Float64{Value: f}, nil
}

func castToOpt(v Value, elem Type) (Value, error) {
	switch v := v.(type) {
	case *Null:
		return &Opt{}, nil
	case *Opt:
		if v.Value == nil {
			return &Opt{}, nil
		}
		inner, err := Cast(v.Value, elem)
		if err != nil {
			return nil, err
		}
		return &Opt{Value: inner}, nil
	default:
		inner, err := Cast(v, elem)
		if err != nil {
			return nil, err
		}
		return &Opt{Value: inner}, nil
	}
}

func castToVec(v Value, elem Type) (Value, error) {
	switch v := v.(type) {
	case *Vec:
		elems := make([]Value, len(v.Elems))
		for i, e := range v.Elems {
			cast, err := Cast(e, elem)
			if err != nil {
				return nil, err
			}
			elems[i] = cast
		}
		return &Vec{Elems: elems}, nil
	case *Blob:
		if elem.Kind != KindNat8 {
			return nil, Errorf(TypeError, "cannot cast blob to vec %s", elem)
		}
		elems := make([]Value, len(v.Value))
		for i, b := range v.Value {
			elems[i] = &Nat8{Value: b}
		}
		return &Vec{Elems: elems}, nil
	}
	return nil, Errorf(TypeError, "cannot cast %s to vec %s", v.Kind(), elem)
}
