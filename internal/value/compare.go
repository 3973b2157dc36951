package value

import (
	"bytes"
	"math/big"
	"strings"
)

// Equal is structural equality: same kind and recursively equal payloads.
// Number and Float64 are not auto-coerced; operands must already share a
// representation (scripts insert explicit casts).
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case *Bool:
		return a.Value == b.(*Bool).Value
	case *Number:
		// Normalize through big.Int so "+5" and "5" compare equal.
		x, err1 := a.Big()
		y, err2 := b.(*Number).Big()
		if err1 != nil || err2 != nil {
			return a.Text == b.(*Number).Text
		}
		return x.Cmp(y) == 0
	case *Nat:
		return a.Value.Cmp(b.(*Nat).Value) == 0
	case *Int:
		return a.Value.Cmp(b.(*Int).Value) == 0
	case *Nat8:
		return a.Value == b.(*Nat8).Value
	case *Nat16:
		return a.Value == b.(*Nat16).Value
	case *Nat32:
		return a.Value == b.(*Nat32).Value
	case *Nat64:
		return a.Value == b.(*Nat64).Value
	case *Int8:
		return a.Value == b.(*Int8).Value
	case *Int16:
		return a.Value == b.(*Int16).Value
	case *Int32:
		return a.Value == b.(*Int32).Value
	case *Int64:
		return a.Value == b.(*Int64).Value
	case *Float32:
		return a.Value == b.(*Float32).Value
	case *Float64:
		return a.Value == b.(*Float64).Value
	case *Text:
		return a.Value == b.(*Text).Value
	case *Blob:
		return bytes.Equal(a.Value, b.(*Blob).Value)
	case *Null:
		return true
	case *Opt:
		o := b.(*Opt)
		if a.Value == nil || o.Value == nil {
			return a.Value == nil && o.Value == nil
		}
		return Equal(a.Value, o.Value)
	case *Vec:
		v := b.(*Vec)
		if len(a.Elems) != len(v.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], v.Elems[i]) {
				return false
			}
		}
		return true
	case *Record:
		r := b.(*Record)
		if len(a.Fields) != len(r.Fields) {
			return false
		}
		for i := range a.Fields {
			if !a.Fields[i].Label.Equal(r.Fields[i].Label) || !Equal(a.Fields[i].Value, r.Fields[i].Value) {
				return false
			}
		}
		return true
	case *Variant:
		v := b.(*Variant)
		// The discriminant index is bookkeeping for positional selectors,
		// not part of the value identity.
		return a.Field.Label.Equal(v.Field.Label) && Equal(a.Field.Value, v.Field.Value)
	case *Principal:
		return a.ID == b.(*Principal).ID
	case *Service:
		return a.ID == b.(*Service).ID
	case *Func:
		f := b.(*Func)
		return a.ID == f.ID && a.Method == f.Method
	}
	return false
}

// SubEqual is the relaxed subtyping-equality used for assertions against
// partial expectations: left may be a structural superset of right.
func SubEqual(left, right Value) bool {
	if lr, ok := right.(*Record); ok {
		ll, ok := left.(*Record)
		if !ok {
			return false
		}
		for _, rf := range lr.Fields {
			found := false
			for _, lf := range ll.Fields {
				if lf.Label.Equal(rf.Label) {
					found = SubEqual(lf.Value, rf.Value)
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	if rt, ok := right.(*Text); ok {
		if lt, ok := left.(*Text); ok {
			return strings.Contains(lt.Value, rt.Value)
		}
		return false
	}
	if rid, ok := referenceID(right); ok {
		if lid, lok := referenceID(left); lok {
			return lid == rid
		}
		return false
	}
	return Equal(left, right)
}

// CompareNumeric orders two numeric values, coercing mixed integer/float
// operands to float for the comparison only. It reports -1, 0 or +1.
func CompareNumeric(a, b Value) (int, error) {
	fa, aIsFloat := floatOf(a)
	fb, bIsFloat := floatOf(b)
	if aIsFloat || bIsFloat {
		var err error
		if !aIsFloat {
			fa, err = floatFromInteger(a)
		} else if !bIsFloat {
			fb, err = floatFromInteger(b)
		}
		if err != nil {
			return 0, err
		}
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		default:
			return 0, nil
		}
	}
	ia, ok, err := integerOf(a)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, Errorf(TypeError, "cannot compare %s numerically", a.Kind())
	}
	ib, ok, err := integerOf(b)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, Errorf(TypeError, "cannot compare %s numerically", b.Kind())
	}
	return ia.Cmp(ib), nil
}

func floatFromInteger(v Value) (float64, error) {
	i, ok, err := integerOf(v)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, Errorf(TypeError, "cannot compare %s numerically", v.Kind())
	}
	f, _ := new(big.Float).SetInt(i).Float64()
	return f, nil
}
