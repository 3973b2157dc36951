package value

import (
	"math/big"
	"strings"
)

// Arithmetic over numeric values. If either operand is a float kind the
// result is Float64; otherwise the result is an arbitrary-precision integer
// Number. Sized operands are widened exactly before the operation.

func Add(a, b Value) (Value, error) { return arith(a, b, "add") }
func Sub(a, b Value) (Value, error) { return arith(a, b, "sub") }
func Mul(a, b Value) (Value, error) { return arith(a, b, "mul") }
func Div(a, b Value) (Value, error) { return arith(a, b, "div") }

func arith(a, b Value, op string) (Value, error) {
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
			return nil, err
		}
		switch op {
		case "add":
			return &Float64{Value: fa + fb}, nil
		case "sub":
			return &Float64{Value: fa - fb}, nil
		case "mul":
			return &Float64{Value: fa * fb}, nil
		default:
			return &Float64{Value: fa / fb}, nil
		}
	}
	ia, err := requireInteger(a, op)
	if err != nil {
		return nil, err
	}
	ib, err := requireInteger(b, op)
	if err != nil {
		return nil, err
	}
	res := new(big.Int)
	switch op {
	case "add":
		res.Add(ia, ib)
	case "sub":
		res.Sub(ia, ib)
	case "mul":
		res.Mul(ia, ib)
	default:
		if ib.Sign() == 0 {
			return nil, Errorf(RangeError, "division by zero")
		}
		// Quo truncates toward zero, matching the integer division rule.
		res.Quo(ia, ib)
	}
	return &Number{Text: res.String()}, nil
}

func requireInteger(v Value, op string) (*big.Int, error) {
	i, ok, err := integerOf(v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, Errorf(TypeError, "%s expects numeric operands, got %s", op, v.Kind())
	}
	return i, nil
}

// Stringify renders a primitive value to bare text, without the quoting the
// surface syntax would add. Aggregates are rejected.
func Stringify(v Value) (string, error) {
	switch v := v.(type) {
	case *Text:
		return v.Value, nil
	case *Bool, *Number, *Nat, *Int,
		*Nat8, *Nat16, *Nat32, *Nat64,
		*Int8, *Int16, *Int32, *Int64,
		*Float32, *Float64:
		return v.String(), nil
	case *Principal:
		return v.ID, nil
	}
	return "", Errorf(TypeError, "cannot stringify %s", v.Kind())
}

// StringifyAll concatenates the rendering of each operand.
func StringifyAll(vs []Value) (string, error) {
	var sb strings.Builder
	for _, v := range vs {
		s, err := Stringify(v)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}
