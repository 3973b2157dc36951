package interp

import (
	"context"
	"strconv"

	"github.com/dialscript/dial/internal/ast"
	"github.com/dialscript/dial/internal/value"
)

func (in *Interp) evalExp(ctx context.Context, e ast.Exp) (value.Value, error) {
	switch e := e.(type) {
	case *ast.BoolLit:
		return &value.Bool{Value: e.Value}, nil
	case *ast.NumberLit:
		n := &value.Number{Text: e.Text}
		if _, err := n.Big(); err != nil {
			return nil, err
		}
		return n, nil
	case *ast.FloatLit:
		f, err := strconv.ParseFloat(e.Text, 64)
		if err != nil {
			return nil, value.Errorf(value.ParseError, "malformed float %q", e.Text)
		}
		return &value.Float64{Value: f}, nil
	case *ast.TextLit:
		return &value.Text{Value: e.Value}, nil
	case *ast.BlobLit:
		return &value.Blob{Value: append([]byte{}, e.Bytes...)}, nil
	case *ast.NullLit:
		return &value.Null{}, nil
	case *ast.OptLit:
		inner, err := in.evalExp(ctx, e.Value)
		if err != nil {
			return nil, err
		}
		return &value.Opt{Value: inner}, nil
	case *ast.VecLit:
		elems := make([]value.Value, len(e.Elems))
		for i, el := range e.Elems {
			v, err := in.evalExp(ctx, el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &value.Vec{Elems: elems}, nil
	case *ast.RecordLit:
		fields := make([]value.Field, len(e.Fields))
		for i, f := range e.Fields {
			v, err := in.evalExp(ctx, f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = value.Field{Label: fieldLabel(f), Value: v}
		}
		return value.NewRecord(fields)
	case *ast.VariantLit:
		payload := value.Value(&value.Null{})
		if e.Field.Value != nil {
			v, err := in.evalExp(ctx, e.Field.Value)
			if err != nil {
				return nil, err
			}
			payload = v
		}
		return &value.Variant{Field: value.Field{Label: fieldLabel(e.Field), Value: payload}}, nil
	case *ast.PrincipalLit:
		return &value.Principal{ID: e.ID}, nil
	case *ast.ServiceLit:
		return &value.Service{ID: e.ID}, nil
	case *ast.FuncRefLit:
		return &value.Func{ID: e.ID, Method: e.Method}, nil
	case *ast.Ident:
		return in.lookup(e.Name)
	case *ast.Annot:
		v, err := in.evalExp(ctx, e.Exp)
		if err != nil {
			return nil, err
		}
		return value.Cast(v, e.Type)
	case *ast.Apply:
		return in.evalApply(ctx, e)
	case *ast.Select:
		v, err := in.evalExp(ctx, e.Base)
		if err != nil {
			return nil, err
		}
		for _, sel := range e.Path {
			v, err = in.applySelector(ctx, v, sel)
			if err != nil {
				return nil, err
			}
		}
		return v, nil
	case *ast.CallExp:
		return in.evalCall(ctx, e)
	case *ast.DecodeExp:
		return in.evalDecode(ctx, e)
	case *ast.ParCallExp:
		return in.evalParCall(ctx, e)
	default:
		return nil, value.Errorf(value.NotImplemented, "expression %T", e)
	}
}

func fieldLabel(f ast.FieldLit) value.Label {
	if f.Named {
		return value.Named(f.Name)
	}
	return value.ID(f.ID)
}
