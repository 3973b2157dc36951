package interp

import (
	"context"

	"github.com/dialscript/dial/internal/ast"
	"github.com/dialscript/dial/internal/value"
)

// evalApply dispatches a name(args…) application. Builtins win over user
// functions; ite, exist and fail must see unevaluated arguments, so they
// are handled before the common argument pass.
func (in *Interp) evalApply(ctx context.Context, e *ast.Apply) (value.Value, error) {
	switch e.Name {
	case "ite":
		return in.evalIte(ctx, e)
	case "exist":
		if err := arity(e, 1); err != nil {
			return nil, err
		}
		_, err := in.evalExp(ctx, e.Args[0])
		return &value.Bool{Value: err == nil}, nil
	case "fail":
		if err := arity(e, 1); err != nil {
			return nil, err
		}
		v, err := in.evalExp(ctx, e.Args[0])
		if err != nil {
			return &value.Text{Value: err.Error()}, nil
		}
		return nil, value.Errorf(value.AssertionFailure, "unexpected success: %s", v)
	}

	args := make([]value.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := in.evalExp(ctx, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch e.Name {
	case "add", "sub", "mul", "div":
		if err := arity(e, 2); err != nil {
			return nil, err
		}
		switch e.Name {
		case "add":
			return value.Add(args[0], args[1])
		case "sub":
			return value.Sub(args[0], args[1])
		case "mul":
			return value.Mul(args[0], args[1])
		default:
			return value.Div(args[0], args[1])
		}
	case "and", "or":
		if err := arity(e, 2); err != nil {
			return nil, err
		}
		a, b, err := boolArgs(e.Name, args)
		if err != nil {
			return nil, err
		}
		if e.Name == "and" {
			return &value.Bool{Value: a && b}, nil
		}
		return &value.Bool{Value: a || b}, nil
	case "not":
		if err := arity(e, 1); err != nil {
			return nil, err
		}
		b, ok := args[0].(*value.Bool)
		if !ok {
			return nil, value.Errorf(value.TypeError, "not expects bool, got %s", args[0].Kind())
		}
		return &value.Bool{Value: !b.Value}, nil
	case "eq", "neq":
		if err := arity(e, 2); err != nil {
			return nil, err
		}
		if args[0].Kind() != args[1].Kind() {
			return nil, value.Errorf(value.TypeError,
				"%s requires matching kinds, got %s and %s", e.Name, args[0].Kind(), args[1].Kind())
		}
		eq := value.Equal(args[0], args[1])
		if e.Name == "neq" {
			eq = !eq
		}
		return &value.Bool{Value: eq}, nil
	case "lt", "lte", "gt", "gte":
		if err := arity(e, 2); err != nil {
			return nil, err
		}
		c, err := value.CompareNumeric(args[0], args[1])
		if err != nil {
			return nil, err
		}
		var ok bool
		switch e.Name {
		case "lt":
			ok = c < 0
		case "lte":
			ok = c <= 0
		case "gt":
			ok = c > 0
		case "gte":
			ok = c >= 0
		}
		return &value.Bool{Value: ok}, nil
	case "stringify":
		s, err := value.StringifyAll(args)
		if err != nil {
			return nil, err
		}
		return &value.Text{Value: s}, nil
	}

	return in.callFunction(ctx, e.Name, args)
}

func (in *Interp) evalIte(ctx context.Context, e *ast.Apply) (value.Value, error) {
	if err := arity(e, 3); err != nil {
		return nil, err
	}
	cond, err := in.evalExp(ctx, e.Args[0])
	if err != nil {
		return nil, err
	}
	b, ok := cond.(*value.Bool)
	if !ok {
		return nil, value.Errorf(value.TypeError, "ite condition is %s, not bool", cond.Kind())
	}
	// only the taken branch is evaluated; the other may recurse forever
	if b.Value {
		return in.evalExp(ctx, e.Args[1])
	}
	return in.evalExp(ctx, e.Args[2])
}

// callFunction applies a user function: a fresh frame seeded from the
// caller's bindings, parameters bound over it, body commands run in
// sequence. The call's value is the frame's final `_`.
func (in *Interp) callFunction(ctx context.Context, name string, args []value.Value) (value.Value, error) {
	def, ok := in.funcs[name]
	if !ok {
		return nil, value.Errorf(value.UndefinedName, "undefined function %q", name)
	}
	if len(args) != len(def.params) {
		return nil, value.Errorf(value.TypeError,
			"%s expects %d arguments, got %d", name, len(def.params), len(args))
	}
	in.push()
	defer in.pop()
	for i, p := range def.params {
		in.bind(p, args[i])
	}
	if err := in.exec(ctx, def.body, false); err != nil {
		return nil, err
	}
	if v, ok := in.cur().vars[resultVar]; ok {
		return v, nil
	}
	return &value.Null{}, nil
}

func arity(e *ast.Apply, n int) error {
	if len(e.Args) != n {
		return value.Errorf(value.TypeError, "%s expects %d arguments, got %d", e.Name, n, len(e.Args))
	}
	return nil
}

func boolArgs(name string, args []value.Value) (bool, bool, error) {
	a, ok := args[0].(*value.Bool)
	if !ok {
		return false, false, value.Errorf(value.TypeError, "%s expects bool, got %s", name, args[0].Kind())
	}
	b, ok := args[1].(*value.Bool)
	if !ok {
		return false, false, value.Errorf(value.TypeError, "%s expects bool, got %s", name, args[1].Kind())
	}
	return a.Value, b.Value, nil
}
