package invoke

import (
	"context"
	"testing"

	"github.com/dialscript/dial/internal/codec"
	"github.com/dialscript/dial/internal/schema"
	"github.com/dialscript/dial/internal/value"
)

func greeter() *Local {
	l := NewLocal()
	l.Register("aaaaa-aa", "greet",
		schema.Method{
			Args: []value.Type{value.PrimT(value.KindText)},
			Rets: []value.Type{value.PrimT(value.KindText)},
		},
		func(_ context.Context, args []value.Value) ([]value.Value, error) {
			name := args[0].(*value.Text).Value
			return []value.Value{&value.Text{Value: "Hello, " + name + "!"}}, nil
		})
	return l
}

func TestLocalInvoke(t *testing.T) {
	l := greeter()
	payload, err := codec.Encode([]value.Value{&value.Text{Value: "test"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	reply, err := l.Invoke(context.Background(), "aaaaa-aa", "greet", payload)
	if err != nil {
		t.Fatal(err)
	}
	rets, err := codec.Decode(reply, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := &value.Text{Value: "Hello, test!"}
	if len(rets) != 1 || !value.Equal(rets[0], want) {
		t.Errorf("got %v, want %s", rets, want)
	}
}

func TestLocalInvokeConformsArgs(t *testing.T) {
	// a Number argument must be conformed to the declared text type,
	// which is a cast failure, not a handler invocation
	l := greeter()
	payload, err := codec.Encode([]value.Value{&value.Number{Text: "5"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = l.Invoke(context.Background(), "aaaaa-aa", "greet", payload)
	if value.KindOf(err) != value.CallError {
		t.Fatalf("expected CallError, got %v", err)
	}
}

func TestLocalUnknown(t *testing.T) {
	l := greeter()
	if _, err := l.Invoke(context.Background(), "zzzzz-zz", "greet", nil); value.KindOf(err) != value.CallError {
		t.Errorf("unknown service: got %v", err)
	}
	if _, err := l.Invoke(context.Background(), "aaaaa-aa", "shout", nil); value.KindOf(err) != value.CallError {
		t.Errorf("unknown method: got %v", err)
	}
}

func TestLocalResolve(t *testing.T) {
	l := greeter()
	m, err := l.Resolve("aaaaa-aa", "greet")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Args) != 1 || m.Args[0].Kind != value.KindText {
		t.Errorf("args: %v", m.Args)
	}
	var _ schema.Provider = l
}
