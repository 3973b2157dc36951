package interp

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dialscript/dial/internal/codec"
	"github.com/dialscript/dial/internal/config"
	"github.com/dialscript/dial/internal/invoke"
	"github.com/dialscript/dial/internal/schema"
	"github.com/dialscript/dial/internal/store"
	"github.com/dialscript/dial/internal/value"
)

const (
	greeterID = "aaaaa-aa"
	walletID  = "wwwww-wa"
)

func textSig() schema.Method {
	return schema.Method{
		Args: []value.Type{value.PrimT(value.KindText)},
		Rets: []value.Type{value.PrimT(value.KindText)},
	}
}

func testServices() *invoke.Local {
	l := invoke.NewLocal()
	l.Register(greeterID, "greet", textSig(),
		func(_ context.Context, args []value.Value) ([]value.Value, error) {
			name := args[0].(*value.Text).Value
			return []value.Value{&value.Text{Value: "Hello, " + name + "!"}}, nil
		})
	l.Register(greeterID, "pair", schema.Method{
		Args: []value.Type{value.PrimT(value.KindNat)},
		Rets: []value.Type{value.PrimT(value.KindNat), value.PrimT(value.KindText)},
	},
		func(_ context.Context, args []value.Value) ([]value.Value, error) {
			return []value.Value{args[0], &value.Text{Value: "ok"}}, nil
		})
	l.Register(greeterID, "status", schema.Method{},
		func(_ context.Context, _ []value.Value) ([]value.Value, error) {
			rec, err := value.NewRecord([]value.Field{
				{Label: value.Named("cycles"), Value: &value.Number{Text: "99"}},
				{Label: value.Named("running"), Value: &value.Bool{Value: true}},
			})
			if err != nil {
				return nil, err
			}
			return []value.Value{rec}, nil
		})
	// wallet_call forwards the wrapped inner call and answers with
	// variant { Ok = record { return = blob } }
	l.Register(walletID, "wallet_call", schema.Method{
		Args: []value.Type{value.PrimT(value.KindRecord)},
		Rets: []value.Type{value.PrimT(value.KindVariant)},
	},
		func(ctx context.Context, args []value.Value) ([]value.Value, error) {
			wrapper := args[0].(*value.Record)
			target, _ := wrapper.Lookup("canister")
			method, _ := wrapper.Lookup("method_name")
			payload, _ := wrapper.Lookup("args")
			reply, err := l.Invoke(ctx,
				target.(*value.Principal).ID,
				method.(*value.Text).Value,
				payload.(*value.Blob).Value)
			if err != nil {
				return nil, err
			}
			ret, err := value.NewRecord([]value.Field{
				{Label: value.Named("return"), Value: &value.Blob{Value: reply}},
			})
			if err != nil {
				return nil, err
			}
			v := &value.Variant{Field: value.Field{Label: value.Named("Ok"), Value: ret}}
			return []value.Value{v}, nil
		})
	return l
}

func runCalls(t *testing.T, src string) *Interp {
	t.Helper()
	l := testServices()
	in := New(Options{Invoker: l, Schemas: l})
	if err := in.Run(context.Background(), src); err != nil {
		t.Fatalf("script failed: %v", err)
	}
	return in
}

func TestCall(t *testing.T) {
	runCalls(t, `
let ic = service "aaaaa-aa";
let r = call ic.greet("test");
assert r == "Hello, test!";
`)
}

func TestCallConformsArgs(t *testing.T) {
	// the declared arg type is text, so a number argument fails the
	// typed encode before anything is sent
	l := testServices()
	in := New(Options{Invoker: l, Schemas: l})
	err := in.Run(context.Background(), `call (service "aaaaa-aa").greet(5);`)
	if value.KindOf(err) != value.TypeError {
		t.Fatalf("got %v", err)
	}
}

func TestCallTupleResult(t *testing.T) {
	runCalls(t, `
let r = call (service "aaaaa-aa").pair(7);
assert r[0].value == (7 : nat);
assert r[1].value == "ok";
`)
}

func TestCallFuncReference(t *testing.T) {
	runCalls(t, `
let g = func "aaaaa-aa".greet;
assert call g("ref") == "Hello, ref!";
`)
}

func TestEncodeDecode(t *testing.T) {
	runCalls(t, `
let b = encode (1, "x");
assert decode b ~= record { };
let g = encode (service "aaaaa-aa").greet("wire");
assert decode as (service "aaaaa-aa").greet g != null;
`)
}

func TestDecodeTyped(t *testing.T) {
	runCalls(t, `
let b = encode (service "aaaaa-aa").greet("wire");
let v = decode as (service "aaaaa-aa").greet b;
assert v == "wire";
`)
}

func TestProxyCall(t *testing.T) {
	runCalls(t, `
let wallet = service "wwwww-wa";
let r = call (service "aaaaa-aa").greet("proxied") as proxy via wallet;
assert r == "Hello, proxied!";
`)
}

func TestParCall(t *testing.T) {
	runCalls(t, `
let ic = service "aaaaa-aa";
let r = par_call [ic.status(), ic.greet("test")];
assert r[0].value ~= record { running = true };
assert r[1].value == "Hello, test!";
`)
}

// slowInvoker delays the first call so completion order inverts list
// order; results must still come back positionally.
type slowInvoker struct {
	inner invoke.Invoker
	calls atomic.Int32
}

func (s *slowInvoker) Invoke(ctx context.Context, target, method string, payload []byte) ([]byte, error) {
	if s.calls.Add(1) == 1 {
		time.Sleep(30 * time.Millisecond)
	}
	return s.inner.Invoke(ctx, target, method, payload)
}

func TestParCallOrderIndependent(t *testing.T) {
	l := testServices()
	in := New(Options{Invoker: &slowInvoker{inner: l}, Schemas: l})
	err := in.Run(context.Background(), `
let ic = service "aaaaa-aa";
let r = par_call [ic.greet("first"), ic.greet("second")];
assert r[0].value == "Hello, first!";
assert r[1].value == "Hello, second!";
`)
	if err != nil {
		t.Fatal(err)
	}
}

// failingInvoker fails one target but counts every send, proving the
// join drains all calls before surfacing the failure.
type failingInvoker struct {
	inner invoke.Invoker
	sends atomic.Int32
}

func (f *failingInvoker) Invoke(ctx context.Context, target, method string, payload []byte) ([]byte, error) {
	f.sends.Add(1)
	if method == "greet" {
		return nil, value.Errorf(value.CallError, "greet is down")
	}
	return f.inner.Invoke(ctx, target, method, payload)
}

func TestParCallDrainsOnFailure(t *testing.T) {
	l := testServices()
	f := &failingInvoker{inner: l}
	in := New(Options{Invoker: f, Schemas: l})
	err := in.Run(context.Background(), `
let ic = service "aaaaa-aa";
par_call [ic.greet("a"), ic.status(), ic.greet("b")];
`)
	if value.KindOf(err) != value.CallError {
		t.Fatalf("got %v", err)
	}
	if got := f.sends.Load(); got != 3 {
		t.Errorf("sent %d calls, want 3", got)
	}
}

func TestOfflineQueuesCalls(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "q.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	l := testServices()
	cfg := config.Default()
	cfg.Offline = true
	in := New(Options{Invoker: l, Schemas: l, Config: cfg, Store: s})
	err = in.Run(context.Background(), `
let r = call (service "aaaaa-aa").greet("later");
assert r ~= record { canister = principal "aaaaa-aa"; method = "greet" };
`)
	if err != nil {
		t.Fatal(err)
	}

	msgs, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("queued %d messages, want 1", len(msgs))
	}
	if msgs[0].Target != greeterID || msgs[0].Method != "greet" {
		t.Errorf("queued: %+v", msgs[0])
	}
	args, err := codec.Decode(msgs[0].Payload, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 1 || !value.Equal(args[0], &value.Text{Value: "later"}) {
		t.Errorf("payload: %v", args)
	}
}

func TestImportBindsServiceAndSchema(t *testing.T) {
	dir := t.TempDir()
	iface := filepath.Join(dir, "greeter.yaml")
	data := "methods:\n  shout:\n    args: [text]\n    rets: [text]\n"
	if err := os.WriteFile(iface, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	l := invoke.NewLocal()
	l.Register("ccccc-cc", "shout", textSig(),
		func(_ context.Context, args []value.Value) ([]value.Value, error) {
			return []value.Value{args[0]}, nil
		})
	in := New(Options{Invoker: l})
	err := in.Run(context.Background(), `
import echo = "ccccc-cc" : "`+iface+`";
assert echo == service "ccccc-cc";
assert call echo.shout("hi") == "hi";
`)
	if err != nil {
		t.Fatal(err)
	}
}

func TestLoadRunsInCurrentFrame(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "setup.dial")
	if err := os.WriteFile(script, []byte(`let loaded = add(base, 1);`), 0o644); err != nil {
		t.Fatal(err)
	}
	run(t, `
let base = 41;
load "`+script+`";
assert loaded == 42;
`)
}

func TestExportReplays(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "session.dial")
	run(t, `
let x = 5;
assert x == 5;
export "`+out+`";
`)
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	// the exported session must replay cleanly
	in := New(Options{})
	if err := in.Run(context.Background(), string(data)); err != nil {
		t.Fatalf("replay failed: %v\nexport was:\n%s", err, data)
	}
}

func TestConfigCommand(t *testing.T) {
	cfg := config.Default()
	in := New(Options{Config: cfg})
	if err := in.Run(context.Background(), `config endpoint "gateway:9000";`); err != nil {
		t.Fatal(err)
	}
	if cfg.Endpoint != "gateway:9000" {
		t.Errorf("endpoint: %q", cfg.Endpoint)
	}
	if err := New(Options{}).Run(context.Background(), `config wibble "x";`); err == nil {
		t.Error("unknown key accepted")
	}
}
