package interp

import (
	"context"
	"sync"

	"github.com/dialscript/dial/internal/ast"
	"github.com/dialscript/dial/internal/codec"
	"github.com/dialscript/dial/internal/schema"
	"github.com/dialscript/dial/internal/value"
)

// targetRef resolves a call target expression to a service id plus the
// effective method name. Func references carry their own method; an
// explicit `.method` in the call wins over it.
func (in *Interp) targetRef(ctx context.Context, target ast.Exp, method string) (string, string, error) {
	v, err := in.evalExp(ctx, target)
	if err != nil {
		return "", "", err
	}
	switch v := v.(type) {
	case *value.Principal:
		if method == "" {
			return "", "", value.Errorf(value.CallError, "no method on %s", v)
		}
		return v.ID, method, nil
	case *value.Service:
		if method == "" {
			return "", "", value.Errorf(value.CallError, "no method on %s", v)
		}
		return v.ID, method, nil
	case *value.Func:
		if method != "" {
			return v.ID, method, nil
		}
		if v.Method == "" {
			return "", "", value.Errorf(value.CallError, "func reference has no method")
		}
		return v.ID, v.Method, nil
	default:
		return "", "", value.Errorf(value.TypeError, "call target is %s, not a reference", v.Kind())
	}
}

func (in *Interp) evalArgs(ctx context.Context, exps []ast.Exp) ([]value.Value, error) {
	args := make([]value.Value, len(exps))
	for i, a := range exps {
		v, err := in.evalExp(ctx, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// encodeArgs encodes an argument tuple, typed when the method's
// interface is known and self-describing otherwise.
func (in *Interp) encodeArgs(target, method string, args []value.Value) ([]byte, *schema.Method, error) {
	if m, err := in.resolveSchema(target, method); err == nil {
		payload, err := codec.Encode(args, m.Args)
		return payload, &m, err
	}
	payload, err := codec.Encode(args, nil)
	return payload, nil, err
}

func (in *Interp) evalCall(ctx context.Context, e *ast.CallExp) (value.Value, error) {
	if e.Mode == ast.ModeEncode && e.Target == nil {
		args, err := in.evalArgs(ctx, e.Args)
		if err != nil {
			return nil, err
		}
		payload, err := codec.Encode(args, nil)
		if err != nil {
			return nil, err
		}
		return &value.Blob{Value: payload}, nil
	}

	target, method, err := in.targetRef(ctx, e.Target, e.Method)
	if err != nil {
		return nil, err
	}
	args, err := in.evalArgs(ctx, e.Args)
	if err != nil {
		return nil, err
	}
	payload, sig, err := in.encodeArgs(target, method, args)
	if err != nil {
		return nil, err
	}

	switch e.Mode {
	case ast.ModeEncode:
		return &value.Blob{Value: payload}, nil
	case ast.ModeProxy:
		return in.proxyCall(ctx, e, target, method, payload, sig)
	default:
		if in.opts.Config.Offline {
			return in.queueCall(ctx, target, method, payload)
		}
		reply, err := in.send(ctx, target, method, payload)
		if err != nil {
			return nil, err
		}
		return in.decodeReply(reply, sig)
	}
}

func (in *Interp) send(ctx context.Context, target, method string, payload []byte) ([]byte, error) {
	if in.opts.Invoker == nil {
		return nil, value.Errorf(value.CallError, "no invoker configured")
	}
	return in.opts.Invoker.Invoke(ctx, target, method, payload)
}

func (in *Interp) decodeReply(reply []byte, sig *schema.Method) (value.Value, error) {
	var rets []value.Type
	if sig != nil {
		rets = sig.Rets
	}
	vals, err := codec.Decode(reply, rets)
	if err != nil {
		return nil, err
	}
	return tupleValue(vals)
}

// tupleValue collapses a return tuple: no results is null, one is
// itself, several become a positional record.
func tupleValue(vals []value.Value) (value.Value, error) {
	switch len(vals) {
	case 0:
		return &value.Null{}, nil
	case 1:
		return vals[0], nil
	default:
		fields := make([]value.Field, len(vals))
		for i, v := range vals {
			fields[i] = value.Field{Label: value.ID(uint32(i)), Value: v}
		}
		return value.NewRecord(fields)
	}
}

// forwardMethod is the proxy's forwarding entry point. The inner call is
// wrapped in a forwarding record, and the proxy answers with
// variant { Ok = record { return = blob } }.
const forwardMethod = "wallet_call"

func (in *Interp) proxyCall(ctx context.Context, e *ast.CallExp, target, method string, payload []byte, sig *schema.Method) (value.Value, error) {
	viaTarget, _, err := in.targetRef(ctx, e.Via, forwardMethod)
	if err != nil {
		return nil, err
	}
	wrapper, err := value.NewRecord([]value.Field{
		{Label: value.Named("args"), Value: &value.Blob{Value: payload}},
		{Label: value.Named("cycles"), Value: &value.Number{Text: "0"}},
		{Label: value.Named("method_name"), Value: &value.Text{Value: method}},
		{Label: value.Named("canister"), Value: &value.Principal{ID: target}},
	})
	if err != nil {
		return nil, err
	}
	outer, err := codec.Encode([]value.Value{wrapper}, nil)
	if err != nil {
		return nil, err
	}
	if in.opts.Config.Offline {
		return in.queueCall(ctx, viaTarget, forwardMethod, outer)
	}
	reply, err := in.send(ctx, viaTarget, forwardMethod, outer)
	if err != nil {
		return nil, err
	}
	vals, err := codec.Decode(reply, nil)
	if err != nil {
		return nil, err
	}
	res, err := tupleValue(vals)
	if err != nil {
		return nil, err
	}
	ok, err := selectField(res, "Ok")
	if err != nil {
		return nil, value.Errorf(value.CallError, "proxy %s rejected %s.%s: %s", viaTarget, target, method, res)
	}
	ret, err := selectField(ok, "return")
	if err != nil {
		return nil, err
	}
	blob, okCast := ret.(*value.Blob)
	if !okCast {
		return nil, value.Errorf(value.TypeError, "proxy return is %s, not blob", ret.Kind())
	}
	return in.decodeReply(blob.Value, sig)
}

// queueCall stores the encoded message instead of sending it and
// evaluates to a receipt describing the queued entry.
func (in *Interp) queueCall(ctx context.Context, target, method string, payload []byte) (value.Value, error) {
	s, err := in.messageStore()
	if err != nil {
		return nil, err
	}
	id, err := s.Queue(ctx, target, method, payload)
	if err != nil {
		return nil, value.Errorf(value.CallError, "queue %s.%s: %v", target, method, err)
	}
	return value.NewRecord([]value.Field{
		{Label: value.Named("id"), Value: &value.Text{Value: id}},
		{Label: value.Named("canister"), Value: &value.Principal{ID: target}},
		{Label: value.Named("method"), Value: &value.Text{Value: method}},
	})
}

type pending struct {
	target  string
	method  string
	payload []byte
	sig     *schema.Method
}

// evalParCall encodes every listed call sequentially, fans the sends out
// concurrently, and joins before surfacing anything. All in-flight calls
// are drained even when one fails; the first failure in list order wins.
func (in *Interp) evalParCall(ctx context.Context, e *ast.ParCallExp) (value.Value, error) {
	calls := make([]pending, len(e.Calls))
	for i, c := range e.Calls {
		target, method, err := in.targetRef(ctx, c.Target, c.Method)
		if err != nil {
			return nil, err
		}
		args, err := in.evalArgs(ctx, c.Args)
		if err != nil {
			return nil, err
		}
		payload, sig, err := in.encodeArgs(target, method, args)
		if err != nil {
			return nil, err
		}
		calls[i] = pending{target: target, method: method, payload: payload, sig: sig}
	}

	if in.opts.Config.Offline {
		fields := make([]value.Field, len(calls))
		for i, c := range calls {
			receipt, err := in.queueCall(ctx, c.target, c.method, c.payload)
			if err != nil {
				return nil, err
			}
			fields[i] = value.Field{Label: value.ID(uint32(i)), Value: receipt}
		}
		return value.NewRecord(fields)
	}

	replies := make([][]byte, len(calls))
	errs := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Add(1)
		go func(i int, c pending) {
			defer wg.Done()
			replies[i], errs[i] = in.send(ctx, c.target, c.method, c.payload)
		}(i, c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	fields := make([]value.Field, len(calls))
	for i, c := range calls {
		v, err := in.decodeReply(replies[i], c.sig)
		if err != nil {
			return nil, err
		}
		fields[i] = value.Field{Label: value.ID(uint32(i)), Value: v}
	}
	return value.NewRecord(fields)
}

func (in *Interp) evalDecode(ctx context.Context, e *ast.DecodeExp) (value.Value, error) {
	v, err := in.evalExp(ctx, e.Blob)
	if err != nil {
		return nil, err
	}
	blob, ok := v.(*value.Blob)
	if !ok {
		return nil, value.Errorf(value.TypeError, "decode expects blob, got %s", v.Kind())
	}
	var rets []value.Type
	if e.Target != nil {
		target, method, err := in.targetRef(ctx, e.Target, e.Method)
		if err != nil {
			return nil, err
		}
		m, err := in.resolveSchema(target, method)
		if err != nil {
			return nil, err
		}
		rets = m.Rets
	}
	vals, err := codec.Decode(blob.Value, rets)
	if err != nil {
		return nil, err
	}
	return tupleValue(vals)
}
