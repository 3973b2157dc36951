// Package invoke performs the outbound side of call expressions. An
// Invoker moves an encoded argument payload to a target method and
// returns the encoded reply; the interpreter never sees the transport.
package invoke

import (
	"context"
	"sync"

	"github.com/dialscript/dial/internal/codec"
	"github.com/dialscript/dial/internal/schema"
	"github.com/dialscript/dial/internal/value"
)

type Invoker interface {
	Invoke(ctx context.Context, target, method string, payload []byte) ([]byte, error)
}

// Handler implements one method of an in-process service.
type Handler func(ctx context.Context, args []value.Value) ([]value.Value, error)

type localMethod struct {
	sig     schema.Method
	handler Handler
}

// Local is an in-process Invoker backed by registered handlers. It doubles
// as a schema.Provider, so encode and decode work against it without
// separate interface files. Used by tests and the REPL's demo services.
type Local struct {
	mu       sync.RWMutex
	services map[string]map[string]localMethod
}

func NewLocal() *Local {
	return &Local{services: map[string]map[string]localMethod{}}
}

func (l *Local) Register(target, method string, sig schema.Method, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.services[target] == nil {
		l.services[target] = map[string]localMethod{}
	}
	l.services[target][method] = localMethod{sig: sig, handler: h}
}

func (l *Local) lookup(target, method string) (localMethod, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	methods, ok := l.services[target]
	if !ok {
		return localMethod{}, value.Errorf(value.CallError, "unknown service %q", target)
	}
	m, ok := methods[method]
	if !ok {
		return localMethod{}, value.Errorf(value.CallError, "service %q has no method %q", target, method)
	}
	return m, nil
}

func (l *Local) Resolve(target, method string) (schema.Method, error) {
	m, err := l.lookup(target, method)
	if err != nil {
		return schema.Method{}, err
	}
	return m.sig, nil
}

func (l *Local) Invoke(ctx context.Context, target, method string, payload []byte) ([]byte, error) {
	m, err := l.lookup(target, method)
	if err != nil {
		return nil, err
	}
	args, err := codec.Decode(payload, m.sig.Args)
	if err != nil {
		return nil, value.Errorf(value.CallError, "%s.%s: %v", target, method, err)
	}
	rets, err := m.handler(ctx, args)
	if err != nil {
		return nil, value.Errorf(value.CallError, "%s.%s: %v", target, method, err)
	}
	return codec.Encode(rets, m.sig.Rets)
}
