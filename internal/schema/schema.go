// Package schema resolves method signatures for encode and decode. A
// signature lists the argument and return types of one remote method;
// providers may be backed by interface files, a live service, or an
// in-process registry.
package schema

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dialscript/dial/internal/parser"
	"github.com/dialscript/dial/internal/value"
)

type Method struct {
	Args []value.Type
	Rets []value.Type
}

type Provider interface {
	Resolve(target, method string) (Method, error)
}

// Registry is a Provider backed by explicitly registered interfaces,
// typically loaded from YAML interface files via the import command.
type Registry struct {
	mu       sync.RWMutex
	services map[string]map[string]Method
}

func NewRegistry() *Registry {
	return &Registry{services: map[string]map[string]Method{}}
}

func (r *Registry) Register(target string, methods map[string]Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[target] = methods
}

func (r *Registry) Resolve(target, method string) (Method, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods, ok := r.services[target]
	if !ok {
		return Method{}, value.Errorf(value.CallError, "no interface registered for %q", target)
	}
	m, ok := methods[method]
	if !ok {
		return Method{}, value.Errorf(value.CallError, "method %q not found on %q", method, target)
	}
	return m, nil
}

// interfaceFile is the on-disk YAML shape:
//
//	methods:
//	  greet:
//	    args: [text]
//	    rets: [text]
type interfaceFile struct {
	Methods map[string]struct {
		Args []string `yaml:"args"`
		Rets []string `yaml:"rets"`
	} `yaml:"methods"`
}

// LoadFile registers the interface described by a YAML file for target.
func (r *Registry) LoadFile(target, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read interface file: %w", err)
	}
	return r.LoadBytes(target, data)
}

func (r *Registry) LoadBytes(target string, data []byte) error {
	var file interfaceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse interface file: %w", err)
	}
	methods := make(map[string]Method, len(file.Methods))
	for name, sig := range file.Methods {
		m := Method{}
		for _, s := range sig.Args {
			t, err := parser.ParseTypeText(s)
			if err != nil {
				return fmt.Errorf("method %s: %w", name, err)
			}
			m.Args = append(m.Args, t)
		}
		for _, s := range sig.Rets {
			t, err := parser.ParseTypeText(s)
			if err != nil {
				return fmt.Errorf("method %s: %w", name, err)
			}
			m.Rets = append(m.Rets, t)
		}
		methods[name] = m
	}
	r.Register(target, methods)
	return nil
}
