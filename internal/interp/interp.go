// Package interp executes dial commands: the environment, the selector
// engine, builtins, and the call dispatch sit here. The interpreter is
// single threaded; only the fan-out inside par_call runs concurrently,
// and that phase never touches frame state.
package interp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dialscript/dial/internal/ast"
	"github.com/dialscript/dial/internal/config"
	"github.com/dialscript/dial/internal/invoke"
	"github.com/dialscript/dial/internal/lexer"
	"github.com/dialscript/dial/internal/parser"
	"github.com/dialscript/dial/internal/schema"
	"github.com/dialscript/dial/internal/store"
	"github.com/dialscript/dial/internal/token"
	"github.com/dialscript/dial/internal/value"
)

// resultVar holds the most recently evaluated bare expression.
const resultVar = "_"

type Options struct {
	Invoker invoke.Invoker
	// Schemas resolves method signatures not covered by imported
	// interface files; a Local invoker is the usual provider.
	Schemas schema.Provider
	Config  *config.Config
	// Store overrides the lazily opened offline message store.
	Store *store.Store
}

type funcDef struct {
	params []string
	body   []ast.Command
}

type Interp struct {
	opts     Options
	frames   []*frame
	funcs    map[string]*funcDef
	registry *schema.Registry
	queue    *store.Store
	session  []ast.Command
}

func New(opts Options) *Interp {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	in := &Interp{
		opts:     opts,
		frames:   []*frame{newFrame()},
		funcs:    map[string]*funcDef{},
		registry: schema.NewRegistry(),
		queue:    opts.Store,
	}
	for alias, target := range opts.Config.Services {
		in.bind(alias, &value.Service{ID: target})
	}
	return in
}

// Result returns the value of the last bare expression, if any.
func (in *Interp) Result() (value.Value, bool) {
	v, ok := in.cur().vars[resultVar]
	return v, ok
}

// Run parses and executes a script. Execution stops at the first error;
// the error carries the failing command's position.
func (in *Interp) Run(ctx context.Context, src string) error {
	cmds, err := parse(src)
	if err != nil {
		return err
	}
	return in.exec(ctx, cmds, true)
}

func parse(src string) ([]ast.Command, error) {
	p := parser.New(lexer.New(src))
	cmds := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, value.Errorf(value.ParseError, "%s", strings.Join(errs, "; "))
	}
	return cmds, nil
}

// posError pins a script error to the command that raised it. Nested exec
// levels pass an already pinned error through so the innermost position wins.
type posError struct {
	line, col int
	err       error
}

func (e *posError) Error() string { return fmt.Sprintf("%d:%d: %s", e.line, e.col, e.err) }
func (e *posError) Unwrap() error { return e.err }

func (in *Interp) exec(ctx context.Context, cmds []ast.Command, record bool) error {
	for _, cmd := range cmds {
		if err := in.execCommand(ctx, cmd); err != nil {
			var pe *posError
			if errors.As(err, &pe) {
				return err
			}
			pos := cmd.Pos()
			return &posError{line: pos.Line, col: pos.Column, err: err}
		}
		if record {
			in.session = append(in.session, cmd)
		}
	}
	return nil
}

func (in *Interp) execCommand(ctx context.Context, cmd ast.Command) error {
	switch cmd := cmd.(type) {
	case *ast.Let:
		v, err := in.evalExp(ctx, cmd.Value)
		if err != nil {
			return err
		}
		in.bind(cmd.Name, v)
		return nil
	case *ast.Assert:
		return in.execAssert(ctx, cmd)
	case *ast.FuncDef:
		in.funcs[cmd.Name] = &funcDef{params: cmd.Params, body: cmd.Body}
		return nil
	case *ast.If:
		ok, err := in.evalCond(ctx, cmd.Cond)
		if err != nil {
			return err
		}
		if ok {
			return in.exec(ctx, cmd.Then, false)
		}
		return in.exec(ctx, cmd.Else, false)
	case *ast.While:
		for {
			ok, err := in.evalCond(ctx, cmd.Cond)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := in.exec(ctx, cmd.Body, false); err != nil {
				return err
			}
		}
	case *ast.ExpStmt:
		v, err := in.evalExp(ctx, cmd.Exp)
		if err != nil {
			return err
		}
		in.bind(resultVar, v)
		return nil
	case *ast.Import:
		return in.execImport(cmd)
	case *ast.Load:
		return in.execLoad(ctx, cmd)
	case *ast.Export:
		return in.execExport(cmd)
	case *ast.Config:
		return in.opts.Config.Set(cmd.Key, cmd.Value)
	default:
		return value.Errorf(value.NotImplemented, "command %T", cmd)
	}
}

func (in *Interp) execAssert(ctx context.Context, cmd *ast.Assert) error {
	left, err := in.evalExp(ctx, cmd.Left)
	if err != nil {
		return err
	}
	right, err := in.evalExp(ctx, cmd.Right)
	if err != nil {
		return err
	}
	var ok bool
	switch cmd.Op {
	case token.EQ:
		ok = value.Equal(left, right)
	case token.SUBEQ:
		ok = value.SubEqual(left, right)
	case token.NOT_EQ:
		ok = !value.Equal(left, right)
	}
	if !ok {
		return value.AssertErr(string(cmd.Op), left, right)
	}
	return nil
}

func (in *Interp) evalCond(ctx context.Context, e ast.Exp) (bool, error) {
	v, err := in.evalExp(ctx, e)
	if err != nil {
		return false, err
	}
	b, ok := v.(*value.Bool)
	if !ok {
		return false, value.Errorf(value.TypeError, "condition is %s, not bool", v.Kind())
	}
	return b.Value, nil
}

func (in *Interp) execImport(cmd *ast.Import) error {
	in.bind(cmd.Alias, &value.Service{ID: cmd.Target})
	if cmd.Schema != "" {
		if err := in.registry.LoadFile(cmd.Target, cmd.Schema); err != nil {
			return value.Errorf(value.CallError, "import %s: %v", cmd.Alias, err)
		}
	}
	return nil
}

func (in *Interp) execLoad(ctx context.Context, cmd *ast.Load) error {
	data, err := os.ReadFile(cmd.Path)
	if err != nil {
		return value.Errorf(value.CallError, "load: %v", err)
	}
	cmds, err := parse(string(data))
	if err != nil {
		return err
	}
	// loaded commands run in the current frame, as if typed inline
	return in.exec(ctx, cmds, false)
}

func (in *Interp) execExport(cmd *ast.Export) error {
	var sb strings.Builder
	for _, c := range in.session {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(cmd.Path, []byte(sb.String()), 0o644); err != nil {
		return value.Errorf(value.CallError, "export: %v", err)
	}
	return nil
}

// resolveSchema finds a method signature, preferring imported interface
// files over the ambient provider.
func (in *Interp) resolveSchema(target, method string) (schema.Method, error) {
	if m, err := in.registry.Resolve(target, method); err == nil {
		return m, nil
	}
	if in.opts.Schemas != nil {
		return in.opts.Schemas.Resolve(target, method)
	}
	return schema.Method{}, value.Errorf(value.CallError, "no interface for %s.%s", target, method)
}

func (in *Interp) messageStore() (*store.Store, error) {
	if in.queue != nil {
		return in.queue, nil
	}
	s, err := store.Open(in.opts.Config.StorePath)
	if err != nil {
		return nil, value.Errorf(value.CallError, "offline store: %v", err)
	}
	in.queue = s
	return s, nil
}

// Close releases the offline store if one was opened.
func (in *Interp) Close() error {
	if in.queue != nil && in.queue != in.opts.Store {
		return in.queue.Close()
	}
	return nil
}
