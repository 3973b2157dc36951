package interp

import "github.com/dialscript/dial/internal/value"

// frame is one scope level: a flat binding map. Function calls push a
// frame seeded from the caller's visible bindings, so callees read what
// the caller could see (dynamic scoping) without capturing definition
// sites.
type frame struct {
	vars map[string]value.Value
}

func newFrame() *frame {
	return &frame{vars: map[string]value.Value{}}
}

func (in *Interp) cur() *frame { return in.frames[len(in.frames)-1] }

// push enters a call frame cloned from the caller's bindings. The clone
// drops `_` so the callee's result tracking starts clean.
func (in *Interp) push() {
	f := newFrame()
	for k, v := range in.cur().vars {
		if k == resultVar {
			continue
		}
		f.vars[k] = v
	}
	in.frames = append(in.frames, f)
}

func (in *Interp) pop() {
	in.frames = in.frames[:len(in.frames)-1]
}

func (in *Interp) bind(name string, v value.Value) {
	in.cur().vars[name] = v
}

func (in *Interp) lookup(name string) (value.Value, error) {
	if v, ok := in.cur().vars[name]; ok {
		return v, nil
	}
	return nil, value.Errorf(value.UndefinedName, "undefined variable %q", name)
}
