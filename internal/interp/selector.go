package interp

import (
	"context"
	"math/big"
	"strconv"

	"github.com/dialscript/dial/internal/ast"
	"github.com/dialscript/dial/internal/value"
)

func natOf(n int) *value.Nat {
	return &value.Nat{Value: big.NewInt(int64(n))}
}

func (in *Interp) applySelector(ctx context.Context, v value.Value, sel ast.Selector) (value.Value, error) {
	switch sel.Kind {
	case ast.SelUnwrap:
		o, ok := v.(*value.Opt)
		if !ok {
			return nil, value.Errorf(value.TypeError, "? applied to %s, not opt", v.Kind())
		}
		if o.Value == nil {
			return nil, value.Errorf(value.EmptyOption, "option is empty")
		}
		return o.Value, nil
	case ast.SelField:
		return selectField(v, sel.Field)
	case ast.SelIndex:
		idx, err := in.evalIndex(ctx, sel.Index)
		if err != nil {
			return nil, err
		}
		return selectIndex(v, idx)
	case ast.SelSize:
		c, err := containerOf(v)
		if err != nil {
			return nil, err
		}
		return natOf(len(c.items())), nil
	case ast.SelMap:
		return in.mapItems(ctx, v, sel.Field)
	case ast.SelFilter:
		return in.filterItems(ctx, v, sel.Field)
	case ast.SelFold:
		return in.foldItems(ctx, v, sel)
	default:
		return nil, value.Errorf(value.NotImplemented, "selector %d", sel.Kind)
	}
}

func selectField(v value.Value, name string) (value.Value, error) {
	switch v := v.(type) {
	case *value.Record:
		if f, ok := v.Lookup(name); ok {
			return f, nil
		}
		return nil, value.Errorf(value.NoSuchField, "no field %q in %s", name, v)
	case *value.Variant:
		if v.Field.Label.Equal(value.Named(name)) {
			return v.Field.Value, nil
		}
		return nil, value.Errorf(value.WrongVariant, "variant is %s, not %s", v.Field.Label, name)
	default:
		return nil, value.Errorf(value.TypeError, ".%s applied to %s", name, v.Kind())
	}
}

func selectIndex(v value.Value, idx int) (value.Value, error) {
	switch v := v.(type) {
	case *value.Vec:
		if idx < 0 || idx >= len(v.Elems) {
			return nil, value.Errorf(value.IndexOutOfRange, "index %d outside vec of %d", idx, len(v.Elems))
		}
		return v.Elems[idx], nil
	case *value.Record:
		if idx < 0 || idx >= len(v.Fields) {
			return nil, value.Errorf(value.IndexOutOfRange, "index %d outside record of %d fields", idx, len(v.Fields))
		}
		return itemOf(v.Fields[idx])
	case *value.Variant:
		switch idx {
		case 0:
			return &value.Text{Value: v.Field.Label.Name()}, nil
		case 1:
			return v.Field.Value, nil
		default:
			return nil, value.Errorf(value.IndexOutOfRange, "index %d on variant", idx)
		}
	default:
		return nil, value.Errorf(value.TypeError, "[%d] applied to %s", idx, v.Kind())
	}
}

func (in *Interp) evalIndex(ctx context.Context, e ast.Exp) (int, error) {
	v, err := in.evalExp(ctx, e)
	if err != nil {
		return 0, err
	}
	c, err := value.CompareNumeric(v, &value.Number{Text: "0"})
	if err != nil {
		return 0, value.Errorf(value.TypeError, "index is %s, not a number", v.Kind())
	}
	if c < 0 {
		return 0, value.Errorf(value.IndexOutOfRange, "negative index %s", v)
	}
	n, err := value.Cast(v, value.PrimT(value.KindNat64))
	if err != nil {
		return 0, err
	}
	u := n.(*value.Nat64).Value
	const maxInt = int(^uint(0) >> 1)
	if u > uint64(maxInt) {
		return 0, value.Errorf(value.IndexOutOfRange, "index %d too large", u)
	}
	return int(u), nil
}

// container presents a value as an ordered item sequence for the
// map/filter/fold/size transforms. Three shapes qualify: vectors,
// records, and text.
type container interface {
	items() []value.Value
	rebuild(items []value.Value) (value.Value, error)
}

func containerOf(v value.Value) (container, error) {
	switch v := v.(type) {
	case *value.Vec:
		return vecContainer{v}, nil
	case *value.Record:
		return recordContainer{v}, nil
	case *value.Text:
		return textContainer{v}, nil
	default:
		return nil, value.Errorf(value.TypeError, "%s is not iterable", v.Kind())
	}
}

type vecContainer struct{ v *value.Vec }

func (c vecContainer) items() []value.Value { return c.v.Elems }

func (c vecContainer) rebuild(items []value.Value) (value.Value, error) {
	return &value.Vec{Elems: items}, nil
}

// recordContainer iterates fields as `record { key; value }` pairs, the
// same shape positional indexing exposes, and reassembles labels from
// the key text on the way back.
type recordContainer struct{ v *value.Record }

func (c recordContainer) items() []value.Value {
	items := make([]value.Value, len(c.v.Fields))
	for i, f := range c.v.Fields {
		item, err := itemOf(f)
		if err != nil {
			// labels and values came from a valid record
			panic(err)
		}
		items[i] = item
	}
	return items
}

func (c recordContainer) rebuild(items []value.Value) (value.Value, error) {
	fields := make([]value.Field, len(items))
	for i, item := range items {
		f, err := fieldOf(item)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return value.NewRecord(fields)
}

type textContainer struct{ v *value.Text }

func (c textContainer) items() []value.Value {
	runes := []rune(c.v.Value)
	items := make([]value.Value, len(runes))
	for i, r := range runes {
		items[i] = &value.Text{Value: string(r)}
	}
	return items
}

func (c textContainer) rebuild(items []value.Value) (value.Value, error) {
	var sb []byte
	for _, item := range items {
		t, ok := item.(*value.Text)
		if !ok {
			return nil, value.Errorf(value.TypeError, "text transform produced %s, not text", item.Kind())
		}
		sb = append(sb, t.Value...)
	}
	return &value.Text{Value: string(sb)}, nil
}

// itemOf materializes one record field as `record { key; value }`.
func itemOf(f value.Field) (value.Value, error) {
	return value.NewRecord([]value.Field{
		{Label: value.Named("key"), Value: &value.Text{Value: f.Label.Name()}},
		{Label: value.Named("value"), Value: f.Value},
	})
}

// fieldOf is the inverse of itemOf: numeric key text becomes a numeric
// label, anything else a named one.
func fieldOf(item value.Value) (value.Field, error) {
	rec, ok := item.(*value.Record)
	if !ok {
		return value.Field{}, value.Errorf(value.TypeError, "record transform produced %s, not record", item.Kind())
	}
	key, ok := rec.Lookup("key")
	if !ok {
		return value.Field{}, value.Errorf(value.NoSuchField, "record item has no key field")
	}
	val, ok := rec.Lookup("value")
	if !ok {
		return value.Field{}, value.Errorf(value.NoSuchField, "record item has no value field")
	}
	kt, ok := key.(*value.Text)
	if !ok {
		return value.Field{}, value.Errorf(value.TypeError, "record key is %s, not text", key.Kind())
	}
	if id, err := strconv.ParseUint(kt.Value, 10, 32); err == nil {
		return value.Field{Label: value.ID(uint32(id)), Value: val}, nil
	}
	return value.Field{Label: value.Named(kt.Value), Value: val}, nil
}

func (in *Interp) mapItems(ctx context.Context, v value.Value, fn string) (value.Value, error) {
	c, err := containerOf(v)
	if err != nil {
		return nil, err
	}
	items := c.items()
	mapped := make([]value.Value, len(items))
	for i, item := range items {
		r, err := in.callFunction(ctx, fn, []value.Value{item})
		if err != nil {
			return nil, err
		}
		mapped[i] = r
	}
	return c.rebuild(mapped)
}

// filterItems keeps an item unless the predicate fails or returns false.
// A successful non-bool result keeps the item, so probing selectors like
// `r.y` work as membership tests.
func (in *Interp) filterItems(ctx context.Context, v value.Value, fn string) (value.Value, error) {
	c, err := containerOf(v)
	if err != nil {
		return nil, err
	}
	var kept []value.Value
	for _, item := range c.items() {
		r, err := in.callFunction(ctx, fn, []value.Value{item})
		if err != nil {
			continue
		}
		if b, ok := r.(*value.Bool); ok && !b.Value {
			continue
		}
		kept = append(kept, item)
	}
	if kept == nil {
		kept = []value.Value{}
	}
	return c.rebuild(kept)
}

func (in *Interp) foldItems(ctx context.Context, v value.Value, sel ast.Selector) (value.Value, error) {
	c, err := containerOf(v)
	if err != nil {
		return nil, err
	}
	acc, err := in.evalExp(ctx, sel.Init)
	if err != nil {
		return nil, err
	}
	for _, item := range c.items() {
		acc, err = in.callFunction(ctx, sel.Field, []value.Value{acc, item})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}
