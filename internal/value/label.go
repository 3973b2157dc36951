package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Label identifies a Record or Variant field: either a name or a numeric id.
// Named labels compare and sort by a content-derived 32-bit hash, so two
// records built from the same field names always agree on field order.
type Label struct {
	name  string
	id    uint32
	named bool
}

func Named(name string) Label {
	return Label{name: name, id: hashName(name), named: true}
}

func ID(id uint32) Label {
	return Label{id: id}
}

func (l Label) ID() uint32    { return l.id }
func (l Label) IsNamed() bool { return l.named }

// Name returns the field name for named labels and the decimal id otherwise.
func (l Label) Name() string {
	if l.named {
		return l.name
	}
	return strconv.FormatUint(uint64(l.id), 10)
}

func (l Label) String() string { return l.Name() }

func (l Label) Equal(o Label) bool { return l.id == o.id }

// hashName is the standard structural field hash: h = h*223 + byte, mod 2^32.
func hashName(name string) uint32 {
	var h uint32
	for _, b := range []byte(name) {
		h = h*223 + uint32(b)
	}
	return h
}

// Field is a (Label, Value) pair.
type Field struct {
	Label Label
	Value Value
}

// Record is an ordered set of fields, kept sorted ascending by label id.
// Construct through NewRecord so the invariants hold.
type Record struct {
	Fields []Field
}

// NewRecord sorts the fields by label id and rejects duplicate labels.
func NewRecord(fields []Field) (*Record, error) {
	fs := make([]Field, len(fields))
	copy(fs, fields)
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].Label.ID() < fs[j].Label.ID() })
	for i := 1; i < len(fs); i++ {
		if fs[i].Label.ID() == fs[i-1].Label.ID() {
			return nil, Errorf(TypeError, "duplicate record label %s", fs[i].Label)
		}
	}
	return &Record{Fields: fs}, nil
}

func (r *Record) Kind() Kind { return KindRecord }

func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString("record {")
	for i, f := range r.Fields {
		if i > 0 {
			sb.WriteByte(';')
		}
		fmt.Fprintf(&sb, " %s = %s", f.Label, f.Value)
	}
	sb.WriteString(" }")
	return sb.String()
}

// Lookup finds a field by named label.
func (r *Record) Lookup(name string) (Value, bool) {
	want := Named(name)
	for _, f := range r.Fields {
		if f.Label.Equal(want) {
			return f.Value, true
		}
	}
	return nil, false
}

// Variant holds exactly one active field. Index records the field's position
// within the variant's declared type, independent of the label; it defaults
// to 0 for values built from literals.
type Variant struct {
	Field Field
	Index uint64
}

func (v *Variant) Kind() Kind { return KindVariant }

func (v *Variant) String() string {
	if v.Field.Value == nil || v.Field.Value.Kind() == KindNull {
		return fmt.Sprintf("variant { %s }", v.Field.Label)
	}
	return fmt.Sprintf("variant { %s = %s }", v.Field.Label, v.Field.Value)
}
