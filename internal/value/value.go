// Package value implements the structural value algebra that scripts
// manipulate: primitives, options, vectors, records, variants, and typed
// references to remote services. Values are immutable; every transform
// produces a new Value.
package value

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

type Kind string

const (
	KindBool      Kind = "bool"
	KindNumber    Kind = "number" // unsized decimal literal, not yet materialized
	KindNat       Kind = "nat"
	KindInt       Kind = "int"
	KindNat8      Kind = "nat8"
	KindNat16     Kind = "nat16"
	KindNat32     Kind = "nat32"
	KindNat64     Kind = "nat64"
	KindInt8      Kind = "int8"
	KindInt16     Kind = "int16"
	KindInt32     Kind = "int32"
	KindInt64     Kind = "int64"
	KindFloat32   Kind = "float32"
	KindFloat64   Kind = "float64"
	KindText      Kind = "text"
	KindBlob      Kind = "blob"
	KindNull      Kind = "null"
	KindOpt       Kind = "opt"
	KindVec       Kind = "vec"
	KindRecord    Kind = "record"
	KindVariant   Kind = "variant"
	KindPrincipal Kind = "principal"
	KindService   Kind = "service"
	KindFunc      Kind = "func"
)

// Value is one node of the tagged-union data model. String renders the value
// in surface syntax, so an exported environment can be parsed back.
type Value interface {
	Kind() Kind
	String() string
}

type Bool struct {
	Value bool
}

func (b *Bool) Kind() Kind { return KindBool }
func (b *Bool) String() string {
	return strconv.FormatBool(b.Value)
}

// Number is an exact decimal integer literal of arbitrary precision. It stays
// unsized until a cast materializes it into a fixed-width or big-integer kind.
type Number struct {
	Text string
}

func (n *Number) Kind() Kind     { return KindNumber }
func (n *Number) String() string { return n.Text }

// Big parses the decimal text. The parser only produces well-formed decimal
// strings, so failure here means the Number was constructed by hand.
func (n *Number) Big() (*big.Int, error) {
	i, ok := new(big.Int).SetString(n.Text, 10)
	if !ok {
		return nil, Errorf(TypeError, "malformed number %q", n.Text)
	}
	return i, nil
}

type Nat struct {
	Value *big.Int
}

func (n *Nat) Kind() Kind     { return KindNat }
func (n *Nat) String() string { return n.Value.String() }

type Int struct {
	Value *big.Int
}

func (n *Int) Kind() Kind     { return KindInt }
func (n *Int) String() string { return n.Value.String() }

type Nat8 struct {
	Value uint8
}

func (n *Nat8) Kind() Kind     { return KindNat8 }
func (n *Nat8) String() string { return strconv.FormatUint(uint64(n.Value), 10) }

type Nat16 struct {
	Value uint16
}

func (n *Nat16) Kind() Kind     { return KindNat16 }
func (n *Nat16) String() string { return strconv.FormatUint(uint64(n.Value), 10) }

type Nat32 struct {
	Value uint32
}

func (n *Nat32) Kind() Kind     { return KindNat32 }
func (n *Nat32) String() string { return strconv.FormatUint(uint64(n.Value), 10) }

type Nat64 struct {
	Value uint64
}

func (n *Nat64) Kind() Kind     { return KindNat64 }
func (n *Nat64) String() string { return strconv.FormatUint(n.Value, 10) }

type Int8 struct {
	Value int8
}

func (n *Int8) Kind() Kind     { return KindInt8 }
func (n *Int8) String() string { return strconv.FormatInt(int64(n.Value), 10) }

type Int16 struct {
	Value int16
}

func (n *Int16) Kind() Kind     { return KindInt16 }
func (n *Int16) String() string { return strconv.FormatInt(int64(n.Value), 10) }

type Int32 struct {
	Value int32
}

func (n *Int32) Kind() Kind     { return KindInt32 }
func (n *Int32) String() string { return strconv.FormatInt(int64(n.Value), 10) }

type Int64 struct {
	Value int64
}

func (n *Int64) Kind() Kind     { return KindInt64 }
func (n *Int64) String() string { return strconv.FormatInt(n.Value, 10) }

type Float32 struct {
	Value float32
}

func (f *Float32) Kind() Kind { return KindFloat32 }
func (f *Float32) String() string {
	return formatFloat(float64(f.Value), 32)
}

type Float64 struct {
	Value float64
}

func (f *Float64) Kind() Kind { return KindFloat64 }
func (f *Float64) String() string {
	return formatFloat(f.Value, 64)
}

func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	// Keep the literal recognizable as a float when it round-trips.
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}

type Text struct {
	Value string
}

func (t *Text) Kind() Kind     { return KindText }
func (t *Text) String() string { return strconv.Quote(t.Value) }

type Blob struct {
	Value []byte
}

func (b *Blob) Kind() Kind { return KindBlob }
func (b *Blob) String() string {
	var sb strings.Builder
	sb.WriteString(`blob "`)
	for _, c := range b.Value {
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			sb.WriteByte(c)
		} else {
			fmt.Fprintf(&sb, "\\%02x", c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

type Null struct{}

func (n *Null) Kind() Kind     { return KindNull }
func (n *Null) String() string { return "null" }

// Opt holds an optional value. A nil Value is the empty option.
type Opt struct {
	Value Value
}

func (o *Opt) Kind() Kind { return KindOpt }
func (o *Opt) String() string {
	if o.Value == nil {
		return "null"
	}
	return "opt " + o.Value.String()
}

type Vec struct {
	Elems []Value
}

func (v *Vec) Kind() Kind { return KindVec }
func (v *Vec) String() string {
	var sb strings.Builder
	sb.WriteString("vec {")
	for i, e := range v.Elems {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteByte(' ')
		sb.WriteString(e.String())
	}
	sb.WriteString(" }")
	return sb.String()
}

// Principal is an opaque actor identity, kept in its textual form.
type Principal struct {
	ID string
}

func (p *Principal) Kind() Kind     { return KindPrincipal }
func (p *Principal) String() string { return fmt.Sprintf("principal %q", p.ID) }

// Service is a reference to an actor that can receive calls.
type Service struct {
	ID string
}

func (s *Service) Kind() Kind     { return KindService }
func (s *Service) String() string { return fmt.Sprintf("service %q", s.ID) }

// Func is a reference to one method of an actor.
type Func struct {
	ID     string
	Method string
}

func (f *Func) Kind() Kind     { return KindFunc }
func (f *Func) String() string { return fmt.Sprintf("func %q.%s", f.ID, f.Method) }
