// Package ast defines the syntax tree for dial scripts. Commands are the
// top-level statements; expressions evaluate to values; selectors are the
// postfix transform stages applied to an expression.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dialscript/dial/internal/token"
	"github.com/dialscript/dial/internal/value"
)

type Node interface {
	Pos() token.Token
	String() string
}

type Command interface {
	Node
	commandNode()
}

type Exp interface {
	Node
	expNode()
}

// ---- commands ----

type Let struct {
	Tok   token.Token
	Name  string
	Value Exp
}

type Assert struct {
	Tok   token.Token
	Op    token.Type // EQ, SUBEQ or NOT_EQ
	Left  Exp
	Right Exp
}

type FuncDef struct {
	Tok    token.Token
	Name   string
	Params []string
	Body   []Command
}

type If struct {
	Tok  token.Token
	Cond Exp
	Then []Command
	Else []Command
}

type While struct {
	Tok  token.Token
	Cond Exp
	Body []Command
}

// ExpStmt is a bare expression command; its result rebinds `_`.
type ExpStmt struct {
	Tok token.Token
	Exp Exp
}

type Import struct {
	Tok    token.Token
	Alias  string
	Target string
	Schema string // optional interface file path
}

type Load struct {
	Tok  token.Token
	Path string
}

type Export struct {
	Tok  token.Token
	Path string
}

type Config struct {
	Tok   token.Token
	Key   string
	Value string
}

func (c *Let) commandNode()     {}
func (c *Assert) commandNode()  {}
func (c *FuncDef) commandNode() {}
func (c *If) commandNode()      {}
func (c *While) commandNode()   {}
func (c *ExpStmt) commandNode() {}
func (c *Import) commandNode()  {}
func (c *Load) commandNode()    {}
func (c *Export) commandNode()  {}
func (c *Config) commandNode()  {}

func (c *Let) Pos() token.Token     { return c.Tok }
func (c *Assert) Pos() token.Token  { return c.Tok }
func (c *FuncDef) Pos() token.Token { return c.Tok }
func (c *If) Pos() token.Token      { return c.Tok }
func (c *While) Pos() token.Token   { return c.Tok }
func (c *ExpStmt) Pos() token.Token { return c.Tok }
func (c *Import) Pos() token.Token  { return c.Tok }
func (c *Load) Pos() token.Token    { return c.Tok }
func (c *Export) Pos() token.Token  { return c.Tok }
func (c *Config) Pos() token.Token  { return c.Tok }

func (c *Let) String() string { return fmt.Sprintf("let %s = %s;", c.Name, c.Value) }

func (c *Assert) String() string {
	return fmt.Sprintf("assert %s %s %s;", c.Left, c.Op, c.Right)
}

func (c *FuncDef) String() string {
	return fmt.Sprintf("function %s(%s) %s", c.Name, strings.Join(c.Params, ", "), block(c.Body))
}

func (c *If) String() string {
	s := fmt.Sprintf("if %s %s", c.Cond, block(c.Then))
	if c.Else != nil {
		s += " else " + block(c.Else)
	}
	return s
}

func (c *While) String() string { return fmt.Sprintf("while %s %s", c.Cond, block(c.Body)) }

func (c *ExpStmt) String() string { return c.Exp.String() + ";" }

func (c *Import) String() string {
	s := fmt.Sprintf("import %s = %q", c.Alias, c.Target)
	if c.Schema != "" {
		s += " : " + strconv.Quote(c.Schema)
	}
	return s + ";"
}

func (c *Load) String() string   { return fmt.Sprintf("load %q;", c.Path) }
func (c *Export) String() string { return fmt.Sprintf("export %q;", c.Path) }
func (c *Config) String() string { return fmt.Sprintf("config %s %q;", c.Key, c.Value) }

func block(cmds []Command) string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for _, c := range cmds {
		sb.WriteString(c.String())
		sb.WriteString(" ")
	}
	sb.WriteString("}")
	return sb.String()
}

// ---- expressions ----

type BoolLit struct {
	Tok   token.Token
	Value bool
}

// NumberLit holds the exact decimal text of an integer literal; it stays
// unsized until a cast materializes it.
type NumberLit struct {
	Tok  token.Token
	Text string
}

type FloatLit struct {
	Tok  token.Token
	Text string
}

type TextLit struct {
	Tok   token.Token
	Value string
}

type BlobLit struct {
	Tok   token.Token
	Bytes []byte
}

type NullLit struct {
	Tok token.Token
}

type OptLit struct {
	Tok   token.Token
	Value Exp
}

type VecLit struct {
	Tok   token.Token
	Elems []Exp
}

// FieldLit is one field of a record or variant literal. Unnamed record
// fields get sequential numeric ids at construction time.
type FieldLit struct {
	Name  string
	ID    uint32
	Named bool
	Value Exp // nil for a bare variant tag
}

type RecordLit struct {
	Tok    token.Token
	Fields []FieldLit
}

type VariantLit struct {
	Tok   token.Token
	Field FieldLit
}

type PrincipalLit struct {
	Tok token.Token
	ID  string
}

type ServiceLit struct {
	Tok token.Token
	ID  string
}

type FuncRefLit struct {
	Tok    token.Token
	ID     string
	Method string
}

type Ident struct {
	Tok  token.Token
	Name string
}

// Annot is a cast, `(exp : type)`.
type Annot struct {
	Tok  token.Token
	Exp  Exp
	Type value.Type
}

// Apply is a builtin or user function application by name.
type Apply struct {
	Tok  token.Token
	Name string
	Args []Exp
}

// Select applies a selector pipeline to a base expression.
type Select struct {
	Tok  token.Token
	Base Exp
	Path []Selector
}

type CallMode int

const (
	ModeCall CallMode = iota
	ModeEncode
	ModeProxy
)

// CallExp is `call`, `encode`, or `call … as proxy via wallet`. Target
// evaluates to a principal, service, or func reference; Method may be
// empty when the target is a func reference carrying its own method.
type CallExp struct {
	Tok    token.Token
	Mode   CallMode
	Target Exp
	Method string
	Args   []Exp
	Via    Exp // proxy forwarder, nil otherwise
}

// DecodeExp decodes a blob, optionally against a method's return types.
type DecodeExp struct {
	Tok    token.Token
	Target Exp // nil for self-describing decode
	Method string
	Blob   Exp
}

type ParCallExp struct {
	Tok   token.Token
	Calls []*CallExp
}

func (e *BoolLit) expNode()      {}
func (e *NumberLit) expNode()    {}
func (e *FloatLit) expNode()     {}
func (e *TextLit) expNode()      {}
func (e *BlobLit) expNode()      {}
func (e *NullLit) expNode()      {}
func (e *OptLit) expNode()       {}
func (e *VecLit) expNode()       {}
func (e *RecordLit) expNode()    {}
func (e *VariantLit) expNode()   {}
func (e *PrincipalLit) expNode() {}
func (e *ServiceLit) expNode()   {}
func (e *FuncRefLit) expNode()   {}
func (e *Ident) expNode()        {}
func (e *Annot) expNode()        {}
func (e *Apply) expNode()        {}
func (e *Select) expNode()       {}
func (e *CallExp) expNode()      {}
func (e *DecodeExp) expNode()    {}
func (e *ParCallExp) expNode()   {}

func (e *BoolLit) Pos() token.Token      { return e.Tok }
func (e *NumberLit) Pos() token.Token    { return e.Tok }
func (e *FloatLit) Pos() token.Token     { return e.Tok }
func (e *TextLit) Pos() token.Token      { return e.Tok }
func (e *BlobLit) Pos() token.Token      { return e.Tok }
func (e *NullLit) Pos() token.Token      { return e.Tok }
func (e *OptLit) Pos() token.Token       { return e.Tok }
func (e *VecLit) Pos() token.Token       { return e.Tok }
func (e *RecordLit) Pos() token.Token    { return e.Tok }
func (e *VariantLit) Pos() token.Token   { return e.Tok }
func (e *PrincipalLit) Pos() token.Token { return e.Tok }
func (e *ServiceLit) Pos() token.Token   { return e.Tok }
func (e *FuncRefLit) Pos() token.Token   { return e.Tok }
func (e *Ident) Pos() token.Token        { return e.Tok }
func (e *Annot) Pos() token.Token        { return e.Tok }
func (e *Apply) Pos() token.Token        { return e.Tok }
func (e *Select) Pos() token.Token       { return e.Tok }
func (e *CallExp) Pos() token.Token      { return e.Tok }
func (e *DecodeExp) Pos() token.Token    { return e.Tok }
func (e *ParCallExp) Pos() token.Token   { return e.Tok }

func (e *BoolLit) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

func (e *NumberLit) String() string { return e.Text }
func (e *FloatLit) String() string  { return e.Text }
func (e *TextLit) String() string   { return strconv.Quote(e.Value) }

func (e *BlobLit) String() string {
	var sb strings.Builder
	sb.WriteString(`blob "`)
	for _, b := range e.Bytes {
		if b >= 0x20 && b < 0x7f && b != '"' && b != '\\' {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "\\%02x", b)
		}
	}
	sb.WriteString(`"`)
	return sb.String()
}

func (e *NullLit) String() string { return "null" }
func (e *OptLit) String() string  { return "opt " + e.Value.String() }

func (e *VecLit) String() string {
	parts := make([]string, len(e.Elems))
	for i, el := range e.Elems {
		parts[i] = el.String()
	}
	return "vec { " + strings.Join(parts, "; ") + " }"
}

func (f FieldLit) String() string {
	label := f.Name
	if !f.Named {
		label = strconv.FormatUint(uint64(f.ID), 10)
	}
	if f.Value == nil {
		return label
	}
	return label + " = " + f.Value.String()
}

func (e *RecordLit) String() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "record { " + strings.Join(parts, "; ") + " }"
}

func (e *VariantLit) String() string { return "variant { " + e.Field.String() + " }" }

func (e *PrincipalLit) String() string { return fmt.Sprintf("principal %q", e.ID) }
func (e *ServiceLit) String() string   { return fmt.Sprintf("service %q", e.ID) }
func (e *FuncRefLit) String() string   { return fmt.Sprintf("func %q.%s", e.ID, e.Method) }
func (e *Ident) String() string        { return e.Name }

func (e *Annot) String() string { return fmt.Sprintf("(%s : %s)", e.Exp, e.Type.String()) }

func (e *Apply) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (e *Select) String() string {
	var sb strings.Builder
	sb.WriteString(e.Base.String())
	for _, s := range e.Path {
		sb.WriteString(s.String())
	}
	return sb.String()
}

func (e *CallExp) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	kw := "call"
	if e.Mode == ModeEncode {
		kw = "encode"
	}
	s := kw
	if e.Target != nil {
		s += " " + e.Target.String()
		if e.Method != "" {
			s += "." + e.Method
		}
	}
	s += "(" + strings.Join(parts, ", ") + ")"
	if e.Mode == ModeProxy {
		s += " as proxy via " + e.Via.String()
	}
	return s
}

func (e *DecodeExp) String() string {
	s := "decode "
	if e.Target != nil {
		s += "as " + e.Target.String() + "." + e.Method + " "
	}
	return s + e.Blob.String()
}

func (e *ParCallExp) String() string {
	parts := make([]string, len(e.Calls))
	for i, c := range e.Calls {
		parts[i] = strings.TrimPrefix(c.String(), "call ")
	}
	return "par_call [ " + strings.Join(parts, ", ") + " ]"
}

// ---- selectors ----

type SelKind int

const (
	SelUnwrap SelKind = iota // ?
	SelField                 // .name
	SelIndex                 // [exp]
	SelMap                   // .map(f)
	SelFilter                // .filter(f)
	SelFold                  // .fold(init, f)
	SelSize                  // .size()
)

type Selector struct {
	Tok   token.Token
	Kind  SelKind
	Field string // SelField, and the function name for map/filter/fold
	Index Exp    // SelIndex
	Init  Exp    // SelFold initial accumulator
}

func (s Selector) String() string {
	switch s.Kind {
	case SelUnwrap:
		return "?"
	case SelField:
		return "." + s.Field
	case SelIndex:
		return "[" + s.Index.String() + "]"
	case SelMap:
		return ".map(" + s.Field + ")"
	case SelFilter:
		return ".filter(" + s.Field + ")"
	case SelFold:
		return ".fold(" + s.Init.String() + ", " + s.Field + ")"
	case SelSize:
		return ".size()"
	}
	return ""
}
