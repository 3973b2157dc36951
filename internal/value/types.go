package value

// Type is a target-type annotation, used by casts and by the codec to
// interpret untyped values against a method signature. Composite record and
// variant types carry no field structure here: calls always consult the
// remote schema for those, and casting to them is rejected.
type Type struct {
	Kind Kind
	Elem *Type // element type for opt and vec
}

func PrimT(k Kind) Type     { return Type{Kind: k} }
func OptT(elem Type) Type   { return Type{Kind: KindOpt, Elem: &elem} }
func VecT(elem Type) Type   { return Type{Kind: KindVec, Elem: &elem} }

func (t Type) String() string {
	switch t.Kind {
	case KindOpt:
		return "opt " + t.Elem.String()
	case KindVec:
		return "vec " + t.Elem.String()
	default:
		return string(t.Kind)
	}
}

// primTypeNames maps annotation spellings to kinds. "blob" is its own kind
// even though it is interchangeable with vec nat8 at the cast level.
var primTypeNames = map[string]Kind{
	"bool":      KindBool,
	"nat":       KindNat,
	"int":       KindInt,
	"nat8":      KindNat8,
	"nat16":     KindNat16,
	"nat32":     KindNat32,
	"nat64":     KindNat64,
	"int8":      KindInt8,
	"int16":     KindInt16,
	"int32":     KindInt32,
	"int64":     KindInt64,
	"float32":   KindFloat32,
	"float64":   KindFloat64,
	"text":      KindText,
	"null":      KindNull,
	"principal": KindPrincipal,
}

// PrimTypeByName resolves a primitive type name from the annotation grammar.
func PrimTypeByName(name string) (Type, bool) {
	k, ok := primTypeNames[name]
	if !ok {
		return Type{}, false
	}
	return Type{Kind: k}, true
}

// TypeOf reports the value's own shape as a Type. Used by the codec when
// encoding without a method context.
func TypeOf(v Value) Type {
	switch v := v.(type) {
	case *Opt:
		if v.Value == nil {
			return OptT(PrimT(KindNull))
		}
		return OptT(TypeOf(v.Value))
	case *Vec:
		if len(v.Elems) == 0 {
			return VecT(PrimT(KindNull))
		}
		return VecT(TypeOf(v.Elems[0]))
	default:
		return PrimT(v.Kind())
	}
}
