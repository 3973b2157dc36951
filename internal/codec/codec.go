// Package codec serializes value tuples to the self-describing wire
// payload used by call, encode and decode. Every value carries its own
// tag on the wire; declared method types only conform values before
// encoding and after decoding, they are never needed to parse a payload.
package codec

import (
	"encoding/binary"
	"math"

	"github.com/dialscript/dial/internal/value"
)

var magic = []byte{'D', 'I', 'A', 'L', 1}

const (
	tagNull byte = iota
	tagBool
	tagNumber
	tagNat
	tagInt
	tagNat8
	tagNat16
	tagNat32
	tagNat64
	tagInt8
	tagInt16
	tagInt32
	tagInt64
	tagFloat32
	tagFloat64
	tagText
	tagBlob
	tagOpt
	tagVec
	tagRecord
	tagVariant
	tagPrincipal
	tagService
	tagFunc
)

// Encode serializes an argument tuple. When types is non-nil each value
// is first conformed to its declared type; a nil types slice produces a
// generic payload from the values as they are.
func Encode(args []value.Value, types []value.Type) ([]byte, error) {
	conformed, err := conformAll(args, types)
	if err != nil {
		return nil, err
	}
	b := append([]byte{}, magic...)
	b = binary.AppendUvarint(b, uint64(len(conformed)))
	for _, v := range conformed {
		b, err = encodeValue(b, v)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Decode parses a payload back into a value tuple, conforming to the
// declared return types when given.
func Decode(payload []byte, types []value.Type) ([]value.Value, error) {
	r := &reader{b: payload}
	for _, m := range magic {
		c, err := r.byte()
		if err != nil || c != m {
			return nil, value.Errorf(value.DecodeError, "bad payload header")
		}
	}
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	vals := make([]value.Value, 0, r.capHint(n))
	for i := uint64(0); i < n; i++ {
		v, err := r.value()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	if r.off != len(r.b) {
		return nil, value.Errorf(value.DecodeError, "trailing bytes in payload")
	}
	return conformAll(vals, types)
}

func conformAll(vals []value.Value, types []value.Type) ([]value.Value, error) {
	if types == nil {
		return vals, nil
	}
	if len(vals) != len(types) {
		return nil, value.Errorf(value.TypeError,
			"arity mismatch: %d values for %d declared types", len(vals), len(types))
	}
	out := make([]value.Value, len(vals))
	for i, v := range vals {
		c, err := conform(v, types[i])
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// conform reinterprets a value under a declared type. Record and variant
// declarations carry no field structure, so they only kind-check; all
// other types go through the cast machinery.
func conform(v value.Value, t value.Type) (value.Value, error) {
	switch t.Kind {
	case value.KindRecord, value.KindVariant:
		if v.Kind() != t.Kind {
			return nil, value.Errorf(value.TypeError, "expected %s, got %s", t.Kind, v.Kind())
		}
		return v, nil
	default:
		return value.Cast(v, t)
	}
}

func encodeValue(b []byte, v value.Value) ([]byte, error) {
	switch v := v.(type) {
	case *value.Null:
		return append(b, tagNull), nil
	case *value.Bool:
		b = append(b, tagBool)
		if v.Value {
			return append(b, 1), nil
		}
		return append(b, 0), nil
	case *value.Number:
		return appendBytes(append(b, tagNumber), []byte(v.Text)), nil
	case *value.Nat:
		return appendBytes(append(b, tagNat), []byte(v.Value.String())), nil
	case *value.Int:
		return appendBytes(append(b, tagInt), []byte(v.Value.String())), nil
	case *value.Nat8:
		return binary.AppendUvarint(append(b, tagNat8), uint64(v.Value)), nil
	case *value.Nat16:
		return binary.AppendUvarint(append(b, tagNat16), uint64(v.Value)), nil
	case *value.Nat32:
		return binary.AppendUvarint(append(b, tagNat32), uint64(v.Value)), nil
	case *value.Nat64:
		return binary.AppendUvarint(append(b, tagNat64), v.Value), nil
	case *value.Int8:
		return binary.AppendVarint(append(b, tagInt8), int64(v.Value)), nil
	case *value.Int16:
		return binary.AppendVarint(append(b, tagInt16), int64(v.Value)), nil
	case *value.Int32:
		return binary.AppendVarint(append(b, tagInt32), int64(v.Value)), nil
	case *value.Int64:
		return binary.AppendVarint(append(b, tagInt64), v.Value), nil
	case *value.Float32:
		b = append(b, tagFloat32)
		return binary.LittleEndian.AppendUint32(b, math.Float32bits(v.Value)), nil
	case *value.Float64:
		b = append(b, tagFloat64)
		return binary.LittleEndian.AppendUint64(b, math.Float64bits(v.Value)), nil
	case *value.Text:
		return appendBytes(append(b, tagText), []byte(v.Value)), nil
	case *value.Blob:
		return appendBytes(append(b, tagBlob), v.Value), nil
	case *value.Opt:
		b = append(b, tagOpt)
		if v.Value == nil {
			return append(b, 0), nil
		}
		return encodeValue(append(b, 1), v.Value)
	case *value.Vec:
		b = binary.AppendUvarint(append(b, tagVec), uint64(len(v.Elems)))
		var err error
		for _, e := range v.Elems {
			b, err = encodeValue(b, e)
			if err != nil {
				return nil, err
			}
		}
		return b, nil
	case *value.Record:
		b = binary.AppendUvarint(append(b, tagRecord), uint64(len(v.Fields)))
		var err error
		for _, f := range v.Fields {
			b, err = encodeField(b, f)
			if err != nil {
				return nil, err
			}
		}
		return b, nil
	case *value.Variant:
		b = binary.AppendUvarint(append(b, tagVariant), v.Index)
		return encodeField(b, v.Field)
	case *value.Principal:
		return appendBytes(append(b, tagPrincipal), []byte(v.ID)), nil
	case *value.Service:
		return appendBytes(append(b, tagService), []byte(v.ID)), nil
	case *value.Func:
		b = appendBytes(append(b, tagFunc), []byte(v.ID))
		return appendBytes(b, []byte(v.Method)), nil
	default:
		return nil, value.Errorf(value.TypeError, "cannot encode %s", v.Kind())
	}
}

func encodeField(b []byte, f value.Field) ([]byte, error) {
	b = binary.AppendUvarint(b, uint64(f.Label.ID()))
	if f.Label.IsNamed() {
		b = appendBytes(append(b, 1), []byte(f.Label.Name()))
	} else {
		b = append(b, 0)
	}
	return encodeValue(b, f.Value)
}

func appendBytes(b, data []byte) []byte {
	b = binary.AppendUvarint(b, uint64(len(data)))
	return append(b, data...)
}

type reader struct {
	b   []byte
	off int
}

func (r *reader) byte() (byte, error) {
	if r.off >= len(r.b) {
		return 0, value.Errorf(value.DecodeError, "truncated payload")
	}
	c := r.b[r.off]
	r.off++
	return c, nil
}

func (r *reader) uvarint() (uint64, error) {
	u, n := binary.Uvarint(r.b[r.off:])
	if n <= 0 {
		return 0, value.Errorf(value.DecodeError, "malformed length")
	}
	r.off += n
	return u, nil
}

func (r *reader) varint() (int64, error) {
	i, n := binary.Varint(r.b[r.off:])
	if n <= 0 {
		return 0, value.Errorf(value.DecodeError, "malformed integer")
	}
	r.off += n
	return i, nil
}

// capHint bounds a count-prefixed pre-allocation by the bytes left in the
// payload. Every element occupies at least one byte, so a count past that
// bound is unsatisfiable and the per-element reads will report truncation.
func (r *reader) capHint(n uint64) int {
	if rem := uint64(len(r.b) - r.off); n > rem {
		n = rem
	}
	return int(n)
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if uint64(len(r.b)-r.off) < n {
		return nil, value.Errorf(value.DecodeError, "truncated payload")
	}
	data := r.b[r.off : r.off+int(n)]
	r.off += int(n)
	return data, nil
}

func (r *reader) value() (value.Value, error) {
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagNull:
		return &value.Null{}, nil
	case tagBool:
		c, err := r.byte()
		if err != nil {
			return nil, err
		}
		return &value.Bool{Value: c != 0}, nil
	case tagNumber:
		data, err := r.bytes()
		if err != nil {
			return nil, err
		}
		return &value.Number{Text: string(data)}, nil
	case tagNat, tagInt:
		data, err := r.bytes()
		if err != nil {
			return nil, err
		}
		n := &value.Number{Text: string(data)}
		i, err := n.Big()
		if err != nil {
			return nil, value.Errorf(value.DecodeError, "malformed big integer %q", data)
		}
		if tag == tagNat {
			return &value.Nat{Value: i}, nil
		}
		return &value.Int{Value: i}, nil
	case tagNat8, tagNat16, tagNat32, tagNat64:
		u, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagNat8:
			return &value.Nat8{Value: uint8(u)}, nil
		case tagNat16:
			return &value.Nat16{Value: uint16(u)}, nil
		case tagNat32:
			return &value.Nat32{Value: uint32(u)}, nil
		default:
			return &value.Nat64{Value: u}, nil
		}
	case tagInt8, tagInt16, tagInt32, tagInt64:
		i, err := r.varint()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagInt8:
			return &value.Int8{Value: int8(i)}, nil
		case tagInt16:
			return &value.Int16{Value: int16(i)}, nil
		case tagInt32:
			return &value.Int32{Value: int32(i)}, nil
		default:
			return &value.Int64{Value: i}, nil
		}
	case tagFloat32:
		if len(r.b)-r.off < 4 {
			return nil, value.Errorf(value.DecodeError, "truncated payload")
		}
		bits := binary.LittleEndian.Uint32(r.b[r.off:])
		r.off += 4
		return &value.Float32{Value: math.Float32frombits(bits)}, nil
	case tagFloat64:
		if len(r.b)-r.off < 8 {
			return nil, value.Errorf(value.DecodeError, "truncated payload")
		}
		bits := binary.LittleEndian.Uint64(r.b[r.off:])
		r.off += 8
		return &value.Float64{Value: math.Float64frombits(bits)}, nil
	case tagText:
		data, err := r.bytes()
		if err != nil {
			return nil, err
		}
		return &value.Text{Value: string(data)}, nil
	case tagBlob:
		data, err := r.bytes()
		if err != nil {
			return nil, err
		}
		return &value.Blob{Value: append([]byte{}, data...)}, nil
	case tagOpt:
		c, err := r.byte()
		if err != nil {
			return nil, err
		}
		if c == 0 {
			return &value.Opt{}, nil
		}
		inner, err := r.value()
		if err != nil {
			return nil, err
		}
		return &value.Opt{Value: inner}, nil
	case tagVec:
		n, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		elems := make([]value.Value, 0, r.capHint(n))
		for i := uint64(0); i < n; i++ {
			e, err := r.value()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return &value.Vec{Elems: elems}, nil
	case tagRecord:
		n, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		fields := make([]value.Field, 0, r.capHint(n))
		for i := uint64(0); i < n; i++ {
			f, err := r.field()
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return value.NewRecord(fields)
	case tagVariant:
		idx, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		f, err := r.field()
		if err != nil {
			return nil, err
		}
		return &value.Variant{Field: f, Index: idx}, nil
	case tagPrincipal, tagService:
		data, err := r.bytes()
		if err != nil {
			return nil, err
		}
		if tag == tagPrincipal {
			return &value.Principal{ID: string(data)}, nil
		}
		return &value.Service{ID: string(data)}, nil
	case tagFunc:
		id, err := r.bytes()
		if err != nil {
			return nil, err
		}
		method, err := r.bytes()
		if err != nil {
			return nil, err
		}
		return &value.Func{ID: string(id), Method: string(method)}, nil
	default:
		return nil, value.Errorf(value.DecodeError, "unknown value tag %d", tag)
	}
}

func (r *reader) field() (value.Field, error) {
	id, err := r.uvarint()
	if err != nil {
		return value.Field{}, err
	}
	named, err := r.byte()
	if err != nil {
		return value.Field{}, err
	}
	var label value.Label
	if named != 0 {
		name, err := r.bytes()
		if err != nil {
			return value.Field{}, err
		}
		label = value.Named(string(name))
	} else {
		label = value.ID(uint32(id))
	}
	v, err := r.value()
	if err != nil {
		return value.Field{}, err
	}
	return value.Field{Label: label, Value: v}, nil
}
