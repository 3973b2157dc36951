package value

import (
	"math/big"
	"testing"
)

func record(t *testing.T, fields ...Field) *Record {
	t.Helper()
	r, err := NewRecord(fields)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func named(name string, v Value) Field { return Field{Label: Named(name), Value: v} }

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"numbers normalize", &Number{Text: "0120"}, &Number{Text: "120"}, true},
		{"number vs float differ", &Number{Text: "1"}, &Float64{Value: 1}, false},
		{"nat vs int differ", &Nat{Value: big.NewInt(1)}, &Int{Value: big.NewInt(1)}, false},
		{"text", &Text{Value: "a"}, &Text{Value: "a"}, true},
		{"blob", &Blob{Value: []byte{1, 2}}, &Blob{Value: []byte{1, 2}}, true},
		{"empty opts", &Opt{}, &Opt{}, true},
		{"opt vs empty", &Opt{Value: &Null{}}, &Opt{}, false},
		{"vec order matters", &Vec{Elems: []Value{&Text{Value: "a"}, &Text{Value: "b"}}},
			&Vec{Elems: []Value{&Text{Value: "b"}, &Text{Value: "a"}}}, false},
		{"variant index ignored",
			&Variant{Field: named("ok", &Number{Text: "1"}), Index: 0},
			&Variant{Field: named("ok", &Number{Text: "1"}), Index: 3}, true},
		{"variant label matters",
			&Variant{Field: named("ok", &Number{Text: "1"})},
			&Variant{Field: named("err", &Number{Text: "1"})}, false},
		{"principal vs service differ", &Principal{ID: "x"}, &Service{ID: "x"}, false},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: Equal(%s, %s) = %v", tt.name, tt.a, tt.b, got)
		}
	}
}

func TestEqualRecords(t *testing.T) {
	a := record(t, named("x", &Number{Text: "1"}), named("y", &Number{Text: "2"}))
	b := record(t, named("y", &Number{Text: "2"}), named("x", &Number{Text: "1"}))
	if !Equal(a, b) {
		t.Error("field order in the literal must not matter")
	}
	c := record(t, named("x", &Number{Text: "1"}))
	if Equal(a, c) {
		t.Error("missing field must not compare equal")
	}
}

func TestSubEqual(t *testing.T) {
	wide := record(t,
		named("controllers", &Vec{Elems: []Value{&Principal{ID: "alice"}}}),
		named("memory", &Number{Text: "100"}),
	)
	narrow := record(t, named("controllers", &Vec{Elems: []Value{&Principal{ID: "alice"}}}))

	tests := []struct {
		name        string
		left, right Value
		want        bool
	}{
		{"record superset", wide, narrow, true},
		{"record missing field", narrow, wide, false},
		{"text containment", &Text{Value: "hello world"}, &Text{Value: "lo wo"}, true},
		{"text not contained", &Text{Value: "hello"}, &Text{Value: "world"}, false},
		{"reference kinds by id", &Principal{ID: "x"}, &Service{ID: "x"}, true},
		{"reference id differs", &Principal{ID: "x"}, &Service{ID: "y"}, false},
		{"fallback to equal", &Number{Text: "5"}, &Number{Text: "5"}, true},
		{"non-record left", &Number{Text: "5"}, narrow, false},
	}
	for _, tt := range tests {
		if got := SubEqual(tt.left, tt.right); got != tt.want {
			t.Errorf("%s: SubEqual = %v", tt.name, got)
		}
	}
}

func TestCompareNumeric(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"big integers", &Number{Text: "100000000000000000000"}, &Number{Text: "2"}, 1},
		{"mixed float", &Number{Text: "1"}, &Float64{Value: 1.5}, -1},
		{"equal across widths", &Nat8{Value: 2}, &Number{Text: "2"}, 0},
		{"floats", &Float64{Value: 2.5}, &Float32{Value: 2.5}, 0},
	}
	for _, tt := range tests {
		got, err := CompareNumeric(tt.a, tt.b)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}

	if _, err := CompareNumeric(&Text{Value: "1"}, &Number{Text: "1"}); KindOf(err) != TypeError {
		t.Errorf("non-numeric: got %v", err)
	}
}
