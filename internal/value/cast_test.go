package value

import (
	"math/big"
	"testing"
)

func TestCastNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		to   Type
		want Value
		kind ErrKind
	}{
		{"number to nat8", &Number{Text: "255"}, PrimT(KindNat8), &Nat8{Value: 255}, ""},
		{"number overflow", &Number{Text: "300"}, PrimT(KindNat8), nil, RangeError},
		{"negative to nat", &Number{Text: "-1"}, PrimT(KindNat), nil, RangeError},
		{"number to int64", &Number{Text: "-9223372036854775808"}, PrimT(KindInt64), &Int64{Value: -9223372036854775808}, ""},
		{"int64 underflow", &Number{Text: "-9223372036854775809"}, PrimT(KindInt64), nil, RangeError},
		{"float truncates", &Float64{Value: 2.9}, PrimT(KindInt), &Int{Value: big.NewInt(2)}, ""},
		{"float truncates toward zero", &Float64{Value: -2.9}, PrimT(KindInt), &Int{Value: big.NewInt(-2)}, ""},
		{"widen nat8 to nat64", &Nat8{Value: 7}, PrimT(KindNat64), &Nat64{Value: 7}, ""},
		{"number to float64", &Number{Text: "3"}, PrimT(KindFloat64), &Float64{Value: 3}, ""},
		{"int to float32", &Int8{Value: -2}, PrimT(KindFloat32), &Float32{Value: -2}, ""},
		{"text to nat", &Text{Value: "5"}, PrimT(KindNat), nil, TypeError},
	}
	for _, tt := range tests {
		got, err := Cast(tt.in, tt.to)
		if tt.kind != "" {
			if KindOf(err) != tt.kind {
				t.Errorf("%s: error %v, want %s", tt.name, err, tt.kind)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if !Equal(got, tt.want) {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestCastTextBlob(t *testing.T) {
	b, err := Cast(&Text{Value: "text"}, PrimT(KindBlob))
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(b, &Blob{Value: []byte("text")}) {
		t.Errorf("text to blob: %s", b)
	}

	s, err := Cast(&Blob{Value: []byte("text")}, PrimT(KindText))
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(s, &Text{Value: "text"}) {
		t.Errorf("blob to text: %s", s)
	}

	_, err = Cast(&Blob{Value: []byte{0xff, 0xfe}}, PrimT(KindText))
	if KindOf(err) != DecodeError {
		t.Errorf("invalid utf-8: got %v", err)
	}
}

func TestCastReferences(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		to   Kind
		want Value
		kind ErrKind
	}{
		{"service to principal", &Service{ID: "aaaaa-aa"}, KindPrincipal, &Principal{ID: "aaaaa-aa"}, ""},
		{"principal to service", &Principal{ID: "aaaaa-aa"}, KindService, &Service{ID: "aaaaa-aa"}, ""},
		{"func drops method", &Func{ID: "aaaaa-aa", Method: "greet"}, KindPrincipal, &Principal{ID: "aaaaa-aa"}, ""},
		{"func keeps method", &Func{ID: "aaaaa-aa", Method: "greet"}, KindFunc, &Func{ID: "aaaaa-aa", Method: "greet"}, ""},
		{"principal cannot gain method", &Principal{ID: "aaaaa-aa"}, KindFunc, nil, TypeError},
		{"text is not a reference", &Text{Value: "aaaaa-aa"}, KindPrincipal, nil, TypeError},
	}
	for _, tt := range tests {
		got, err := Cast(tt.in, PrimT(tt.to))
		if tt.kind != "" {
			if KindOf(err) != tt.kind {
				t.Errorf("%s: error %v, want %s", tt.name, err, tt.kind)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if !Equal(got, tt.want) {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestCastOpt(t *testing.T) {
	empty, err := Cast(&Null{}, OptT(PrimT(KindNat)))
	if err != nil {
		t.Fatal(err)
	}
	if o := empty.(*Opt); o.Value != nil {
		t.Errorf("null to opt: %s", empty)
	}

	wrapped, err := Cast(&Number{Text: "5"}, OptT(PrimT(KindNat)))
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(wrapped, &Opt{Value: &Nat{Value: big.NewInt(5)}}) {
		t.Errorf("wrap: %s", wrapped)
	}

	inner, err := Cast(&Opt{Value: &Number{Text: "5"}}, OptT(PrimT(KindNat8)))
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(inner, &Opt{Value: &Nat8{Value: 5}}) {
		t.Errorf("cast inner: %s", inner)
	}
}

func TestCastVec(t *testing.T) {
	v, err := Cast(&Vec{Elems: []Value{&Number{Text: "1"}, &Number{Text: "2"}}}, VecT(PrimT(KindNat8)))
	if err != nil {
		t.Fatal(err)
	}
	want := &Vec{Elems: []Value{&Nat8{Value: 1}, &Nat8{Value: 2}}}
	if !Equal(v, want) {
		t.Errorf("elementwise: %s", v)
	}

	bytes, err := Cast(&Blob{Value: []byte{97, 98}}, VecT(PrimT(KindNat8)))
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(bytes, &Vec{Elems: []Value{&Nat8{Value: 97}, &Nat8{Value: 98}}}) {
		t.Errorf("blob to vec nat8: %s", bytes)
	}

	_, err = Cast(&Vec{Elems: []Value{&Number{Text: "300"}}}, VecT(PrimT(KindNat8)))
	if KindOf(err) != RangeError {
		t.Errorf("element overflow: got %v", err)
	}
}

func TestCastStructuredRejected(t *testing.T) {
	if _, err := Cast(&Number{Text: "5"}, PrimT(KindRecord)); KindOf(err) != NotImplemented {
		t.Errorf("record: got %v", err)
	}
	if _, err := Cast(&Number{Text: "5"}, PrimT(KindVariant)); KindOf(err) != NotImplemented {
		t.Errorf("variant: got %v", err)
	}
}
