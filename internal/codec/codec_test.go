package codec

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dialscript/dial/internal/value"
)

func mustRecord(t *testing.T, fields ...value.Field) *value.Record {
	t.Helper()
	r, err := value.NewRecord(fields)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRoundTripSelfDescribing(t *testing.T) {
	rec := mustRecord(t,
		value.Field{Label: value.Named("id"), Value: &value.Number{Text: "1"}},
		value.Field{Label: value.Named("x"), Value: &value.Opt{Value: &value.Number{Text: "2"}}},
	)
	args := []value.Value{
		&value.Bool{Value: true},
		&value.Number{Text: "340282366920938463463374607431768211456"},
		&value.Int64{Value: -42},
		&value.Float64{Value: 3.25},
		&value.Text{Value: "héllo"},
		&value.Blob{Value: []byte{0, 1, 0xff}},
		&value.Null{},
		&value.Opt{},
		&value.Vec{Elems: []value.Value{&value.Nat8{Value: 7}, &value.Nat8{Value: 9}}},
		rec,
		&value.Variant{Field: value.Field{Label: value.Named("ok"), Value: &value.Number{Text: "5"}}, Index: 1},
		&value.Principal{ID: "aaaaa-aa"},
		&value.Service{ID: "aaaaa-aa"},
		&value.Func{ID: "aaaaa-aa", Method: "greet"},
	}

	payload, err := Encode(args, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(payload, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(args) {
		t.Fatalf("arity: got %d, want %d", len(got), len(args))
	}
	for i := range args {
		if !value.Equal(got[i], args[i]) {
			t.Errorf("args[%d]: got %s, want %s", i, got[i], args[i])
		}
	}
}

func TestTypedEncodeConforms(t *testing.T) {
	types := []value.Type{value.PrimT(value.KindNat8), value.PrimT(value.KindText)}
	payload, err := Encode([]value.Value{
		&value.Number{Text: "200"},
		&value.Text{Value: "ok"},
	}, types)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(payload, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []value.Value{&value.Nat8{Value: 200}, &value.Text{Value: "ok"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded values mismatch (-want +got):\n%s", diff)
	}
}

func TestTypedEncodeRangeError(t *testing.T) {
	types := []value.Type{value.PrimT(value.KindNat8)}
	_, err := Encode([]value.Value{&value.Number{Text: "300"}}, types)
	if value.KindOf(err) != value.RangeError {
		t.Fatalf("expected RangeError, got %v", err)
	}
}

func TestTypedDecodeConforms(t *testing.T) {
	payload, err := Encode([]value.Value{&value.Nat8{Value: 5}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(payload, []value.Type{value.PrimT(value.KindNat)})
	if err != nil {
		t.Fatal(err)
	}
	want := &value.Nat{Value: big.NewInt(5)}
	if !value.Equal(got[0], want) {
		t.Errorf("got %s, want %s", got[0], want)
	}
}

func TestArityMismatch(t *testing.T) {
	_, err := Encode([]value.Value{&value.Null{}}, []value.Type{})
	if value.KindOf(err) != value.TypeError {
		t.Fatalf("expected TypeError, got %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"bad magic", []byte("NOPE\x01\x00")},
		{"truncated", append(append([]byte{}, magic...), 2, tagBool)},
		{"unknown tag", append(append([]byte{}, magic...), 1, 0xee)},
		{"huge tuple count", binary.AppendUvarint(append([]byte{}, magic...), 1<<62)},
		{"huge vec length", binary.AppendUvarint(append(append([]byte{}, magic...), 1, tagVec), 1<<62)},
		{"huge record count", binary.AppendUvarint(append(append([]byte{}, magic...), 1, tagRecord), 1<<62)},
	}
	for _, tt := range tests {
		if _, err := Decode(tt.payload, nil); value.KindOf(err) != value.DecodeError {
			t.Errorf("%s: expected DecodeError, got %v", tt.name, err)
		}
	}
}

func TestRecordLabelsSurvive(t *testing.T) {
	rec := mustRecord(t,
		value.Field{Label: value.ID(0), Value: &value.Text{Value: "positional"}},
		value.Field{Label: value.Named("named"), Value: &value.Bool{Value: false}},
	)
	payload, err := Encode([]value.Value{rec}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(payload, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, ok := got[0].(*value.Record)
	if !ok {
		t.Fatalf("got %T", got[0])
	}
	if v, ok := out.Lookup("named"); !ok || !value.Equal(v, &value.Bool{Value: false}) {
		t.Errorf("named field lost: %s", out)
	}
	if out.Fields[0].Label.IsNamed() || out.Fields[0].Label.ID() != 0 {
		t.Errorf("positional field lost: %s", out)
	}
}
