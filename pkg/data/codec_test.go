package data

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/tensorgrid-dev/tensorgrid/pkg/protocol"
)

func TestElementRoundTrip(t *testing.T) {
	img, _ := Image("png", []byte{0x89, 0x50, 0x4E})
	aud, _ := Audio("wav", nil)

	dict := NewDict()
	dict.Set("name", Str("mnist"))
	dict.Set("rows", Int64(60000))
	dict.Set("grid", FromElements(Float32(0.5), Float32(1.5)))

	tests := []struct {
		name string
		el   Element
	}{
		{"float32", Float32(1.5)},
		{"float32_nan_inf", Float32(float32(math.Inf(1)))},
		{"float64", Float64(-2.25)},
		{"int8", Int8(-128)},
		{"int16", Int16(-32768)},
		{"int32", Int32(math.MaxInt32)},
		{"int64_small", Int64(-1)},
		{"int64_large", Int64(math.MinInt64)},
		{"uint8", Uint8(255)},
		{"uint16", Uint16(65535)},
		{"uint32", Uint32(math.MaxUint32)},
		{"uint64", Uint64(math.MaxUint64)},
		{"string", Str("hello world")},
		{"string_empty", Str("")},
		{"binary", Binary([]byte{0x00, 0xFF, 0x7F})},
		{"binary_empty", Binary(nil)},
		{"bool_true", Bool(true)},
		{"bool_false", Bool(false)},
		{"image", img},
		{"audio_empty_payload", aud},
		{"dict", DictElement(dict)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := tc.el.Encode()
			if Kind(encoded[0]) != tc.el.Kind() {
				t.Errorf("leading tag = %#x, want %#x", encoded[0], byte(tc.el.Kind()))
			}

			decoded, n, err := DecodeElement(encoded)
			if err != nil {
				t.Fatalf("DecodeElement() error = %v", err)
			}
			if n != len(encoded) {
				t.Errorf("consumed %d bytes, want %d", n, len(encoded))
			}
			if decoded.Kind() != tc.el.Kind() {
				t.Errorf("decoded kind = %v, want %v", decoded.Kind(), tc.el.Kind())
			}
			if !bytes.Equal(decoded.Encode(), encoded) {
				t.Errorf("re-encoding differs: %v vs %v", decoded.Encode(), encoded)
			}
		})
	}
}

func TestDecodeElementCursor(t *testing.T) {
	// Two elements back to back; DecodeElement must report the consumed
	// byte count so the caller can advance.
	buf := append(Int32(5).Encode(), Str("x").Encode()...)

	first, n, err := DecodeElement(buf)
	if err != nil {
		t.Fatalf("DecodeElement() error = %v", err)
	}
	if v, _ := first.Int32(); v != 5 {
		t.Errorf("first = %v, want Int32(5)", first)
	}

	second, m, err := DecodeElement(buf[n:])
	if err != nil {
		t.Fatalf("DecodeElement() second error = %v", err)
	}
	if s, _ := second.Str(); s != "x" {
		t.Errorf("second = %v, want String(x)", second)
	}
	if n+m != len(buf) {
		t.Errorf("consumed %d bytes total, want %d", n+m, len(buf))
	}
}

func TestDataRoundTrip(t *testing.T) {
	ragged, _ := FromNested(
		FromElements(Int32(1), Int32(2), Int32(3)),
		FromElements(Int32(4)),
	)
	uniform, _ := FromNested(
		FromElements(Float64(1.0), Float64(2.0)),
		FromElements(Float64(3.0), Float64(4.0)),
	)
	deep, _ := FromNested(uniform)

	tests := []struct {
		name string
		d    *Data
	}{
		{"empty", New()},
		{"flat", FromElements(Int32(5), Int32(7))},
		{"mixed_kinds", FromElements(Int32(1), Str("two"), Bool(true))},
		{"ragged", ragged},
		{"uniform", uniform},
		{"deep", deep},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := tc.d.Encode()
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(decoded.Shape(), tc.d.Shape()) {
				t.Errorf("shape = %v, want %v", decoded.Shape(), tc.d.Shape())
			}
			if !bytes.Equal(decoded.Encode(), encoded) {
				t.Error("re-encoding differs from original")
			}
		})
	}
}

func TestDecodeSameTypeForm(t *testing.T) {
	// Hand-build the optimized same-type encoding of [Int32(5), Int32(7)]:
	// [0x00][form=1][count=2][tag=Int32][payload][payload]
	e := protocol.NewEncoder()
	e.WriteByte(byte(KindData))
	e.WriteByte(formSameType)
	e.WriteUvarint(2)
	e.WriteByte(byte(KindInt32))
	e.WriteInt32(5)
	e.WriteInt32(7)

	d, err := Decode(e.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := d.Shape(); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("Shape() = %v, want [2]", got)
	}
	el, _ := d.Element(1)
	if v, _ := el.Int32(); v != 7 {
		t.Errorf("Element(1) = %d, want 7", v)
	}

	// Re-encoding emits the generic form.
	if d.Encode()[1] != formGeneric {
		t.Error("re-encoding did not use the generic form")
	}
}

func TestDecodeSameTypeNestedForm(t *testing.T) {
	// Same-type array of nested arrays: the shared tag is KindData and
	// each child payload is its own [form][count]... body.
	e := protocol.NewEncoder()
	e.WriteByte(byte(KindData))
	e.WriteByte(formSameType)
	e.WriteUvarint(2)
	e.WriteByte(byte(KindData))
	// child 0: generic, one Int32
	e.WriteByte(formGeneric)
	e.WriteUvarint(1)
	e.WriteByte(byte(KindInt32))
	e.WriteInt32(1)
	// child 1: same-type, two Int32
	e.WriteByte(formSameType)
	e.WriteUvarint(2)
	e.WriteByte(byte(KindInt32))
	e.WriteInt32(2)
	e.WriteInt32(3)

	d, err := Decode(e.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := d.Shape(); !reflect.DeepEqual(got, []int{2, Ragged}) {
		t.Errorf("Shape() = %v, want [2 -1]", got)
	}
	child, err := d.Child(1)
	if err != nil {
		t.Fatal(err)
	}
	el, _ := child.Element(0)
	if v, _ := el.Int32(); v != 2 {
		t.Errorf("Child(1).Element(0) = %d, want 2", v)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := FromElements(Int32(5)).Encode()

	unknownTag := []byte{0x7F, 0x00}
	unknownForm := []byte{byte(KindData), 0x05, 0x00}
	truncated := valid[:len(valid)-2]
	trailing := append(append([]byte{}, valid...), 0x00)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, nil},
		{"unknown_tag", unknownTag, ErrUnknownTag},
		{"unknown_form", unknownForm, ErrUnknownForm},
		{"truncated", truncated, nil},
		{"trailing", trailing, protocol.ErrTrailingBytes},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			if err == nil {
				t.Fatal("Decode() succeeded, want error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestDecodeElementOnDataBuffer(t *testing.T) {
	buf := FromElements(Int32(5)).Encode()
	if _, _, err := DecodeElement(buf); !errors.Is(err, ErrNotElement) {
		t.Errorf("DecodeElement() error = %v, want ErrNotElement", err)
	}
}

func TestDecodeOnElementBuffer(t *testing.T) {
	if _, err := Decode(Int32(5).Encode()); !errors.Is(err, ErrNotData) {
		t.Errorf("Decode() error = %v, want ErrNotData", err)
	}
}

func TestDecodeMixedSiblingsRejected(t *testing.T) {
	// Generic array whose children mix an element and a nested array.
	e := protocol.NewEncoder()
	e.WriteByte(byte(KindData))
	e.WriteByte(formGeneric)
	e.WriteUvarint(2)
	e.WriteByte(byte(KindInt32))
	e.WriteInt32(1)
	e.WriteByte(byte(KindData))
	e.WriteByte(formGeneric)
	e.WriteUvarint(0)

	if _, err := Decode(e.Bytes()); !errors.Is(err, ErrMixedChildren) {
		t.Errorf("Decode() error = %v, want ErrMixedChildren", err)
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	// MaxDepth+1 nested singleton arrays.
	e := protocol.NewEncoder()
	for i := 0; i <= MaxDepth; i++ {
		e.WriteByte(byte(KindData))
		e.WriteByte(formGeneric)
		e.WriteUvarint(1)
	}
	e.WriteByte(byte(KindInt32))
	e.WriteInt32(1)

	if _, err := Decode(e.Bytes()); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("Decode() error = %v, want ErrMaxDepthExceeded", err)
	}
}

func TestDictRoundTripOrder(t *testing.T) {
	dict := NewDict()
	dict.Set("z", Str("last-first"))
	dict.Set("a", Int64(-42))
	dict.Set("nested", FromElements(Uint8(1), Uint8(2)))

	encoded := DictElement(dict).Encode()
	decoded, _, err := DecodeElement(encoded)
	if err != nil {
		t.Fatalf("DecodeElement() error = %v", err)
	}

	back, err := decoded.Dict()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"z", "a", "nested"}
	if got := back.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	v, ok := back.Get("nested")
	if !ok {
		t.Fatal("nested key missing")
	}
	nested, isData := v.(*Data)
	if !isData {
		t.Fatalf("nested value is %T, want *Data", v)
	}
	if got := nested.Shape(); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("nested shape = %v, want [2]", got)
	}
}

func FuzzDecode(f *testing.F) {
	ragged, _ := FromNested(FromElements(Int32(1)), FromElements(Int32(2), Int32(3)))
	f.Add(ragged.Encode())
	f.Add(FromElements(Str("a"), Bool(true)).Encode())
	f.Add([]byte{byte(KindData), formSameType, 2, byte(KindInt32), 0, 0, 0, 1, 0, 0, 0, 2})

	f.Fuzz(func(t *testing.T, buf []byte) {
		// Should not panic; on success the value must re-encode cleanly.
		d, err := Decode(buf)
		if err != nil {
			return
		}
		if _, err := Decode(d.Encode()); err != nil {
			t.Errorf("re-encoding of decoded value fails to decode: %v", err)
		}
	})
}

func BenchmarkDataEncode(b *testing.B) {
	row := FromElements(
		Float32(1), Float32(2), Float32(3), Float32(4),
		Float32(5), Float32(6), Float32(7), Float32(8),
	)
	grid, _ := FromNested(row, row, row, row)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		grid.Encode()
	}
}

func BenchmarkDataDecode(b *testing.B) {
	row := FromElements(
		Float32(1), Float32(2), Float32(3), Float32(4),
		Float32(5), Float32(6), Float32(7), Float32(8),
	)
	grid, _ := FromNested(row, row, row, row)
	buf := grid.Encode()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}
