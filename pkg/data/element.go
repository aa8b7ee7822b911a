package data

import (
	"errors"
	"fmt"
)

// Element errors.
var (
	ErrWrongKind    = errors.New("data: accessor kind does not match element kind")
	ErrBadFormatTag = errors.New("data: media format tag must be exactly 3 bytes")
)

// FormatTagLen is the exact length of the format tag carried by
// image, audio, and video elements (e.g. "png", "wav", "mp4").
const FormatTagLen = 3

// Element is a single typed value: one variant of the wire format's
// tagged union. The zero Element is invalid; construct elements with
// the typed constructors (Float32, Int64, String, Image, ...).
//
// Elements are immutable. Accessors return ErrWrongKind when called
// against a different variant than the one stored, never a zero value.
type Element struct {
	kind Kind

	// Variant payloads. Exactly one group is meaningful, selected by kind.
	f64  float64 // Float32, Float64
	i64  int64   // Int8..Int64
	u64  uint64  // Uint8..Uint64
	b    bool    // Bool
	str  string  // String, and format tag for media kinds
	raw  []byte  // Binary and media payloads
	dict *Dict   // Dict
}

// Kind returns the element's kind tag.
func (el Element) Kind() Kind {
	return el.kind
}

// String returns a short human-readable description of the element.
func (el Element) String() string {
	switch el.kind {
	case KindFloat32, KindFloat64:
		return fmt.Sprintf("%s(%v)", el.kind, el.f64)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return fmt.Sprintf("%s(%d)", el.kind, el.i64)
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return fmt.Sprintf("%s(%d)", el.kind, el.u64)
	case KindBool:
		return fmt.Sprintf("Bool(%v)", el.b)
	case KindString:
		return fmt.Sprintf("String(%q)", el.str)
	case KindBinary:
		return fmt.Sprintf("Binary(%d bytes)", len(el.raw))
	case KindImage, KindAudio, KindVideo:
		return fmt.Sprintf("%s(%s, %d bytes)", el.kind, el.str, len(el.raw))
	case KindDict:
		return fmt.Sprintf("Dict(%d keys)", el.dict.Len())
	default:
		return "Invalid"
	}
}

// isValue marks Element as a dict/array value.
func (el Element) isValue() {}

// Constructors

// Float32 creates a 32-bit float element.
func Float32(v float32) Element {
	return Element{kind: KindFloat32, f64: float64(v)}
}

// Float64 creates a 64-bit float element.
func Float64(v float64) Element {
	return Element{kind: KindFloat64, f64: v}
}

// Int8 creates an 8-bit signed integer element.
func Int8(v int8) Element {
	return Element{kind: KindInt8, i64: int64(v)}
}

// Int16 creates a 16-bit signed integer element.
func Int16(v int16) Element {
	return Element{kind: KindInt16, i64: int64(v)}
}

// Int32 creates a 32-bit signed integer element.
func Int32(v int32) Element {
	return Element{kind: KindInt32, i64: int64(v)}
}

// Int64 creates a 64-bit signed integer element.
func Int64(v int64) Element {
	return Element{kind: KindInt64, i64: v}
}

// Uint8 creates an 8-bit unsigned integer element.
func Uint8(v uint8) Element {
	return Element{kind: KindUint8, u64: uint64(v)}
}

// Uint16 creates a 16-bit unsigned integer element.
func Uint16(v uint16) Element {
	return Element{kind: KindUint16, u64: uint64(v)}
}

// Uint32 creates a 32-bit unsigned integer element.
func Uint32(v uint32) Element {
	return Element{kind: KindUint32, u64: uint64(v)}
}

// Uint64 creates a 64-bit unsigned integer element.
func Uint64(v uint64) Element {
	return Element{kind: KindUint64, u64: v}
}

// Str creates a string element.
func Str(v string) Element {
	return Element{kind: KindString, str: v}
}

// Binary creates a binary element. The payload is copied.
func Binary(v []byte) Element {
	raw := make([]byte, len(v))
	copy(raw, v)
	return Element{kind: KindBinary, raw: raw}
}

// Bool creates a boolean element.
func Bool(v bool) Element {
	return Element{kind: KindBool, b: v}
}

// Image creates an image element with a 3-byte format tag (e.g. "png").
func Image(format string, payload []byte) (Element, error) {
	return mediaElement(KindImage, format, payload)
}

// Audio creates an audio element with a 3-byte format tag (e.g. "wav").
func Audio(format string, payload []byte) (Element, error) {
	return mediaElement(KindAudio, format, payload)
}

// Video creates a video element with a 3-byte format tag (e.g. "mp4").
func Video(format string, payload []byte) (Element, error) {
	return mediaElement(KindVideo, format, payload)
}

func mediaElement(kind Kind, format string, payload []byte) (Element, error) {
	if len(format) != FormatTagLen {
		return Element{}, fmt.Errorf("%w: got %q", ErrBadFormatTag, format)
	}
	raw := make([]byte, len(payload))
	copy(raw, payload)
	return Element{kind: kind, str: format, raw: raw}, nil
}

// DictElement wraps a Dict as an element.
func DictElement(d *Dict) Element {
	if d == nil {
		d = NewDict()
	}
	return Element{kind: KindDict, dict: d}
}

// Accessors

// Float32 returns the value of a Float32 element.
func (el Element) Float32() (float32, error) {
	if el.kind != KindFloat32 {
		return 0, wrongKind(KindFloat32, el.kind)
	}
	return float32(el.f64), nil
}

// Float64 returns the value of a Float64 element.
func (el Element) Float64() (float64, error) {
	if el.kind != KindFloat64 {
		return 0, wrongKind(KindFloat64, el.kind)
	}
	return el.f64, nil
}

// Int8 returns the value of an Int8 element.
func (el Element) Int8() (int8, error) {
	if el.kind != KindInt8 {
		return 0, wrongKind(KindInt8, el.kind)
	}
	return int8(el.i64), nil
}

// Int16 returns the value of an Int16 element.
func (el Element) Int16() (int16, error) {
	if el.kind != KindInt16 {
		return 0, wrongKind(KindInt16, el.kind)
	}
	return int16(el.i64), nil
}

// Int32 returns the value of an Int32 element.
func (el Element) Int32() (int32, error) {
	if el.kind != KindInt32 {
		return 0, wrongKind(KindInt32, el.kind)
	}
	return int32(el.i64), nil
}

// Int64 returns the value of an Int64 element.
func (el Element) Int64() (int64, error) {
	if el.kind != KindInt64 {
		return 0, wrongKind(KindInt64, el.kind)
	}
	return el.i64, nil
}

// Uint8 returns the value of a Uint8 element.
func (el Element) Uint8() (uint8, error) {
	if el.kind != KindUint8 {
		return 0, wrongKind(KindUint8, el.kind)
	}
	return uint8(el.u64), nil
}

// Uint16 returns the value of a Uint16 element.
func (el Element) Uint16() (uint16, error) {
	if el.kind != KindUint16 {
		return 0, wrongKind(KindUint16, el.kind)
	}
	return uint16(el.u64), nil
}

// Uint32 returns the value of a Uint32 element.
func (el Element) Uint32() (uint32, error) {
	if el.kind != KindUint32 {
		return 0, wrongKind(KindUint32, el.kind)
	}
	return uint32(el.u64), nil
}

// Uint64 returns the value of a Uint64 element.
func (el Element) Uint64() (uint64, error) {
	if el.kind != KindUint64 {
		return 0, wrongKind(KindUint64, el.kind)
	}
	return el.u64, nil
}

// Str returns the value of a String element.
func (el Element) Str() (string, error) {
	if el.kind != KindString {
		return "", wrongKind(KindString, el.kind)
	}
	return el.str, nil
}

// Binary returns the payload of a Binary element.
// The returned slice is a copy, safe to modify.
func (el Element) Binary() ([]byte, error) {
	if el.kind != KindBinary {
		return nil, wrongKind(KindBinary, el.kind)
	}
	out := make([]byte, len(el.raw))
	copy(out, el.raw)
	return out, nil
}

// Bool returns the value of a Bool element.
func (el Element) Bool() (bool, error) {
	if el.kind != KindBool {
		return false, wrongKind(KindBool, el.kind)
	}
	return el.b, nil
}

// Image returns the format tag and payload of an Image element.
func (el Element) Image() (format string, payload []byte, err error) {
	return el.mediaValue(KindImage)
}

// Audio returns the format tag and payload of an Audio element.
func (el Element) Audio() (format string, payload []byte, err error) {
	return el.mediaValue(KindAudio)
}

// Video returns the format tag and payload of a Video element.
func (el Element) Video() (format string, payload []byte, err error) {
	return el.mediaValue(KindVideo)
}

func (el Element) mediaValue(want Kind) (string, []byte, error) {
	if el.kind != want {
		return "", nil, wrongKind(want, el.kind)
	}
	out := make([]byte, len(el.raw))
	copy(out, el.raw)
	return el.str, out, nil
}

// Dict returns the mapping of a Dict element.
func (el Element) Dict() (*Dict, error) {
	if el.kind != KindDict {
		return nil, wrongKind(KindDict, el.kind)
	}
	return el.dict, nil
}

func wrongKind(want, got Kind) error {
	return fmt.Errorf("%w: want %s, element is %s", ErrWrongKind, want, got)
}
