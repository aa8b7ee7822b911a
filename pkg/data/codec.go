package data

import (
	"errors"
	"fmt"

	"github.com/tensorgrid-dev/tensorgrid/pkg/protocol"
)

// Array form markers. A one-byte marker after the container tag selects
// how the children that follow are encoded.
const (
	formGeneric  = 0x00 // each child carries its own kind tag
	formSameType = 0x01 // one shared kind tag, children are untagged payloads
)

// MaxDepth limits the nesting depth of decoded structures.
// This prevents stack exhaustion from maliciously deep inputs.
const MaxDepth = 128

// Codec errors.
var (
	ErrUnknownTag       = errors.New("data: unknown kind tag")
	ErrUnknownForm      = errors.New("data: unknown array form marker")
	ErrMaxDepthExceeded = errors.New("data: nesting depth exceeds limit")
	ErrNotElement       = errors.New("data: buffer holds a nested array, not an element")
	ErrNotData          = errors.New("data: buffer holds an element, not a nested array")
)

// Encode returns the full tagged encoding of the element.
func (el Element) Encode() []byte {
	e := protocol.NewEncoder()
	el.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo appends the full tagged encoding of the element.
func (el Element) EncodeTo(e *protocol.Encoder) {
	e.WriteByte(byte(el.kind))
	el.encodePayload(e)
}

// encodePayload appends the element's payload without the kind tag.
func (el Element) encodePayload(e *protocol.Encoder) {
	switch el.kind {
	case KindFloat32:
		e.WriteFloat32(float32(el.f64))
	case KindFloat64:
		e.WriteFloat64(el.f64)
	case KindInt8:
		e.WriteInt8(int8(el.i64))
	case KindInt16:
		e.WriteInt16(int16(el.i64))
	case KindInt32:
		e.WriteInt32(int32(el.i64))
	case KindInt64:
		e.WriteSvarint(el.i64)
	case KindUint8:
		e.WriteByte(uint8(el.u64))
	case KindUint16:
		e.WriteUint16(uint16(el.u64))
	case KindUint32:
		e.WriteUint32(uint32(el.u64))
	case KindUint64:
		e.WriteUvarint(el.u64)
	case KindString:
		e.WriteString(el.str)
	case KindBinary:
		e.WriteLenBytes(el.raw)
	case KindBool:
		e.WriteBool(el.b)
	case KindImage, KindAudio, KindVideo:
		e.WriteUvarint(uint64(FormatTagLen + len(el.raw)))
		e.WriteBytes([]byte(el.str))
		e.WriteBytes(el.raw)
	case KindDict:
		el.dict.encodeTo(e)
	}
}

// encodeTo appends the dict payload: a varint byte length followed by
// [u8 keyLen][key][varint valLen][value] entries in insertion order.
func (d *Dict) encodeTo(e *protocol.Encoder) {
	body := protocol.NewEncoder()
	val := protocol.NewEncoder()
	for _, key := range d.keys {
		val.Reset()
		switch v := d.vals[key].(type) {
		case Element:
			v.EncodeTo(val)
		case *Data:
			v.EncodeTo(val)
		}
		body.WriteByte(byte(len(key)))
		body.WriteBytes([]byte(key))
		body.WriteLenBytes(val.Bytes())
	}
	e.WriteLenBytes(body.Bytes())
}

// Encode returns the full tagged encoding of the container.
// The generic array form is always emitted; the same-type form is
// decoded for interoperability but never produced here.
func (d *Data) Encode() []byte {
	e := protocol.NewEncoder()
	d.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo appends the full tagged encoding of the container.
func (d *Data) EncodeTo(e *protocol.Encoder) {
	e.WriteByte(byte(KindData))
	e.WriteByte(formGeneric)
	e.WriteUvarint(uint64(d.Len()))
	for _, el := range d.elems {
		el.EncodeTo(e)
	}
	for _, c := range d.nested {
		c.EncodeTo(e)
	}
}

// DecodeElement decodes one tagged element from the front of data,
// returning the element and the number of bytes consumed. Trailing
// bytes are left for the caller's cursor.
func DecodeElement(data []byte) (Element, int, error) {
	d := protocol.NewDecoder(data)
	v, err := decodeValue(d, 0)
	if err != nil {
		return Element{}, 0, err
	}
	el, ok := v.(Element)
	if !ok {
		return Element{}, 0, ErrNotElement
	}
	return el, d.Position(), nil
}

// Decode decodes a full tagged container. The buffer must hold exactly
// one container; trailing bytes are a decode error.
func Decode(buf []byte) (*Data, error) {
	d := protocol.NewDecoder(buf)
	v, err := decodeValue(d, 0)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(*Data)
	if !ok {
		return nil, ErrNotData
	}
	if !d.EOF() {
		return nil, protocol.ErrTrailingBytes
	}
	return arr, nil
}

// decodeValue reads one tagged value: a container or an element.
func decodeValue(d *protocol.Decoder, depth int) (Value, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	kind := Kind(tag)
	if !kind.valid() {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownTag, tag)
	}
	if kind == KindData {
		return decodeDataBody(d, depth)
	}
	return decodeElementPayload(d, kind, depth)
}

// decodeDataBody reads a container body (form marker, count, children),
// assuming the leading KindData tag was already consumed.
func decodeDataBody(d *protocol.Decoder, depth int) (*Data, error) {
	if depth >= MaxDepth {
		return nil, ErrMaxDepthExceeded
	}

	form, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	arr := New()
	switch form {
	case formGeneric:
		for i := 0; i < count; i++ {
			v, err := decodeValue(d, depth+1)
			if err != nil {
				return nil, err
			}
			if err := arr.Append(v); err != nil {
				return nil, err
			}
		}

	case formSameType:
		tag, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		kind := Kind(tag)
		if !kind.valid() {
			return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownTag, tag)
		}
		for i := 0; i < count; i++ {
			var v Value
			if kind == KindData {
				v, err = decodeDataBody(d, depth+1)
			} else {
				v, err = decodeElementPayload(d, kind, depth+1)
			}
			if err != nil {
				return nil, err
			}
			if err := arr.Append(v); err != nil {
				return nil, err
			}
		}

	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownForm, form)
	}
	return arr, nil
}

// decodeElementPayload reads an element payload for a known kind,
// assuming the kind tag was already consumed.
func decodeElementPayload(d *protocol.Decoder, kind Kind, depth int) (Element, error) {
	switch kind {
	case KindFloat32:
		v, err := d.ReadFloat32()
		if err != nil {
			return Element{}, err
		}
		return Float32(v), nil
	case KindFloat64:
		v, err := d.ReadFloat64()
		if err != nil {
			return Element{}, err
		}
		return Float64(v), nil
	case KindInt8:
		v, err := d.ReadInt8()
		if err != nil {
			return Element{}, err
		}
		return Int8(v), nil
	case KindInt16:
		v, err := d.ReadInt16()
		if err != nil {
			return Element{}, err
		}
		return Int16(v), nil
	case KindInt32:
		v, err := d.ReadInt32()
		if err != nil {
			return Element{}, err
		}
		return Int32(v), nil
	case KindInt64:
		v, err := d.ReadSvarint()
		if err != nil {
			return Element{}, err
		}
		return Int64(v), nil
	case KindUint8:
		v, err := d.ReadByte()
		if err != nil {
			return Element{}, err
		}
		return Uint8(v), nil
	case KindUint16:
		v, err := d.ReadUint16()
		if err != nil {
			return Element{}, err
		}
		return Uint16(v), nil
	case KindUint32:
		v, err := d.ReadUint32()
		if err != nil {
			return Element{}, err
		}
		return Uint32(v), nil
	case KindUint64:
		v, err := d.ReadUvarint()
		if err != nil {
			return Element{}, err
		}
		return Uint64(v), nil
	case KindString:
		v, err := d.ReadString()
		if err != nil {
			return Element{}, err
		}
		return Str(v), nil
	case KindBinary:
		v, err := d.ReadLenBytes()
		if err != nil {
			return Element{}, err
		}
		return Element{kind: KindBinary, raw: v}, nil
	case KindBool:
		v, err := d.ReadBool()
		if err != nil {
			return Element{}, err
		}
		return Bool(v), nil
	case KindImage, KindAudio, KindVideo:
		body, err := d.ReadLenBytes()
		if err != nil {
			return Element{}, err
		}
		if len(body) < FormatTagLen {
			return Element{}, fmt.Errorf("%w: media payload of %d bytes", ErrBadFormatTag, len(body))
		}
		return Element{kind: kind, str: string(body[:FormatTagLen]), raw: body[FormatTagLen:]}, nil
	case KindDict:
		dict, err := decodeDict(d, depth)
		if err != nil {
			return Element{}, err
		}
		return Element{kind: KindDict, dict: dict}, nil
	default:
		return Element{}, fmt.Errorf("%w: 0x%02X", ErrUnknownTag, byte(kind))
	}
}

// decodeDict reads a dict payload: a length-prefixed run of
// [u8 keyLen][key][varint valLen][value] entries.
func decodeDict(d *protocol.Decoder, depth int) (*Dict, error) {
	if depth >= MaxDepth {
		return nil, ErrMaxDepthExceeded
	}

	body, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}

	dict := NewDict()
	bd := protocol.NewDecoder(body)
	for !bd.EOF() {
		keyLen, err := bd.ReadByte()
		if err != nil {
			return nil, err
		}
		key, err := bd.ReadBytes(int(keyLen))
		if err != nil {
			return nil, err
		}
		valBytes, err := bd.ReadLenBytes()
		if err != nil {
			return nil, err
		}

		vd := protocol.NewDecoder(valBytes)
		v, err := decodeValue(vd, depth+1)
		if err != nil {
			return nil, err
		}
		if !vd.EOF() {
			return nil, protocol.ErrTrailingBytes
		}
		if err := dict.Set(string(key), v); err != nil {
			return nil, err
		}
	}
	return dict, nil
}
