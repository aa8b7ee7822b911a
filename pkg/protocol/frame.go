package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frame constants.
const (
	// MaxSegments is the maximum number of binary segments per frame.
	// The segment count is carried in a single byte.
	MaxSegments = 255

	// MaxOriginLen is the maximum length of an event origin name.
	// The origin length is carried in a single byte.
	MaxOriginLen = 255
)

// InboundKind discriminates messages received over a persistent connection.
type InboundKind uint8

const (
	InboundResponse InboundKind = 0x00 // Correlated response to a request
	InboundEvent    InboundKind = 0x01 // Out-of-band event from a subscription
)

// String returns the string representation of the inbound kind.
func (k InboundKind) String() string {
	switch k {
	case InboundResponse:
		return "Response"
	case InboundEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// Frame errors.
var (
	ErrTooManySegments = errors.New("protocol: too many segments")
	ErrOriginTooLong   = errors.New("protocol: event origin name too long")
	ErrTrailingBytes   = errors.New("protocol: trailing bytes after frame")
	ErrInvalidHeader   = errors.New("protocol: frame header is not valid JSON")
	ErrUnknownKind     = errors.New("protocol: unknown inbound message kind")
)

// Response is a correlated response received over a persistent connection.
type Response struct {
	ID       uint32          // Correlation id of the originating request
	Header   json.RawMessage // JSON result-or-error value
	Segments [][]byte        // Raw binary segments
}

// Event is an out-of-band message pushed by the remote service, identified
// by the name of the API that produced it rather than a correlation id.
type Event struct {
	Origin   string          // Name of the API the event originates from
	Header   json.RawMessage // JSON event value
	Segments [][]byte        // Raw binary segments
}

// EncodeUnary encodes a one-shot request or response frame.
//
// Wire format:
//
//	[u8 segCount][varint headerLen][varint segLen]* [header bytes][seg bytes]*
//
// The header may be any JSON-encodable value; pass a json.RawMessage to
// forward pre-encoded bytes unchanged.
func EncodeUnary(header any, segments [][]byte) ([]byte, error) {
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode header: %w", err)
	}
	if len(segments) > MaxSegments {
		return nil, ErrTooManySegments
	}

	e := NewEncoderWithCap(frameSize(0, headerBytes, segments))
	encodeBody(e, headerBytes, segments)
	return e.Bytes(), nil
}

// DecodeUnary decodes a one-shot frame produced by EncodeUnary.
// The segment lengths must exactly account for all trailing bytes;
// leftover bytes are a decode error.
func DecodeUnary(data []byte) (json.RawMessage, [][]byte, error) {
	d := NewDecoder(data)
	header, segments, err := decodeBody(d)
	if err != nil {
		return nil, nil, err
	}
	if !d.EOF() {
		return nil, nil, ErrTrailingBytes
	}
	return header, segments, nil
}

// EncodeCorrelated encodes an outbound request frame for a persistent
// connection. The layout is a 4-byte big-endian correlation id followed
// by the unary body.
func EncodeCorrelated(id uint32, header any, segments [][]byte) ([]byte, error) {
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode header: %w", err)
	}
	if len(segments) > MaxSegments {
		return nil, ErrTooManySegments
	}

	e := NewEncoderWithCap(frameSize(4, headerBytes, segments))
	e.WriteUint32(id)
	encodeBody(e, headerBytes, segments)
	return e.Bytes(), nil
}

// DecodeCorrelated decodes a request frame produced by EncodeCorrelated.
// This is the receiving side of the request path; clients do not normally
// call it, but the platform (and test servers) do.
func DecodeCorrelated(data []byte) (uint32, json.RawMessage, [][]byte, error) {
	d := NewDecoder(data)
	id, err := d.ReadUint32()
	if err != nil {
		return 0, nil, nil, err
	}
	header, segments, err := decodeBody(d)
	if err != nil {
		return 0, nil, nil, err
	}
	if !d.EOF() {
		return 0, nil, nil, ErrTrailingBytes
	}
	return id, header, segments, nil
}

// EncodeResponse encodes an inbound correlated-response message as the
// remote service would send it. Used by test servers and benchmarks.
func EncodeResponse(id uint32, header any, segments [][]byte) ([]byte, error) {
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode header: %w", err)
	}
	if len(segments) > MaxSegments {
		return nil, ErrTooManySegments
	}

	e := NewEncoderWithCap(frameSize(5, headerBytes, segments))
	e.WriteByte(byte(InboundResponse))
	e.WriteUint32(id)
	encodeBody(e, headerBytes, segments)
	return e.Bytes(), nil
}

// EncodeEvent encodes an inbound out-of-band event message as the remote
// service would send it.
func EncodeEvent(origin string, header any, segments [][]byte) ([]byte, error) {
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode header: %w", err)
	}
	if len(origin) > MaxOriginLen {
		return nil, ErrOriginTooLong
	}
	if len(segments) > MaxSegments {
		return nil, ErrTooManySegments
	}

	e := NewEncoderWithCap(frameSize(2+len(origin), headerBytes, segments))
	e.WriteByte(byte(InboundEvent))
	e.WriteByte(byte(len(origin)))
	e.WriteBytes([]byte(origin))
	encodeBody(e, headerBytes, segments)
	return e.Bytes(), nil
}

// DecodeInbound decodes a message received over a persistent connection.
// Exactly one of the returned response/event is non-nil on success,
// selected by the leading discriminator byte.
func DecodeInbound(data []byte) (*Response, *Event, error) {
	d := NewDecoder(data)
	kind, err := d.ReadByte()
	if err != nil {
		return nil, nil, err
	}

	switch InboundKind(kind) {
	case InboundResponse:
		id, err := d.ReadUint32()
		if err != nil {
			return nil, nil, err
		}
		header, segments, err := decodeBody(d)
		if err != nil {
			return nil, nil, err
		}
		if !d.EOF() {
			return nil, nil, ErrTrailingBytes
		}
		return &Response{ID: id, Header: header, Segments: segments}, nil, nil

	case InboundEvent:
		originLen, err := d.ReadByte()
		if err != nil {
			return nil, nil, err
		}
		origin, err := d.ReadBytes(int(originLen))
		if err != nil {
			return nil, nil, err
		}
		header, segments, err := decodeBody(d)
		if err != nil {
			return nil, nil, err
		}
		if !d.EOF() {
			return nil, nil, ErrTrailingBytes
		}
		return nil, &Event{Origin: string(origin), Header: header, Segments: segments}, nil

	default:
		return nil, nil, fmt.Errorf("%w: 0x%02X", ErrUnknownKind, kind)
	}
}

// encodeBody writes the shared body layout: segment count, header and
// segment lengths, then the header bytes and segment bytes.
func encodeBody(e *Encoder, headerBytes []byte, segments [][]byte) {
	e.WriteByte(byte(len(segments)))
	e.WriteUvarint(uint64(len(headerBytes)))
	for _, seg := range segments {
		e.WriteUvarint(uint64(len(seg)))
	}
	e.WriteBytes(headerBytes)
	for _, seg := range segments {
		e.WriteBytes(seg)
	}
}

// decodeBody reads the shared body layout and validates the header is JSON.
// Segments are copied out of the input buffer so they are safe to retain.
func decodeBody(d *Decoder) (json.RawMessage, [][]byte, error) {
	segCount, err := d.ReadByte()
	if err != nil {
		return nil, nil, err
	}

	headerLen, err := d.ReadUvarint()
	if err != nil {
		return nil, nil, err
	}
	if headerLen > DefaultMaxAllocation {
		return nil, nil, ErrAllocationTooLarge
	}

	segLens := make([]uint64, segCount)
	for i := range segLens {
		segLens[i], err = d.ReadUvarint()
		if err != nil {
			return nil, nil, err
		}
		if segLens[i] > DefaultMaxAllocation {
			return nil, nil, ErrAllocationTooLarge
		}
	}

	headerBytes, err := d.ReadBytes(int(headerLen))
	if err != nil {
		return nil, nil, err
	}
	if !json.Valid(headerBytes) {
		return nil, nil, ErrInvalidHeader
	}
	header := make(json.RawMessage, len(headerBytes))
	copy(header, headerBytes)

	segments := make([][]byte, segCount)
	for i, n := range segLens {
		raw, err := d.ReadBytes(int(n))
		if err != nil {
			return nil, nil, err
		}
		segments[i] = make([]byte, n)
		copy(segments[i], raw)
	}
	return header, segments, nil
}

// frameSize estimates the encoded size of a frame for buffer preallocation.
func frameSize(prefix int, headerBytes []byte, segments [][]byte) int {
	n := prefix + 1 + UvarintLen(uint64(len(headerBytes))) + len(headerBytes)
	for _, seg := range segments {
		n += UvarintLen(uint64(len(seg))) + len(seg)
	}
	return n
}
