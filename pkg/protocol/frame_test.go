package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestUnaryEncodeDecode(t *testing.T) {
	tests := []struct {
		name     string
		header   any
		segments [][]byte
	}{
		{"null_header_no_segments", nil, nil},
		{"object_header", map[string]any{"method": "models.list"}, nil},
		{"one_segment", map[string]any{"a": 1}, [][]byte{{0xAA, 0xBB}}},
		{"empty_segment", "ping", [][]byte{{}}},
		{"many_segments", []int{1, 2, 3}, [][]byte{{0x01}, {0x02, 0x03}, {0x04, 0x05, 0x06}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := EncodeUnary(tc.header, tc.segments)
			if err != nil {
				t.Fatalf("EncodeUnary() error = %v", err)
			}

			header, segments, err := DecodeUnary(encoded)
			if err != nil {
				t.Fatalf("DecodeUnary() error = %v", err)
			}

			wantHeader, _ := json.Marshal(tc.header)
			if !bytes.Equal(header, wantHeader) {
				t.Errorf("header = %s, want %s", header, wantHeader)
			}
			if len(segments) != len(tc.segments) {
				t.Fatalf("got %d segments, want %d", len(segments), len(tc.segments))
			}
			for i := range segments {
				if !bytes.Equal(segments[i], tc.segments[i]) {
					t.Errorf("segment %d = %v, want %v", i, segments[i], tc.segments[i])
				}
			}
		})
	}
}

func TestUnaryWireFormat(t *testing.T) {
	// {"a":1} with one 2-byte segment:
	// [segCount=1][headerLen=7][segLen=2][{"a":1}][0xAA 0xBB]
	encoded, err := EncodeUnary(map[string]int{"a": 1}, [][]byte{{0xAA, 0xBB}})
	if err != nil {
		t.Fatalf("EncodeUnary() error = %v", err)
	}

	want := []byte{1, 0x07, 0x02, '{', '"', 'a', '"', ':', '1', '}', 0xAA, 0xBB}
	if !bytes.Equal(encoded, want) {
		t.Errorf("EncodeUnary() = %v, want %v", encoded, want)
	}

	header, segments, err := DecodeUnary(encoded)
	if err != nil {
		t.Fatalf("DecodeUnary() error = %v", err)
	}
	if string(header) != `{"a":1}` {
		t.Errorf("header = %s, want {\"a\":1}", header)
	}
	if len(segments) != 1 || !bytes.Equal(segments[0], []byte{0xAA, 0xBB}) {
		t.Errorf("segments = %v, want [[0xAA 0xBB]]", segments)
	}
}

func TestDecodeUnaryErrors(t *testing.T) {
	valid, _ := EncodeUnary(map[string]int{"a": 1}, [][]byte{{0xAA, 0xBB}})

	tests := []struct {
		name    string
		data    []byte
		wantErr error // nil means any error is acceptable
	}{
		{"empty", nil, nil},
		{"truncated_header_len", []byte{1}, nil},
		{"truncated_header", []byte{0, 10, 'x'}, nil},
		{"truncated_segment", append([]byte{}, valid[:len(valid)-1]...), nil},
		{"trailing_garbage", append(append([]byte{}, valid...), 0x00), ErrTrailingBytes},
		{"non_json_header", []byte{0, 3, 'x', 'y', 'z'}, ErrInvalidHeader},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeUnary(tc.data)
			if err == nil {
				t.Fatal("DecodeUnary() succeeded, want error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("DecodeUnary() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCorrelatedRoundTrip(t *testing.T) {
	segments := [][]byte{{0x01, 0x02}, {0x03}}
	encoded, err := EncodeCorrelated(0xDEADBEEF, map[string]string{"method": "models.run"}, segments)
	if err != nil {
		t.Fatalf("EncodeCorrelated() error = %v", err)
	}

	// Leading 4 bytes are the big-endian correlation id.
	if !bytes.Equal(encoded[:4], []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("id bytes = %v, want [0xDE 0xAD 0xBE 0xEF]", encoded[:4])
	}

	id, header, gotSegs, err := DecodeCorrelated(encoded)
	if err != nil {
		t.Fatalf("DecodeCorrelated() error = %v", err)
	}
	if id != 0xDEADBEEF {
		t.Errorf("id = %#x, want 0xDEADBEEF", id)
	}
	if string(header) != `{"method":"models.run"}` {
		t.Errorf("header = %s", header)
	}
	if len(gotSegs) != 2 || !bytes.Equal(gotSegs[0], segments[0]) || !bytes.Equal(gotSegs[1], segments[1]) {
		t.Errorf("segments = %v, want %v", gotSegs, segments)
	}
}

func TestDecodeInboundResponse(t *testing.T) {
	encoded, err := EncodeResponse(42, map[string]any{"result": "ok"}, [][]byte{{0xFF}})
	if err != nil {
		t.Fatalf("EncodeResponse() error = %v", err)
	}

	resp, ev, err := DecodeInbound(encoded)
	if err != nil {
		t.Fatalf("DecodeInbound() error = %v", err)
	}
	if ev != nil {
		t.Fatal("DecodeInbound() returned an event, want a response")
	}
	if resp.ID != 42 {
		t.Errorf("ID = %d, want 42", resp.ID)
	}
	if string(resp.Header) != `{"result":"ok"}` {
		t.Errorf("header = %s", resp.Header)
	}
	if len(resp.Segments) != 1 || !bytes.Equal(resp.Segments[0], []byte{0xFF}) {
		t.Errorf("segments = %v", resp.Segments)
	}
}

func TestDecodeInboundEvent(t *testing.T) {
	encoded, err := EncodeEvent("terminals.output", map[string]any{"line": "hello"}, nil)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	resp, ev, err := DecodeInbound(encoded)
	if err != nil {
		t.Fatalf("DecodeInbound() error = %v", err)
	}
	if resp != nil {
		t.Fatal("DecodeInbound() returned a response, want an event")
	}
	if ev.Origin != "terminals.output" {
		t.Errorf("origin = %q, want terminals.output", ev.Origin)
	}
	if string(ev.Header) != `{"line":"hello"}` {
		t.Errorf("header = %s", ev.Header)
	}
}

func TestDecodeInboundUnknownKind(t *testing.T) {
	_, _, err := DecodeInbound([]byte{0x07, 0x00, 0x00, 0x00, 0x01, 0x00, 0x02, '{', '}'})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("DecodeInbound() error = %v, want ErrUnknownKind", err)
	}
}

func TestDecodeInboundTrailingBytes(t *testing.T) {
	encoded, _ := EncodeResponse(1, nil, nil)
	_, _, err := DecodeInbound(append(encoded, 0xAB))
	if !errors.Is(err, ErrTrailingBytes) {
		t.Errorf("DecodeInbound() error = %v, want ErrTrailingBytes", err)
	}
}

func TestEncodeUnmarshalableHeader(t *testing.T) {
	_, err := EncodeUnary(make(chan int), nil)
	if err == nil {
		t.Error("EncodeUnary() with unmarshalable header succeeded, want error")
	}
}

func TestDecodedSegmentsAreCopies(t *testing.T) {
	encoded, _ := EncodeUnary(nil, [][]byte{{0x11, 0x22}})
	_, segments, err := DecodeUnary(encoded)
	if err != nil {
		t.Fatalf("DecodeUnary() error = %v", err)
	}

	encoded[len(encoded)-1] = 0x99
	if segments[0][1] != 0x22 {
		t.Error("decoded segment aliases the input buffer")
	}
}
