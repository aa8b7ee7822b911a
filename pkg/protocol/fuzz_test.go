package protocol

import (
	"testing"
)

// FuzzDecodeUvarint tests that decoding arbitrary bytes doesn't panic.
func FuzzDecodeUvarint(f *testing.F) {
	// Seed with valid varints of every width
	f.Add([]byte{0x00})
	f.Add([]byte{0xFC})
	f.Add([]byte{253, 0x01, 0x2C})
	f.Add([]byte{254, 0x00, 0x01, 0x11, 0x70})
	f.Add([]byte{255, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Should not panic
		_, _ = DecodeUvarint(data)
	})
}

// FuzzDecodeSvarint tests that decoding arbitrary bytes doesn't panic.
func FuzzDecodeSvarint(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0x01})
	f.Add([]byte{0x02})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Should not panic
		_, _ = DecodeSvarint(data)
	})
}

// FuzzDecodeUnary tests that decoding arbitrary frame bytes doesn't panic.
func FuzzDecodeUnary(f *testing.F) {
	seed, _ := EncodeUnary(map[string]int{"a": 1}, [][]byte{{0xAA, 0xBB}})
	f.Add(seed)

	seed2, _ := EncodeUnary(nil, nil)
	f.Add(seed2)

	f.Fuzz(func(t *testing.T, data []byte) {
		// Should not panic
		_, _, _ = DecodeUnary(data)
	})
}

// FuzzDecodeInbound tests that decoding arbitrary socket messages doesn't panic.
func FuzzDecodeInbound(f *testing.F) {
	resp, _ := EncodeResponse(7, map[string]string{"result": "ok"}, [][]byte{{0x01}})
	f.Add(resp)

	ev, _ := EncodeEvent("models.stream", map[string]int{"chunk": 3}, nil)
	f.Add(ev)

	f.Fuzz(func(t *testing.T, data []byte) {
		// Should not panic
		_, _, _ = DecodeInbound(data)
	})
}

// FuzzUvarintRoundTrip verifies the round-trip law on arbitrary values.
func FuzzUvarintRoundTrip(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(252))
	f.Add(uint64(253))
	f.Add(uint64(1) << 63)

	f.Fuzz(func(t *testing.T, v uint64) {
		buf := make([]byte, MaxVarintLen)
		n := EncodeUvarint(buf, v)
		decoded, read := DecodeUvarint(buf[:n])
		if read != n || decoded != v {
			t.Errorf("round trip of %d: got (%d, %d), want (%d, %d)", v, decoded, read, v, n)
		}
	})
}
