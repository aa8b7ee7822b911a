package protocol

import (
	"testing"
)

func BenchmarkEncodeUvarint(b *testing.B) {
	buf := make([]byte, MaxVarintLen)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		EncodeUvarint(buf, uint64(i))
	}
}

func BenchmarkDecodeUvarint(b *testing.B) {
	buf := make([]byte, MaxVarintLen)
	n := EncodeUvarint(buf, 1_000_000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DecodeUvarint(buf[:n])
	}
}

func BenchmarkEncodeUnary(b *testing.B) {
	header := map[string]any{"method": "models.run", "params": map[string]int{"n": 3}}
	segments := [][]byte{make([]byte, 256), make([]byte, 1024)}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeUnary(header, segments); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeUnary(b *testing.B) {
	header := map[string]any{"method": "models.run", "params": map[string]int{"n": 3}}
	segments := [][]byte{make([]byte, 256), make([]byte, 1024)}
	data, err := EncodeUnary(header, segments)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := DecodeUnary(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeInboundResponse(b *testing.B) {
	data, err := EncodeResponse(9, map[string]string{"result": "ok"}, [][]byte{make([]byte, 512)})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := DecodeInbound(data); err != nil {
			b.Fatal(err)
		}
	}
}
