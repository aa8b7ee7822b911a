package protocol

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

func TestEncoderDecoderRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.WriteByte(0x42)
	e.WriteUvarint(300)
	e.WriteSvarint(-7)
	e.WriteString("hello")
	e.WriteLenBytes([]byte{0x01, 0x02, 0x03})
	e.WriteBool(true)
	e.WriteUint16(0xBEEF)
	e.WriteUint32(0xDEADBEEF)
	e.WriteUint64(math.MaxUint64 - 1)
	e.WriteFloat32(3.5)
	e.WriteFloat64(-2.25)

	d := NewDecoder(e.Bytes())

	if b, _ := d.ReadByte(); b != 0x42 {
		t.Errorf("ReadByte = %#x, want 0x42", b)
	}
	if v, err := d.ReadUvarint(); err != nil || v != 300 {
		t.Errorf("ReadUvarint = %d, %v, want 300", v, err)
	}
	if v, err := d.ReadSvarint(); err != nil || v != -7 {
		t.Errorf("ReadSvarint = %d, %v, want -7", v, err)
	}
	if s, err := d.ReadString(); err != nil || s != "hello" {
		t.Errorf("ReadString = %q, %v, want hello", s, err)
	}
	if b, err := d.ReadLenBytes(); err != nil || !bytes.Equal(b, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadLenBytes = %v, %v", b, err)
	}
	if v, err := d.ReadBool(); err != nil || v != true {
		t.Errorf("ReadBool = %v, %v, want true", v, err)
	}
	if v, err := d.ReadUint16(); err != nil || v != 0xBEEF {
		t.Errorf("ReadUint16 = %#x, %v", v, err)
	}
	if v, err := d.ReadUint32(); err != nil || v != 0xDEADBEEF {
		t.Errorf("ReadUint32 = %#x, %v", v, err)
	}
	if v, err := d.ReadUint64(); err != nil || v != math.MaxUint64-1 {
		t.Errorf("ReadUint64 = %d, %v", v, err)
	}
	if v, err := d.ReadFloat32(); err != nil || v != 3.5 {
		t.Errorf("ReadFloat32 = %v, %v, want 3.5", v, err)
	}
	if v, err := d.ReadFloat64(); err != nil || v != -2.25 {
		t.Errorf("ReadFloat64 = %v, %v, want -2.25", v, err)
	}
	if !d.EOF() {
		t.Errorf("decoder has %d bytes remaining", d.Remaining())
	}
}

func TestEncoderReset(t *testing.T) {
	e := NewEncoder()
	e.WriteString("first")
	e.Reset()
	e.WriteByte(0x01)

	if e.Len() != 1 {
		t.Errorf("Len() = %d after Reset, want 1", e.Len())
	}
}

func TestDecoderTruncatedReads(t *testing.T) {
	tests := []struct {
		name string
		read func(d *Decoder) error
	}{
		{"byte", func(d *Decoder) error { _, err := d.ReadByte(); return err }},
		{"uint16", func(d *Decoder) error { _, err := d.ReadUint16(); return err }},
		{"uint32", func(d *Decoder) error { _, err := d.ReadUint32(); return err }},
		{"uint64", func(d *Decoder) error { _, err := d.ReadUint64(); return err }},
		{"uvarint", func(d *Decoder) error { _, err := d.ReadUvarint(); return err }},
		{"string", func(d *Decoder) error { _, err := d.ReadString(); return err }},
		{"bytes", func(d *Decoder) error { _, err := d.ReadBytes(5); return err }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.read(NewDecoder(nil)); !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("error = %v, want io.ErrUnexpectedEOF", err)
			}
		})
	}
}

func TestDecoderStringLengthPastBuffer(t *testing.T) {
	// Length prefix claims 100 bytes but only 2 follow.
	e := NewEncoder()
	e.WriteUvarint(100)
	e.WriteBytes([]byte{'h', 'i'})

	d := NewDecoder(e.Bytes())
	if _, err := d.ReadString(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadString error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDecoderSkipAndPosition(t *testing.T) {
	d := NewDecoder([]byte{1, 2, 3, 4})
	if err := d.Skip(2); err != nil {
		t.Fatalf("Skip() error = %v", err)
	}
	if d.Position() != 2 {
		t.Errorf("Position() = %d, want 2", d.Position())
	}
	if err := d.Skip(3); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Skip past end error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReadCollectionCountLimit(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(MaxCollectionCount + 1)
	// Pad so the remaining-bytes check doesn't trip first.
	e.WriteBytes(make([]byte, 16))

	d := NewDecoder(e.Bytes())
	if _, err := d.ReadCollectionCount(); !errors.Is(err, ErrCollectionTooLarge) {
		t.Errorf("ReadCollectionCount error = %v, want ErrCollectionTooLarge", err)
	}
}
