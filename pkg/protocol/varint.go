package protocol

// MaxVarintLen is the maximum number of bytes a varint can occupy.
// The widest encoding is a 0xFF prefix byte followed by 8 value bytes.
const MaxVarintLen = 9

// Prefix bytes selecting the width of the value that follows.
const (
	prefix2Byte = 253 // uint16 big-endian follows
	prefix4Byte = 254 // uint32 big-endian follows
	prefix8Byte = 255 // uint64 big-endian follows
)

// EncodeUvarint encodes an unsigned integer as a varint into buf.
// Returns the number of bytes written.
// buf must have at least MaxVarintLen bytes available.
//
// Values below 253 occupy a single byte. Larger values are written as a
// prefix byte (253/254/255) followed by a 2/4/8-byte big-endian value.
// The minimal width for the value's range is always selected, so every
// integer has exactly one valid encoding.
func EncodeUvarint(buf []byte, v uint64) int {
	switch {
	case v < prefix2Byte:
		buf[0] = byte(v)
		return 1
	case v <= 0xFFFF:
		buf[0] = prefix2Byte
		buf[1] = byte(v >> 8)
		buf[2] = byte(v)
		return 3
	case v <= 0xFFFFFFFF:
		buf[0] = prefix4Byte
		buf[1] = byte(v >> 24)
		buf[2] = byte(v >> 16)
		buf[3] = byte(v >> 8)
		buf[4] = byte(v)
		return 5
	default:
		buf[0] = prefix8Byte
		buf[1] = byte(v >> 56)
		buf[2] = byte(v >> 48)
		buf[3] = byte(v >> 40)
		buf[4] = byte(v >> 32)
		buf[5] = byte(v >> 24)
		buf[6] = byte(v >> 16)
		buf[7] = byte(v >> 8)
		buf[8] = byte(v)
		return 9
	}
}

// DecodeUvarint decodes an unsigned varint from buf.
// Returns (value, bytesRead). If bytesRead < 0, decoding failed:
//   - -1: buffer too short (incomplete varint)
func DecodeUvarint(buf []byte) (uint64, int) {
	if len(buf) == 0 {
		return 0, -1
	}
	switch b := buf[0]; b {
	case prefix2Byte:
		if len(buf) < 3 {
			return 0, -1
		}
		return uint64(buf[1])<<8 | uint64(buf[2]), 3
	case prefix4Byte:
		if len(buf) < 5 {
			return 0, -1
		}
		return uint64(buf[1])<<24 | uint64(buf[2])<<16 |
			uint64(buf[3])<<8 | uint64(buf[4]), 5
	case prefix8Byte:
		if len(buf) < 9 {
			return 0, -1
		}
		return uint64(buf[1])<<56 | uint64(buf[2])<<48 |
			uint64(buf[3])<<40 | uint64(buf[4])<<32 |
			uint64(buf[5])<<24 | uint64(buf[6])<<16 |
			uint64(buf[7])<<8 | uint64(buf[8]), 9
	default:
		return uint64(b), 1
	}
}

// EncodeSvarint encodes a signed integer as a varint using ZigZag encoding.
// Returns the number of bytes written.
// ZigZag maps signed integers to unsigned: 0->0, -1->1, 1->2, -2->3, 2->4, etc.
func EncodeSvarint(buf []byte, v int64) int {
	// ZigZag encode: (v << 1) ^ (v >> 63)
	// Positive v: v << 1 (0->0, 1->2, 2->4)
	// Negative v: (-v << 1) - 1 (-1->1, -2->3, -3->5)
	uv := uint64((v << 1) ^ (v >> 63))
	return EncodeUvarint(buf, uv)
}

// DecodeSvarint decodes a signed varint using ZigZag decoding.
// Returns (value, bytesRead). Negative bytesRead indicates error (see DecodeUvarint).
func DecodeSvarint(buf []byte) (int64, int) {
	uv, n := DecodeUvarint(buf)
	if n < 0 {
		return 0, n
	}
	// ZigZag decode: (uv >> 1) ^ -(uv & 1)
	v := int64(uv >> 1)
	if uv&1 != 0 {
		v = ^v
	}
	return v, n
}

// UvarintLen returns the number of bytes needed to encode v as a varint.
func UvarintLen(v uint64) int {
	switch {
	case v < prefix2Byte:
		return 1
	case v <= 0xFFFF:
		return 3
	case v <= 0xFFFFFFFF:
		return 5
	default:
		return 9
	}
}

// SvarintLen returns the number of bytes needed to encode v as a signed varint.
func SvarintLen(v int64) int {
	uv := uint64((v << 1) ^ (v >> 63))
	return UvarintLen(uv)
}
