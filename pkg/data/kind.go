package data

// Kind identifies the type of an encoded value. The numbering is a
// persisted interop format shared with the platform and other SDKs;
// values must never be renumbered.
type Kind uint8

const (
	KindData    Kind = 0x00 // Nested array container
	KindFloat32 Kind = 0x01
	KindFloat64 Kind = 0x02
	KindInt8    Kind = 0x03
	KindInt16   Kind = 0x04
	KindInt32   Kind = 0x05
	KindInt64   Kind = 0x06
	KindUint8   Kind = 0x07
	KindUint16  Kind = 0x08
	KindUint32  Kind = 0x09
	KindUint64  Kind = 0x0A
	KindString  Kind = 0x0B
	KindBinary  Kind = 0x0C
	KindBool    Kind = 0x0D
	KindImage   Kind = 0x0E
	KindAudio   Kind = 0x0F
	KindVideo   Kind = 0x10
	KindDict    Kind = 0x11
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindData:
		return "Data"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUint8:
		return "Uint8"
	case KindUint16:
		return "Uint16"
	case KindUint32:
		return "Uint32"
	case KindUint64:
		return "Uint64"
	case KindString:
		return "String"
	case KindBinary:
		return "Binary"
	case KindBool:
		return "Bool"
	case KindImage:
		return "Image"
	case KindAudio:
		return "Audio"
	case KindVideo:
		return "Video"
	case KindDict:
		return "Dict"
	default:
		return "Unknown"
	}
}

// valid reports whether k is a known kind tag.
func (k Kind) valid() bool {
	return k <= KindDict
}
