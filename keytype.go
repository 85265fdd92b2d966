package hop

// KeyType tags the variant of a [Value]. Its numeric encoding is part of the
// wire format (it is the code carried by a request's key-type byte) and must
// not change. Response type tags use their own numbering; see [ResponseType].
type KeyType uint8

const (
	KeyTypeBytes   KeyType = 0
	KeyTypeBoolean KeyType = 1
	KeyTypeFloat   KeyType = 2
	KeyTypeInteger KeyType = 3
	KeyTypeString  KeyType = 4
	KeyTypeList    KeyType = 5
	KeyTypeMap     KeyType = 6
	KeyTypeSet     KeyType = 7
)

// String renders the type name, for logging and CLI output only; it is not
// part of the wire contract.
func (k KeyType) String() string {
	switch k {
	case KeyTypeBytes:
		return "bytes"
	case KeyTypeBoolean:
		return "boolean"
	case KeyTypeFloat:
		return "float"
	case KeyTypeInteger:
		return "integer"
	case KeyTypeString:
		return "string"
	case KeyTypeList:
		return "list"
	case KeyTypeMap:
		return "map"
	case KeyTypeSet:
		return "set"
	default:
		return "unknown"
	}
}

// validKeyType reports whether b is one of the eight reserved wire codes.
func validKeyType(b byte) bool {
	return b <= byte(KeyTypeSet)
}
