package hop

import "sort"

// Value is the tagged union stored per key. Commands that mutate a value in
// place do so on one of the eight concrete variants below through the typed
// accessors in state.go; Set, Rename and Length store, move or read whole
// values through State's Insert/Read.
type Value interface {
	// Kind returns the stable KeyType tag for this variant.
	Kind() KeyType
}

// BooleanValue is the Boolean variant; its default is false.
type BooleanValue bool

func (BooleanValue) Kind() KeyType { return KeyTypeBoolean }

// BytesValue is the Bytes variant; its default is an empty sequence.
type BytesValue []byte

func (BytesValue) Kind() KeyType { return KeyTypeBytes }

// FloatValue is the Float variant; its default is 0.0.
type FloatValue float64

func (FloatValue) Kind() KeyType { return KeyTypeFloat }

// IntegerValue is the Integer variant; its default is 0.
type IntegerValue int64

func (IntegerValue) Kind() KeyType { return KeyTypeInteger }

// StringValue is the String variant; its default is the empty string.
type StringValue string

func (StringValue) Kind() KeyType { return KeyTypeString }

// ListValue is the List variant: an ordered sequence of byte sequences.
// Its default is an empty list.
type ListValue [][]byte

func (ListValue) Kind() KeyType { return KeyTypeList }

// MapValue is the Map variant: byte-sequence keys to byte-sequence values,
// with no defined iteration order. Its default is an empty map.
type MapValue map[string][]byte

func (MapValue) Kind() KeyType { return KeyTypeMap }

// SetValue is the Set variant: a set of byte sequences, no defined
// iteration order. Its default is an empty set.
type SetValue map[string]struct{}

func (SetValue) Kind() KeyType { return KeyTypeSet }

// defaultValue constructs the zero value for kind, as required by
// get-or-create-with-default (see withTyped). An unknown kind yields Bytes.
func defaultValue(kind KeyType) Value {
	switch kind {
	case KeyTypeBoolean:
		return BooleanValue(false)
	case KeyTypeBytes:
		return BytesValue{}
	case KeyTypeFloat:
		return FloatValue(0)
	case KeyTypeInteger:
		return IntegerValue(0)
	case KeyTypeString:
		return StringValue("")
	case KeyTypeList:
		return ListValue{}
	case KeyTypeMap:
		return MapValue{}
	case KeyTypeSet:
		return SetValue{}
	default:
		return BytesValue{}
	}
}

// sortedSetMembers returns the members of a SetValue in sorted byte order,
// used anywhere a deterministic iteration order is convenient (wire
// encoding does not require it, but tests and the CLI printer do).
func sortedSetMembers(s SetValue) [][]byte {
	out := make([][]byte, 0, len(s))
	for member := range s {
		out = append(out, []byte(member))
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i]) < string(out[j])
	})
	return out
}

// sortedMapKeys returns the keys of a MapValue in sorted byte order.
func sortedMapKeys(m MapValue) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
