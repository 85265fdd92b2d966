package hop

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// handlerFunc implements one command's dispatch contract: given the
// engine's state and the decoded request, it returns a response or a
// *DispatchError. Echo and Stats don't touch state but share the shape for
// a uniform dispatch table.
type handlerFunc func(e *Engine, req *Request) (*Response, error)

var handlers = map[CommandID]handlerFunc{
	CmdIncrement:   handleIncrement,
	CmdDecrement:   handleDecrement,
	CmdIncrementBy: handleIncrementBy,
	CmdDecrementBy: handleDecrementBy,
	CmdSet:         handleSet,
	CmdDelete:      handleDelete,
	CmdExists:      handleExists,
	CmdIs:          handleIs,
	CmdRename:      handleRename,
	CmdAppend:      handleAppend,
	CmdLength:      handleLength,
	CmdEcho:        handleEcho,
	CmdStats:       handleStats,
}

func argKey(req *Request) ([]byte, error) {
	if len(req.Args) < 1 {
		return nil, ErrKeyUnspecified
	}
	return req.Args[0], nil
}

func handleIncrement(e *Engine, req *Request) (*Response, error) { return stepByOne(e, req, 1) }
func handleDecrement(e *Engine, req *Request) (*Response, error) { return stepByOne(e, req, -1) }

// stepByOne implements Increment/Decrement: integer by default, or float
// when the request's key-type tag says so. A wrong existing type is
// "key type different", matching §4.2's explicit Integer-by-default rule.
func stepByOne(e *Engine, req *Request, delta int64) (*Response, error) {
	key, err := argKey(req)
	if err != nil {
		return nil, err
	}
	if req.HasKeyType && req.KeyType == KeyTypeFloat {
		var result FloatValue
		err := WithFloat(e.state, key, func(v *FloatValue) error {
			*v += FloatValue(delta)
			result = *v
			return nil
		})
		if err != nil {
			return nil, ErrKeyTypeDifferent
		}
		return ValueResponse(result), nil
	}

	var result IntegerValue
	err = WithInteger(e.state, key, func(v *IntegerValue) error {
		*v = IntegerValue(int64(*v) + delta)
		result = *v
		return nil
	})
	if err != nil {
		return nil, ErrKeyTypeDifferent
	}
	return ValueResponse(result), nil
}

func handleIncrementBy(e *Engine, req *Request) (*Response, error) { return stepByAmount(e, req, 1) }
func handleDecrementBy(e *Engine, req *Request) (*Response, error) { return stepByAmount(e, req, -1) }

// stepByAmount implements IncrementBy/DecrementBy. sign flips the decoded
// amount for the decrement variant, per §4.2 ("decrement-by is implemented
// as increment-by with the sign flipped").
func stepByAmount(e *Engine, req *Request, sign int) (*Response, error) {
	key, err := argKey(req)
	if err != nil {
		return nil, err
	}
	if len(req.Args) < 2 {
		return nil, ErrArgumentRetrieval
	}
	arg := req.Args[1]
	if len(arg) != 8 {
		return nil, ErrArgumentRetrieval
	}

	if req.HasKeyType && req.KeyType == KeyTypeFloat {
		amount := math.Float64frombits(binary.BigEndian.Uint64(arg))
		if sign < 0 {
			amount = -amount
		}
		var result FloatValue
		err := WithFloat(e.state, key, func(v *FloatValue) error {
			*v += FloatValue(amount)
			result = *v
			return nil
		})
		if err != nil {
			return nil, ErrKeyTypeDifferent
		}
		return ValueResponse(result), nil
	}

	amount := int64(binary.BigEndian.Uint64(arg))
	if sign < 0 {
		amount = -amount
	}
	var result IntegerValue
	err = WithInteger(e.state, key, func(v *IntegerValue) error {
		*v = IntegerValue(int64(*v) + amount)
		result = *v
		return nil
	})
	if err != nil {
		return nil, ErrKeyTypeDifferent
	}
	return ValueResponse(result), nil
}

// handleSet implements Set: remove the existing key (its type may change),
// then build a fresh value of the target type from the remaining
// arguments and write it back.
func handleSet(e *Engine, req *Request) (*Response, error) {
	key, err := argKey(req)
	if err != nil {
		return nil, err
	}
	if len(req.Args) < 2 {
		return nil, ErrArgumentRetrieval
	}
	rest := req.Args[1:]

	kind := KeyTypeBytes
	if req.HasKeyType {
		kind = req.KeyType
	}

	e.state.Remove(key)

	value, err := buildValue(kind, rest)
	if err != nil {
		return nil, err
	}
	e.state.Insert(key, value)
	return ValueResponse(value), nil
}

func buildValue(kind KeyType, args [][]byte) (Value, error) {
	switch kind {
	case KeyTypeBytes:
		return BytesValue(args[0]), nil
	case KeyTypeBoolean:
		return BooleanValue(len(args[0]) > 0 && args[0][0] != 0), nil
	case KeyTypeFloat:
		if len(args[0]) != 8 {
			return nil, ErrArgumentRetrieval
		}
		return FloatValue(math.Float64frombits(binary.BigEndian.Uint64(args[0]))), nil
	case KeyTypeInteger:
		if len(args[0]) != 8 {
			return nil, ErrArgumentRetrieval
		}
		return IntegerValue(int64(binary.BigEndian.Uint64(args[0]))), nil
	case KeyTypeString:
		if !utf8.Valid(args[0]) {
			return nil, ErrArgumentRetrieval
		}
		return StringValue(args[0]), nil
	case KeyTypeList:
		list := make(ListValue, len(args))
		copy(list, args)
		return list, nil
	case KeyTypeMap:
		m := make(MapValue, len(args)/2)
		for i := 0; i+1 < len(args); i += 2 {
			m[string(args[i])] = args[i+1]
		}
		return m, nil
	case KeyTypeSet:
		s := make(SetValue, len(args))
		for _, a := range args {
			s[string(a)] = struct{}{}
		}
		return s, nil
	default:
		return nil, ErrKeyTypeInvalid
	}
}

// handleDelete implements Delete: no key-type tag allowed, key must exist.
func handleDelete(e *Engine, req *Request) (*Response, error) {
	if req.HasKeyType {
		return nil, ErrKeyTypeUnexpected
	}
	key, err := argKey(req)
	if err != nil {
		return nil, err
	}
	removed, ok := e.state.Remove(key)
	if !ok {
		return nil, ErrPreconditionFail
	}
	_ = removed
	return ValueResponse(BytesValue(key)), nil
}

// handleExists implements Exists: true iff every given key exists.
func handleExists(e *Engine, req *Request) (*Response, error) {
	if len(req.Args) == 0 {
		return nil, ErrArgumentRetrieval
	}
	for _, key := range req.Args {
		if !e.state.Contains(key) {
			return ValueResponse(BooleanValue(false)), nil
		}
	}
	return ValueResponse(BooleanValue(true)), nil
}

// handleIs implements Is: true iff every given key exists and has the
// tagged type. The key-type tag is required.
func handleIs(e *Engine, req *Request) (*Response, error) {
	if !req.HasKeyType {
		return nil, ErrKeyTypeRequired
	}
	if len(req.Args) == 0 {
		return nil, ErrArgumentRetrieval
	}
	for _, key := range req.Args {
		kind, ok := e.state.KindOf(key)
		if !ok || kind != req.KeyType {
			return ValueResponse(BooleanValue(false)), nil
		}
	}
	return ValueResponse(BooleanValue(true)), nil
}

// handleRename implements Rename: source must exist, destination must not.
func handleRename(e *Engine, req *Request) (*Response, error) {
	if req.HasKeyType {
		return nil, ErrKeyTypeUnexpected
	}
	if len(req.Args) != 2 {
		return nil, ErrArgumentRetrieval
	}
	src, dst := req.Args[0], req.Args[1]

	value, ok := e.state.Read(src)
	if !ok {
		return nil, ErrKeyNonexistent
	}
	if e.state.Contains(dst) {
		return nil, ErrPreconditionFail
	}
	e.state.Remove(src)
	e.state.Insert(dst, value)
	return ValueResponse(BytesValue(dst)), nil
}

// handleAppend implements Append across its three supported key types.
func handleAppend(e *Engine, req *Request) (*Response, error) {
	key, err := argKey(req)
	if err != nil {
		return nil, err
	}
	if len(req.Args) < 2 {
		return nil, ErrArgumentRetrieval
	}
	args := req.Args[1:]

	kind := KeyTypeBytes
	if req.HasKeyType {
		kind = req.KeyType
	}

	switch kind {
	case KeyTypeBytes:
		var result BytesValue
		err := WithBytes(e.state, key, func(v *BytesValue) error {
			var buf bytes.Buffer
			buf.Write(*v)
			for _, a := range args {
				buf.Write(a)
			}
			*v = buf.Bytes()
			result = *v
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ValueResponse(result), nil

	case KeyTypeList:
		var result ListValue
		err := WithList(e.state, key, func(v *ListValue) error {
			*v = append(*v, args...)
			result = *v
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ValueResponse(result), nil

	case KeyTypeString:
		var result StringValue
		err := WithString(e.state, key, func(v *StringValue) error {
			var buf bytes.Buffer
			buf.WriteString(string(*v))
			for _, a := range args {
				if utf8.Valid(a) {
					buf.Write(a)
				}
			}
			*v = StringValue(buf.String())
			result = *v
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ValueResponse(result), nil

	default:
		return nil, ErrWrongType
	}
}

// handleLength implements Length: element count for Bytes/List/Map/Set,
// Unicode scalar count (not byte length) for String.
func handleLength(e *Engine, req *Request) (*Response, error) {
	key, err := argKey(req)
	if err != nil {
		return nil, err
	}

	var kind KeyType
	if req.HasKeyType {
		kind = req.KeyType
	} else {
		k, ok := e.state.KindOf(key)
		if !ok {
			return nil, ErrKeyNonexistent
		}
		kind = k
	}

	value, ok := e.state.Read(key)
	if !ok {
		return nil, ErrKeyNonexistent
	}

	switch kind {
	case KeyTypeBytes:
		v, ok := value.(BytesValue)
		if !ok {
			return nil, ErrKeyTypeDifferent
		}
		return ValueResponse(IntegerValue(len(v))), nil
	case KeyTypeList:
		v, ok := value.(ListValue)
		if !ok {
			return nil, ErrKeyTypeDifferent
		}
		return ValueResponse(IntegerValue(len(v))), nil
	case KeyTypeMap:
		v, ok := value.(MapValue)
		if !ok {
			return nil, ErrKeyTypeDifferent
		}
		return ValueResponse(IntegerValue(len(v))), nil
	case KeyTypeSet:
		v, ok := value.(SetValue)
		if !ok {
			return nil, ErrKeyTypeDifferent
		}
		return ValueResponse(IntegerValue(len(v))), nil
	case KeyTypeString:
		v, ok := value.(StringValue)
		if !ok {
			return nil, ErrKeyTypeDifferent
		}
		return ValueResponse(IntegerValue(utf8.RuneCountInString(string(v)))), nil
	default:
		return nil, ErrKeyTypeInvalid
	}
}

// handleEcho implements Echo: respond with the arguments as a List, even
// when there are none.
func handleEcho(e *Engine, req *Request) (*Response, error) {
	list := make(ListValue, len(req.Args))
	copy(list, req.Args)
	return ValueResponse(list), nil
}

// handleStats implements Stats: a Map of metric name to its big-endian i64
// counter snapshot.
func handleStats(e *Engine, req *Request) (*Response, error) {
	snapshot := e.metrics.Snapshot()
	m := make(MapValue, len(snapshot))
	for name, count := range snapshot {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(count))
		m[name] = b[:]
	}
	return ValueResponse(m), nil
}
