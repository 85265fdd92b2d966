package hop

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// ResponseType is the wire-stable u8 tag at the start of a response body.
// Its numbering is independent of KeyType's (compare List=4 here against
// List=5 in KeyType) because the two enums serve different wire positions
// and grew separately; see spec.md §4.4.
type ResponseType uint8

const (
	RespBoolean       ResponseType = 0
	RespBytes         ResponseType = 1
	RespFloat         ResponseType = 2
	RespInteger       ResponseType = 3
	RespList          ResponseType = 4
	RespMap           ResponseType = 5
	RespSet           ResponseType = 6
	RespString        ResponseType = 7
	RespParseError    ResponseType = 8
	RespDispatchError ResponseType = 9
)

// responseTypeFor maps a Value's KeyType to its wire ResponseType.
func responseTypeFor(kind KeyType) ResponseType {
	switch kind {
	case KeyTypeBoolean:
		return RespBoolean
	case KeyTypeBytes:
		return RespBytes
	case KeyTypeFloat:
		return RespFloat
	case KeyTypeInteger:
		return RespInteger
	case KeyTypeList:
		return RespList
	case KeyTypeMap:
		return RespMap
	case KeyTypeSet:
		return RespSet
	case KeyTypeString:
		return RespString
	default:
		return RespBytes
	}
}

// Response is one of: a Value (success), a DispatchError code, or a
// ParseError code — never more than one at a time.
type Response struct {
	Type        ResponseType
	Value       Value
	DispatchErr DispatchErrorCode
	ParseErr    ParseErrorCode
}

// ValueResponse wraps v as a successful response.
func ValueResponse(v Value) *Response {
	return &Response{Type: responseTypeFor(v.Kind()), Value: v}
}

// DispatchErrorResponse builds a dispatch-error response frame.
func DispatchErrorResponse(code DispatchErrorCode) *Response {
	return &Response{Type: RespDispatchError, DispatchErr: code}
}

// ParseErrorResponse builds a request-parse-error response frame.
func ParseErrorResponse(code ParseErrorCode) *Response {
	return &Response{Type: RespParseError, ParseErr: code}
}

// responseErrorFor converts a command-handler error into the Response it
// should produce. Any error not already a *DispatchError is folded into
// ErrWrongType, since every command-visible failure mode in this package
// is expressed as a *DispatchError.
func responseErrorFor(err error) *Response {
	if de, ok := err.(*DispatchError); ok {
		return DispatchErrorResponse(de.Code)
	}
	return DispatchErrorResponse(DispatchWrongType)
}

// EncodeResponse renders resp as its complete wire frame: the 4-byte
// length prefix, the type tag, and the type-specific body.
func EncodeResponse(resp *Response) []byte {
	var body bytes.Buffer
	body.WriteByte(byte(resp.Type))
	writeResponseBody(&body, resp)

	out := make([]byte, 4, 4+body.Len())
	binary.BigEndian.PutUint32(out, uint32(body.Len()))
	return append(out, body.Bytes()...)
}

// AppendResponse appends resp's encoded frame to dst. Engine.Dispatch
// calls this exactly once per request against the caller's output buffer,
// with the response a command handler returned or the error it mapped to.
func AppendResponse(dst *bytes.Buffer, resp *Response) {
	dst.Write(EncodeResponse(resp))
}

func writeResponseBody(body *bytes.Buffer, resp *Response) {
	switch resp.Type {
	case RespBoolean:
		v := resp.Value.(BooleanValue)
		if v {
			body.WriteByte(1)
		} else {
			body.WriteByte(0)
		}
	case RespBytes:
		v := resp.Value.(BytesValue)
		writeU32Bytes(body, v)
	case RespFloat:
		v := resp.Value.(FloatValue)
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(float64(v)))
		body.Write(b[:])
	case RespInteger:
		v := resp.Value.(IntegerValue)
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v))
		body.Write(b[:])
	case RespString:
		v := resp.Value.(StringValue)
		writeU32Bytes(body, []byte(v))
	case RespList:
		v := resp.Value.(ListValue)
		writeU16(body, uint16(len(v)))
		for _, item := range v {
			writeU32Bytes(body, item)
		}
	case RespMap:
		v := resp.Value.(MapValue)
		keys := sortedMapKeys(v)
		writeU16(body, uint16(len(keys)))
		for _, k := range keys {
			body.WriteByte(byte(len(k)))
			body.WriteString(k)
			writeU32Bytes(body, v[k])
		}
	case RespSet:
		v := resp.Value.(SetValue)
		members := sortedSetMembers(v)
		writeU16(body, uint16(len(members)))
		for _, m := range members {
			writeU16(body, uint16(len(m)))
			body.Write(m)
		}
	case RespParseError:
		body.WriteByte(byte(resp.ParseErr))
	case RespDispatchError:
		body.WriteByte(byte(resp.DispatchErr))
	}
}

func writeU32Bytes(body *bytes.Buffer, b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	body.Write(lenBuf[:])
	body.Write(b)
}

func writeU16(body *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	body.Write(b[:])
}

// ResponseDecodeStatus is the outcome of one ResponseDecoder.Feed call.
type ResponseDecodeStatus int

const (
	ResponseNeedBytes ResponseDecodeStatus = iota
	ResponseConcluded
	ResponseErrored
)

// ResponseFeedResult is returned by ResponseDecoder.Feed.
type ResponseFeedResult struct {
	Status    ResponseDecodeStatus
	Response  *Response
	NeedBytes int // hint, valid when Status == ResponseNeedBytes
	Consumed  int // valid when Status == ResponseConcluded or ResponseErrored
	Err       *ParseError
}

// ResponseDecoder decodes the length-prefixed response framing of
// spec.md §4.4. Like RequestDecoder it is a pure function of the bytes
// received so far for the frame in flight: Feed must be called with the
// full buffer accumulated for the current response, and on
// ResponseNeedBytes returns a hint (NeedBytes) for how many additional
// bytes to gather before feeding again, rather than leaving the caller to
// guess.
type ResponseDecoder struct{}

// NewResponseDecoder returns a ready-to-use decoder.
func NewResponseDecoder() *ResponseDecoder { return &ResponseDecoder{} }

// Feed attempts to decode one response frame from buf.
func (d *ResponseDecoder) Feed(buf []byte) ResponseFeedResult {
	if len(buf) < 4 {
		return ResponseFeedResult{Status: ResponseNeedBytes, NeedBytes: 4 - len(buf)}
	}
	length := int(binary.BigEndian.Uint32(buf[:4]))
	total := 4 + length
	if len(buf) < total {
		return ResponseFeedResult{Status: ResponseNeedBytes, NeedBytes: total - len(buf)}
	}
	if length < 1 {
		return ResponseFeedResult{Status: ResponseErrored, Err: &ParseError{Code: ParseResponseMalformed}, Consumed: total}
	}

	frame := buf[4:total]
	tag := ResponseType(frame[0])
	rest := frame[1:]

	resp, perr := parseResponseBody(tag, rest)
	if perr != nil {
		return ResponseFeedResult{Status: ResponseErrored, Err: perr, Consumed: total}
	}
	return ResponseFeedResult{Status: ResponseConcluded, Response: resp, Consumed: total}
}

func parseResponseBody(tag ResponseType, rest []byte) (*Response, *ParseError) {
	switch tag {
	case RespBoolean:
		if len(rest) != 1 {
			return nil, malformed()
		}
		return ValueResponse(BooleanValue(rest[0] != 0)), nil

	case RespBytes:
		b, ok := readU32Bytes(rest)
		if !ok {
			return nil, malformed()
		}
		return ValueResponse(BytesValue(b)), nil

	case RespFloat:
		if len(rest) != 8 {
			return nil, malformed()
		}
		bits := binary.BigEndian.Uint64(rest)
		return ValueResponse(FloatValue(math.Float64frombits(bits))), nil

	case RespInteger:
		if len(rest) != 8 {
			return nil, malformed()
		}
		return ValueResponse(IntegerValue(int64(binary.BigEndian.Uint64(rest)))), nil

	case RespString:
		b, ok := readU32Bytes(rest)
		if !ok {
			return nil, malformed()
		}
		if !utf8.Valid(b) {
			return nil, &ParseError{Code: ParseStringInvalid}
		}
		return ValueResponse(StringValue(b)), nil

	case RespList:
		if len(rest) < 2 {
			return nil, malformed()
		}
		count := int(binary.BigEndian.Uint16(rest[:2]))
		rest = rest[2:]
		list := make(ListValue, 0, count)
		for i := 0; i < count; i++ {
			item, ok := readU32Bytes(rest)
			if !ok {
				return nil, malformed()
			}
			rest = rest[4+len(item):]
			list = append(list, item)
		}
		return ValueResponse(list), nil

	case RespMap:
		if len(rest) < 2 {
			return nil, malformed()
		}
		count := int(binary.BigEndian.Uint16(rest[:2]))
		rest = rest[2:]
		m := make(MapValue, count)
		for i := 0; i < count; i++ {
			if len(rest) < 1 {
				return nil, malformed()
			}
			klen := int(rest[0])
			rest = rest[1:]
			if len(rest) < klen {
				return nil, malformed()
			}
			key := string(rest[:klen])
			rest = rest[klen:]
			val, ok := readU32Bytes(rest)
			if !ok {
				return nil, malformed()
			}
			rest = rest[4+len(val):]
			m[key] = val
		}
		return ValueResponse(m), nil

	case RespSet:
		if len(rest) < 2 {
			return nil, malformed()
		}
		count := int(binary.BigEndian.Uint16(rest[:2]))
		rest = rest[2:]
		s := make(SetValue, count)
		for i := 0; i < count; i++ {
			if len(rest) < 2 {
				return nil, malformed()
			}
			ilen := int(binary.BigEndian.Uint16(rest[:2]))
			rest = rest[2:]
			if len(rest) < ilen {
				return nil, malformed()
			}
			s[string(rest[:ilen])] = struct{}{}
			rest = rest[ilen:]
		}
		return ValueResponse(s), nil

	case RespParseError:
		if len(rest) != 1 {
			return nil, malformed()
		}
		return ParseErrorResponse(ParseErrorCode(rest[0])), nil

	case RespDispatchError:
		if len(rest) != 1 {
			return nil, malformed()
		}
		return DispatchErrorResponse(DispatchErrorCode(rest[0])), nil

	default:
		return nil, malformed()
	}
}

func readU32Bytes(rest []byte) ([]byte, bool) {
	if len(rest) < 4 {
		return nil, false
	}
	n := int(binary.BigEndian.Uint32(rest[:4]))
	if len(rest) < 4+n {
		return nil, false
	}
	return rest[4 : 4+n], true
}

func malformed() *ParseError { return &ParseError{Code: ParseResponseMalformed} }
