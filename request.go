package hop

import "encoding/binary"

// CommandID is the wire-stable u8 identifying a command. Values below 128
// are reserved for commands; bit 7 of the first wire byte is reclaimed as
// the key-type-follows flag (spec.md §4.3), so no CommandID may reach 128.
type CommandID uint8

const (
	CmdIncrement   CommandID = 0
	CmdDecrement   CommandID = 1
	CmdIncrementBy CommandID = 2
	CmdDecrementBy CommandID = 3
	CmdSet         CommandID = 10
	CmdDelete      CommandID = 12
	CmdExists      CommandID = 13
	CmdIs          CommandID = 14
	CmdRename      CommandID = 15
	CmdAppend      CommandID = 20
	CmdLength      CommandID = 21
	CmdEcho        CommandID = 100
	CmdStats       CommandID = 101

	// Reserved for the client surface (Get, Keys, Type); the engine's
	// dispatcher does not recognize these and the request decoder rejects
	// them as CommandIdInvalid until a wire contract is defined for them.
	CmdGetReserved  CommandID = 110
	CmdKeysReserved CommandID = 111
	CmdTypeReserved CommandID = 112
)

// valid reports whether c is one of the commands the engine dispatches.
func (c CommandID) valid() bool {
	switch c {
	case CmdIncrement, CmdDecrement, CmdIncrementBy, CmdDecrementBy,
		CmdSet, CmdDelete, CmdExists, CmdIs, CmdRename,
		CmdAppend, CmdLength, CmdEcho, CmdStats:
		return true
	default:
		return false
	}
}

// isSimple reports whether c carries no key and no arguments, so decoding
// completes immediately after the (optional key-type) header. Only Stats
// qualifies: Echo accepts arguments (even a zero-length argument list is
// still an explicit arg_count byte on the wire), so it is NOT simple -
// see spec.md §9's open question on this exact point.
func (c CommandID) isSimple() bool {
	return c == CmdStats
}

// Request is the decoded form of one wire frame: a command, an optional
// key-type tag, and its ordered argument list. There is no separate "key"
// field — by convention the command handler interprets Args[0] as the key
// when the command needs one.
type Request struct {
	Command    CommandID
	HasKeyType bool
	KeyType    KeyType
	Args       [][]byte
}

// NewRequest builds a Request with no key-type tag, for callers (notably
// the in-process client backend) that construct requests directly instead
// of decoding them off a wire.
func NewRequest(cmd CommandID, args ...[]byte) *Request {
	return &Request{Command: cmd, Args: args}
}

// WithKeyType sets the request's key-type tag and returns the request, for
// chaining at the call site.
func (r *Request) WithKeyType(kind KeyType) *Request {
	r.HasKeyType = true
	r.KeyType = kind
	return r
}

// RequestDecodeStatus is the outcome of one RequestDecoder.Feed call.
type RequestDecodeStatus int

const (
	DecodeNeedMore RequestDecodeStatus = iota
	DecodeReady
	DecodeErrored
)

// RequestFeedResult is returned by RequestDecoder.Feed.
type RequestFeedResult struct {
	Status   RequestDecodeStatus
	Request  *Request
	Err      *ParseError
	Consumed int // bytes of the input buffer this result accounts for
}

// RequestDecoder decodes the binary request framing of spec.md §4.3. It is
// resumable: Feed may be called repeatedly as more bytes of the same frame
// arrive, and must be given the full set of bytes received so far for the
// frame currently in flight (buf[0] is always the first unconsumed byte of
// the current request). This lets the decoder stay a pure function of its
// input — there is no persistent byte cursor to get out of sync — while
// still honoring the "don't allocate the full payload upfront" rule: until
// buf holds enough bytes for the step in progress, Feed returns NeedMore
// without copying anything; once it has enough, argument byte sequences
// are zero-copy slices directly over buf.
//
// Conceptually the decoder still passes through the {Init, Kind,
// ArgumentParsing} stages described in spec.md §4.3; they just aren't
// materialized as separate struct fields, since each Feed call re-derives
// them from buf's length.
type RequestDecoder struct{}

// NewRequestDecoder returns a ready-to-use decoder.
func NewRequestDecoder() *RequestDecoder { return &RequestDecoder{} }

// Feed attempts to decode one request from buf. On DecodeReady or
// DecodeErrored, Consumed bytes belong to this frame; the caller should
// advance its read cursor past them before the next Feed call (which
// implicitly starts over at Init). On DecodeNeedMore, Consumed is 0 and
// the caller must supply a longer buf (e.g. after reading more bytes off
// the connection) and feed again.
func (d *RequestDecoder) Feed(buf []byte) RequestFeedResult {
	if len(buf) < 1 {
		return RequestFeedResult{Status: DecodeNeedMore}
	}

	b0 := buf[0]
	cmd := CommandID(b0 & 0x7f)
	hasKeyType := b0&0x80 != 0
	if !cmd.valid() {
		return errResult(&ParseError{Code: ParseCommandIDInvalid}, 1)
	}

	pos := 1
	var keyType KeyType
	if hasKeyType {
		if len(buf) < pos+1 {
			return RequestFeedResult{Status: DecodeNeedMore}
		}
		raw := buf[pos]
		pos++
		kt := raw >> 1
		if !validKeyType(kt) {
			return errResult(&ParseError{Code: ParseKeyTypeInvalid}, pos)
		}
		keyType = KeyType(kt)
	}

	if cmd.isSimple() {
		return RequestFeedResult{
			Status:   DecodeReady,
			Request:  &Request{Command: cmd, HasKeyType: hasKeyType, KeyType: keyType},
			Consumed: pos,
		}
	}

	if len(buf) < pos+1 {
		return RequestFeedResult{Status: DecodeNeedMore}
	}
	argCount := int(buf[pos])
	pos++

	args := make([][]byte, 0, argCount)
	for i := 0; i < argCount; i++ {
		if len(buf) < pos+4 {
			return RequestFeedResult{Status: DecodeNeedMore}
		}
		length := int(binary.BigEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		if len(buf) < pos+length {
			return RequestFeedResult{Status: DecodeNeedMore}
		}
		args = append(args, buf[pos:pos+length])
		pos += length
	}

	return RequestFeedResult{
		Status: DecodeReady,
		Request: &Request{
			Command:    cmd,
			HasKeyType: hasKeyType,
			KeyType:    keyType,
			Args:       args,
		},
		Consumed: pos,
	}
}

func errResult(err *ParseError, consumed int) RequestFeedResult {
	return RequestFeedResult{Status: DecodeErrored, Err: err, Consumed: consumed}
}

// EncodeRequest writes r's wire representation, as a remote client backend
// would before sending it. It is the mirror of RequestDecoder.Feed and
// exists primarily so tests can round-trip Request values, and so the
// remote backend has a single place that knows the header layout.
func EncodeRequest(r *Request) []byte {
	b0 := byte(r.Command)
	if r.HasKeyType {
		b0 |= 0x80
	}
	out := []byte{b0}
	if r.HasKeyType {
		out = append(out, byte(r.KeyType)<<1)
	}
	if r.Command.isSimple() {
		return out
	}
	out = append(out, byte(len(r.Args)))
	var lenBuf [4]byte
	for _, arg := range r.Args {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(arg)))
		out = append(out, lenBuf[:]...)
		out = append(out, arg...)
	}
	return out
}
