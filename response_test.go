package hop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeResponseLengthPrefix(t *testing.T) {
	encoded := EncodeResponse(ValueResponse(IntegerValue(42)))
	require.True(t, len(encoded) >= 4)
	length := uint32(encoded[0])<<24 | uint32(encoded[1])<<16 | uint32(encoded[2])<<8 | uint32(encoded[3])
	assert.Equal(t, uint32(len(encoded)-4), length)
}

func TestResponseRoundTripEachType(t *testing.T) {
	cases := []Value{
		BooleanValue(true),
		BooleanValue(false),
		BytesValue("raw"),
		FloatValue(3.5),
		IntegerValue(-7),
		StringValue("hello"),
		ListValue{[]byte("a"), []byte("b")},
		MapValue{"k": []byte("v")},
		SetValue{"x": {}, "y": {}},
	}

	for _, v := range cases {
		encoded := EncodeResponse(ValueResponse(v))
		dec := NewResponseDecoder()
		result := dec.Feed(encoded)
		require.Equal(t, ResponseConcluded, result.Status, "kind %v", v.Kind())
		assert.Equal(t, v, result.Response.Value)
		assert.Equal(t, len(encoded), result.Consumed)
	}
}

func TestResponseRoundTripDispatchAndParseErrors(t *testing.T) {
	encoded := EncodeResponse(DispatchErrorResponse(DispatchPreconditionFail))
	dec := NewResponseDecoder()
	result := dec.Feed(encoded)
	require.Equal(t, ResponseConcluded, result.Status)
	assert.Equal(t, RespDispatchError, result.Response.Type)
	assert.Equal(t, DispatchPreconditionFail, result.Response.DispatchErr)

	encoded = EncodeResponse(ParseErrorResponse(ParseKeyTypeInvalid))
	dec = NewResponseDecoder()
	result = dec.Feed(encoded)
	require.Equal(t, ResponseConcluded, result.Status)
	assert.Equal(t, RespParseError, result.Response.Type)
	assert.Equal(t, ParseKeyTypeInvalid, result.Response.ParseErr)
}

func TestResponseDecoderNeedsBytesWithHint(t *testing.T) {
	encoded := EncodeResponse(ValueResponse(StringValue("hello world")))

	dec := NewResponseDecoder()
	result := dec.Feed(encoded[:2])
	require.Equal(t, ResponseNeedBytes, result.Status)
	assert.Equal(t, 2, result.NeedBytes)

	result = dec.Feed(encoded[:4])
	require.Equal(t, ResponseNeedBytes, result.Status)
	assert.Equal(t, len(encoded)-4, result.NeedBytes)
}

func TestResponseDecoderInvalidUTF8String(t *testing.T) {
	resp := &Response{Type: RespString, Value: StringValue("x")}
	encoded := EncodeResponse(resp)

	// Corrupt the single-byte payload with 0xff, a byte that never occurs
	// in valid UTF-8, keeping the length prefix accurate.
	encoded[len(encoded)-1] = 0xff

	dec := NewResponseDecoder()
	result := dec.Feed(encoded)
	require.Equal(t, ResponseErrored, result.Status)
	assert.Equal(t, ParseStringInvalid, result.Err.Code)
}

func TestResponseDecoderMalformedCounts(t *testing.T) {
	// A List body claiming 5 items but carrying none.
	body := []byte{byte(RespList), 0x00, 0x05}
	frame := make([]byte, 4+len(body))
	frame[3] = byte(len(body))
	copy(frame[4:], body)

	dec := NewResponseDecoder()
	result := dec.Feed(frame)
	require.Equal(t, ResponseErrored, result.Status)
	assert.Equal(t, ParseResponseMalformed, result.Err.Code)
}

// TestResponseRoundTripByteAtATime matches the byte-at-a-time feeding
// invariant of spec.md §8, mirrored from the request codec's contract.
func TestResponseRoundTripByteAtATime(t *testing.T) {
	original := ListValue{[]byte("one"), []byte("two"), []byte("three")}
	encoded := EncodeResponse(ValueResponse(original))

	dec := NewResponseDecoder()
	var result ResponseFeedResult
	for i := 1; i <= len(encoded); i++ {
		result = dec.Feed(encoded[:i])
		if result.Status == ResponseConcluded {
			break
		}
	}

	require.Equal(t, ResponseConcluded, result.Status)
	assert.Equal(t, original, result.Response.Value)
}
