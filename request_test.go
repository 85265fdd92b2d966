package hop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestDecoderSimpleCommand(t *testing.T) {
	dec := NewRequestDecoder()
	buf := []byte{byte(CmdStats)}

	result := dec.Feed(buf)
	require.Equal(t, DecodeReady, result.Status)
	assert.Equal(t, CmdStats, result.Request.Command)
	assert.False(t, result.Request.HasKeyType)
	assert.Equal(t, 1, result.Consumed)
}

func TestRequestDecoderScenario1IncrementFoo(t *testing.T) {
	// Literal scenario from spec.md §8: Increment a fresh key "foo".
	buf := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x03, 'f', 'o', 'o'}

	dec := NewRequestDecoder()
	result := dec.Feed(buf)
	require.Equal(t, DecodeReady, result.Status)
	assert.Equal(t, CmdIncrement, result.Request.Command)
	assert.False(t, result.Request.HasKeyType)
	require.Len(t, result.Request.Args, 1)
	assert.Equal(t, "foo", string(result.Request.Args[0]))
	assert.Equal(t, len(buf), result.Consumed)
}

func TestRequestDecoderKeyTypeTag(t *testing.T) {
	req := NewRequest(CmdIncrement, []byte("k")).WithKeyType(KeyTypeFloat)
	encoded := EncodeRequest(req)

	dec := NewRequestDecoder()
	result := dec.Feed(encoded)
	require.Equal(t, DecodeReady, result.Status)
	assert.True(t, result.Request.HasKeyType)
	assert.Equal(t, KeyTypeFloat, result.Request.KeyType)
	assert.Equal(t, "k", string(result.Request.Args[0]))
}

func TestRequestDecoderInvalidCommandID(t *testing.T) {
	dec := NewRequestDecoder()
	result := dec.Feed([]byte{0x7f})
	require.Equal(t, DecodeErrored, result.Status)
	assert.Equal(t, ParseCommandIDInvalid, result.Err.Code)
}

func TestRequestDecoderInvalidKeyType(t *testing.T) {
	dec := NewRequestDecoder()
	// bit 7 set (key-type follows), command id 0 (Increment); key-type
	// byte encodes an out-of-range code (8) shifted left by one.
	result := dec.Feed([]byte{0x80, 8 << 1})
	require.Equal(t, DecodeErrored, result.Status)
	assert.Equal(t, ParseKeyTypeInvalid, result.Err.Code)
}

func TestRequestDecoderNeedsMoreBytes(t *testing.T) {
	dec := NewRequestDecoder()
	full := EncodeRequest(NewRequest(CmdDelete, []byte("key")))

	for i := 0; i < len(full); i++ {
		result := dec.Feed(full[:i])
		assert.Equal(t, DecodeNeedMore, result.Status, "at prefix length %d", i)
	}
	result := dec.Feed(full)
	require.Equal(t, DecodeReady, result.Status)
	assert.Equal(t, len(full), result.Consumed)
}

// TestRequestRoundTripByteAtATime matches the invariant in spec.md §8:
// encoding a Request and feeding its bytes one byte at a time yields an
// equal Request.
func TestRequestRoundTripByteAtATime(t *testing.T) {
	original := NewRequest(CmdRename, []byte("src"), []byte("dst"))
	encoded := EncodeRequest(original)

	dec := NewRequestDecoder()
	var result RequestFeedResult
	for i := 1; i <= len(encoded); i++ {
		result = dec.Feed(encoded[:i])
		if result.Status == DecodeReady {
			break
		}
	}

	require.Equal(t, DecodeReady, result.Status)
	assert.Equal(t, original.Command, result.Request.Command)
	assert.Equal(t, original.HasKeyType, result.Request.HasKeyType)
	require.Len(t, result.Request.Args, len(original.Args))
	for i := range original.Args {
		assert.Equal(t, original.Args[i], result.Request.Args[i])
	}
}

func TestCommandIDValidAndSimple(t *testing.T) {
	assert.True(t, CmdIncrement.valid())
	assert.False(t, CommandID(99).valid())
	assert.True(t, CmdStats.isSimple())
	assert.False(t, CmdEcho.isSimple())
}
