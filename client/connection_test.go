package client

import (
	"testing"

	"github.com/hopdb/hop"
	"github.com/hopdb/hop/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionSendDecodesResponse(t *testing.T) {
	encoded := hop.EncodeResponse(hop.ValueResponse(hop.IntegerValue(42)))
	mock := testutils.NewConnectionMock(string(encoded))
	conn := NewConnection(mock)

	resp, err := conn.Send(hop.NewRequest(hop.CmdIncrement, []byte("k")))
	require.NoError(t, err)
	assert.Equal(t, hop.RespInteger, resp.Type)
	assert.Equal(t, hop.IntegerValue(42), resp.Value)
}

func TestConnectionSendWritesEncodedRequest(t *testing.T) {
	encoded := hop.EncodeResponse(hop.ValueResponse(hop.BooleanValue(true)))
	mock := testutils.NewConnectionMock(string(encoded))
	conn := NewConnection(mock)

	req := hop.NewRequest(hop.CmdExists, []byte("k"))
	_, err := conn.Send(req)
	require.NoError(t, err)

	assert.Equal(t, string(hop.EncodeRequest(req)), mock.GetWrittenRequest())
}

func TestConnectionSendSurfacesParseError(t *testing.T) {
	// A length prefix declaring a body longer than anything ever supplied
	// leaves the decoder stuck asking for more bytes, which surfaces as an
	// EOF from the mock's exhausted buffer rather than a parse error; a
	// response type byte outside the known set is what the decoder itself
	// rejects, once the frame is complete.
	body := []byte{0xff}
	frame := make([]byte, 4+len(body))
	frame[3] = byte(len(body))
	copy(frame[4:], body)

	mock := testutils.NewConnectionMock(string(frame))
	conn := NewConnection(mock)

	_, err := conn.Send(hop.NewRequest(hop.CmdIncrement, []byte("k")))
	require.Error(t, err)
	_, ok := err.(*hop.ParseError)
	assert.True(t, ok)
}
