package hop

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineDispatchAppendsOneFrame(t *testing.T) {
	e := NewEngine(nil)
	var out bytes.Buffer
	e.Dispatch(NewRequest(CmdIncrement, []byte("k")), &out)

	dec := NewResponseDecoder()
	result := dec.Feed(out.Bytes())
	require.Equal(t, ResponseConcluded, result.Status)
	assert.Equal(t, len(out.Bytes()), result.Consumed)
}

func TestEngineDispatchUnrecognizedCommand(t *testing.T) {
	e := NewEngine(nil)
	var out bytes.Buffer
	e.Dispatch(&Request{Command: CmdGetReserved}, &out)

	dec := NewResponseDecoder()
	result := dec.Feed(out.Bytes())
	require.Equal(t, ResponseConcluded, result.Status)
	assert.Equal(t, RespDispatchError, result.Response.Type)
}

func TestEngineNilConfigFillsDefaults(t *testing.T) {
	e := NewEngine(nil)
	assert.True(t, e.config.PubsubEnabled)
}

func TestEngineExplicitZeroConfigIsHonored(t *testing.T) {
	// A caller that deliberately passes &Config{} (PubsubEnabled: false) is
	// not indistinguishable from one who passed nil for "use the defaults".
	e := NewEngine(&Config{})
	assert.False(t, e.config.PubsubEnabled)
}

// TestEngineMetricsCountExactlyOnePerDispatch matches spec.md §8's
// invariant: commands_successful + commands_errored equals the number of
// Dispatch calls made, regardless of success or failure.
func TestEngineMetricsCountExactlyOnePerDispatch(t *testing.T) {
	e := NewEngine(nil)
	var out bytes.Buffer

	e.Dispatch(NewRequest(CmdIncrement, []byte("k")), &out)
	e.Dispatch(NewRequest(CmdDelete, []byte("missing")), &out)
	e.Dispatch(NewRequest(CmdStats), &out)

	snapshot := e.Metrics().Snapshot()
	total := snapshot["commands_successful"] + snapshot["commands_errored"]
	assert.Equal(t, int64(3), total)
}

func TestEngineConcurrentDispatchIsMetricsConsistent(t *testing.T) {
	e := NewEngine(nil)
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			var out bytes.Buffer
			e.Dispatch(NewRequest(CmdIncrement, []byte("shared")), &out)
		}()
	}
	wg.Wait()

	snapshot := e.Metrics().Snapshot()
	assert.Equal(t, int64(n), snapshot["commands_successful"])

	v, ok := e.State().Read([]byte("shared"))
	require.True(t, ok)
	assert.Equal(t, IntegerValue(n), v)
}
