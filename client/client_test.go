package client

import (
	"context"
	"testing"

	"github.com/hopdb/hop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewInProcessClient(hop.NewEngine(nil))
}

func TestClientIncrementAndDecrement(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	v, err := c.Increment("k").Do(ctx)
	require.NoError(t, err)
	assert.Equal(t, hop.IntegerValue(1), v)

	v, err = c.Decrement("k").Do(ctx)
	require.NoError(t, err)
	assert.Equal(t, hop.IntegerValue(0), v)
}

func TestClientIncrementByFloat(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	v, err := c.Increment("f").Float().ByFloat(2.5).Do(ctx)
	require.NoError(t, err)
	assert.Equal(t, hop.FloatValue(2.5), v)
}

func TestClientSetAndSelfLength(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	_, err := c.Set("l", []byte("a"), []byte("b")).As(hop.KeyTypeList).Do(ctx)
	require.NoError(t, err)

	n, err := c.Length("l").Do(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestClientDeleteMissingKeyErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	_, err := c.Delete(ctx, "missing")
	require.Error(t, err)
	var de *hop.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, hop.DispatchPreconditionFail, de.Code)
}

func TestClientExistsAndIs(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	_, err := c.Increment("a").Do(ctx)
	require.NoError(t, err)

	ok, err := c.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Is(ctx, hop.KeyTypeInteger, "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClientRename(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	_, err := c.Increment("src").Do(ctx)
	require.NoError(t, err)

	dst, err := c.Rename(ctx, "src", "dst")
	require.NoError(t, err)
	assert.Equal(t, []byte("dst"), dst)
}

func TestClientAppendString(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	_, err := c.Set("s", []byte("hi")).As(hop.KeyTypeString).Do(ctx)
	require.NoError(t, err)

	v, err := c.Append("s", []byte(" there")).As(hop.KeyTypeString).Do(ctx)
	require.NoError(t, err)
	assert.Equal(t, hop.StringValue("hi there"), v)
}

func TestClientEcho(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	out, err := c.Echo(ctx, []byte("a"), []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, out)
}

func TestClientEngineStats(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	_, err := c.Increment("k").Do(ctx)
	require.NoError(t, err)

	stats, err := c.EngineStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["commands_successful"])
}

// TestClientStatsTracksDispatchOutcomes confirms Client.Stats counts
// round trips by transport outcome, not by command outcome: a Delete on a
// missing key still completes its round trip cleanly, so it counts as
// Succeeded even though the caller sees a DispatchError.
func TestClientStatsTracksDispatchOutcomes(t *testing.T) {
	ctx := context.Background()
	c := newTestClient()

	_, _ = c.Increment("k").Do(ctx)
	_, _ = c.Delete(ctx, "missing")

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Dispatched)
	assert.Equal(t, uint64(2), stats.Succeeded)
	assert.Equal(t, uint64(0), stats.Errored)
}
