package client

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/hopdb/hop"
)

// Client is the facade from spec.md §4.5: one method per command family,
// builder-style where a command has type/amount variants, backed by
// whichever Backend was supplied at construction.
type Client struct {
	backend Backend
	stats   clientStatsCollector
}

// NewClient wraps backend as a Client.
func NewClient(backend Backend) *Client {
	return &Client{backend: backend}
}

// NewInProcessClient builds a Client whose backend dispatches directly
// against engine, with no socket in the path.
func NewInProcessClient(engine *hop.Engine) *Client {
	return NewClient(NewMemoryBackend(engine))
}

// Stats returns a snapshot of this client's dispatch counters.
func (c *Client) Stats() ClientStats { return c.stats.snapshot() }

// Close releases the underlying backend's resources.
func (c *Client) Close() error { return c.backend.Close() }

func (c *Client) do(ctx context.Context, req *hop.Request) (*hop.Response, error) {
	resp, err := c.backend.Do(ctx, req)
	c.stats.recordDispatch(err)
	return resp, err
}

// Raw sends req as-is and returns the decoded response, for callers (the
// CLI's generic "name[:key-type] args..." surface) that build a Request
// directly instead of going through a typed builder.
func (c *Client) Raw(ctx context.Context, req *hop.Request) (*hop.Response, error) {
	return c.do(ctx, req)
}

func f64Bytes(f float64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
	return b[:]
}

func i64Bytes(n int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	return b[:]
}

// arithmeticBuilder implements the Increment/Decrement family, including
// the float variant and the "by" amount.
type arithmeticBuilder struct {
	c         *Client
	key       string
	decrement bool
	float     bool
	hasAmount bool
	intAmount int64
	fltAmount float64
}

// Increment starts building an Increment call on key.
func (c *Client) Increment(key string) *arithmeticBuilder {
	return &arithmeticBuilder{c: c, key: key}
}

// Decrement starts building a Decrement call on key.
func (c *Client) Decrement(key string) *arithmeticBuilder {
	return &arithmeticBuilder{c: c, key: key, decrement: true}
}

// Float selects the Float key-type variant instead of the Integer default.
func (b *arithmeticBuilder) Float() *arithmeticBuilder {
	b.float = true
	return b
}

// By sets the step amount, switching the call to IncrementBy/DecrementBy.
// Combined with Float, the amount is sent as a float.
func (b *arithmeticBuilder) By(amount int64) *arithmeticBuilder {
	b.hasAmount = true
	b.intAmount = amount
	b.fltAmount = float64(amount)
	return b
}

// ByFloat sets a floating-point step amount and implies Float.
func (b *arithmeticBuilder) ByFloat(amount float64) *arithmeticBuilder {
	b.hasAmount = true
	b.float = true
	b.fltAmount = amount
	return b
}

// Do sends the built request and returns the engine's new value for key.
func (b *arithmeticBuilder) Do(ctx context.Context) (hop.Value, error) {
	var req *hop.Request
	if !b.hasAmount {
		cmd := hop.CmdIncrement
		if b.decrement {
			cmd = hop.CmdDecrement
		}
		req = hop.NewRequest(cmd, []byte(b.key))
	} else {
		cmd := hop.CmdIncrementBy
		if b.decrement {
			cmd = hop.CmdDecrementBy
		}
		amount := i64Bytes(b.intAmount)
		if b.float {
			amount = f64Bytes(b.fltAmount)
		}
		req = hop.NewRequest(cmd, []byte(b.key), amount)
	}
	if b.float {
		req = req.WithKeyType(hop.KeyTypeFloat)
	}
	resp, err := b.c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return responseValue(resp)
}

// setBuilder implements Set.
type setBuilder struct {
	c       *Client
	key     string
	kind    hop.KeyType
	hasKind bool
	args    [][]byte
}

// Set starts building a Set call on key with the given value arguments.
func (c *Client) Set(key string, args ...[]byte) *setBuilder {
	return &setBuilder{c: c, key: key, args: args}
}

// As selects the target key-type; without it, Set defaults to Bytes.
func (b *setBuilder) As(kind hop.KeyType) *setBuilder {
	b.kind = kind
	b.hasKind = true
	return b
}

// Do sends the built Set request.
func (b *setBuilder) Do(ctx context.Context) (hop.Value, error) {
	reqArgs := append([][]byte{[]byte(b.key)}, b.args...)
	req := hop.NewRequest(hop.CmdSet, reqArgs...)
	if b.hasKind {
		req = req.WithKeyType(b.kind)
	}
	resp, err := b.c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return responseValue(resp)
}

// Delete removes key, returning the deleted key's bytes.
func (c *Client) Delete(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.do(ctx, hop.NewRequest(hop.CmdDelete, []byte(key)))
	if err != nil {
		return nil, err
	}
	v, err := responseValue(resp)
	if err != nil {
		return nil, err
	}
	return []byte(v.(hop.BytesValue)), nil
}

// Exists reports whether every given key exists.
func (c *Client) Exists(ctx context.Context, keys ...string) (bool, error) {
	resp, err := c.do(ctx, hop.NewRequest(hop.CmdExists, toByteArgs(keys)...))
	if err != nil {
		return false, err
	}
	v, err := responseValue(resp)
	if err != nil {
		return false, err
	}
	return bool(v.(hop.BooleanValue)), nil
}

// Is reports whether every given key exists and has the given type.
func (c *Client) Is(ctx context.Context, kind hop.KeyType, keys ...string) (bool, error) {
	req := hop.NewRequest(hop.CmdIs, toByteArgs(keys)...).WithKeyType(kind)
	resp, err := c.do(ctx, req)
	if err != nil {
		return false, err
	}
	v, err := responseValue(resp)
	if err != nil {
		return false, err
	}
	return bool(v.(hop.BooleanValue)), nil
}

// Rename moves src's value to dst, failing if src is absent or dst exists.
func (c *Client) Rename(ctx context.Context, src, dst string) ([]byte, error) {
	resp, err := c.do(ctx, hop.NewRequest(hop.CmdRename, []byte(src), []byte(dst)))
	if err != nil {
		return nil, err
	}
	v, err := responseValue(resp)
	if err != nil {
		return nil, err
	}
	return []byte(v.(hop.BytesValue)), nil
}

// appendBuilder implements Append.
type appendBuilder struct {
	c       *Client
	key     string
	kind    hop.KeyType
	hasKind bool
	args    [][]byte
}

// Append starts building an Append call on key with the given arguments.
func (c *Client) Append(key string, args ...[]byte) *appendBuilder {
	return &appendBuilder{c: c, key: key, args: args}
}

// As selects the target key-type; without it, Append defaults to Bytes.
func (b *appendBuilder) As(kind hop.KeyType) *appendBuilder {
	b.kind = kind
	b.hasKind = true
	return b
}

// Do sends the built Append request.
func (b *appendBuilder) Do(ctx context.Context) (hop.Value, error) {
	reqArgs := append([][]byte{[]byte(b.key)}, b.args...)
	req := hop.NewRequest(hop.CmdAppend, reqArgs...)
	if b.hasKind {
		req = req.WithKeyType(b.kind)
	}
	resp, err := b.c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return responseValue(resp)
}

// lengthBuilder implements Length.
type lengthBuilder struct {
	c       *Client
	key     string
	kind    hop.KeyType
	hasKind bool
}

// Length starts building a Length call on key.
func (c *Client) Length(key string) *lengthBuilder {
	return &lengthBuilder{c: c, key: key}
}

// As overrides the effective type used to interpret the length, instead
// of inferring it from the key's existing kind.
func (b *lengthBuilder) As(kind hop.KeyType) *lengthBuilder {
	b.kind = kind
	b.hasKind = true
	return b
}

// Do sends the built Length request.
func (b *lengthBuilder) Do(ctx context.Context) (int64, error) {
	req := hop.NewRequest(hop.CmdLength, []byte(b.key))
	if b.hasKind {
		req = req.WithKeyType(b.kind)
	}
	resp, err := b.c.do(ctx, req)
	if err != nil {
		return 0, err
	}
	v, err := responseValue(resp)
	if err != nil {
		return 0, err
	}
	return int64(v.(hop.IntegerValue)), nil
}

// Echo sends the given arguments back as a List.
func (c *Client) Echo(ctx context.Context, args ...[]byte) ([][]byte, error) {
	resp, err := c.do(ctx, hop.NewRequest(hop.CmdEcho, args...))
	if err != nil {
		return nil, err
	}
	v, err := responseValue(resp)
	if err != nil {
		return nil, err
	}
	return [][]byte(v.(hop.ListValue)), nil
}

// EngineStats returns the engine's metric-name-to-counter snapshot, as
// reported by the Stats command. Distinct from Client.Stats, which reports
// this client's own dispatch counters without a round trip.
func (c *Client) EngineStats(ctx context.Context) (map[string]int64, error) {
	resp, err := c.do(ctx, hop.NewRequest(hop.CmdStats))
	if err != nil {
		return nil, err
	}
	v, err := responseValue(resp)
	if err != nil {
		return nil, err
	}
	m := v.(hop.MapValue)
	out := make(map[string]int64, len(m))
	for name, raw := range m {
		out[name] = int64(binary.BigEndian.Uint64(raw))
	}
	return out, nil
}

// responseValue extracts the success Value from resp, or turns a
// DispatchError/ParseError frame into a Go error.
func responseValue(resp *hop.Response) (hop.Value, error) {
	switch resp.Type {
	case hop.RespDispatchError:
		return nil, &hop.DispatchError{Code: resp.DispatchErr}
	case hop.RespParseError:
		return nil, &hop.ParseError{Code: resp.ParseErr}
	default:
		return resp.Value, nil
	}
}

func toByteArgs(keys []string) [][]byte {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out
}

// DialTimeout is the default connect timeout NewRemotePool's constructor
// uses when none is supplied.
const DialTimeout = 5 * time.Second
