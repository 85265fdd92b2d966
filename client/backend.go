package client

import (
	"bytes"
	"context"

	"github.com/hopdb/hop"
)

// Backend is the capability every Client implementation sits on top of:
// send one request, get back one response. The in-process and remote
// backends in this file are the two spec.md §4.5 names for it.
type Backend interface {
	Do(ctx context.Context, req *hop.Request) (*hop.Response, error)
	Close() error
}

// memoryBackend dispatches directly against an in-process *hop.Engine,
// skipping the request codec; the response frame Dispatch writes is turned
// back into a *hop.Response with the response decoder. Requests and
// responses never leave the process.
type memoryBackend struct {
	engine *hop.Engine
}

// NewMemoryBackend wraps engine as a Backend.
func NewMemoryBackend(engine *hop.Engine) Backend {
	return &memoryBackend{engine: engine}
}

func (b *memoryBackend) Do(ctx context.Context, req *hop.Request) (*hop.Response, error) {
	var out bytes.Buffer
	b.engine.Dispatch(req, &out)

	dec := hop.NewResponseDecoder()
	result := dec.Feed(out.Bytes())
	if result.Status != hop.ResponseConcluded {
		// Dispatch always writes exactly one well-formed frame; reaching
		// here means EncodeResponse/parseResponseBody disagree with each
		// other, which is a programming error in this package, not a
		// runtime condition a caller can act on.
		panic("hop/client: in-process dispatch produced an unparseable response")
	}
	return result.Response, nil
}

func (b *memoryBackend) Close() error { return nil }

// remoteBackend speaks the wire protocol over one pooled connection per
// request. The reader and writer mutexes in spec.md §4.5 are realized here
// by borrowing one Connection from the pool for the full round trip, which
// already serializes reads and writes for that connection without a
// separate lock.
type remoteBackend struct {
	pool    Pool
	breaker CircuitBreaker
}

// NewRemoteBackend wraps pool as a Backend, optionally behind a circuit
// breaker (pass nil to skip it).
func NewRemoteBackend(pool Pool, breaker CircuitBreaker) Backend {
	return &remoteBackend{pool: pool, breaker: breaker}
}

func (b *remoteBackend) Do(ctx context.Context, req *hop.Request) (*hop.Response, error) {
	call := func() (*hop.Response, error) {
		var resp *hop.Response
		err := With(ctx, b.pool, func(conn *Connection) error {
			r, err := conn.Send(req)
			if err != nil {
				return err
			}
			resp = r
			return nil
		})
		return resp, err
	}

	if b.breaker != nil {
		return b.breaker.Execute(call)
	}
	return call()
}

func (b *remoteBackend) Close() error {
	b.pool.Close()
	return nil
}
