// Package client provides the facade described in spec.md §4.5: a single
// capability set implemented by two interchangeable backends, an
// in-process one that dispatches directly against a *hop.Engine and a
// remote one that speaks the wire protocol over a net.Conn.
package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/hopdb/hop"
)

// NewConnection wraps conn with buffered I/O.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		Conn:   conn,
		Reader: bufio.NewReader(conn),
		Writer: bufio.NewWriter(conn),
	}
}

// Connection wraps a network connection for one remote backend. It is not
// safe for concurrent use by itself — access is serialized by the Pool:
// remoteBackend holds one Connection checked out for a full round trip, so
// each Connection carries one in-flight request at a time.
type Connection struct {
	net.Conn
	Reader *bufio.Reader
	Writer *bufio.Writer
}

// Send writes req and blocks for its response, decoding the length-prefixed
// frame off the connection's buffered reader.
func (c *Connection) Send(req *hop.Request) (*hop.Response, error) {
	if _, err := c.Writer.Write(hop.EncodeRequest(req)); err != nil {
		return nil, err
	}
	if err := c.Writer.Flush(); err != nil {
		return nil, err
	}
	return readResponse(c.Reader)
}

// readResponse feeds the response decoder from r until it concludes.
func readResponse(r *bufio.Reader) (*hop.Response, error) {
	dec := hop.NewResponseDecoder()
	buf := make([]byte, 0, 64)
	for {
		result := dec.Feed(buf)
		switch result.Status {
		case hop.ResponseConcluded:
			return result.Response, nil
		case hop.ResponseErrored:
			return nil, result.Err
		case hop.ResponseNeedBytes:
			chunk := make([]byte, result.NeedBytes)
			if _, err := readFull(r, chunk); err != nil {
				return nil, err
			}
			buf = append(buf, chunk...)
		}
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Resource represents a connection resource checked out of a Pool.
type Resource interface {
	// Value returns the underlying connection.
	Value() *Connection

	// Release returns the connection to the pool for reuse.
	Release()

	// ReleaseUnused returns the connection to the pool without marking it
	// used, for health checks that never sent a request.
	ReleaseUnused()

	// Destroy closes the connection and removes it from the pool.
	Destroy()

	// CreationTime reports when the connection was established.
	CreationTime() time.Time

	// IdleDuration reports how long the connection has sat unused.
	IdleDuration() time.Duration
}

// Pool manages a set of connections to one server.
type Pool interface {
	// Acquire gets a connection, creating one if the pool allows it.
	// Blocks until a connection is available or ctx is done.
	Acquire(ctx context.Context) (Resource, error)

	// AcquireAllIdle drains every currently idle connection, for health
	// checks and maintenance sweeps.
	AcquireAllIdle() []Resource

	// Close closes the pool and every connection it holds.
	Close()

	// Stats returns a snapshot of the pool's counters.
	Stats() PoolStats
}

// With acquires a connection, runs fn against it, and releases or destroys
// the connection depending on whether fn returned an error that looks
// connection-fatal.
func With(ctx context.Context, p Pool, fn func(*Connection) error) error {
	res, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	err = fn(res.Value())
	if err != nil && isConnectionFatal(err) {
		res.Destroy()
		return err
	}
	res.Release()
	return err
}

func isConnectionFatal(err error) bool {
	if _, ok := err.(*hop.ParseError); ok {
		// A malformed response frame desyncs the stream per spec.md §7.
		return true
	}
	if ne, ok := err.(net.Error); ok {
		return !ne.Timeout()
	}
	return errors.Is(err, net.ErrClosed)
}
