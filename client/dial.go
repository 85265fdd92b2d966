package client

import (
	"context"
	"net"
)

// DialContextFunc dials a network connection; compatible with
// (*net.Dialer).DialContext.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// NewRemotePool builds a Pool of remote connections to address using
// puddle, the default pool implementation (see NewChannelPool for the
// lighter-weight alternative).
func NewRemotePool(address string, maxSize int32, dial DialContextFunc) (Pool, error) {
	if dial == nil {
		var d net.Dialer
		d.Timeout = DialTimeout
		dial = d.DialContext
	}
	constructor := func(ctx context.Context) (*Connection, error) {
		conn, err := dial(ctx, "tcp", address)
		if err != nil {
			return nil, err
		}
		return NewConnection(conn), nil
	}
	return NewPuddlePool(constructor, maxSize)
}

// NewRemoteClient dials address through a pooled remote backend, with an
// optional circuit breaker (pass nil to skip it).
func NewRemoteClient(address string, maxConns int32, breaker CircuitBreaker) (*Client, error) {
	pool, err := NewRemotePool(address, maxConns, nil)
	if err != nil {
		return nil, err
	}
	return NewClient(NewRemoteBackend(pool, breaker)), nil
}
