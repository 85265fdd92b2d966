package client

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jackc/puddle/v2"
)

// NewPuddlePool builds the default Pool implementation on top of
// github.com/jackc/puddle/v2.
func NewPuddlePool(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error) {
	p := &puddlePool{}

	pool, err := puddle.NewPool(&puddle.Config[*Connection]{
		Constructor: func(ctx context.Context) (*Connection, error) {
			conn, err := constructor(ctx)
			if err == nil {
				p.created.Add(1)
			}
			return conn, err
		},
		Destructor: func(c *Connection) {
			p.destroyed.Add(1)
			_ = c.Close()
		},
		MaxSize: maxSize,
	})
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

type puddlePool struct {
	pool      *puddle.Pool[*Connection]
	created   atomic.Int64
	destroyed atomic.Int64
}

func (p *puddlePool) Acquire(ctx context.Context) (Resource, error) {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return puddleResource{res}, nil
}

func (p *puddlePool) AcquireAllIdle() []Resource {
	idle := p.pool.AcquireAllIdle()
	out := make([]Resource, len(idle))
	for i, res := range idle {
		out[i] = puddleResource{res}
	}
	return out
}

func (p *puddlePool) Close() { p.pool.Close() }

func (p *puddlePool) Stats() PoolStats {
	s := p.pool.Stat()
	return PoolStats{
		TotalConns:        s.TotalResources(),
		IdleConns:         s.IdleResources(),
		ActiveConns:       s.AcquiredResources(),
		AcquireCount:      uint64(s.AcquireCount()),
		AcquireWaitCount:  uint64(s.EmptyAcquireCount()),
		CreatedConns:      uint64(p.created.Load()),
		DestroyedConns:    uint64(p.destroyed.Load()),
		AcquireErrors:     uint64(s.CanceledAcquireCount()),
		AcquireWaitTimeNs: uint64(s.EmptyAcquireWaitTime().Nanoseconds()),
	}
}

// puddleResource adapts *puddle.Resource[*Connection] to our Resource
// interface; each method forwards to puddle's method of the same name.
type puddleResource struct {
	res *puddle.Resource[*Connection]
}

func (r puddleResource) Value() *Connection        { return r.res.Value() }
func (r puddleResource) Release()                  { r.res.Release() }
func (r puddleResource) ReleaseUnused()             { r.res.ReleaseUnused() }
func (r puddleResource) Destroy()                   { r.res.Destroy() }
func (r puddleResource) CreationTime() time.Time    { return r.res.CreationTime() }
func (r puddleResource) IdleDuration() time.Duration { return r.res.IdleDuration() }
