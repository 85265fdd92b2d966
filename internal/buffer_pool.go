package internal

import (
	"bytes"
	"sync"
)

// BufferPool recycles scratch *bytes.Buffer values for encoded frames. Its
// one user is cmd/hopd, which takes a buffer for each response it writes;
// Engine.Dispatch and the client backends do not use it.
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool(initialSize int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, initialSize))
			},
		},
	}
}

func (p *BufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

func (p *BufferPool) Put(buf *bytes.Buffer) {
	buf.Reset()
	p.pool.Put(buf)
}
