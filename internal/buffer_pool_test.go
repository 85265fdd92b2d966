package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPoolGetIsEmpty(t *testing.T) {
	p := NewBufferPool(16)
	buf := p.Get()
	require.NotNil(t, buf)
	assert.Equal(t, 0, buf.Len())
}

func TestBufferPoolPutResetsBeforeReuse(t *testing.T) {
	p := NewBufferPool(16)
	buf := p.Get()
	buf.WriteString("leftover")
	p.Put(buf)

	again := p.Get()
	assert.Equal(t, 0, again.Len())
}
