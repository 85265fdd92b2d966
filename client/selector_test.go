package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePool is a no-op Pool, enough to exercise selector routing logic
// without touching the network.
type fakePool struct{ name string }

func (fakePool) Acquire(ctx context.Context) (Resource, error) { return nil, nil }
func (fakePool) AcquireAllIdle() []Resource                    { return nil }
func (fakePool) Close()                                        {}
func (fakePool) Stats() PoolStats                               { return PoolStats{} }


func TestConsistentHashSelectorNoServers(t *testing.T) {
	s := NewConsistentHashSelector()
	_, err := s.SelectServer("k")
	assert.ErrorIs(t, err, ErrNoServersAvailable)
}

func TestConsistentHashSelectorRoutesConsistently(t *testing.T) {
	s := NewConsistentHashSelector()
	s.AddServer("a:1", fakePool{})
	s.AddServer("b:2", fakePool{})
	s.AddServer("c:3", fakePool{})

	first, err := s.SelectServer("mykey")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := s.SelectServer("mykey")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestConsistentHashSelectorRemoveServer(t *testing.T) {
	s := NewConsistentHashSelector()
	s.AddServer("a:1", fakePool{})
	assert.Len(t, s.Servers(), 1)
	s.RemoveServer("a:1")
	assert.Len(t, s.Servers(), 0)
	_, err := s.SelectServer("k")
	assert.ErrorIs(t, err, ErrNoServersAvailable)
}

func TestJumpHashSelectorDistributesAcrossServers(t *testing.T) {
	s := NewJumpHashSelector()
	s.AddServer("a:1", fakePool{name: "a:1"})
	s.AddServer("b:2", fakePool{name: "b:2"})
	s.AddServer("c:3", fakePool{name: "c:3"})

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		key := string(rune('a' + i%26))
		p, err := s.SelectServer(key)
		require.NoError(t, err)
		seen[p.(fakePool).name] = true
	}
	assert.Len(t, seen, 3)
}

func TestJumpHashSelectorRoutesConsistently(t *testing.T) {
	s := NewJumpHashSelector()
	s.AddServer("a:1", fakePool{})
	s.AddServer("b:2", fakePool{})

	first, err := s.SelectServer("stable-key")
	require.NoError(t, err)
	again, err := s.SelectServer("stable-key")
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestJumpHashSelectorRemoveServer(t *testing.T) {
	s := NewJumpHashSelector()
	s.AddServer("a:1", fakePool{})
	s.RemoveServer("a:1")
	_, err := s.SelectServer("k")
	assert.ErrorIs(t, err, ErrNoServersAvailable)
}

func TestStaticServersList(t *testing.T) {
	s := NewStaticServers("a:1", "b:2")
	assert.Equal(t, []string{"a:1", "b:2"}, s.List())
}
