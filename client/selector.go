package client

import (
	"errors"
	"hash/crc32"
	"sort"
	"sync"

	"github.com/hopdb/hop/internal"
	"github.com/zeebo/xxh3"
)

// ErrNoServersAvailable is returned when a selector has no server to route
// a key to. This package implements multi-server CLIENT-SIDE routing only
// (consistent hashing over independent engines) — it is not replication or
// clustering; each server is an independent, unaware hop instance.
var ErrNoServersAvailable = errors.New("hop: no servers available")

// ServerSelector routes a key to one of the configured server pools.
type ServerSelector interface {
	SelectServer(key string) (Pool, error)
	AddServer(addr string, pool Pool)
	RemoveServer(addr string)
	Servers() []Pool
	Stats() []PoolStats
	Close() error
}

// ConsistentHashSelector distributes keys over a CRC32 hash ring with
// virtual nodes, so adding or removing one server only reshuffles the keys
// owned by its ring slice.
type ConsistentHashSelector struct {
	mu           sync.RWMutex
	pools        map[string]Pool
	ring         []uint32
	ringServers  map[uint32]string
	virtualNodes int
}

// NewConsistentHashSelector returns an empty selector with 150 virtual
// nodes per server, the value that keeps ring imbalance low without an
// oversized ring for typical cluster sizes.
func NewConsistentHashSelector() *ConsistentHashSelector {
	return NewConsistentHashSelectorWithVirtualNodes(150)
}

// NewConsistentHashSelectorWithVirtualNodes returns an empty selector with
// a caller-chosen virtual node count.
func NewConsistentHashSelectorWithVirtualNodes(virtualNodes int) *ConsistentHashSelector {
	return &ConsistentHashSelector{
		pools:        make(map[string]Pool),
		ringServers:  make(map[uint32]string),
		virtualNodes: virtualNodes,
	}
}

// SelectServer returns the pool that owns key on the ring.
func (s *ConsistentHashSelector) SelectServer(key string) (Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.pools) == 0 {
		return nil, ErrNoServersAvailable
	}
	if len(s.ring) == 0 {
		for _, p := range s.pools {
			return p, nil
		}
	}

	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(s.ring), func(i int) bool { return s.ring[i] >= hash })
	if idx == len(s.ring) {
		idx = 0
	}

	addr := s.ringServers[s.ring[idx]]
	pool, ok := s.pools[addr]
	if !ok {
		return nil, ErrNoServersAvailable
	}
	return pool, nil
}

// AddServer registers pool under addr and rebuilds the ring.
func (s *ConsistentHashSelector) AddServer(addr string, pool Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[addr] = pool
	s.rebuildRing()
}

// RemoveServer drops addr and rebuilds the ring.
func (s *ConsistentHashSelector) RemoveServer(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pools, addr)
	s.rebuildRing()
}

// Servers returns every pool currently registered.
func (s *ConsistentHashSelector) Servers() []Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	return out
}

// Stats returns each server's pool statistics.
func (s *ConsistentHashSelector) Stats() []PoolStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PoolStats, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p.Stats())
	}
	return out
}

// Close closes every server pool.
func (s *ConsistentHashSelector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var lastErr error
	for _, p := range s.pools {
		p.Close()
	}
	s.pools = make(map[string]Pool)
	s.ring = nil
	s.ringServers = make(map[uint32]string)
	return lastErr
}

// rebuildRing must be called with s.mu held for writing.
func (s *ConsistentHashSelector) rebuildRing() {
	s.ring = nil
	s.ringServers = make(map[uint32]string)
	for addr := range s.pools {
		for i := 0; i < s.virtualNodes; i++ {
			virtualKey := addr + "#" + string(rune(i))
			hash := crc32.ChecksumIEEE([]byte(virtualKey))
			s.ring = append(s.ring, hash)
			s.ringServers[hash] = addr
		}
	}
	sort.Slice(s.ring, func(i, j int) bool { return s.ring[i] < s.ring[j] })
}

// JumpHashSelector routes keys across a flat, ordered server list using
// Google's Jump Consistent Hash. It trades the ring's binary search and
// per-server memory for an allocation-free computation whose loop runs
// about ln(n) times for n servers, at the cost of
// needing the full server list to compute any assignment (no per-server
// independent ring slice).
type JumpHashSelector struct {
	mu    sync.RWMutex
	addrs []string
	pools map[string]Pool
}

// NewJumpHashSelector returns an empty selector.
func NewJumpHashSelector() *JumpHashSelector {
	return &JumpHashSelector{pools: make(map[string]Pool)}
}

func (s *JumpHashSelector) SelectServer(key string) (Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.addrs) == 0 {
		return nil, ErrNoServersAvailable
	}
	idx := internal.JumpHash(xxh3.HashString(key), len(s.addrs))
	return s.pools[s.addrs[idx]], nil
}

func (s *JumpHashSelector) AddServer(addr string, pool Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[addr]; !exists {
		s.addrs = append(s.addrs, addr)
		sort.Strings(s.addrs)
	}
	s.pools[addr] = pool
}

func (s *JumpHashSelector) RemoveServer(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pools, addr)
	for i, a := range s.addrs {
		if a == addr {
			s.addrs = append(s.addrs[:i], s.addrs[i+1:]...)
			break
		}
	}
}

func (s *JumpHashSelector) Servers() []Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	return out
}

func (s *JumpHashSelector) Stats() []PoolStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PoolStats, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p.Stats())
	}
	return out
}

func (s *JumpHashSelector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pools {
		p.Close()
	}
	s.pools = make(map[string]Pool)
	s.addrs = nil
	return nil
}

// Servers lists a fixed or dynamically discovered set of server addresses.
type Servers interface {
	List() []string
}

// StaticServers is the simple case: a fixed address list supplied at
// construction.
type StaticServers struct {
	addrs []string
}

// NewStaticServers returns a Servers backed by a fixed address list.
func NewStaticServers(addrs ...string) *StaticServers {
	return &StaticServers{addrs: addrs}
}

func (s *StaticServers) List() []string { return s.addrs }
