package hop

import (
	"sync"

	"github.com/zeebo/xxh3"
)

// numShards controls the State's fan-out for per-key independence. A power
// of two keeps shard selection a mask instead of a modulo.
const numShards = 64

type entry struct {
	mu    sync.Mutex
	value Value
}

type shard struct {
	mu   sync.RWMutex
	data map[string]*entry
}

// State is the concurrent map from key bytes to [Value]. Distinct keys may
// be read or written in parallel; within one key, only one mutator runs at
// a time (see entry.mu), matching the "sharded map, per-key exclusive
// borrow" contract from spec.md §5.
type State struct {
	shards [numShards]*shard
}

// NewState returns an empty State.
func NewState() *State {
	s := &State{}
	for i := range s.shards {
		s.shards[i] = &shard{data: make(map[string]*entry)}
	}
	return s
}

func (s *State) shardFor(key []byte) *shard {
	h := xxh3.Hash(key)
	return s.shards[h%numShards]
}

// Contains reports whether key currently has a value.
func (s *State) Contains(key []byte) bool {
	checkKey(key)
	sh := s.shardFor(key)
	sh.mu.RLock()
	_, ok := sh.data[string(key)]
	sh.mu.RUnlock()
	return ok
}

// KindOf returns the KeyType of the value stored at key, if any.
func (s *State) KindOf(key []byte) (KeyType, bool) {
	checkKey(key)
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.data[string(key)]
	sh.mu.RUnlock()
	if !ok {
		return 0, false
	}
	e.mu.Lock()
	kind := e.value.Kind()
	e.mu.Unlock()
	return kind, true
}

// Read returns a copy of the value at key, or ok=false if absent. This is
// the "shared borrow" of spec.md §4.1: since every Value variant is a
// plain copyable Go value, a brief per-entry lock is enough to produce a
// consistent snapshot without blocking other readers for long.
func (s *State) Read(key []byte) (value Value, ok bool) {
	checkKey(key)
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, found := sh.data[string(key)]
	sh.mu.RUnlock()
	if !found {
		return nil, false
	}
	e.mu.Lock()
	value = e.value
	e.mu.Unlock()
	return value, true
}

// Insert stores value at key unconditionally, returning the previous value
// if one existed.
func (s *State) Insert(key []byte, value Value) (previous Value, hadPrevious bool) {
	checkKey(key)
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.data[string(key)]; ok {
		e.mu.Lock()
		previous = e.value
		e.value = value
		e.mu.Unlock()
		return previous, true
	}
	sh.data[string(key)] = &entry{value: value}
	return nil, false
}

// Remove deletes key, returning its value if present.
func (s *State) Remove(key []byte) (value Value, ok bool) {
	checkKey(key)
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, found := sh.data[string(key)]
	if !found {
		return nil, false
	}
	delete(sh.data, string(key))
	e.mu.Lock()
	value = e.value
	e.mu.Unlock()
	return value, true
}

// getOrCreateEntry returns the entry for key, creating it with factory()
// if absent. The returned entry's mutex is NOT held; callers that need the
// exclusive borrow must lock it themselves (see withTyped below).
func (s *State) getOrCreateEntry(key []byte, factory func() Value) *entry {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.data[string(key)]
	sh.mu.RUnlock()
	if ok {
		return e
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.data[string(key)]; ok {
		return e
	}
	e = &entry{value: factory()}
	sh.data[string(key)] = e
	return e
}

// typedValue enumerates the concrete Value variants that withTyped can
// narrow to. Go has no dereferenceable borrow wrapper, so per spec.md §9 we
// expose narrowed closures instead: with_list_mut(key, |list| ...) becomes
// WithList(state, key, func(*ListValue) error { ... }). Embedding Value lets
// withTyped ask a zero T for its own Kind without a type switch.
type typedValue interface {
	Value
	BooleanValue | BytesValue | FloatValue | IntegerValue | StringValue | ListValue | MapValue | SetValue
}

// withTyped gets-or-creates key with T's default, exposes a mutable
// pointer to the narrowed T to fn, and writes the (possibly mutated) value
// back if fn succeeds. It fails with ErrWrongType if key exists with a
// different Kind — a typed accessor never silently changes a key's type.
//
// The default is built through defaultValue, not Go's var zero T: for
// MapValue and SetValue the zero value is a nil map, and a nil map panics
// on assignment. getOrCreateEntry must always seed a usable, non-nil value.
func withTyped[T typedValue](s *State, key []byte, fn func(*T) error) error {
	checkKey(key)
	var zero T
	kind := zero.Kind()
	e := s.getOrCreateEntry(key, func() Value { return defaultValue(kind) })

	e.mu.Lock()
	defer e.mu.Unlock()

	cur, ok := e.value.(T)
	if !ok {
		return ErrWrongType
	}
	if err := fn(&cur); err != nil {
		return err
	}
	e.value = cur
	return nil
}

func WithBoolean(s *State, key []byte, fn func(*BooleanValue) error) error {
	return withTyped(s, key, fn)
}

func WithBytes(s *State, key []byte, fn func(*BytesValue) error) error {
	return withTyped(s, key, fn)
}

func WithFloat(s *State, key []byte, fn func(*FloatValue) error) error {
	return withTyped(s, key, fn)
}

func WithInteger(s *State, key []byte, fn func(*IntegerValue) error) error {
	return withTyped(s, key, fn)
}

func WithString(s *State, key []byte, fn func(*StringValue) error) error {
	return withTyped(s, key, fn)
}

func WithList(s *State, key []byte, fn func(*ListValue) error) error {
	return withTyped(s, key, fn)
}

func WithMap(s *State, key []byte, fn func(*MapValue) error) error {
	return withTyped(s, key, fn)
}

func WithSet(s *State, key []byte, fn func(*SetValue) error) error {
	return withTyped(s, key, fn)
}
