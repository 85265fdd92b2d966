package hop

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateInsertReadRemove(t *testing.T) {
	s := NewState()
	key := []byte("foo")

	_, ok := s.Read(key)
	assert.False(t, ok)

	prev, had := s.Insert(key, IntegerValue(42))
	assert.False(t, had)
	assert.Nil(t, prev)

	v, ok := s.Read(key)
	require.True(t, ok)
	assert.Equal(t, IntegerValue(42), v)

	prev, had = s.Insert(key, IntegerValue(7))
	assert.True(t, had)
	assert.Equal(t, IntegerValue(42), prev)

	removed, ok := s.Remove(key)
	require.True(t, ok)
	assert.Equal(t, IntegerValue(7), removed)

	_, ok = s.Remove(key)
	assert.False(t, ok)
}

func TestStateContainsAndKindOf(t *testing.T) {
	s := NewState()
	key := []byte("bar")

	assert.False(t, s.Contains(key))
	s.Insert(key, StringValue("hi"))
	assert.True(t, s.Contains(key))

	kind, ok := s.KindOf(key)
	require.True(t, ok)
	assert.Equal(t, KeyTypeString, kind)
}

func TestCheckKeyPanicsOnReservedPrefix(t *testing.T) {
	s := NewState()
	assert.Panics(t, func() {
		s.Contains([]byte(reservedKeyPrefix + "session"))
	})
}

func TestWithIntegerWrongTypeFails(t *testing.T) {
	s := NewState()
	key := []byte("k")
	s.Insert(key, StringValue("x"))

	err := WithInteger(s, key, func(v *IntegerValue) error {
		*v += 1
		return nil
	})
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestWithListCreatesDefault(t *testing.T) {
	s := NewState()
	key := []byte("list-key")

	err := WithList(s, key, func(v *ListValue) error {
		*v = append(*v, []byte("a"))
		return nil
	})
	require.NoError(t, err)

	v, ok := s.Read(key)
	require.True(t, ok)
	assert.Equal(t, ListValue{[]byte("a")}, v)
}

func TestWithMapCreatesDefaultNonNil(t *testing.T) {
	s := NewState()
	key := []byte("map-key")

	err := WithMap(s, key, func(v *MapValue) error {
		(*v)["k"] = []byte("v")
		return nil
	})
	require.NoError(t, err)

	v, ok := s.Read(key)
	require.True(t, ok)
	assert.Equal(t, MapValue{"k": []byte("v")}, v)
}

func TestWithSetCreatesDefaultNonNil(t *testing.T) {
	s := NewState()
	key := []byte("set-key")

	err := WithSet(s, key, func(v *SetValue) error {
		(*v)["m"] = struct{}{}
		return nil
	})
	require.NoError(t, err)

	v, ok := s.Read(key)
	require.True(t, ok)
	assert.Equal(t, SetValue{"m": struct{}{}}, v)
}

// TestConcurrentIncrement matches the stress invariant in spec.md §8: N
// parallel Increment-style mutations on the same integer key converge to
// exactly N.
func TestConcurrentIncrement(t *testing.T) {
	s := NewState()
	key := []byte("counter")
	const n = 200

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = WithInteger(s, key, func(v *IntegerValue) error {
				*v++
				return nil
			})
		}()
	}
	wg.Wait()

	v, ok := s.Read(key)
	require.True(t, ok)
	assert.Equal(t, IntegerValue(n), v)
}
