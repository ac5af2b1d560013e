package container_test

import (
	"testing"

	"github.com/gongpengjun/DuckChat-App/internal/container"
	"github.com/stretchr/testify/assert"
)

func TestOrderedSetPutGetHas(t *testing.T) {
	s := container.NewOrderedSet[string, int]()
	assert.False(t, s.Has("a"))

	s.Put("a", 1)
	s.Put("b", 2)

	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, s.Has("b"))
	assert.Equal(t, 2, s.Len())
}

func TestOrderedSetPutIsIdempotentForKey(t *testing.T) {
	s := container.NewOrderedSet[string, int]()
	s.Put("a", 1)
	s.Put("a", 2)
	assert.Equal(t, 1, s.Len())
	v, _ := s.Get("a")
	assert.Equal(t, 2, v)
}

func TestOrderedSetPreservesInsertionOrder(t *testing.T) {
	s := container.NewOrderedSet[string, int]()
	s.Put("c", 3)
	s.Put("a", 1)
	s.Put("b", 2)
	assert.Equal(t, []string{"c", "a", "b"}, s.Keys())
	assert.Equal(t, []int{3, 1, 2}, s.Values())
}

func TestOrderedSetRemoveCompactsOrder(t *testing.T) {
	s := container.NewOrderedSet[string, int]()
	s.Put("a", 1)
	s.Put("b", 2)
	s.Put("c", 3)

	s.Remove("b")
	assert.False(t, s.Has("b"))
	assert.Equal(t, []string{"a", "c"}, s.Keys())
	assert.Equal(t, 2, s.Len())

	// Remove of a key that's no longer present is a no-op.
	s.Remove("b")
	assert.Equal(t, 2, s.Len())
}

func TestOrderedSetValuesSnapshotSurvivesMutation(t *testing.T) {
	s := container.NewOrderedSet[string, int]()
	s.Put("a", 1)
	s.Put("b", 2)

	snap := s.Values()
	s.Remove("a")
	s.Put("c", 3)

	assert.Equal(t, []int{1, 2}, snap)
}
