package container_test

import (
	"testing"

	"github.com/gongpengjun/DuckChat-App/internal/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingContainsAfterInsert(t *testing.T) {
	r := container.NewRing[uint64](4)
	require.False(t, r.Contains(1))
	r.Insert(1)
	assert.True(t, r.Contains(1))
	assert.Equal(t, 1, r.Len())
}

func TestRingEvictsOldest(t *testing.T) {
	r := container.NewRing[uint64](3)
	r.Insert(1)
	r.Insert(2)
	r.Insert(3)
	assert.Equal(t, 3, r.Len())

	r.Insert(4) // evicts 1
	assert.False(t, r.Contains(1))
	assert.True(t, r.Contains(2))
	assert.True(t, r.Contains(3))
	assert.True(t, r.Contains(4))
	assert.Equal(t, 3, r.Len())
}

func TestRingNeverExceedsCapacity(t *testing.T) {
	const capacity = 48
	r := container.NewRing[uint64](capacity)
	for i := uint64(0); i < 500; i++ {
		r.Insert(i)
		assert.LessOrEqual(t, r.Len(), capacity)
	}
	assert.Equal(t, capacity, r.Len())
	// Only the most recent `capacity` IDs should survive.
	for i := uint64(500 - capacity); i < 500; i++ {
		assert.True(t, r.Contains(i))
	}
	assert.False(t, r.Contains(500-capacity-1))
}

func TestRingPanicsOnNonPositiveCapacity(t *testing.T) {
	assert.Panics(t, func() {
		container.NewRing[uint64](0)
	})
}
