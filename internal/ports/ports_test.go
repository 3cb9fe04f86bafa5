package ports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeededRandom_Reproducible(t *testing.T) {
	a := NewSeededRandom(42)
	b := NewSeededRandom(42)

	for i := 0; i < 20; i++ {
		av, bv := a.Random(), b.Random()
		assert.Equal(t, av, bv)
		assert.GreaterOrEqual(t, av, 0.0)
		assert.Less(t, av, 1.0)
	}
}

func TestSeededRandom_Pick(t *testing.T) {
	r := NewSeededRandom(7)
	for i := 0; i < 100; i++ {
		n := r.Pick(5)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 5)
	}
	assert.Equal(t, 0, r.Pick(1))
	assert.Equal(t, 0, r.Pick(0))
}

func TestSeededRandom_ShuffleIsPermutation(t *testing.T) {
	values := []int{1, 2, 3, 4, 5, 6, 7, 8}
	NewSeededRandom(3).Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, values)

	again := []int{1, 2, 3, 4, 5, 6, 7, 8}
	NewSeededRandom(3).Shuffle(len(again), func(i, j int) {
		again[i], again[j] = again[j], again[i]
	})
	assert.Equal(t, values, again)
}

func TestClocks(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, at.UnixMilli(), FixedClockAt(at).NowMs())

	before := time.Now().UnixMilli()
	now := SystemClock{}.NowMs()
	assert.GreaterOrEqual(t, now, before)
}

func TestSystemRandom(t *testing.T) {
	var r RandomPort = SystemRandom{}
	v := r.Random()
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)
	assert.Less(t, r.Pick(3), 3)
}
