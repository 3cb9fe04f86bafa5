// Package ports provides the two sources of non-determinism the engine accepts:
// randomness and time. Production code passes the system implementations; tests pass
// a seeded generator and a fixed clock so results are reproducible.
package ports

import (
	"math/rand"
	"sync"
	"time"
)

// RandomPort is an injected random source.
type RandomPort interface {
	// Random returns a value in [0, 1).
	Random() float64
	// Pick returns an index in [0, n). n must be positive.
	Pick(n int) int
	// Shuffle permutes n elements through swap.
	Shuffle(n int, swap func(i, j int))
}

// TimePort is an injected clock.
type TimePort interface {
	NowMs() int64
}

// SystemRandom draws from the runtime's global generator.
type SystemRandom struct{}

func (SystemRandom) Random() float64 { return rand.Float64() }

func (SystemRandom) Pick(n int) int { return rand.Intn(n) }

func (SystemRandom) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// SeededRandom is a 32-bit linear congruential generator. The same seed always yields
// the same sequence. It is safe for concurrent use.
type SeededRandom struct {
	mu    sync.Mutex
	state uint32
}

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
)

// NewSeededRandom returns a generator starting from seed.
func NewSeededRandom(seed int64) *SeededRandom {
	return &SeededRandom{state: uint32(seed)}
}

func (s *SeededRandom) next() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state*lcgMultiplier + lcgIncrement
	return s.state
}

func (s *SeededRandom) Random() float64 {
	return float64(s.next()) / (1 << 32)
}

func (s *SeededRandom) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return int(s.Random() * float64(n))
}

// Shuffle is a Fisher-Yates shuffle driven by the generator.
func (s *SeededRandom) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, s.Pick(i+1))
	}
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) NowMs() int64 { return time.Now().UnixMilli() }

// FixedClock always reports the same instant.
type FixedClock int64

func (c FixedClock) NowMs() int64 { return int64(c) }

// FixedClockAt returns a FixedClock reporting t.
func FixedClockAt(t time.Time) FixedClock { return FixedClock(t.UnixMilli()) }
