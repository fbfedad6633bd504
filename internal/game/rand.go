package game

import (
	"math/rand/v2"
	"sync"
)

// LockedRand makes a seeded PCG generator safe to share between requests.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewLockedRand(seed1, seed2 uint64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewPCG(seed1, seed2))}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *LockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
