// Package random provides the seedable generator shared by the row sampler
// and the synthetic market.
package random

import (
	"encoding/binary"
	"sync"
	"time"
)

// RNG is a seedable pseudo-random number generator using PCG-XSH-RR.
// It is safe for concurrent use.
type RNG struct {
	mu    sync.Mutex
	state uint64
	inc   uint64
}

// New creates a generator with the given seed. If seed is 0 the current
// time is used, so two processes will not draw the same samples.
func New(seed int64) *RNG {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &RNG{}
	// PCG requires odd increment
	r.inc = uint64(seed)<<1 | 1
	r.state = 0
	r.step()
	r.state += uint64(seed)
	r.step()
	return r
}

func (r *RNG) step() {
	r.state = r.state*6364136223846793005 + r.inc
}

func (r *RNG) next() uint32 {
	old := r.state
	r.step()
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return (xorshifted >> rot) | (xorshifted << ((-rot) & 31))
}

// Uint32 returns a uniformly distributed uint32.
func (r *RNG) Uint32() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next()
}

// Float64 returns a uniformly distributed float64 in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Uint32()) / (1 << 32)
}

// Intn returns a uniformly distributed int in [0, n).
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Uint32() % uint32(n))
}

// IntRange returns a uniformly distributed int in [min, max].
func (r *RNG) IntRange(min, max int) int {
	if min >= max {
		return min
	}
	return min + r.Intn(max-min+1)
}

// Uniform returns a uniformly distributed float64 in [lo, hi).
func (r *RNG) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}

// Shuffle permutes idx in place (Fisher-Yates).
func (r *RNG) Shuffle(idx []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(idx) - 1; i > 0; i-- {
		j := int(r.next() % uint32(i+1))
		idx[i], idx[j] = idx[j], idx[i]
	}
}

// SampleIndexes draws k distinct indexes from [0, n) without replacement.
// The draw is a partial Fisher-Yates shuffle run from the tail of the
// population, so the result is in draw order, not ascending order.
// k >= n returns every index in shuffled order.
func (r *RNG) SampleIndexes(n, k int) []int {
	if n <= 0 || k <= 0 {
		return []int{}
	}
	if k > n {
		k = n
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	tail := n - k

	r.mu.Lock()
	for i := n - 1; i >= tail; i-- {
		j := int(r.next() % uint32(i+1))
		pool[i], pool[j] = pool[j], pool[i]
	}
	r.mu.Unlock()

	return pool[tail:]
}

// State returns the internal generator state.
func (r *RNG) State() (state, inc uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.inc
}

// RestoreState sets the internal generator state, e.g. to replay a sample.
func (r *RNG) RestoreState(state, inc uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.inc = inc
}

// StateBytes returns the generator state as a byte slice for storage.
func (r *RNG) StateBytes() []byte {
	st, inc := r.State()
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], st)
	binary.BigEndian.PutUint64(buf[8:16], inc)
	return buf
}

// RestoreStateBytes restores generator state from a byte slice.
// Slices shorter than 16 bytes are ignored.
func (r *RNG) RestoreStateBytes(b []byte) {
	if len(b) < 16 {
		return
	}
	r.RestoreState(binary.BigEndian.Uint64(b[0:8]), binary.BigEndian.Uint64(b[8:16]))
}
