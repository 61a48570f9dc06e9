package sampler

import "math/rand"

// Uniform draws samples without replacement from [0, poolSize) using a
// seeded generator, so the same seed always produces the same draw
// sequence (spec.md §4.2's determinism requirement).
type Uniform struct {
	rng   *rand.Rand
	pool  []int
	ready bool
}

// NewUniform constructs a Uniform sampler seeded deterministically; same
// seed always yields the same sequence.
func NewUniform(seed int64) *Uniform {
	return &Uniform{rng: rand.New(rand.NewSource(seed))}
}

func (u *Uniform) Initialize(poolSize int) {
	u.pool = make([]int, poolSize)
	for i := range u.pool {
		u.pool[i] = i
	}
	u.ready = true
}

// Sample performs a partial Fisher-Yates shuffle of the pool's first k
// slots and copies them to out; this guarantees pairwise-distinct indices
// without allocating per call. The pool is preallocated once in Initialize
// and its permutation carries over between calls, so repeated draws keep
// exploring fresh combinations instead of resetting to identity every time.
func (u *Uniform) Sample(poolSize, k int, out []int) bool {
	if k > poolSize {
		return false
	}
	if !u.ready || len(u.pool) != poolSize {
		u.Initialize(poolSize)
	}
	for i := 0; i < k; i++ {
		j := i + u.rng.Intn(poolSize-i)
		u.pool[i], u.pool[j] = u.pool[j], u.pool[i]
	}
	copy(out, u.pool[:k])
	return true
}
