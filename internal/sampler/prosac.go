package sampler

import "math/rand"

// PROSAC biases early draws toward higher-quality correspondences (lower
// Quality value = better, matching spec.md §3's "lower is better" match
// score convention) and relaxes to uniform sampling as more draws are
// spent, per the classical PROSAC growth schedule.
type PROSAC struct {
	rng   *rand.Rand
	order []int // pool indices sorted by ascending Quality (best first)
	pool  []int // scratch buffer, reused across calls

	growth int // size of the current "live" prefix of order
}

// NewPROSAC constructs a PROSAC sampler. quality[i] is the per-point
// quality score for pool index i (lower is better); len(quality) must
// equal the pool size passed to Initialize.
func NewPROSAC(seed int64, quality []float64) *PROSAC {
	order := make([]int, len(quality))
	for i := range order {
		order[i] = i
	}
	insertionSortByQuality(order, quality)
	return &PROSAC{
		rng:   rand.New(rand.NewSource(seed)),
		order: order,
	}
}

func insertionSortByQuality(order []int, quality []float64) {
	for i := 1; i < len(order); i++ {
		v := order[i]
		j := i - 1
		for j >= 0 && quality[order[j]] > quality[v] {
			order[j+1] = order[j]
			j--
		}
		order[j+1] = v
	}
}

func (p *PROSAC) Initialize(poolSize int) {
	if len(p.order) != poolSize {
		// Quality wasn't supplied for this pool size; fall back to
		// identity order, degenerating to uniform sampling.
		p.order = make([]int, poolSize)
		for i := range p.order {
			p.order[i] = i
		}
	}
	p.pool = make([]int, poolSize)
	p.growth = 1
}

// Sample always includes the worst-ranked member of the current live
// prefix (order[n-1], where n is the prefix size, raised to k if smaller)
// and fills the remaining k-1 slots by uniform sampling without
// replacement from the rest of the live prefix. The live prefix grows by
// one point per call until it reaches poolSize; once it has, later calls
// draw k indices uniformly over the whole pool (the PROSAC growth
// function's steady state).
func (p *PROSAC) Sample(poolSize, k int, out []int) bool {
	if k > poolSize || k < 1 {
		return false
	}
	if p.pool == nil || len(p.pool) != poolSize {
		p.Initialize(poolSize)
	}
	if p.growth >= poolSize {
		copy(p.pool, p.order)
		for i := 0; i < k; i++ {
			j := i + p.rng.Intn(poolSize-i)
			p.pool[i], p.pool[j] = p.pool[j], p.pool[i]
		}
		copy(out[:k], p.pool[:k])
		return true
	}
	p.growth++
	n := p.growth
	if n < k {
		n = k
	}

	forced := p.order[n-1]
	copy(p.pool[:n-1], p.order[:n-1])
	for i := 0; i < k-1; i++ {
		j := i + p.rng.Intn(n-1-i)
		p.pool[i], p.pool[j] = p.pool[j], p.pool[i]
	}
	copy(out[:k-1], p.pool[:k-1])
	out[k-1] = forced
	return true
}
