package sampler

import "math/rand"

// NeighborhoodLookup abstracts the spatial query neighborhood-guided
// sampling needs, satisfied by *internal/neighborhood.Graph.
type NeighborhoodLookup interface {
	// NeighborsOf returns the source indices sharing point idx's cell.
	NeighborsOf(idx int) []int
}

// NeighborhoodGuided draws the first index of a minimal sample uniformly,
// then fills the rest from that point's neighborhood-graph cell, falling
// back to uniform sampling when the cell has too few members. This
// encodes spatial coherence directly into the draw, rather than relying on
// a downstream local-optimizer pass to discover it.
type NeighborhoodGuided struct {
	rng     *rand.Rand
	graph   NeighborhoodLookup
	uniform *Uniform
	scratch []int
}

// NewNeighborhoodGuided constructs a sampler that consults graph for
// spatial locality; graph must have been built over the same pool the
// sampler will draw from.
func NewNeighborhoodGuided(seed int64, graph NeighborhoodLookup) *NeighborhoodGuided {
	return &NeighborhoodGuided{
		rng:     rand.New(rand.NewSource(seed)),
		graph:   graph,
		uniform: NewUniform(seed ^ 0x5bd1e995),
	}
}

func (n *NeighborhoodGuided) Initialize(poolSize int) {
	n.uniform.Initialize(poolSize)
	n.scratch = make([]int, 0, poolSize)
}

func (n *NeighborhoodGuided) Sample(poolSize, k int, out []int) bool {
	if k > poolSize {
		return false
	}
	if k == 0 {
		return true
	}
	first := make([]int, 1)
	if !n.uniform.Sample(poolSize, 1, first) {
		return false
	}
	out[0] = first[0]
	if k == 1 {
		return true
	}

	n.scratch = n.scratch[:0]
	for _, idx := range n.graph.NeighborsOf(out[0]) {
		if idx != out[0] {
			n.scratch = append(n.scratch, idx)
		}
	}

	if len(n.scratch) < k-1 {
		// Cell under-populated: fall back to uniform sampling over the
		// whole pool for the remaining slots, retrying if a collision
		// with an already-chosen index occurs.
		return n.fillUniformDistinct(poolSize, k, out)
	}

	// Partial Fisher-Yates over the neighbor candidates for the remaining
	// k-1 slots.
	for i := 0; i < k-1; i++ {
		j := i + n.rng.Intn(len(n.scratch)-i)
		n.scratch[i], n.scratch[j] = n.scratch[j], n.scratch[i]
	}
	copy(out[1:k], n.scratch[:k-1])
	return true
}

func (n *NeighborhoodGuided) fillUniformDistinct(poolSize, k int, out []int) bool {
	chosen := make(map[int]bool, k)
	chosen[out[0]] = true
	for i := 1; i < k; {
		candidate := n.rng.Intn(poolSize)
		if chosen[candidate] {
			continue
		}
		chosen[candidate] = true
		out[i] = candidate
		i++
	}
	return true
}
