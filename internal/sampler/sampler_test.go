package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformDistinctIndices(t *testing.T) {
	u := NewUniform(42)
	u.Initialize(100)
	out := make([]int, 10)
	require.True(t, u.Sample(100, 10, out))
	assertDistinct(t, out)
	for _, v := range out {
		assert.True(t, v >= 0 && v < 100)
	}
}

func TestUniformRejectsOversizedSample(t *testing.T) {
	u := NewUniform(1)
	u.Initialize(5)
	out := make([]int, 10)
	assert.False(t, u.Sample(5, 10, out))
}

func TestUniformDeterministic(t *testing.T) {
	out1 := make([]int, 4)
	out2 := make([]int, 4)

	u1 := NewUniform(7)
	u1.Initialize(50)
	u1.Sample(50, 4, out1)

	u2 := NewUniform(7)
	u2.Initialize(50)
	u2.Sample(50, 4, out2)

	assert.Equal(t, out1, out2)
}

func TestUniformDifferentSeedsDiverge(t *testing.T) {
	out1 := make([]int, 8)
	out2 := make([]int, 8)

	u1 := NewUniform(1)
	u1.Initialize(1000)
	u1.Sample(1000, 8, out1)

	u2 := NewUniform(2)
	u2.Initialize(1000)
	u2.Sample(1000, 8, out2)

	assert.NotEqual(t, out1, out2)
}

func TestPROSACForcesWorstLiveMemberInitially(t *testing.T) {
	quality := []float64{0.1, 0.9, 0.5, 0.2, 0.8}
	p := NewPROSAC(1, quality)
	p.Initialize(5)
	out := make([]int, 2)
	require.True(t, p.Sample(5, 2, out))
	assertDistinct(t, out)
	// Quality order is [0, 3, 2, 4, 1]; the first call's live prefix is
	// {0, 3}, so its worst member 3 fills the forced last slot.
	assert.Equal(t, 3, out[1])
}

func TestPROSACGrowsOverTime(t *testing.T) {
	quality := make([]float64, 200)
	for i := range quality {
		quality[i] = float64(i)
	}
	p := NewPROSAC(3, quality)
	p.Initialize(200)
	out := make([]int, 4)
	for i := 0; i < 50; i++ {
		require.True(t, p.Sample(200, 4, out))
		assertDistinct(t, out)
	}
	assert.Greater(t, p.growth, 4)
}

func TestNeighborhoodGuidedFallsBackWhenCellEmpty(t *testing.T) {
	g := fakeGraph{}
	n := NewNeighborhoodGuided(9, g)
	n.Initialize(20)
	out := make([]int, 4)
	require.True(t, n.Sample(20, 4, out))
	assertDistinct(t, out)
}

type fakeGraph struct{}

func (fakeGraph) NeighborsOf(idx int) []int { return nil }

func assertDistinct(t *testing.T, s []int) {
	t.Helper()
	seen := map[int]bool{}
	for _, v := range s {
		require.False(t, seen[v], "duplicate index %d", v)
		seen[v] = true
	}
}
