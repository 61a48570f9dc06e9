package neighborhood

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqsense/stereoglue/mat"
)

type points []mat.Vec2

func (p points) Point(i int) mat.Vec2 { return p[i] }
func (p points) Len() int             { return len(p) }

func TestBuildRejectsZeroDivisionCount(t *testing.T) {
	_, err := Build(points{{0, 0}}, nil, 0)
	require.Error(t, err)
}

func TestBuildRejectsNonFinite(t *testing.T) {
	_, err := Build(points{{0, 0}, {math.NaN(), 1}}, nil, 4)
	require.Error(t, err)
}

func TestBuildEmptyCellsAbsent(t *testing.T) {
	// All points in a tight cluster near the origin; with a wide grid most
	// cells should never appear in the map.
	pc := points{{0, 0}, {0.01, 0.01}, {0.02, 0.0}}
	g, err := Build(pc, nil, 100)
	require.NoError(t, err)
	assert.Less(t, g.FilledCellCount(), 100*100)
	assert.Greater(t, g.FilledCellCount(), 0)
}

func TestNeighborsReturnsOwnCell(t *testing.T) {
	pc := points{{0, 0}, {0, 0}, {10, 10}}
	g, err := Build(pc, nil, 4)
	require.NoError(t, err)
	n := g.Neighbors(mat.Vec2{0, 0}, false)
	assert.ElementsMatch(t, []int{0, 1}, n)
}

func TestBoundaryPointClampsToLastCell(t *testing.T) {
	pc := points{{0, 0}, {10, 10}}
	g, err := Build(pc, nil, 2)
	require.NoError(t, err)
	// The max-extent point must land in the last cell, not overflow it.
	n := g.Neighbors(mat.Vec2{10, 10}, false)
	assert.Contains(t, n, 1)
}

func TestCellSizesDerivedFromExtent(t *testing.T) {
	pc := points{{0, 0}, {10, 20}}
	g, err := Build(pc, nil, 5)
	require.NoError(t, err)
	sizes := g.CellSizes()
	assert.InDelta(t, 2.0, sizes[0], 1e-9)
	assert.InDelta(t, 4.0, sizes[1], 1e-9)
}

func TestDegenerateAxisDoesNotPanic(t *testing.T) {
	// All points share the same x coordinate.
	pc := points{{5, 0}, {5, 1}, {5, 2}}
	g, err := Build(pc, nil, 4)
	require.NoError(t, err)
	assert.Greater(t, g.FilledCellCount(), 0)
}

func TestNeighborsOfMatchesCoordinateLookup(t *testing.T) {
	pc := points{{0, 0}, {0, 0}, {10, 10}}
	g, err := Build(pc, nil, 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1}, g.NeighborsOf(0))
	assert.ElementsMatch(t, []int{0, 1}, g.NeighborsOf(1))
	assert.ElementsMatch(t, []int{2}, g.NeighborsOf(2))
}

func TestNeighborsOfOutOfRange(t *testing.T) {
	pc := points{{0, 0}}
	g, err := Build(pc, nil, 4)
	require.NoError(t, err)
	assert.Nil(t, g.NeighborsOf(-1))
	assert.Nil(t, g.NeighborsOf(5))
}
