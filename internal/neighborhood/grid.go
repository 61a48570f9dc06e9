// Package neighborhood implements the uniform-grid spatial index spec.md
// §4.1 calls the NeighborhoodGraph, generalizing
// seqsense-pcdeditor/pcd/storage/voxelgrid.VoxelGrid from a fixed-resolution
// 3-D voxel grid to a 2-D grid sized by a caller-specified division count
// over the source point cloud's bounding box.
package neighborhood

import (
	"fmt"
	"math"

	"github.com/seqsense/stereoglue/mat"
)

// Graph is a uniform grid over the source point cloud (and optionally the
// destination point cloud), used by neighborhood-guided sampling. Graph
// borrows the point clouds it was
// built from: it retains only indices and its own copied bounding-box
// floats, never a reference into the caller's slices, but logically it must
// not be used after the source matrix it describes has been mutated or
// freed (spec.md §9).
type Graph struct {
	divisionCount int
	origin        mat.Vec2
	cellSize      mat.Vec2

	// cells maps a linearized cell id to the source/destination indices
	// falling into it. Empty cells are absent, per spec.md §4.1.
	cells map[int]*Cell

	// pointCell maps each source index to its linearized cell id, so
	// NeighborsOf can answer by index without re-deriving coordinates.
	pointCell []int
}

// Cell holds the source and destination point indices assigned to one grid
// cell.
type Cell struct {
	SourceIndices []int
	DestIndices   []int
}

// PointAt abstracts the minimal read access Build needs from a point cloud,
// so callers can pass a *stereoglue.DataMatrix without this package
// importing the root package (which would create an import cycle).
type PointAt interface {
	Point(i int) mat.Vec2
	Len() int
}

// Build constructs a Graph from source (required) and destination
// (optional, pass nil to omit) point clouds. divisionCount must be > 0; grid
// cell size is (bounding-box extent along each axis) / divisionCount,
// independently per axis, matching spec.md §4.1 ("Cell size is
// (extent_axis / division_count)").
func Build(source, destination PointAt, divisionCount int) (*Graph, error) {
	if divisionCount <= 0 {
		return nil, fmt.Errorf("division count must be positive, got %d", divisionCount)
	}
	if source == nil || source.Len() == 0 {
		return nil, fmt.Errorf("source point cloud must be non-empty")
	}

	minP := source.Point(0)
	maxP := minP
	for i := 0; i < source.Len(); i++ {
		p := source.Point(i)
		if !p.Finite() {
			return nil, fmt.Errorf("non-finite source point at index %d", i)
		}
		if p[0] < minP[0] {
			minP[0] = p[0]
		}
		if p[1] < minP[1] {
			minP[1] = p[1]
		}
		if p[0] > maxP[0] {
			maxP[0] = p[0]
		}
		if p[1] > maxP[1] {
			maxP[1] = p[1]
		}
	}

	extent := maxP.Sub(minP)
	cellSize := mat.Vec2{
		safeDiv(extent[0], float64(divisionCount)),
		safeDiv(extent[1], float64(divisionCount)),
	}

	g := &Graph{
		divisionCount: divisionCount,
		origin:        minP,
		cellSize:      cellSize,
		cells:         make(map[int]*Cell),
		pointCell:     make([]int, source.Len()),
	}

	for i := 0; i < source.Len(); i++ {
		id := g.cellID(source.Point(i))
		g.pointCell[i] = id
		c := g.cellOrNew(id)
		c.SourceIndices = append(c.SourceIndices, i)
	}
	if destination != nil {
		for i := 0; i < destination.Len(); i++ {
			p := destination.Point(i)
			if !p.Finite() {
				continue
			}
			id := g.cellID(p)
			c := g.cellOrNew(id)
			c.DestIndices = append(c.DestIndices, i)
		}
	}

	return g, nil
}

func safeDiv(extent, divisions float64) float64 {
	if extent == 0 {
		// Degenerate (all points share this coordinate); use a unit cell
		// size so cellID still produces cell 0 along this axis.
		return 1
	}
	return extent / divisions
}

func (g *Graph) cellOrNew(id int) *Cell {
	c, ok := g.cells[id]
	if !ok {
		c = &Cell{}
		g.cells[id] = c
	}
	return c
}

// cellID linearizes the (x, y) cell coordinate row-major, clamping points
// at the max extent into the last cell (spec.md §4.1's boundary rule).
func (g *Graph) cellID(p mat.Vec2) int {
	cx := g.axisIndex(p[0]-g.origin[0], g.cellSize[0])
	cy := g.axisIndex(p[1]-g.origin[1], g.cellSize[1])
	return cy*g.divisionCount + cx
}

func (g *Graph) axisIndex(offset, size float64) int {
	idx := int(math.Floor(offset / size))
	if idx < 0 {
		idx = 0
	}
	if idx >= g.divisionCount {
		idx = g.divisionCount - 1
	}
	return idx
}

// Neighbors returns the source indices sharing point p's cell, plus
// (optionally) its 8-connected neighbor cells.
func (g *Graph) Neighbors(p mat.Vec2, includeAdjacent bool) []int {
	cx := g.axisIndex(p[0]-g.origin[0], g.cellSize[0])
	cy := g.axisIndex(p[1]-g.origin[1], g.cellSize[1])

	var out []int
	visit := func(x, y int) {
		if x < 0 || y < 0 || x >= g.divisionCount || y >= g.divisionCount {
			return
		}
		if c, ok := g.cells[y*g.divisionCount+x]; ok {
			out = append(out, c.SourceIndices...)
		}
	}
	if !includeAdjacent {
		visit(cx, cy)
		return out
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			visit(cx+dx, cy+dy)
		}
	}
	return out
}

// NeighborsOf returns the source indices sharing source point idx's cell
// (idx included), satisfying internal/sampler.NeighborhoodLookup.
func (g *Graph) NeighborsOf(idx int) []int {
	if idx < 0 || idx >= len(g.pointCell) {
		return nil
	}
	c, ok := g.cells[g.pointCell[idx]]
	if !ok {
		return nil
	}
	return c.SourceIndices
}

// Cells returns the populated cell map, keyed by linearized cell id.
func (g *Graph) Cells() map[int]*Cell {
	return g.cells
}

// CellSizes returns the grid's per-axis cell size [width, height].
func (g *Graph) CellSizes() [2]float64 {
	return [2]float64{g.cellSize[0], g.cellSize[1]}
}

// FilledCellCount returns the number of non-empty cells.
func (g *Graph) FilledCellCount() int {
	return len(g.cells)
}

// DivisionCount returns the grid's division count.
func (g *Graph) DivisionCount() int {
	return g.divisionCount
}
