// Package stereoglue implements robust two-view geometric model fitting
// (homography, fundamental, essential) from multi-match feature
// correspondences: a RANSAC-family estimator specialized to match tables
// that propose several ranked destination candidates per source point.
package stereoglue

import (
	"fmt"
	"math"

	"github.com/seqsense/stereoglue/mat"
)

// DataMatrix is a dense, row-major table of 64-bit floats. Rows index
// observations (points), columns index channels (x, y, and optionally
// auxiliary features such as scale, orientation, or descriptor distance).
//
// The flat-slice, fixed-stride layout mirrors the teacher's
// ParamVector-style scratch buffers: no per-row allocation, and row access
// is a single slice expression.
type DataMatrix struct {
	Data []float64
	Rows int
	Cols int
}

// NewDataMatrix allocates a zeroed rows x cols matrix.
func NewDataMatrix(rows, cols int) *DataMatrix {
	return &DataMatrix{
		Data: make([]float64, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// NewDataMatrixFromRows builds a DataMatrix from row-major data the caller
// already owns; len(data) must equal rows*cols.
func NewDataMatrixFromRows(data []float64, rows, cols int) *DataMatrix {
	return &DataMatrix{Data: data, Rows: rows, Cols: cols}
}

// At returns element (row, col).
func (m *DataMatrix) At(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

// Set writes element (row, col).
func (m *DataMatrix) Set(row, col int, v float64) {
	m.Data[row*m.Cols+col] = v
}

// Row returns a mutable view of row i; len(result) == m.Cols.
func (m *DataMatrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Point returns the first two columns of row i as a Vec2.
func (m *DataMatrix) Point(i int) mat.Vec2 {
	row := m.Row(i)
	return mat.Vec2{row[0], row[1]}
}

// Len returns the number of rows (points), satisfying
// internal/neighborhood.PointAt.
func (m *DataMatrix) Len() int {
	return m.Rows
}

// Valid reports whether the matrix has at least two columns and every
// element is finite, per spec.md §3's DataMatrix invariant.
func (m *DataMatrix) Valid() bool {
	if m == nil || m.Cols < 2 || m.Rows < 0 || len(m.Data) != m.Rows*m.Cols {
		return false
	}
	for _, v := range m.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MatchTable is a source-count x K table of destination indices. A negative
// or out-of-range entry means "no candidate" for that (source, k) slot.
type MatchTable struct {
	Data []int
	Rows int
	K    int
}

// NewMatchTable allocates a MatchTable with every entry set to "no
// candidate" (-1).
func NewMatchTable(rows, k int) *MatchTable {
	data := make([]int, rows*k)
	for i := range data {
		data[i] = -1
	}
	return &MatchTable{Data: data, Rows: rows, K: k}
}

func (t *MatchTable) At(row, k int) int {
	return t.Data[row*t.K+k]
}

func (t *MatchTable) Set(row, k, v int) {
	t.Data[row*t.K+k] = v
}

func (t *MatchTable) Row(i int) []int {
	return t.Data[i*t.K : (i+1)*t.K]
}

// Valid reports whether a candidate destination index references a real
// row of the destination matrix, i.e. is within [0, dstRows).
func (t *MatchTable) Valid(candidate, dstRows int) bool {
	return candidate >= 0 && candidate < dstRows
}

// ScoreTable carries per-candidate similarity scores, same shape as the
// MatchTable it accompanies. Lower is better; scores must be finite and
// non-negative per spec.md §3.
type ScoreTable struct {
	Data []float64
	Rows int
	K    int
}

// NewScoreTable allocates a zeroed ScoreTable.
func NewScoreTable(rows, k int) *ScoreTable {
	return &ScoreTable{Data: make([]float64, rows*k), Rows: rows, K: k}
}

func (t *ScoreTable) At(row, k int) float64 {
	return t.Data[row*t.K+k]
}

func (t *ScoreTable) Set(row, k int, v float64) {
	t.Data[row*t.K+k] = v
}

func (t *ScoreTable) Row(i int) []float64 {
	return t.Data[i*t.K : (i+1)*t.K]
}

// MatchPair identifies one source point and one of its candidate
// destinations.
type MatchPair struct {
	Src int
	Dst int
}

// ProblemType selects the geometric model family being estimated.
type ProblemType int

const (
	Homography ProblemType = iota
	Fundamental
	Essential
)

func (p ProblemType) String() string {
	switch p {
	case Homography:
		return "Homography"
	case Fundamental:
		return "Fundamental"
	case Essential:
		return "Essential"
	default:
		return fmt.Sprintf("ProblemType(%d)", int(p))
	}
}

// Model is a fixed-shape 3x3 parameter block together with the geometry
// kind it was estimated for.
type Model struct {
	Params mat.Mat3
	Kind   ProblemType
}
