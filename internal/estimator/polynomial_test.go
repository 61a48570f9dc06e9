package estimator

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCubicRealRootsKnownRoots(t *testing.T) {
	// (x-1)(x-2)(x-3) = x^3 - 6x^2 + 11x - 6
	roots := cubicRealRoots(1, -6, 11, -6)
	sort.Float64s(roots)
	require := assert.New(t)
	require.Len(roots, 3)
	require.InDelta(1, roots[0], 1e-6)
	require.InDelta(2, roots[1], 1e-6)
	require.InDelta(3, roots[2], 1e-6)
}

func TestCubicRealRootsSingleRealRoot(t *testing.T) {
	// x^3 + x + 10 has exactly one real root (discriminant < 0).
	roots := cubicRealRoots(1, 0, 1, 10)
	assert.Len(t, roots, 1)
}

func TestCubicRealRootsFallsBackToQuadratic(t *testing.T) {
	// a == 0: 2x^2 - 4x - 6 = 0 => x = 3 or x = -1.
	roots := cubicRealRoots(0, 2, -4, -6)
	sort.Float64s(roots)
	require := assert.New(t)
	require.Len(roots, 2)
	require.InDelta(-1, roots[0], 1e-9)
	require.InDelta(3, roots[1], 1e-9)
}

func TestQuadraticRealRootsNoRealSolution(t *testing.T) {
	roots := quadraticRealRoots(1, 0, 1)
	assert.Empty(t, roots)
}

func TestQuadraticRealRootsLinearFallback(t *testing.T) {
	roots := quadraticRealRoots(0, 2, -8)
	require := assert.New(t)
	require.Len(roots, 1)
	require.InDelta(4, roots[0], 1e-9)
}
