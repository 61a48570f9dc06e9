package termination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldTerminateTrueWhenHighInlierRatio(t *testing.T) {
	r := RANSAC{}
	// eps=0.9, m=4 needs very few iterations to hit 0.99 confidence.
	assert.True(t, r.ShouldTerminate(50, 900, 1000, 4, 0.99, 1, 5000))
}

func TestShouldTerminateFalseBelowMinIterations(t *testing.T) {
	r := RANSAC{}
	assert.False(t, r.ShouldTerminate(5, 900, 1000, 4, 0.99, 1000, 5000))
}

func TestShouldTerminateFalseWithLowInlierRatio(t *testing.T) {
	r := RANSAC{}
	assert.False(t, r.ShouldTerminate(10, 5, 1000, 7, 0.99, 1, 5000))
}

func TestShouldTerminateClampsToMaxIterations(t *testing.T) {
	r := RANSAC{}
	// eps=0 requires effectively infinite iterations; clamp must cap it.
	assert.True(t, r.ShouldTerminate(100, 0, 1000, 4, 0.99, 1, 100))
}

func TestPROSACSharesRANSACFormula(t *testing.T) {
	p := PROSAC{}
	r := RANSAC{}
	assert.Equal(t,
		r.ShouldTerminate(50, 900, 1000, 4, 0.99, 1, 5000),
		p.ShouldTerminate(50, 900, 1000, 4, 0.99, 1, 5000))
}
