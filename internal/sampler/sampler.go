// Package sampler implements the minimal-sample drawing strategies of
// spec.md §4.2: Uniform, PROSAC-like, and neighborhood-guided sampling,
// grounded on seqsense-pcdeditor/pcd/sac.NewRandomSampler's
// sample-without-replacement shape, reseeded deterministically the way
// CWBudde-MayFlyCircleFit/internal/opt.MayflyAdapter seeds its optimizer.
package sampler

// Sampler draws minimal index sets from a pool [0, poolSize). Initialize
// must be called once before the first Sample call and again whenever
// poolSize changes.
type Sampler interface {
	// Initialize prepares the sampler for a pool of the given size.
	Initialize(poolSize int)
	// Sample draws k pairwise-distinct indices from [0, poolSize) into
	// out[:k]. Returns false when k > poolSize.
	Sample(poolSize, k int, out []int) bool
}
