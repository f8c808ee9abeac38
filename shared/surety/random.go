package surety

import "math/rand"

// IndexSource supplies the pseudo-random numbers used for oracle index
// assignment and request routing. It is only called under the engine lock.
type IndexSource interface {
	// Intn returns a number in [0, n).
	Intn(n int) int
}

// NewSeededSource returns a deterministic source for seed.
func NewSeededSource(seed int64) IndexSource {
	return rand.New(rand.NewSource(seed))
}

// maxDraws bounds the draws per index before falling back to a scan, so a
// degenerate source cannot stall the engine.
const maxDraws = 64

// drawIndexes returns k distinct values in [0, n). Callers guarantee k <= n.
func drawIndexes(src IndexSource, k, n int) []int {
	seen := make(map[int]bool, k)
	indexes := make([]int, 0, k)
	for attempts := 0; len(indexes) < k && attempts < k*maxDraws; attempts++ {
		i := src.Intn(n)
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		indexes = append(indexes, i)
	}
	for i := 0; len(indexes) < k; i++ {
		if !seen[i] {
			seen[i] = true
			indexes = append(indexes, i)
		}
	}
	return indexes
}
