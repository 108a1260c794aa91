package l5folds

import (
	"fmt"
	"math/rand/v2"
)

// Shuffle returns a permutation of [0, n) drawn from a PCG generator
// seeded with seed. The draw is a Fisher–Yates walk from the top where
// position i swaps with Uint64() % (i+1), so the same seed yields the same
// permutation on every platform and Go release.
func Shuffle(n int, seed int64) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	pcg := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	for i := n - 1; i > 0; i-- {
		j := int(pcg.Uint64() % uint64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// Assignment maps shuffled day groups onto K folds. Order holds group
// indices in shuffled order; fold f tests Order[Bounds[f]:Bounds[f+1]].
type Assignment struct {
	K      int
	Seed   int64
	Order  []int
	Bounds []int
}

// Partition shuffles n groups with seed and cuts them into k contiguous
// slices of n/k, the last slice absorbing the remainder.
func Partition(n, k int, seed int64) (*Assignment, error) {
	if k < 1 {
		return nil, fmt.Errorf("fold count must be positive, got %d", k)
	}
	if n < 0 {
		return nil, fmt.Errorf("group count must not be negative, got %d", n)
	}
	size := n / k
	bounds := make([]int, k+1)
	for f := 0; f < k; f++ {
		bounds[f] = f * size
	}
	bounds[k] = n
	return &Assignment{K: k, Seed: seed, Order: Shuffle(n, seed), Bounds: bounds}, nil
}

// Test returns the group indices tested in fold f.
func (a *Assignment) Test(f int) []int {
	return a.Order[a.Bounds[f]:a.Bounds[f+1]]
}

// Train returns the group indices trained on in fold f: every other
// slice, concatenated in slice order.
func (a *Assignment) Train(f int) []int {
	out := make([]int, 0, len(a.Order)-(a.Bounds[f+1]-a.Bounds[f]))
	for s := 0; s < a.K; s++ {
		if s != f {
			out = append(out, a.Test(s)...)
		}
	}
	return out
}

// FoldOf returns the fold that tests group g.
func (a *Assignment) FoldOf(g int) int {
	for f := 0; f < a.K; f++ {
		for _, idx := range a.Test(f) {
			if idx == g {
				return f
			}
		}
	}
	return -1
}
