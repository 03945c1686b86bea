package evo

import (
	"cmp"
	"math/rand"
	"slices"

	"pixelevo/internal/model"
)

// TargetSource supplies the color a generation is scored against.
type TargetSource interface {
	Snapshot() model.RGB
}

// FixedTarget is a TargetSource that never changes.
type FixedTarget model.RGB

func (t FixedTarget) Snapshot() model.RGB {
	return model.RGB(t)
}

// Fitness is the mean absolute channel distance to target, truncated. Lower
// is better.
func Fitness(c, target model.RGB) int {
	return (absInt(c.R-target.R) + absInt(c.G-target.G) + absInt(c.B-target.B)) / 3
}

// Bands are contiguous views into a ranked population. They share memory with
// the ranked slice.
type Bands struct {
	Elite  []Cell
	Middle []Cell
	Worst  []Cell
}

// Partition splits ranked into elite [0,n), middle [n,len-n) and worst
// [len-n,len). Bands are empty when n does not fit.
func Partition(ranked []Cell, n int) Bands {
	if n <= 0 || 2*n >= len(ranked) {
		return Bands{Middle: ranked}
	}
	return Bands{
		Elite:  ranked[:n],
		Middle: ranked[n : len(ranked)-n],
		Worst:  ranked[len(ranked)-n:],
	}
}

// rank orders cells by ascending fitness. Order among equal fitness is
// whatever the stable sort leaves and must not be relied on.
func rank(cells []Cell) {
	slices.SortStableFunc(cells, func(a, b Cell) int {
		return cmp.Compare(a.Fitness, b.Fitness)
	})
}

// pickElite picks one elite uniformly, with replacement.
func pickElite(rng *rand.Rand, elite []Cell) model.RGB {
	return elite[rng.Intn(len(elite))].Color
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
