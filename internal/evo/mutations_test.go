package evo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelevo/internal/model"
)

func TestBlend(t *testing.T) {
	cases := []struct {
		own, parent, want model.RGB
	}{
		{model.RGB{R: 200, G: 200, B: 200}, model.RGB{R: 255, G: 255, B: 255}, model.RGB{R: 213, G: 213, B: 213}},
		{model.RGB{R: 50, G: 50, B: 50}, model.RGB{R: 255, G: 255, B: 255}, model.RGB{R: 101, G: 101, B: 101}},
		{model.RGB{R: 0, G: 100, B: 255}, model.RGB{R: 255, G: 100, B: 0}, model.RGB{R: 63, G: 100, B: 191}},
		{model.RGB{R: 1, G: 2, B: 3}, model.RGB{R: 1, G: 2, B: 3}, model.RGB{R: 1, G: 2, B: 3}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Blend(tc.own, tc.parent), "blend %v toward %v", tc.own, tc.parent)
	}
}

func TestMutatorRollUsesInclusiveThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	m := Mutator{Chance: 10, DeltaMax: 32}

	const draws = 200000
	hits := 0
	for i := 0; i < draws; i++ {
		if m.Roll(rng) {
			hits++
		}
	}
	rate := float64(hits) / draws
	assert.InDelta(t, 0.11, rate, 0.005)
}

func TestMutatorRollBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	never := Mutator{Chance: -1, DeltaMax: 1}
	always := Mutator{Chance: 99, DeltaMax: 1}
	for i := 0; i < 1000; i++ {
		require.False(t, never.Roll(rng))
		require.True(t, always.Roll(rng))
	}
}

func TestMutatorApplyDeltaRange(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	m := Mutator{Chance: 99, DeltaMax: 32}
	base := model.RGB{R: 128, G: 128, B: 128}

	sawNegative, sawPositive := false, false
	sawIndependent := false
	for i := 0; i < 5000; i++ {
		got := m.Apply(rng, base)
		for _, d := range []int{got.R - base.R, got.G - base.G, got.B - base.B} {
			require.Greater(t, d, -32)
			require.Less(t, d, 32)
			if d < 0 {
				sawNegative = true
			}
			if d > 0 {
				sawPositive = true
			}
		}
		if got.R-base.R != got.G-base.G {
			sawIndependent = true
		}
	}
	assert.True(t, sawNegative)
	assert.True(t, sawPositive)
	assert.True(t, sawIndependent, "channels must draw independent deltas")
}

func TestBreedOnlyTouchesMiddleBand(t *testing.T) {
	p := newTestPopulation(t, Config{Size: 2, BandWidth: 1, MutationChance: 99, MutationDeltaMax: 32, Seed: 6})
	cells := []Cell{
		{Color: model.RGB{R: 10, G: 10, B: 10}},
		{Color: model.RGB{R: 100, G: 100, B: 100}},
		{Color: model.RGB{R: 150, G: 150, B: 150}},
		{Color: model.RGB{R: 250, G: 250, B: 250}},
	}
	bands := Partition(cells, 1)

	mutations := p.breed(bands)

	assert.Equal(t, 2, mutations)
	assert.Equal(t, model.RGB{R: 10, G: 10, B: 10}, cells[0].Color)
	assert.Equal(t, model.RGB{R: 250, G: 250, B: 250}, cells[3].Color)
	assert.NotEqual(t, model.RGB{R: 100, G: 100, B: 100}, cells[1].Color)
}

func TestCullCopiesWholeMiddleColor(t *testing.T) {
	p := newTestPopulation(t, Config{Size: 100, Seed: 12})
	cells := make([]Cell, 10)
	for i := range cells {
		cells[i].Color = model.RGB{R: i, G: 2 * i, B: 3 * i}
	}
	bands := Partition(cells, 3)
	middle := map[model.RGB]bool{}
	for _, c := range bands.Middle {
		middle[c.Color] = true
	}

	p.cull(bands)

	for _, c := range bands.Worst {
		assert.True(t, middle[c.Color], "worst color %v not copied from middle", c.Color)
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, model.RGB{R: i, G: 2 * i, B: 3 * i}, cells[i].Color)
	}
}

func TestBreedAndCullNoopWithoutBands(t *testing.T) {
	p := newTestPopulation(t, Config{Size: 100, Seed: 12})
	cells := []Cell{{Color: model.RGB{R: 1}}, {Color: model.RGB{R: 2}}}
	bands := Partition(cells, 0)

	assert.Zero(t, p.breed(bands))
	p.cull(bands)
	assert.Equal(t, model.RGB{R: 1}, cells[0].Color)
	assert.Equal(t, model.RGB{R: 2}, cells[1].Color)
}
