package evo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelevo/internal/model"
)

func TestFitness(t *testing.T) {
	white := model.RGB{R: 255, G: 255, B: 255}
	cases := []struct {
		color model.RGB
		want  int
	}{
		{model.RGB{R: 255, G: 255, B: 255}, 0},
		{model.RGB{R: 200, G: 200, B: 200}, 55},
		{model.RGB{R: 50, G: 50, B: 50}, 205},
		{model.RGB{R: 0, G: 0, B: 0}, 255},
		{model.RGB{R: 254, G: 255, B: 254}, 0},
		{model.RGB{R: 253, G: 255, B: 255}, 0},
		{model.RGB{R: 252, G: 255, B: 255}, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Fitness(tc.color, white), "color %v", tc.color)
	}
	assert.Equal(t, Fitness(model.RGB{R: 10, G: 90, B: 30}, model.RGB{R: 40}), Fitness(model.RGB{R: 40}, model.RGB{R: 10, G: 90, B: 30}))
}

func TestPartition(t *testing.T) {
	ranked := make([]Cell, 10)
	for i := range ranked {
		ranked[i].Fitness = i
	}

	bands := Partition(ranked, 2)
	require.Len(t, bands.Elite, 2)
	require.Len(t, bands.Middle, 6)
	require.Len(t, bands.Worst, 2)
	assert.Equal(t, 0, bands.Elite[0].Fitness)
	assert.Equal(t, 2, bands.Middle[0].Fitness)
	assert.Equal(t, 8, bands.Worst[0].Fitness)

	bands.Middle[0].Color.R = 99
	assert.Equal(t, 99, ranked[2].Color.R, "bands must share memory with the ranked slice")
}

func TestPartitionDegenerate(t *testing.T) {
	ranked := make([]Cell, 4)

	for _, n := range []int{0, 2, 3} {
		bands := Partition(ranked, n)
		assert.Empty(t, bands.Elite, "n=%d", n)
		assert.Empty(t, bands.Worst, "n=%d", n)
		assert.Len(t, bands.Middle, 4, "n=%d", n)
	}
}

func TestRankIsAscendingAndStable(t *testing.T) {
	cells := []Cell{
		{X: 0, Fitness: 5},
		{X: 1, Fitness: 1},
		{X: 2, Fitness: 5},
		{X: 3, Fitness: 0},
		{X: 4, Fitness: 1},
	}
	rank(cells)

	xs := make([]int32, 0, len(cells))
	for _, c := range cells {
		xs = append(xs, c.X)
	}
	assert.Equal(t, []int32{3, 1, 4, 0, 2}, xs)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "smallest derived band", cfg: Config{Size: 100, MutationDeltaMax: 32}},
		{name: "too small for a band", cfg: Config{Size: 99, MutationDeltaMax: 32}, wantErr: ErrEmptyBand},
		{name: "tiny grid", cfg: Config{Size: 3, MutationDeltaMax: 32}, wantErr: ErrEmptyBand},
		{name: "explicit band", cfg: Config{Size: 2, BandWidth: 1, MutationDeltaMax: 32}},
		{name: "overlapping bands", cfg: Config{Size: 2, BandWidth: 2, MutationDeltaMax: 32}, wantErr: ErrBandOverlap},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}

	assert.Error(t, Config{Size: 0, MutationDeltaMax: 32}.Validate())
	assert.Error(t, Config{Size: 700}.Validate())
	assert.Error(t, Config{Size: 700, BandWidth: -1, MutationDeltaMax: 32}.Validate())
}

func TestNewRejectsEmptyBandBeforeAnyTick(t *testing.T) {
	p, err := New(Config{Size: 50, MutationChance: DefaultMutationChance, MutationDeltaMax: DefaultMutationDeltaMax})
	require.ErrorIs(t, err, ErrEmptyBand)
	assert.Nil(t, p)
}

func TestBandWidthFor(t *testing.T) {
	assert.Equal(t, 49, BandWidthFor(700))
	assert.Equal(t, 1, BandWidthFor(100))
	assert.Equal(t, 0, BandWidthFor(99))
}

func TestNewBuildsDenseRowMajorGrid(t *testing.T) {
	p := newTestPopulation(t, Config{Size: 100, Seed: 1})
	require.Len(t, p.cells, 10000)
	assert.Equal(t, 1, p.BandWidth())
	assert.Equal(t, 0, p.Generation())

	for i, cell := range p.cells {
		assert.EqualValues(t, i%100, cell.X)
		assert.EqualValues(t, i/100, cell.Y)
		assert.Zero(t, cell.Fitness)
		if i > 50 {
			break
		}
	}
	for _, cell := range p.cells {
		require.Equal(t, cell.Color, cell.Color.Clamped())
	}
}
