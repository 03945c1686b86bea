package evo

import (
	"math/rand"

	"pixelevo/internal/model"
)

// Blend moves own a quarter of the way toward parent, channel by channel.
func Blend(own, parent model.RGB) model.RGB {
	return model.RGB{
		R: (3*own.R + parent.R) / 4,
		G: (3*own.G + parent.G) / 4,
		B: (3*own.B + parent.B) / 4,
	}
}

// Mutator perturbs a color with an inclusive-threshold chance.
type Mutator struct {
	Chance   int
	DeltaMax int
}

// Roll reports whether a draw in [0,99] falls at or under Chance.
func (m Mutator) Roll(rng *rand.Rand) bool {
	return rng.Intn(100) <= m.Chance
}

// Apply adds an independent signed delta in (-DeltaMax, DeltaMax) to each
// channel. The result may leave [0,255]; clamping is the caller's job.
func (m Mutator) Apply(rng *rand.Rand, c model.RGB) model.RGB {
	c.R += m.delta(rng)
	c.G += m.delta(rng)
	c.B += m.delta(rng)
	return c
}

func (m Mutator) delta(rng *rand.Rand) int {
	sign := 1
	if rng.Intn(2) == 0 {
		sign = -1
	}
	return sign * rng.Intn(m.DeltaMax)
}

func (p *Population) mutator() Mutator {
	return Mutator{Chance: p.cfg.MutationChance, DeltaMax: p.cfg.MutationDeltaMax}
}

// breed blends every middle cell toward a random elite parent and then rolls
// for mutation. It returns the number of mutated cells.
func (p *Population) breed(b Bands) int {
	if len(b.Elite) == 0 {
		return 0
	}
	m := p.mutator()
	mutations := 0
	for i := range b.Middle {
		cell := &b.Middle[i]
		cell.Color = Blend(cell.Color, pickElite(p.rng, b.Elite))
		if m.Roll(p.rng) {
			cell.Color = m.Apply(p.rng, cell.Color)
			mutations++
		}
	}
	return mutations
}

// cull overwrites every worst cell with the color of a random, already bred,
// middle cell.
func (p *Population) cull(b Bands) {
	if len(b.Middle) == 0 {
		return
	}
	for i := range b.Worst {
		b.Worst[i].Color = b.Middle[p.rng.Intn(len(b.Middle))].Color
	}
}
