package evo

import (
	"pixelevo/internal/model"
)

// Tick advances the population by one generation against a single snapshot
// of src. Concurrent calls run one after another.
func (p *Population) Tick(src TargetSource) model.GenerationDiagnostics {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	target := src.Snapshot()
	total := p.evaluate(target)
	rank(p.cells)

	diag := summarizeGeneration(p.cells, p.band, total)
	diag.Target = target

	bands := Partition(p.cells, p.band)
	diag.Mutations = p.breed(bands)
	p.cull(bands)

	p.clampAndPaint()
	p.generation++
	diag.Generation = p.generation
	p.publish()
	return diag
}

func (p *Population) evaluate(target model.RGB) int {
	total := 0
	for i := range p.cells {
		f := Fitness(p.cells[i].Color, target)
		p.cells[i].Fitness = f
		total += f
	}
	return total
}

// summarizeGeneration reads the ranked fitness values before breeding
// rewrites any color.
func summarizeGeneration(ranked []Cell, band, total int) model.GenerationDiagnostics {
	if len(ranked) == 0 {
		return model.GenerationDiagnostics{}
	}
	last := len(ranked) - 1
	diag := model.GenerationDiagnostics{
		BestFitness:  ranked[0].Fitness,
		WorstFitness: ranked[last].Fitness,
		MeanFitness:  float64(total) / float64(len(ranked)),
	}
	if band > 0 && 2*band < len(ranked) {
		diag.EliteCutoff = ranked[band-1].Fitness
		diag.WorstCutoff = ranked[len(ranked)-band].Fitness
	}
	return diag
}
