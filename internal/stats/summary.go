package stats

import (
	"gonum.org/v1/gonum/floats"

	"pixelevo/internal/model"
)

type Summary struct {
	Generations    int     `json:"generations"`
	InitialMean    float64 `json:"initial_mean_fitness"`
	FinalMean      float64 `json:"final_mean_fitness"`
	LowestMean     float64 `json:"lowest_mean_fitness"`
	AverageMean    float64 `json:"average_mean_fitness"`
	BestEver       int     `json:"best_ever_fitness"`
	Improvement    float64 `json:"improvement"`
	TotalMutations int     `json:"total_mutations"`
	TargetChanges  int     `json:"target_changes"`
}

// Summarize reduces a run's diagnostics to a few headline numbers.
// Improvement is InitialMean - FinalMean, so convergence is positive.
func Summarize(diagnostics []model.GenerationDiagnostics) Summary {
	if len(diagnostics) == 0 {
		return Summary{}
	}

	means := make([]float64, len(diagnostics))
	bests := make([]float64, len(diagnostics))
	s := Summary{Generations: len(diagnostics)}
	for i, diag := range diagnostics {
		means[i] = diag.MeanFitness
		bests[i] = float64(diag.BestFitness)
		s.TotalMutations += diag.Mutations
		if i > 0 && diag.Target != diagnostics[i-1].Target {
			s.TargetChanges++
		}
	}

	s.InitialMean = means[0]
	s.FinalMean = means[len(means)-1]
	s.LowestMean = floats.Min(means)
	s.AverageMean = floats.Sum(means) / float64(len(means))
	s.BestEver = int(floats.Min(bests))
	s.Improvement = s.InitialMean - s.FinalMean
	return s
}
