package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelevo/internal/model"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	older := Stamp(model.RunRecord{RunID: "run-a", Size: 100, Generations: 5, CreatedAtUTC: "2026-01-01T00:00:00Z"})
	newer := Stamp(model.RunRecord{RunID: "run-b", Size: 700, Generations: 9, CreatedAtUTC: "2026-01-02T00:00:00Z"})
	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))

	got, ok, err := store.GetRun(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, older, got)

	_, ok, err = store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].RunID)
}

func TestMemoryStoreAppendsGenerationDiagnostics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	require.NoError(t, store.AppendGenerationDiagnostics(ctx, "run-1", []model.GenerationDiagnostics{
		{Generation: 1, MeanFitness: 90, BestFitness: 3},
	}))
	require.NoError(t, store.AppendGenerationDiagnostics(ctx, "run-1", []model.GenerationDiagnostics{
		{Generation: 2, MeanFitness: 60, BestFitness: 2},
		{Generation: 3, MeanFitness: 40, BestFitness: 1},
	}))

	output, ok, err := store.GetGenerationDiagnostics(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, output, 3)
	assert.Equal(t, 3, output[2].Generation)

	output[0].MeanFitness = -1
	again, _, err := store.GetGenerationDiagnostics(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 90.0, again[0].MeanFitness, "returned slice must be a copy")

	_, ok, err = store.GetGenerationDiagnostics(ctx, "run-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	assert.Error(t, store.SaveRun(context.Background(), model.RunRecord{RunID: "x"}))
	assert.Error(t, store.AppendGenerationDiagnostics(context.Background(), "x", nil))
}
