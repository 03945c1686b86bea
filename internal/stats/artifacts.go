package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"pixelevo/internal/model"
)

const (
	runIndexFile       = "run_index.json"
	configFile         = "config.json"
	diagnosticsFile    = "generation_diagnostics.json"
	fitnessHistoryFile = "fitness_history.csv"
	fitnessPlotFile    = "fitness_history.png"
	summaryFile        = "summary.json"
	SnapshotFile       = "final_frame.png"
)

type RunArtifacts struct {
	Config                model.RunRecord               `json:"config"`
	GenerationDiagnostics []model.GenerationDiagnostics `json:"generation_diagnostics,omitempty"`
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Size             int     `json:"size"`
	BandWidth        int     `json:"band_width"`
	Generations      int     `json:"generations"`
	Seed             int64   `json:"seed"`
	FinalMeanFitness float64 `json:"final_mean_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// IndexEntryFor projects a run record onto its index row.
func IndexEntryFor(run model.RunRecord) RunIndexEntry {
	return RunIndexEntry{
		RunID:            run.RunID,
		Size:             run.Size,
		BandWidth:        run.BandWidth,
		Generations:      run.Generations,
		Seed:             run.Seed,
		FinalMeanFitness: run.FinalMeanFitness,
		CreatedAtUTC:     run.CreatedAtUTC,
	}
}

// WriteRunArtifacts writes the run config, its per-generation diagnostics,
// a CSV fitness history and a rendered fitness chart under baseDir/<run id>.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	runID := strings.TrimSpace(artifacts.Config.RunID)
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, diagnosticsFile), artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), Summarize(artifacts.GenerationDiagnostics)); err != nil {
		return "", err
	}
	if err := WriteFitnessHistory(filepath.Join(runDir, fitnessHistoryFile), artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	if len(artifacts.GenerationDiagnostics) > 0 {
		title := fmt.Sprintf("run %s (%dx%d)", runID, artifacts.Config.Size, artifacts.Config.Size)
		if err := PlotFitnessHistory(filepath.Join(runDir, fitnessPlotFile), title, artifacts.GenerationDiagnostics); err != nil {
			return "", fmt.Errorf("plot fitness history: %w", err)
		}
	}
	return runDir, nil
}

func ReadRunConfig(baseDir, runID string) (model.RunRecord, bool, error) {
	var run model.RunRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &run)
	if err != nil || !ok {
		return model.RunRecord{}, ok, err
	}
	return run, true, nil
}

func ReadGenerationDiagnostics(baseDir, runID string) ([]model.GenerationDiagnostics, bool, error) {
	var diagnostics []model.GenerationDiagnostics
	ok, err := readJSON(filepath.Join(baseDir, runID, diagnosticsFile), &diagnostics)
	if err != nil || !ok {
		return nil, ok, err
	}
	return diagnostics, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}
	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first. Entries sharing a
// timestamp keep the later-appended one first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	order := make(map[string]int, len(entries))
	for i, entry := range entries {
		order[entry.RunID] = i
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAtUTC == entries[j].CreatedAtUTC {
			return order[entries[i].RunID] > order[entries[j].RunID]
		}
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries := []RunIndexEntry{}
	if _, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteFitnessHistory writes one CSV row per generation.
func WriteFitnessHistory(path string, diagnostics []model.GenerationDiagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "target", "best_fitness", "mean_fitness", "worst_fitness", "mutations"}); err != nil {
		return err
	}
	for _, diag := range diagnostics {
		if err := writer.Write([]string{
			strconv.Itoa(diag.Generation),
			diag.Target.Hex(),
			strconv.Itoa(diag.BestFitness),
			strconv.FormatFloat(diag.MeanFitness, 'f', -1, 64),
			strconv.Itoa(diag.WorstFitness),
			strconv.Itoa(diag.Mutations),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadFitnessHistory returns the mean fitness column of a run's CSV history.
func ReadFitnessHistory(baseDir, runID string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, fitnessHistoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	column := -1
	for i, name := range header {
		if name == "mean_fitness" {
			column = i
		}
	}
	if column < 0 {
		return nil, false, fmt.Errorf("fitness history has no mean_fitness column")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		value, err := strconv.ParseFloat(record[column], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
