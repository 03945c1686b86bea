package pixelevo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pixelevo/internal/evo"
	"pixelevo/internal/metrics"
	"pixelevo/internal/model"
	"pixelevo/internal/palette"
	"pixelevo/internal/platform"
	"pixelevo/internal/stats"
	"pixelevo/internal/storage"
	"pixelevo/internal/target"
)

const (
	defaultArtifactsDir = "runs"
	defaultDBPath       = "pixelevo.db"
	defaultGenerations  = 100
	defaultRunsLimit    = 20
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	Logger       *slog.Logger
	// Metrics, when set, receives every generation run through this client.
	Metrics *metrics.Collector
}

type Client struct {
	store        storage.Store
	artifactsDir string
	logger       *slog.Logger
	metrics      *metrics.Collector

	initOnce sync.Once
	initErr  error
}

type RunRequest struct {
	Size      int
	BandWidth int
	// Generations bounds a headless run. Sessions treat zero as unbounded.
	Generations int
	// MutationChance nil selects the default; negative disables mutation.
	// Zero is a valid inclusive threshold.
	MutationChance   *int
	MutationDeltaMax int
	Seed             int64
	// Target is a palette name or #rrggbb. Empty draws a random palette color.
	Target string
	// RetargetGenerations requests a new palette color every this many
	// generations of a headless run. Zero keeps one target.
	RetargetGenerations int
	// SnapshotScale upscales the final frame written with the artifacts.
	SnapshotScale int
}

type SessionRequest struct {
	RunRequest
	Interval      time.Duration
	RetargetEvery time.Duration
}

type RunSummary struct {
	RunID        string
	ArtifactsDir string
	Generations  int
	Summary      stats.Summary
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Size             int
	BandWidth        int
	Seed             int64
	Generations      int
	FinalMeanFitness float64
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	// Limit keeps the most recent generations. Zero returns all of them.
	Limit int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		logger:       logger,
		metrics:      opts.Metrics,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Run evolves one population for a bounded number of generations as fast as
// it can, then stores the run and writes its artifacts.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Generations <= 0 {
		req.Generations = defaultGenerations
	}
	if req.RetargetGenerations < 0 {
		return RunSummary{}, errors.New("retarget generations must be >= 0")
	}

	s, err := c.newSession(ctx, req, platform.Config{
		MaxGenerations: req.Generations,
		HistoryLimit:   1,
	})
	if err != nil {
		return RunSummary{}, err
	}

	var runErr error
	for gen := 1; gen <= req.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if req.RetargetGenerations > 0 && gen > 1 && (gen-1)%req.RetargetGenerations == 0 {
			s.driver.RequestTarget()
		}
		if _, err := s.driver.Step(ctx); err != nil {
			runErr = err
			break
		}
	}
	if runErr != nil {
		return RunSummary{}, fmt.Errorf("run %s stopped at generation %d: %w", s.record.RunID, s.driver.Population().Generation(), runErr)
	}
	return s.finish(ctx)
}

// Session is a long-running population paced by a platform.Driver, the shape
// the HTTP server and the viewer need.
type Session struct {
	client *Client
	driver *platform.Driver
	record model.RunRecord
	scale  int
}

// NewSession prepares a paced run. Nothing ticks until Run is called.
func (c *Client) NewSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if req.Generations < 0 {
		return nil, errors.New("generations must be >= 0")
	}
	return c.newSession(ctx, req.RunRequest, platform.Config{
		Interval:       req.Interval,
		RetargetEvery:  req.RetargetEvery,
		MaxGenerations: req.Generations,
	})
}

func (s *Session) Driver() *platform.Driver {
	return s.driver
}

func (s *Session) RunID() string {
	return s.record.RunID
}

// Run blocks until ctx is cancelled or the generation bound is reached, then
// stores the run and writes its artifacts.
func (s *Session) Run(ctx context.Context) (RunSummary, error) {
	if err := s.driver.Run(ctx); err != nil {
		return RunSummary{}, err
	}
	return s.finish(context.WithoutCancel(ctx))
}

func (c *Client) newSession(ctx context.Context, req RunRequest, driverCfg platform.Config) (*Session, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	if req.Size <= 0 {
		req.Size = evo.DefaultSize
	}
	chance := evo.DefaultMutationChance
	if req.MutationChance != nil {
		chance = *req.MutationChance
	}
	if req.MutationDeltaMax <= 0 {
		req.MutationDeltaMax = evo.DefaultMutationDeltaMax
	}
	if req.SnapshotScale <= 0 {
		req.SnapshotScale = 1
	}

	pop, err := evo.New(evo.Config{
		Size:             req.Size,
		BandWidth:        req.BandWidth,
		MutationChance:   chance,
		MutationDeltaMax: req.MutationDeltaMax,
		Seed:             req.Seed,
	})
	if err != nil {
		return nil, err
	}
	tc, err := newTarget(req.Target, req.Seed+1)
	if err != nil {
		return nil, err
	}

	record := model.RunRecord{
		RunID:            uuid.NewString(),
		Size:             req.Size,
		BandWidth:        pop.BandWidth(),
		MutationChance:   chance,
		MutationDeltaMax: req.MutationDeltaMax,
		Seed:             req.Seed,
		CreatedAtUTC:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	driverCfg.RunID = record.RunID
	driver, err := platform.NewDriver(pop, tc, driverCfg, platform.Options{
		Store:   c.store,
		Metrics: c.metrics,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, err
	}
	return &Session{client: c, driver: driver, record: record, scale: req.SnapshotScale}, nil
}

func newTarget(value string, seed int64) (*target.Color, error) {
	if strings.TrimSpace(value) == "" {
		return target.New(seed), nil
	}
	initial, err := palette.Resolve(value)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	return target.NewFixed(seed, initial), nil
}

func (s *Session) finish(ctx context.Context) (RunSummary, error) {
	c := s.client
	if err := s.driver.Flush(ctx); err != nil {
		return RunSummary{}, err
	}
	diagnostics, _, err := c.store.GetGenerationDiagnostics(ctx, s.record.RunID)
	if err != nil {
		return RunSummary{}, err
	}

	record := s.record
	record.Generations = s.driver.Population().Generation()
	if n := len(diagnostics); n > 0 {
		record.FinalMeanFitness = diagnostics[n-1].MeanFitness
	}
	record = storage.Stamp(record)
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run %s: %w", record.RunID, err)
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config:                record,
		GenerationDiagnostics: diagnostics,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.WriteSnapshotPNG(filepath.Join(runDir, stats.SnapshotFile), s.driver.Render(), s.scale); err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.IndexEntryFor(record)); err != nil {
		return RunSummary{}, err
	}

	summary := stats.Summarize(diagnostics)
	c.logger.Info("run finished",
		"run_id", record.RunID,
		"generations", record.Generations,
		"initial_mean", summary.InitialMean,
		"final_mean", summary.FinalMean,
		"artifacts", runDir,
	)
	return RunSummary{
		RunID:        record.RunID,
		ArtifactsDir: filepath.Clean(runDir),
		Generations:  record.Generations,
		Summary:      summary,
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Size:             e.Size,
			BandWidth:        e.BandWidth,
			Seed:             e.Seed,
			Generations:      e.Generations,
			FinalMeanFitness: e.FinalMeanFitness,
		})
	}
	return out, nil
}

// Diagnostics reads per-generation diagnostics from the store, falling back
// to the artifacts directory for runs recorded by another process.
func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}
	if runID == "" {
		return nil, errors.New("diagnostics requires run id or latest")
	}

	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.artifactsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[len(diagnostics)-req.Limit:]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}
