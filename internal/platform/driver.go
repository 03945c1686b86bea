package platform

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"pixelevo/internal/evo"
	"pixelevo/internal/metrics"
	"pixelevo/internal/model"
	"pixelevo/internal/storage"
	"pixelevo/internal/target"
)

const (
	DefaultInterval     = 500 * time.Millisecond
	defaultHistoryLimit = 1024
	defaultFlushEvery   = 16
)

var errGenerationLimit = errors.New("generation limit reached")

type Config struct {
	RunID string
	// Interval is the tick cadence of Run.
	Interval time.Duration
	// RetargetEvery requests a new palette color on this cadence. Zero disables it.
	RetargetEvery  time.Duration
	MaxGenerations int
	HistoryLimit   int
	FlushEvery     int
}

type Options struct {
	Store   storage.Store
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

// Driver owns the periodic generation loop around one population and its
// target color. The population itself has no threads of its own.
type Driver struct {
	cfg     Config
	pop     *evo.Population
	target  *target.Color
	store   storage.Store
	metrics *metrics.Collector
	logger  *slog.Logger

	mu      sync.RWMutex
	history []model.GenerationDiagnostics
	pending []model.GenerationDiagnostics
}

func NewDriver(pop *evo.Population, tc *target.Color, cfg Config, opts Options) (*Driver, error) {
	if pop == nil {
		return nil, fmt.Errorf("population is required")
	}
	if tc == nil {
		return nil, fmt.Errorf("target color is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RetargetEvery < 0 {
		return nil, fmt.Errorf("retarget interval must be >= 0")
	}
	if cfg.MaxGenerations < 0 {
		return nil, fmt.Errorf("max generations must be >= 0")
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = defaultFlushEvery
	}
	if opts.Store != nil && cfg.RunID == "" {
		return nil, fmt.Errorf("run id is required when a store is configured")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", cfg.RunID)

	d := &Driver{
		cfg:     cfg,
		pop:     pop,
		target:  tc,
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  logger,
	}
	if d.metrics != nil {
		d.metrics.SetTarget(tc.Get())
	}
	tc.OnChange(d.targetChanged)
	return d, nil
}

func (d *Driver) targetChanged(next model.RGB) {
	if d.metrics != nil {
		d.metrics.ObserveTarget(next)
	}
	d.logger.Info("target color changed", "target", next.Hex())
}

// Step runs one generation synchronously and records its diagnostics.
func (d *Driver) Step(ctx context.Context) (model.GenerationDiagnostics, error) {
	start := time.Now()
	diag := d.pop.Tick(d.target)
	elapsed := time.Since(start)

	if d.metrics != nil {
		d.metrics.ObserveGeneration(diag, elapsed)
	}
	d.logger.Debug("generation",
		"generation", diag.Generation,
		"target", diag.Target.Hex(),
		"best", diag.BestFitness,
		"mean", diag.MeanFitness,
		"worst", diag.WorstFitness,
		"mutations", diag.Mutations,
		"elapsed", elapsed,
	)

	d.mu.Lock()
	d.history = append(d.history, diag)
	if over := len(d.history) - d.cfg.HistoryLimit; over > 0 {
		d.history = append(d.history[:0], d.history[over:]...)
	}
	d.pending = append(d.pending, diag)
	flush := len(d.pending) >= d.cfg.FlushEvery
	d.mu.Unlock()

	if flush {
		if err := d.Flush(ctx); err != nil {
			return diag, err
		}
	}
	return diag, nil
}

// Flush writes buffered diagnostics to the store, if any.
func (d *Driver) Flush(ctx context.Context) error {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	if d.store == nil || len(pending) == 0 {
		return nil
	}
	if err := d.store.AppendGenerationDiagnostics(ctx, d.cfg.RunID, pending); err != nil {
		return fmt.Errorf("store diagnostics for run %s: %w", d.cfg.RunID, err)
	}
	return nil
}

// Run ticks on the configured cadence until ctx is cancelled or the
// generation limit is reached. Cancellation is a normal stop.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info("evolution started",
		"cells", d.pop.Len(),
		"band_width", d.pop.BandWidth(),
		"interval", d.cfg.Interval,
		"target", d.target.Get().Hex(),
	)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(d.tickLoop)
	if d.cfg.RetargetEvery > 0 {
		p.Go(d.retargetLoop)
	}
	err := p.Wait()

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if flushErr := d.Flush(flushCtx); flushErr != nil {
		d.logger.Error("final flush failed", "error", flushErr)
		if stoppedNormally(err) {
			return flushErr
		}
		return err
	}
	if !stoppedNormally(err) {
		return err
	}
	d.logger.Info("evolution stopped", "generation", d.pop.Generation())
	return nil
}

func stoppedNormally(err error) bool {
	return err == nil ||
		errors.Is(err, errGenerationLimit) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (d *Driver) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			diag, err := d.Step(ctx)
			if err != nil {
				return err
			}
			if d.cfg.MaxGenerations > 0 && diag.Generation >= d.cfg.MaxGenerations {
				return errGenerationLimit
			}
		}
	}
}

func (d *Driver) retargetLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.RetargetEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.RequestTarget()
		}
	}
}

// RequestTarget switches the target to a random palette color.
func (d *Driver) RequestTarget() model.RGB {
	return d.target.Request()
}

func (d *Driver) SetTarget(c model.RGB) {
	d.target.Store(c)
}

func (d *Driver) PeekTarget() model.RGB {
	return d.target.Get()
}

func (d *Driver) Render() *image.RGBA {
	return d.pop.Render()
}

func (d *Driver) RenderInto(dst *image.RGBA) error {
	return d.pop.RenderInto(dst)
}

func (d *Driver) Population() *evo.Population {
	return d.pop
}

func (d *Driver) RunID() string {
	return d.cfg.RunID
}

// History returns the most recent diagnostics, oldest first.
func (d *Driver) History() []model.GenerationDiagnostics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.GenerationDiagnostics(nil), d.history...)
}
