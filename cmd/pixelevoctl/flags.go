package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"pixelevo/internal/evo"
	"pixelevo/internal/metrics"
	"pixelevo/internal/platform"
	"pixelevo/internal/storage"
	"pixelevo/pkg/pixelevo"
)

const (
	defaultArtifactsDir = "runs"
	defaultDBPath       = "pixelevo.db"
)

type clientFlags struct {
	storeKind    *string
	dbPath       *string
	artifactsDir *string
	logLevel     *string
	logFormat    *string
}

func addClientFlags(fs *flag.FlagSet) *clientFlags {
	return &clientFlags{
		storeKind:    fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", defaultDBPath, "sqlite database path"),
		artifactsDir: fs.String("artifacts-dir", defaultArtifactsDir, "directory for run artifacts and the run index"),
		logLevel:     fs.String("log-level", "info", "log level: debug|info|warn|error"),
		logFormat:    fs.String("log-format", "text", "log format: text|json"),
	}
}

func (f *clientFlags) logger(w io.Writer) (*slog.Logger, error) {
	return newLogger(w, *f.logFormat, *f.logLevel)
}

func (f *clientFlags) client(logger *slog.Logger, collector *metrics.Collector) (*pixelevo.Client, error) {
	return pixelevo.New(pixelevo.Options{
		StoreKind:    *f.storeKind,
		DBPath:       *f.dbPath,
		ArtifactsDir: *f.artifactsDir,
		Logger:       logger,
		Metrics:      collector,
	})
}

type requestFlags struct {
	fs             *flag.FlagSet
	configPath     *string
	size           *int
	bandWidth      *int
	generations    *int
	mutationChance *int
	mutationDelta  *int
	noMutation     *bool
	seed           *int64
	target         *string
	retargetGens   *int
	snapshotScale  *int
	interval       *time.Duration
	retargetEvery  *time.Duration
}

func addRequestFlags(fs *flag.FlagSet, defaultGenerations int) *requestFlags {
	return &requestFlags{
		fs:             fs,
		configPath:     fs.String("config", "", "optional run config JSON path"),
		size:           fs.Int("size", evo.DefaultSize, "grid side length in cells"),
		bandWidth:      fs.Int("band-width", 0, "elite/worst band width (0 derives size*size/10000)"),
		generations:    fs.Int("gens", defaultGenerations, "generation count (0 runs until interrupted where supported)"),
		mutationChance: fs.Int("mutation-chance", evo.DefaultMutationChance, "inclusive mutation threshold against a 0..99 draw"),
		mutationDelta:  fs.Int("mutation-delta", evo.DefaultMutationDeltaMax, "exclusive bound of a per-channel mutation step"),
		noMutation:     fs.Bool("no-mutation", false, "disable mutation"),
		seed:           fs.Int64("seed", 1, "rng seed"),
		target:         fs.String("target", "", "initial target: palette name or #rrggbb (empty draws one)"),
		retargetGens:   fs.Int("retarget-gens", 0, "headless: request a new palette color every N generations (0 disables)"),
		snapshotScale:  fs.Int("snapshot-scale", 1, "upscale factor of the final frame artifact"),
		interval:       fs.Duration("interval", platform.DefaultInterval, "paced: time between generations"),
		retargetEvery:  fs.Duration("retarget-every", 0, "paced: request a new palette color on this cadence (0 disables)"),
	}
}

func (f *requestFlags) values() map[string]any {
	return map[string]any{
		"size":            *f.size,
		"band-width":      *f.bandWidth,
		"gens":            *f.generations,
		"mutation-chance": *f.mutationChance,
		"mutation-delta":  *f.mutationDelta,
		"no-mutation":     *f.noMutation,
		"seed":            *f.seed,
		"target":          *f.target,
		"retarget-gens":   *f.retargetGens,
		"snapshot-scale":  *f.snapshotScale,
		"interval":        *f.interval,
		"retarget-every":  *f.retargetEvery,
	}
}

// request merges the optional config file with the parsed flags. Without a
// config file every flag applies, defaults included.
func (f *requestFlags) request() (pixelevo.SessionRequest, error) {
	req, err := loadOrDefaultRunRequest(*f.configPath)
	if err != nil {
		return pixelevo.SessionRequest{}, err
	}
	set := make(map[string]bool)
	if *f.configPath == "" {
		f.fs.VisitAll(func(fl *flag.Flag) {
			set[fl.Name] = true
		})
	} else {
		f.fs.Visit(func(fl *flag.Flag) {
			set[fl.Name] = true
		})
	}
	overrideFromFlags(&req, set, f.values())
	return req, nil
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}
