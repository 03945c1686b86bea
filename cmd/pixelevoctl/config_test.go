package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pixelevo/pkg/pixelevo"
)

func writeConfig(t *testing.T, payload map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run_config.json")
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunRequestFromConfig(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"size":                 200,
		"band_width":           3,
		"generations":          40,
		"mutation_chance":      25,
		"mutation_delta_max":   16,
		"seed":                 77,
		"target":               "orange",
		"retarget_generations": 10,
		"snapshot_scale":       2,
		"interval_ms":          250,
		"retarget_ms":          5000,
		"unknown":              "ignored",
	})

	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}
	if req.Size != 200 || req.BandWidth != 3 || req.Generations != 40 || req.Seed != 77 {
		t.Fatalf("unexpected base fields: %+v", req)
	}
	if chanceOf(req) != 25 || req.MutationDeltaMax != 16 {
		t.Fatalf("unexpected mutation fields: chance=%d delta=%d", chanceOf(req), req.MutationDeltaMax)
	}
	if req.Target != "orange" || req.RetargetGenerations != 10 || req.SnapshotScale != 2 {
		t.Fatalf("unexpected target fields: %+v", req)
	}
	if req.Interval != 250*time.Millisecond || req.RetargetEvery != 5*time.Second {
		t.Fatalf("unexpected pacing: interval=%s retarget=%s", req.Interval, req.RetargetEvery)
	}
}

// chanceOf reports the requested mutation chance, or -100 when unset.
func chanceOf(req pixelevo.SessionRequest) int {
	if req.MutationChance == nil {
		return -100
	}
	return *req.MutationChance
}

func TestLoadRunRequestMutationChance(t *testing.T) {
	req, err := loadRunRequestFromConfig(writeConfig(t, map[string]any{"mutation_chance": 0}))
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}
	if chanceOf(req) != 0 {
		t.Fatalf("expected explicit zero chance, got %d", chanceOf(req))
	}

	req, err = loadRunRequestFromConfig(writeConfig(t, map[string]any{"size": 100}))
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}
	if req.MutationChance != nil {
		t.Fatalf("absent mutation_chance should stay unset, got %d", *req.MutationChance)
	}
}

func TestLoadRunRequestDisableMutation(t *testing.T) {
	path := writeConfig(t, map[string]any{"mutation_chance": 30, "disable_mutation": true})
	req, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load run request: %v", err)
	}
	if chanceOf(req) != -1 {
		t.Fatalf("expected mutation disabled, got chance %d", chanceOf(req))
	}
}

func TestLoadOrDefaultRunRequestErrors(t *testing.T) {
	if _, err := loadOrDefaultRunRequest(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing config")
	}
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadOrDefaultRunRequest(bad); err == nil {
		t.Fatal("expected error for malformed config")
	}
	req, err := loadOrDefaultRunRequest("")
	if err != nil || req.Size != 0 {
		t.Fatalf("expected zero request without config, got %+v err=%v", req, err)
	}
}

func TestRequestFlagsOverrideOnlyExplicitFlagsWithConfig(t *testing.T) {
	path := writeConfig(t, map[string]any{"size": 200, "seed": 5, "target": "red"})

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := addRequestFlags(fs, 100)
	if err := fs.Parse([]string{"--config", path, "--seed", "9", "--no-mutation"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	req, err := f.request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Size != 200 || req.Target != "red" {
		t.Fatalf("config values should survive: %+v", req)
	}
	if req.Seed != 9 {
		t.Fatalf("explicit flag should win, got seed %d", req.Seed)
	}
	if chanceOf(req) != -1 {
		t.Fatalf("expected mutation disabled, got %d", chanceOf(req))
	}
	if req.Generations != 0 {
		t.Fatalf("unset flag default should not apply over a config file, got gens %d", req.Generations)
	}
}

func TestRequestFlagsDefaultsWithoutConfig(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := addRequestFlags(fs, 100)
	if err := fs.Parse([]string{"--size", "150"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	req, err := f.request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Size != 150 || req.Generations != 100 || chanceOf(req) != 10 || req.MutationDeltaMax != 32 {
		t.Fatalf("unexpected defaults: %+v", req)
	}
}

func TestRequestFlagsMutationChanceWithoutConfig(t *testing.T) {
	cases := []struct {
		args []string
		want int
	}{
		{args: []string{"--mutation-chance", "0"}, want: 0},
		{args: []string{"--mutation-chance", "40"}, want: 40},
		{args: []string{"--no-mutation"}, want: -1},
		{args: []string{"--mutation-chance", "40", "--no-mutation"}, want: -1},
	}
	for _, tc := range cases {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		f := addRequestFlags(fs, 100)
		if err := fs.Parse(tc.args); err != nil {
			t.Fatalf("parse %v: %v", tc.args, err)
		}
		req, err := f.request()
		if err != nil {
			t.Fatalf("request %v: %v", tc.args, err)
		}
		if got := chanceOf(req); got != tc.want {
			t.Fatalf("args %v: expected chance %d, got %d", tc.args, tc.want, got)
		}
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger(os.Stderr, "json", "debug"); err != nil {
		t.Fatalf("json logger: %v", err)
	}
	if _, err := newLogger(os.Stderr, "text", "WARN"); err != nil {
		t.Fatalf("text logger: %v", err)
	}
	if _, err := newLogger(os.Stderr, "xml", "info"); err == nil {
		t.Fatal("expected unsupported format error")
	}
	if _, err := newLogger(os.Stderr, "text", "loud"); err == nil {
		t.Fatal("expected bad level error")
	}
}
