package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"pixelevo/pkg/pixelevo"
)

// loadRunRequestFromConfig reads a JSON run config. Unknown keys are ignored
// and absent keys leave the zero value so request defaults still apply.
func loadRunRequestFromConfig(path string) (pixelevo.SessionRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pixelevo.SessionRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return pixelevo.SessionRequest{}, err
	}

	var req pixelevo.SessionRequest
	if v, ok := asInt(raw["size"]); ok {
		req.Size = v
	}
	if v, ok := asInt(raw["band_width"]); ok {
		req.BandWidth = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt(raw["mutation_chance"]); ok {
		req.MutationChance = &v
	}
	if v, ok := asInt(raw["mutation_delta_max"]); ok {
		req.MutationDeltaMax = v
	}
	if v, ok := asBool(raw["disable_mutation"]); ok && v {
		req.MutationChance = mutationDisabled()
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asString(raw["target"]); ok {
		req.Target = v
	}
	if v, ok := asInt(raw["retarget_generations"]); ok {
		req.RetargetGenerations = v
	}
	if v, ok := asInt(raw["snapshot_scale"]); ok {
		req.SnapshotScale = v
	}
	if v, ok := asInt(raw["interval_ms"]); ok {
		req.Interval = time.Duration(v) * time.Millisecond
	}
	if v, ok := asInt(raw["retarget_ms"]); ok {
		req.RetargetEvery = time.Duration(v) * time.Millisecond
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

// overrideFromFlags applies only the flags the user set explicitly, so a
// config file value survives unless the command line names it.
func overrideFromFlags(req *pixelevo.SessionRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "size":
			req.Size = v.(int)
		case "band-width":
			req.BandWidth = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "mutation-chance":
			chance := v.(int)
			req.MutationChance = &chance
		case "mutation-delta":
			req.MutationDeltaMax = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "target":
			req.Target = v.(string)
		case "retarget-gens":
			req.RetargetGenerations = v.(int)
		case "snapshot-scale":
			req.SnapshotScale = v.(int)
		case "interval":
			req.Interval = v.(time.Duration)
		case "retarget-every":
			req.RetargetEvery = v.(time.Duration)
		}
	}
	// --no-mutation wins over --mutation-chance regardless of map order.
	if set["no-mutation"] {
		if v, ok := flagValue["no-mutation"].(bool); ok && v {
			req.MutationChance = mutationDisabled()
		}
	}
}

func mutationDisabled() *int {
	disabled := -1
	return &disabled
}

func loadOrDefaultRunRequest(configPath string) (pixelevo.SessionRequest, error) {
	if configPath == "" {
		return pixelevo.SessionRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return pixelevo.SessionRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}
