package model

import (
	"fmt"
	"strconv"
	"strings"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RGB holds channels as plain ints so breed and mutation arithmetic may leave
// [0,255] until the clamp pass of a generation.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

func (c RGB) Clamped() RGB {
	return RGB{R: clampChannel(c.R), G: clampChannel(c.G), B: clampChannel(c.B)}
}

func (c RGB) Hex() string {
	c = c.Clamped()
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// ParseHex accepts "#rrggbb" or "rrggbb".
func ParseHex(s string) (RGB, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(raw) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return RGB{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

type GenerationDiagnostics struct {
	Generation   int     `json:"generation"`
	Target       RGB     `json:"target"`
	BestFitness  int     `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	WorstFitness int     `json:"worst_fitness"`
	EliteCutoff  int     `json:"elite_cutoff"`
	WorstCutoff  int     `json:"worst_cutoff"`
	Mutations    int     `json:"mutations"`
}

type RunRecord struct {
	VersionedRecord
	RunID            string  `json:"run_id"`
	Size             int     `json:"size"`
	BandWidth        int     `json:"band_width"`
	MutationChance   int     `json:"mutation_chance"`
	MutationDeltaMax int     `json:"mutation_delta_max"`
	Seed             int64   `json:"seed"`
	Generations      int     `json:"generations"`
	CreatedAtUTC     string  `json:"created_at_utc"`
	FinalMeanFitness float64 `json:"final_mean_fitness"`
}
