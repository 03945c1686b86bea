package evo

import (
	"errors"
	"fmt"
	"image"
	"math/rand"
	"sync"

	"pixelevo/internal/model"
)

const (
	DefaultSize             = 700
	DefaultMutationChance   = 10
	DefaultMutationDeltaMax = 32

	// Each band spans one cell per bandDivisor cells of the grid.
	bandDivisor = 10000
)

var (
	ErrEmptyBand   = errors.New("elite and worst bands are empty")
	ErrBandOverlap = errors.New("elite and worst bands leave no middle band")
)

// Cell is one grid position. X and Y never change; Color and Fitness are
// rewritten every generation.
type Cell struct {
	X       int32
	Y       int32
	Color   model.RGB
	Fitness int
}

type Config struct {
	Size      int
	BandWidth int
	// MutationChance is an inclusive threshold against a draw in [0,99], so
	// 10 mutates 11 times out of 100. Negative values disable mutation.
	MutationChance   int
	MutationDeltaMax int
	Seed             int64
}

func DefaultConfig() Config {
	return Config{
		Size:             DefaultSize,
		MutationChance:   DefaultMutationChance,
		MutationDeltaMax: DefaultMutationDeltaMax,
	}
}

// BandWidthFor returns the elite/worst band width derived from a grid size.
func BandWidthFor(size int) int {
	return size * size / bandDivisor
}

func (c Config) bandWidth() int {
	if c.BandWidth > 0 {
		return c.BandWidth
	}
	return BandWidthFor(c.Size)
}

func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("size must be > 0")
	}
	if c.BandWidth < 0 {
		return fmt.Errorf("band width must be >= 0")
	}
	if c.MutationDeltaMax <= 0 {
		return fmt.Errorf("mutation delta max must be > 0")
	}
	n := c.bandWidth()
	cells := c.Size * c.Size
	if n == 0 {
		return fmt.Errorf("%w: size %d gives %d cells, need at least %d", ErrEmptyBand, c.Size, cells, bandDivisor)
	}
	if 2*n >= cells {
		return fmt.Errorf("%w: band width %d with %d cells", ErrBandOverlap, n, cells)
	}
	return nil
}

// Population owns the grid of cells. Tick is the only writer of cells;
// readers go through the published frame.
type Population struct {
	cfg  Config
	size int
	band int
	rng  *rand.Rand

	tickMu     sync.Mutex
	cells      []Cell
	back       *image.RGBA
	generation int

	frameMu      sync.RWMutex
	front        *image.RGBA
	publishedGen int
}

// New builds a size x size population with uniformly random colors. A
// configuration whose bands would be empty or overlapping is rejected here,
// before any generation runs.
func New(cfg Config) (*Population, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Population{
		cfg:   cfg,
		size:  cfg.Size,
		band:  cfg.bandWidth(),
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		cells: make([]Cell, 0, cfg.Size*cfg.Size),
		back:  image.NewRGBA(image.Rect(0, 0, cfg.Size, cfg.Size)),
		front: image.NewRGBA(image.Rect(0, 0, cfg.Size, cfg.Size)),
	}
	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			p.cells = append(p.cells, Cell{
				X: int32(x),
				Y: int32(y),
				Color: model.RGB{
					R: p.rng.Intn(256),
					G: p.rng.Intn(256),
					B: p.rng.Intn(256),
				},
			})
		}
	}
	p.clampAndPaint()
	p.publish()
	return p, nil
}

func (p *Population) Config() Config {
	return p.cfg
}

func (p *Population) Size() int {
	return p.size
}

func (p *Population) Len() int {
	return p.size * p.size
}

func (p *Population) BandWidth() int {
	return p.band
}

// Generation reports how many generations have been published.
func (p *Population) Generation() int {
	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	return p.publishedGen
}

// Cells returns a copy of the working sequence in its current order.
func (p *Population) Cells() []Cell {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()
	return append([]Cell(nil), p.cells...)
}

// MeanFitness scores the current colors against t without touching the
// stored per-cell fitness.
func (p *Population) MeanFitness(t model.RGB) float64 {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	if len(p.cells) == 0 {
		return 0
	}
	total := 0
	for i := range p.cells {
		total += Fitness(p.cells[i].Color, t)
	}
	return float64(total) / float64(len(p.cells))
}
