package target

import (
	"math/rand"
	"sync"

	"pixelevo/internal/model"
	"pixelevo/internal/palette"
)

// Color is the shared target color. Every read and write goes through one
// mutex, so a generation's snapshot never observes a half-written value.
type Color struct {
	mu       sync.Mutex
	rng      *rand.Rand
	current  model.RGB
	changes  uint64
	onChange func(model.RGB)
}

// New picks an initial palette color using seed.
func New(seed int64) *Color {
	c := &Color{rng: rand.New(rand.NewSource(seed))}
	c.current = palette.Random(c.rng)
	return c
}

// NewFixed starts from an explicit color instead of a random palette draw.
func NewFixed(seed int64, initial model.RGB) *Color {
	return &Color{
		rng:     rand.New(rand.NewSource(seed)),
		current: initial.Clamped(),
	}
}

// OnChange registers fn to run after every write. fn runs outside the lock.
func (c *Color) OnChange(fn func(model.RGB)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Request draws a new color uniformly from the palette and stores it.
func (c *Color) Request() model.RGB {
	c.mu.Lock()
	next := palette.Random(c.rng)
	c.current = next
	c.changes++
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(next)
	}
	return next
}

func (c *Color) Store(next model.RGB) {
	next = next.Clamped()

	c.mu.Lock()
	c.current = next
	c.changes++
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(next)
	}
}

func (c *Color) Get() model.RGB {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Snapshot returns the value a generation evaluates against.
func (c *Color) Snapshot() model.RGB {
	return c.Get()
}

func (c *Color) Changes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changes
}
