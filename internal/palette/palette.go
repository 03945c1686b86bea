package palette

import (
	"fmt"
	"math/rand"
	"strings"

	"pixelevo/internal/model"
)

type Entry struct {
	Name  string
	Color model.RGB
}

var entries = []Entry{
	{Name: "black", Color: model.RGB{R: 0, G: 0, B: 0}},
	{Name: "blue", Color: model.RGB{R: 0, G: 0, B: 255}},
	{Name: "gray", Color: model.RGB{R: 128, G: 128, B: 128}},
	{Name: "green", Color: model.RGB{R: 0, G: 255, B: 0}},
	{Name: "cyan", Color: model.RGB{R: 0, G: 255, B: 255}},
	{Name: "red", Color: model.RGB{R: 255, G: 0, B: 0}},
	{Name: "white", Color: model.RGB{R: 255, G: 255, B: 255}},
	{Name: "yellow", Color: model.RGB{R: 255, G: 255, B: 0}},
	{Name: "orange", Color: model.RGB{R: 255, G: 200, B: 0}},
	{Name: "magenta", Color: model.RGB{R: 255, G: 0, B: 255}},
	{Name: "light-gray", Color: model.RGB{R: 192, G: 192, B: 192}},
	{Name: "pink", Color: model.RGB{R: 255, G: 175, B: 175}},
}

// All returns a copy of the palette in its canonical order.
func All() []Entry {
	return append([]Entry(nil), entries...)
}

func Len() int {
	return len(entries)
}

func Lookup(name string) (model.RGB, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	for _, entry := range entries {
		if entry.Name == key {
			return entry.Color, nil
		}
	}
	return model.RGB{}, fmt.Errorf("unknown palette color: %s", name)
}

// NameOf reports the palette name for c, or "" when c is not a palette color.
func NameOf(c model.RGB) string {
	for _, entry := range entries {
		if entry.Color == c {
			return entry.Name
		}
	}
	return ""
}

func Random(rng *rand.Rand) model.RGB {
	return entries[rng.Intn(len(entries))].Color
}

// Resolve accepts a palette name or a hex color.
func Resolve(value string) (model.RGB, error) {
	if c, err := Lookup(value); err == nil {
		return c, nil
	}
	c, err := model.ParseHex(value)
	if err != nil {
		return model.RGB{}, fmt.Errorf("target must be a palette name or hex color: %q", value)
	}
	return c, nil
}
