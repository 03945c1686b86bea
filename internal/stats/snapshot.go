package stats

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/anthonynsimon/bild/transform"
)

// ScaleFrame enlarges a rendered frame by an integer factor. Nearest
// neighbour keeps every cell a crisp square.
func ScaleFrame(img image.Image, scale int) image.Image {
	if scale <= 1 {
		return img
	}
	b := img.Bounds()
	return transform.Resize(img, b.Dx()*scale, b.Dy()*scale, transform.NearestNeighbor)
}

// WriteSnapshotPNG writes img to path, scaled by scale when scale > 1.
func WriteSnapshotPNG(path string, img image.Image, scale int) error {
	if img == nil {
		return fmt.Errorf("snapshot image is required")
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, ScaleFrame(img, scale)); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return file.Close()
}
