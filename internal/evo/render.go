package evo

import (
	"fmt"
	"image"
)

// clampAndPaint clamps every cell and writes it into the back frame at its
// own coordinates.
func (p *Population) clampAndPaint() {
	pix := p.back.Pix
	stride := p.back.Stride
	for i := range p.cells {
		cell := &p.cells[i]
		cell.Color = cell.Color.Clamped()
		off := int(cell.Y)*stride + int(cell.X)*4
		pix[off] = uint8(cell.Color.R)
		pix[off+1] = uint8(cell.Color.G)
		pix[off+2] = uint8(cell.Color.B)
		pix[off+3] = 0xff
	}
}

func (p *Population) publish() {
	p.frameMu.Lock()
	p.front, p.back = p.back, p.front
	p.publishedGen = p.generation
	p.frameMu.Unlock()
}

// Render returns a copy of the latest published frame.
func (p *Population) Render() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, p.size, p.size))
	_ = p.RenderInto(dst)
	return dst
}

// RenderInto copies the latest published frame into dst, which must be
// size x size. It never blocks on a generation in progress.
func (p *Population) RenderInto(dst *image.RGBA) error {
	if dst == nil {
		return fmt.Errorf("render target is required")
	}
	if dst.Rect.Dx() != p.size || dst.Rect.Dy() != p.size {
		return fmt.Errorf("render target is %dx%d, want %dx%d", dst.Rect.Dx(), dst.Rect.Dy(), p.size, p.size)
	}

	p.frameMu.RLock()
	defer p.frameMu.RUnlock()
	if dst.Stride == p.front.Stride && dst.Rect.Min == p.front.Rect.Min {
		copy(dst.Pix, p.front.Pix)
		return nil
	}
	rowBytes := p.size * 4
	for y := 0; y < p.size; y++ {
		src := p.front.Pix[y*p.front.Stride : y*p.front.Stride+rowBytes]
		copy(dst.Pix[dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y):], src)
	}
	return nil
}
