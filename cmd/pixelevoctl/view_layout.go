package main

import "image"

const (
	viewSide    = 700
	viewBarH    = 48
	viewPadding = 8
	buttonW     = 96
	swatchW     = 64
)

// viewLayout places the frame, the target swatch and the change button in
// logical screen coordinates.
type viewLayout struct {
	Screen image.Rectangle
	Frame  image.Rectangle
	Swatch image.Rectangle
	Button image.Rectangle
	Label  image.Point
}

func newViewLayout() viewLayout {
	barTop := viewSide + viewPadding
	barBottom := viewSide + viewBarH - viewPadding
	return viewLayout{
		Screen: image.Rect(0, 0, viewSide, viewSide+viewBarH),
		Frame:  image.Rect(0, 0, viewSide, viewSide),
		Swatch: image.Rect(viewPadding, barTop, viewPadding+swatchW, barBottom),
		Button: image.Rect(viewSide-viewPadding-buttonW, barTop, viewSide-viewPadding, barBottom),
		Label:  image.Pt(2*viewPadding+swatchW, barTop+(barBottom-barTop)/2+4),
	}
}

// frameScale is the factor that stretches a size x size frame over the
// frame area.
func (l viewLayout) frameScale(size int) float64 {
	if size <= 0 {
		return 1
	}
	return float64(l.Frame.Dx()) / float64(size)
}

func (l viewLayout) buttonHit(x, y int) bool {
	return image.Pt(x, y).In(l.Button)
}
