//go:build !noview

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"pixelevo/internal/palette"
	"pixelevo/internal/platform"
	"pixelevo/pkg/pixelevo"
)

var (
	barColor    = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	buttonColor = color.RGBA{R: 0x50, G: 0x50, B: 0x50, A: 0xff}
)

func runView(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	common := addClientFlags(fs)
	reqFlags := addRequestFlags(fs, 0)
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := reqFlags.request()
	if err != nil {
		return err
	}
	logger, err := common.logger(os.Stderr)
	if err != nil {
		return err
	}
	client, err := common.client(logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	session, err := client.NewSession(ctx, req)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	type result struct {
		summary pixelevo.RunSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := session.Run(runCtx)
		done <- result{summary: summary, err: err}
	}()

	layout := newViewLayout()
	ebiten.SetWindowSize(layout.Screen.Dx(), layout.Screen.Dy())
	ebiten.SetWindowTitle("pixelevo")
	gameErr := ebiten.RunGame(newViewer(runCtx, session.Driver(), layout))

	cancel()
	res := <-done
	if gameErr != nil {
		return gameErr
	}
	if res.err != nil && !errors.Is(res.err, context.Canceled) {
		return res.err
	}
	fmt.Printf("run stopped run_id=%s generations=%d final_mean=%.3f artifacts=%s\n",
		res.summary.RunID, res.summary.Generations, res.summary.Summary.FinalMean, res.summary.ArtifactsDir)
	return nil
}

// viewer draws the latest published frame each ebiten frame. It never
// advances the population; the driver goroutine does that.
type viewer struct {
	ctx     context.Context
	driver  *platform.Driver
	layout  viewLayout
	frame   *image.RGBA
	texture *ebiten.Image
	scale   float64
}

func newViewer(ctx context.Context, d *platform.Driver, layout viewLayout) *viewer {
	size := d.Population().Size()
	return &viewer{
		ctx:     ctx,
		driver:  d,
		layout:  layout,
		frame:   image.NewRGBA(image.Rect(0, 0, size, size)),
		texture: ebiten.NewImage(size, size),
		scale:   layout.frameScale(size),
	}
}

func (v *viewer) Update() error {
	if v.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.driver.RequestTarget()
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if x, y := ebiten.CursorPosition(); v.layout.buttonHit(x, y) {
			v.driver.RequestTarget()
		}
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	if err := v.driver.RenderInto(v.frame); err == nil {
		v.texture.WritePixels(v.frame.Pix)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(v.scale, v.scale)
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(v.texture, op)

	bar := v.layout.Screen
	bar.Min.Y = v.layout.Frame.Max.Y
	fillRect(screen, bar, barColor)

	target := v.driver.PeekTarget()
	fillRect(screen, v.layout.Swatch, color.RGBA{R: uint8(target.R), G: uint8(target.G), B: uint8(target.B), A: 0xff})
	label := target.Hex()
	if name := palette.NameOf(target); name != "" {
		label = name + " " + label
	}
	label = fmt.Sprintf("%s  gen %d", label, v.driver.Population().Generation())
	text.Draw(screen, label, basicfont.Face7x13, v.layout.Label.X, v.layout.Label.Y, color.White)

	fillRect(screen, v.layout.Button, buttonColor)
	b := v.layout.Button
	vector.StrokeRect(screen, float32(b.Min.X), float32(b.Min.Y), float32(b.Dx()), float32(b.Dy()), 1, color.White, false)
	text.Draw(screen, "Change", basicfont.Face7x13, b.Min.X+(b.Dx()-6*7)/2, b.Min.Y+b.Dy()/2+4, color.White)
}

func (v *viewer) Layout(_, _ int) (int, int) {
	return v.layout.Screen.Dx(), v.layout.Screen.Dy()
}

func fillRect(dst *ebiten.Image, r image.Rectangle, clr color.Color) {
	vector.DrawFilledRect(dst, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), clr, false)
}
