package main

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

const (
	previewSize   = 800
	previewMargin = 20.0
)

// RenderPreview draws the modulated infill segments top-down onto a white
// canvas, colored by Z offset: blue at the deepest trough, red at the highest
// crest.
func RenderPreview(segs []Segment) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, previewSize, previewSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	if len(segs) == 0 {
		return img
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	maxOffset := 0.0
	for _, s := range segs {
		for _, p := range [2]mgl64.Vec2{s.From, s.To} {
			minX = math.Min(minX, p.X())
			minY = math.Min(minY, p.Y())
			maxX = math.Max(maxX, p.X())
			maxY = math.Max(maxY, p.Y())
		}
		maxOffset = math.Max(maxOffset, math.Abs(s.ZOffset))
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span <= 0 {
		span = 1
	}
	if maxOffset == 0 {
		maxOffset = 1
	}
	scale := (previewSize - 2*previewMargin) / span

	// G-code Y grows away from the operator, image Y grows down
	toPix := func(p mgl64.Vec2) fixed.Point26_6 {
		x := previewMargin + (p.X()-minX)*scale
		y := previewSize - (previewMargin + (p.Y()-minY)*scale)
		return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
	}

	scanner := rasterx.NewScannerGV(previewSize, previewSize, img, img.Bounds())
	scanner.SetClip(img.Bounds())
	stroker := rasterx.NewStroker(previewSize, previewSize, scanner)
	stroker.SetStroke(fixed.Int26_6(1.5*64), fixed.Int26_6(4*64),
		rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.Round)

	for _, s := range segs {
		t := (s.ZOffset/maxOffset + 1) / 2
		scanner.SetColor(colorful.Hsv(240*(1-t), 1, 0.9))
		stroker.Start(toPix(s.From))
		stroker.Line(toPix(s.To))
		stroker.Stop(false)
		stroker.Draw()
		stroker.Clear()
	}
	return img
}

func SavePreview(path string, segs []Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, RenderPreview(segs)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
