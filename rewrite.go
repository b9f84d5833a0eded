package main

import (
	"fmt"
	"io"
	"log"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

type Options struct {
	Frequency float64
	Amplitude float64

	// SegmentLength splits infill moves longer than this many mm into
	// interpolated segments so the sine wave is resolved along the move.
	// Zero keeps every line intact. Splitting assumes relative extrusion.
	SegmentLength float64

	Log *log.Logger
}

// Segment is one modulated infill move in the XY plane, kept for the preview.
type Segment struct {
	From, To mgl64.Vec2
	ZOffset  float64
}

type Result struct {
	Lines    []string
	Infill   []Segment
	Modified int
	Regions  int
}

type rewriter struct {
	opts Options

	// solid infill layer heights, sorted, from the prescan
	solidHeights []float64

	pos      mgl64.Vec2
	hasPos   bool
	z        float64
	inInfill bool

	below, above       float64
	hasBelow, hasAbove bool

	out *Result
}

// ProcessGCode runs the rewriting pass over the line sequence of a sliced
// G-code file. Lines outside infill regions are passed through untouched; the
// Z of each extruding move inside an infill region is modulated by
// amplitude*sin(frequency*x), tapered off near neighboring solid layers.
func ProcessGCode(lines []string, opts Options) *Result {
	if opts.Log == nil {
		opts.Log = log.New(io.Discard, "", 0)
	}
	r := &rewriter{
		opts:         opts,
		solidHeights: scanSolidLayers(lines),
		out:          &Result{Lines: make([]string, 0, len(lines))},
	}
	r.updateLayerBounds()

	for _, raw := range lines {
		r.line(raw)
	}

	opts.Log.Printf("modulated %d moves in %d infill regions (%d solid layers found)",
		r.out.Modified, r.out.Regions, len(r.solidHeights))
	return r.out
}

// scanSolidLayers records the layer height of every solid-infill region so
// the modulation can fade out next to top and bottom surfaces.
func scanSolidLayers(lines []string) []float64 {
	var z float64
	var heights []float64
	for _, raw := range lines {
		l := ParseLine(raw)
		if l.OK() && l.Cmd == "G1" && l.HasZ {
			z = l.Z
		}
		if isSolidInfill(raw) {
			heights = append(heights, z)
		}
	}
	sort.Float64s(heights)
	return heights
}

func (r *rewriter) line(raw string) {
	l := ParseLine(raw)

	// Malformed lines are opaque: emit as-is, touch no state.
	if !l.OK() {
		r.out.Lines = append(r.out.Lines, raw)
		return
	}

	if l.Cmd == "G1" && l.HasZ {
		r.z = l.Z
		r.updateLayerBounds()
	}

	if isInfillStart(raw) {
		if !r.inInfill {
			r.out.Regions++
		}
		r.inInfill = true
	} else if isRegionBoundary(raw) {
		r.inInfill = false
	}

	eligible := r.inInfill && l.IsMotion() && l.HasX && l.HasY && l.HasE
	if !eligible {
		r.out.Lines = append(r.out.Lines, raw)
		if l.IsMotion() && l.HasX && l.HasY {
			r.pos, r.hasPos = mgl64.Vec2{l.X, l.Y}, true
		}
		return
	}

	target := mgl64.Vec2{l.X, l.Y}
	scale := r.taper()

	if r.opts.SegmentLength > 0 && r.hasPos && r.split(l, target, scale) {
		r.pos = target
		return
	}

	from := target
	if r.hasPos {
		from = r.pos
	}
	zNew := r.modZ(target.X(), scale)
	r.out.Lines = append(r.out.Lines, l.WithZ(zNew))
	r.out.Infill = append(r.out.Infill, Segment{From: from, To: target, ZOffset: zNew - r.z})
	r.out.Modified++
	r.pos, r.hasPos = target, true
}

// split replaces one long infill move with ceil(dist/length) interpolated
// moves, dividing the extrusion evenly. Returns false when the move is short
// enough to keep as a single line.
func (r *rewriter) split(l Line, target mgl64.Vec2, scale float64) bool {
	delta := target.Sub(r.pos)
	n := int(math.Ceil(delta.Len() / r.opts.SegmentLength))
	if n < 2 {
		return false
	}

	step := delta.Mul(1 / float64(n))
	e := l.E / float64(n)
	for i := 1; i <= n; i++ {
		p := r.pos.Add(step.Mul(float64(i)))
		z := r.modZ(p.X(), scale)
		s := fmt.Sprintf("G1 X%.3f Y%.3f Z%.3f E%.5f", p.X(), p.Y(), z, e)
		if i == 1 && l.HasF {
			s += fmt.Sprintf(" F%g", l.F)
		}
		if l.cr {
			s += "\r"
		}
		r.out.Lines = append(r.out.Lines, s)
		r.out.Infill = append(r.out.Infill, Segment{
			From:    r.pos.Add(step.Mul(float64(i - 1))),
			To:      p,
			ZOffset: z - r.z,
		})
	}
	r.out.Modified++
	return true
}

func (r *rewriter) modZ(x, scale float64) float64 {
	return r.z + r.opts.Amplitude*scale*math.Sin(r.opts.Frequency*x)
}

// taper scales the amplitude down between the nearest solid layers below and
// above the current height, so the wave flattens out against top and bottom
// surfaces. Full amplitude when either bound is unknown.
func (r *rewriter) taper() float64 {
	if !r.hasBelow || !r.hasAbove {
		return 1
	}
	total := r.above - r.below
	if total <= 0 {
		return 1
	}
	f := math.Min(r.above-r.z, r.z-r.below) / total
	return math.Max(0, math.Min(1, f))
}

func (r *rewriter) updateLayerBounds() {
	r.hasBelow, r.hasAbove = false, false
	i := sort.SearchFloat64s(r.solidHeights, r.z)
	for j := i - 1; j >= 0; j-- {
		if r.solidHeights[j] < r.z {
			r.below, r.hasBelow = r.solidHeights[j], true
			break
		}
	}
	for j := i; j < len(r.solidHeights); j++ {
		if r.solidHeights[j] > r.z {
			r.above, r.hasAbove = r.solidHeights[j], true
			break
		}
	}
}
