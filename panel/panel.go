// Package panel computes fixed-size square tiles of the plane.
package panel

import (
	"fmt"
	"image"

	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/arith"
	"github.com/marben/panel_mandel/region"
)

// Side is the panel edge in pixels.
const Side = 32

// Panel is a Side×Side grid of points anchored at a panel coordinate.
type Panel[T any] struct {
	Coord mandel.Coord

	ctx   arith.Context[T]
	preds []region.Predicate[T]
	zoom  T
	re    T // center
	im    T

	img     *image.RGBA
	points  []Point[T]
	live    []int
	formula int
	age     int
	dirty   bool
}

// New prepares the panel at coord. Call Initiate before use.
func New[T any](ctx arith.Context[T], preds []region.Predicate[T], coord mandel.Coord, zoom T) (*Panel[T], error) {
	x, err := ctx.Parse(coord.X)
	if err != nil {
		return nil, fmt.Errorf("panel %s: %w", coord, err)
	}
	y, err := ctx.Parse(coord.Y)
	if err != nil {
		return nil, fmt.Errorf("panel %s: %w", coord, err)
	}

	side := ctx.FromInt(Side)
	half := ctx.FromInt(Side / 2)
	re := ctx.Quo(ctx.Add(ctx.Mul(x, side), half), zoom)
	im := ctx.Neg(ctx.Quo(ctx.Add(ctx.Mul(y, side), half), zoom))

	return &Panel[T]{
		Coord: coord,
		ctx:   ctx,
		preds: preds,
		zoom:  zoom,
		re:    re,
		im:    im,
		img:   image.NewRGBA(image.Rect(0, 0, Side, Side)),
	}, nil
}

// Initiate materializes every point. Points settled right away are painted.
func (p *Panel[T]) Initiate() {
	ctx := p.ctx

	// pixel offsets from the center, shared by rows and columns
	offsets := make([]T, Side)
	for i := range offsets {
		offsets[i] = ctx.Quo(ctx.FromInt(int64(i-Side/2)), p.zoom)
	}

	p.points = make([]Point[T], 0, Side*Side)
	p.live = p.live[:0]
	var settled []int
	for j := 0; j < Side; j++ {
		im := ctx.Sub(p.im, offsets[j])
		for i := 0; i < Side; i++ {
			re := ctx.Add(p.re, offsets[i])
			idx := len(p.points)
			p.points = append(p.points, NewPoint(ctx, p.preds, re, im))
			if p.points[idx].Determined {
				settled = append(settled, idx)
			} else {
				p.live = append(p.live, idx)
			}
		}
	}
	p.age = 1
	p.paint(settled)
}

// Iterate advances every live point once and reports whether any settled.
func (p *Panel[T]) Iterate() bool {
	if len(p.live) == 0 {
		return false
	}
	p.age++

	var settled []int
	n := 0
	for _, idx := range p.live {
		pt := &p.points[idx]
		pt.Iterate(p.ctx)
		if pt.Determined {
			settled = append(settled, idx)
			continue
		}
		p.live[n] = idx
		n++
	}
	p.live = p.live[:n]

	p.paint(settled)
	return len(settled) > 0
}

func (p *Panel[T]) paint(idxs []int) {
	for _, idx := range idxs {
		pt := &p.points[idx]
		if pt.Formula {
			p.formula++
		}
		p.img.SetRGBA(idx%Side, idx/Side, pointColor(pt.Formula, pt.Escaped, pt.EscapeAge))
	}
	if len(idxs) > 0 {
		p.dirty = true
	}
}

// Snapshot clears the dirty flag and encodes the current image.
// A panel bounded entirely by formula yields a nil bitmap.
func (p *Panel[T]) Snapshot() mandel.Snapshot {
	p.dirty = false
	s := mandel.Snapshot{Coord: p.Coord, Side: Side}
	if p.Blank() {
		return s
	}
	s.Bitmap = EncodeBitmap(p.img)
	return s
}

// Blank reports whether every point was settled by a region predicate.
func (p *Panel[T]) Blank() bool {
	return p.formula == Side*Side
}

func (p *Panel[T]) Dirty() bool { return p.dirty }

// Age is one more than the number of iterations applied.
func (p *Panel[T]) Age() int { return p.age }

// Live is the number of undetermined points.
func (p *Panel[T]) Live() int { return len(p.live) }

// Image exposes the pixel buffer. Callers must not modify it.
func (p *Panel[T]) Image() *image.RGBA { return p.img }

// Point returns the point rendered at pixel (i, j).
func (p *Panel[T]) Point(i, j int) *Point[T] {
	return &p.points[j*Side+i]
}
