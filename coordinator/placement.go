package coordinator

import (
	"fmt"
	"image"

	"github.com/cockroachdb/apd/v3"
	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/arith"
	"github.com/marben/panel_mandel/panel"
)

// placement maps panel coordinates to pixels of the current view.
// It always runs on decimals so deep zoom positions stay exact.
type placement struct {
	ctx      *arith.Decimal
	left     *apd.Decimal // global pixel of the view's left edge
	top      *apd.Decimal
	centerRe string
	centerIm string
	width    int
	height   int
}

func newPlacement(s mandel.Setup, centerRe, centerIm string, width, height int) (*placement, error) {
	digits := 2*max(s.Precision, arith.NativeDigits) + 20
	ctx := arith.NewDecimal(digits)

	zoom, err := ctx.Parse(s.Zoom)
	if err != nil {
		return nil, fmt.Errorf("zoom: %w", err)
	}
	re, err := ctx.Parse(centerRe)
	if err != nil {
		return nil, fmt.Errorf("center: %w", err)
	}
	im, err := ctx.Parse(centerIm)
	if err != nil {
		return nil, fmt.Errorf("center: %w", err)
	}

	halfW := ctx.Quo(ctx.FromInt(int64(width)), ctx.Consts().Two)
	halfH := ctx.Quo(ctx.FromInt(int64(height)), ctx.Consts().Two)
	return &placement{
		ctx:      ctx,
		left:     ctx.Sub(ctx.Mul(re, zoom), halfW),
		top:      ctx.Sub(ctx.Neg(ctx.Mul(im, zoom)), halfH),
		centerRe: centerRe,
		centerIm: centerIm,
		width:    width,
		height:   height,
	}, nil
}

// rezoom keeps the view center under a new setup.
func (p *placement) rezoom(s mandel.Setup) *placement {
	np, err := newPlacement(s, p.centerRe, p.centerIm, p.width, p.height)
	if err != nil {
		return nil
	}
	return np
}

func (p *placement) locate(c mandel.Coord) (image.Point, error) {
	ctx := p.ctx
	side := ctx.FromInt(panel.Side)

	x, err := ctx.Parse(c.X)
	if err != nil {
		return image.Point{}, err
	}
	y, err := ctx.Parse(c.Y)
	if err != nil {
		return image.Point{}, err
	}

	px, err := ctx.Int(ctx.Floor(ctx.Sub(ctx.Mul(x, side), p.left)))
	if err != nil {
		return image.Point{}, err
	}
	py, err := ctx.Int(ctx.Floor(ctx.Sub(ctx.Mul(y, side), p.top)))
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(px, py), nil
}
