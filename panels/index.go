package panels

import (
	"errors"
	"fmt"

	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/arith"
	"github.com/marben/panel_mandel/panel"
)

var (
	ErrView = errors.New("panels: invalid view")
	ErrZoom = errors.New("panels: zoom must be positive")
)

// Stripe reports whether panel (x, y) belongs to shard offset out of step.
func Stripe(x, y, step, offset int) bool {
	return mod(x+y-offset, step) == 0
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// Resolve lists the panels of v's stripe covering the viewport plus one panel
// of margin on every side.
//
// The center panel and the stripe residue are computed in the context's
// domain; only the small offsets around the center are native integers.
func Resolve[T any](ctx arith.Context[T], zoom T, v mandel.View) ([]mandel.Coord, error) {
	if v.Step < 1 || v.Offset < 0 || v.Offset >= v.Step {
		return nil, fmt.Errorf("%w: stripe %d of %d", ErrView, v.Offset, v.Step)
	}
	if v.Width <= 0 || v.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrView, v.Width, v.Height)
	}
	cre, err := ctx.Parse(v.CenterRe)
	if err != nil {
		return nil, fmt.Errorf("%w: center: %w", ErrView, err)
	}
	cim, err := ctx.Parse(v.CenterIm)
	if err != nil {
		return nil, fmt.Errorf("%w: center: %w", ErrView, err)
	}

	side := ctx.FromInt(panel.Side)
	x0 := ctx.Floor(ctx.Quo(ctx.Mul(cre, zoom), side))
	y0 := ctx.Floor(ctx.Quo(ctx.Neg(ctx.Mul(cim, zoom)), side))

	residue, err := ctx.Int(arith.Mod(ctx, ctx.Sub(ctx.Add(x0, y0), ctx.FromInt(int64(v.Offset))), v.Step))
	if err != nil {
		return nil, fmt.Errorf("%w: stripe residue: %w", ErrView, err)
	}

	hw := ceilDiv(v.Width, 2*panel.Side) + 1
	hh := ceilDiv(v.Height, 2*panel.Side) + 1

	xs := make([]string, 2*hw+1)
	for dx := -hw; dx <= hw; dx++ {
		xs[dx+hw] = ctx.Text(ctx.Add(x0, ctx.FromInt(int64(dx))))
	}

	var coords []mandel.Coord
	for dy := -hh; dy <= hh; dy++ {
		y := ctx.Text(ctx.Add(y0, ctx.FromInt(int64(dy))))
		for dx := -hw; dx <= hw; dx++ {
			if mod(residue+dx+dy, v.Step) != 0 {
				continue
			}
			coords = append(coords, mandel.Coord{X: xs[dx+hw], Y: y})
		}
	}
	return coords, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
