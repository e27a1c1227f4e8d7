package region

import "github.com/marben/panel_mandel/arith"

// Cardioid tests membership in the main cardioid.
type Cardioid[T any] struct {
	ctx   arith.Context[T]
	outer rect[T]
	inner []rect[T]
}

func NewCardioid[T any](ctx arith.Context[T]) *Cardioid[T] {
	return &Cardioid[T]{
		ctx:   ctx,
		outer: newRect(ctx, "-0.75", "0.375", "-0.65", "0.65"),
		inner: []rect[T]{
			newRect(ctx, "-0.5", "0.2", "-0.5", "0.5"),
			newRect(ctx, "-0.7", "0.2", "-0.15", "0.15"),
			newRect(ctx, "-0.1", "0.1", "-0.6", "0.6"),
		},
	}
}

// Exclude reports that the point is certainly outside.
func (c *Cardioid[T]) Exclude(re, im T) bool {
	return !c.outer.contains(c.ctx, re, im)
}

// Include reports that the point is certainly inside.
func (c *Cardioid[T]) Include(re, im T) bool {
	for _, r := range c.inner {
		if r.contains(c.ctx, re, im) {
			return true
		}
	}
	return false
}

// Exact checks |1 - sqrt(1 - 4c)| <= 1 with the principal square root.
func (c *Cardioid[T]) Exact(re, im T) bool {
	ctx := c.ctx
	k := ctx.Consts()

	// w = 1 - 4c
	a := ctx.Sub(k.One, ctx.Mul(k.Four, re))
	b := ctx.Mul(k.NegFour, im)

	r := ctx.Sqrt(ctx.Add(ctx.Mul(a, a), ctx.Mul(b, b)))
	u := sqrt(ctx, ctx.Mul(ctx.Add(r, a), k.Half))
	v := sqrt(ctx, ctx.Mul(ctx.Sub(r, a), k.Half))
	if ctx.Sign(b) < 0 {
		v = ctx.Neg(v)
	}

	du := ctx.Sub(k.One, u)
	return ctx.Cmp(ctx.Add(ctx.Mul(du, du), ctx.Mul(v, v)), k.One) <= 0
}

func (c *Cardioid[T]) Test(re, im T) bool {
	if c.Exclude(re, im) {
		return false
	}
	if c.Include(re, im) {
		return true
	}
	return c.Exact(re, im)
}
