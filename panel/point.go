package panel

import (
	"github.com/marben/panel_mandel/arith"
	"github.com/marben/panel_mandel/region"
)

// Point is the escape-time state of one c.
//
// z starts at c with Age 1. Once Determined a point is never iterated again;
// the owning panel drops it from its live set.
type Point[T any] struct {
	Re, Im T // c

	zr, zi   T
	zr2, zi2 T

	Age        int
	Determined bool
	Formula    bool // bounded by a region predicate, never iterated
	Escaped    bool
	EscapeAge  int // valid when Escaped
}

// NewPoint classifies c with preds before falling back to the escape test.
func NewPoint[T any](ctx arith.Context[T], preds []region.Predicate[T], re, im T) Point[T] {
	p := Point[T]{Re: re, Im: im, zr: re, zi: im, Age: 1}
	if region.Any(preds, re, im) {
		p.Determined = true
		p.Formula = true
		return p
	}
	p.zr2 = ctx.Mul(re, re)
	p.zi2 = ctx.Mul(im, im)
	p.check(ctx)
	return p
}

// Iterate applies z = z² + c once.
func (p *Point[T]) Iterate(ctx arith.Context[T]) {
	k := ctx.Consts()
	zi := ctx.Add(ctx.Mul(ctx.Mul(k.Two, p.zr), p.zi), p.Im)
	p.zr = ctx.Add(ctx.Sub(p.zr2, p.zi2), p.Re)
	p.zi = zi
	p.zr2 = ctx.Mul(p.zr, p.zr)
	p.zi2 = ctx.Mul(p.zi, p.zi)
	p.Age++
	p.check(ctx)
}

// Z returns the current iterate.
func (p *Point[T]) Z() (T, T) {
	return p.zr, p.zi
}

func (p *Point[T]) check(ctx arith.Context[T]) {
	if escaped(ctx, p.zr, p.zi, p.zr2, p.zi2) {
		p.Determined = true
		p.Escaped = true
		p.EscapeAge = p.Age
	}
}

// escaped tests |z| > 2, trying each axis alone before the full sum.
func escaped[T any](ctx arith.Context[T], zr, zi, zr2, zi2 T) bool {
	k := ctx.Consts()
	if arith.Greater(ctx, zr, k.Two) || arith.Less(ctx, zr, k.NegTwo) ||
		arith.Greater(ctx, zi, k.Two) || arith.Less(ctx, zi, k.NegTwo) {
		return true
	}
	return arith.Greater(ctx, ctx.Add(zr2, zi2), k.Four)
}
