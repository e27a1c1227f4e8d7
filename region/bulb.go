package region

import "github.com/marben/panel_mandel/arith"

// Bulb tests membership in a circular bulb.
type Bulb[T any] struct {
	Name string

	ctx      arith.Context[T]
	re, im   T
	radius   T
	radius2  T
	halfSide T // inscribed square
}

// NewBulb builds a disk predicate around centerRe + i·centerIm.
func NewBulb[T any](ctx arith.Context[T], name, centerRe, centerIm, radius string) *Bulb[T] {
	k := ctx.Consts()
	r := mustParse(ctx, radius)
	return &Bulb[T]{
		Name:     name,
		ctx:      ctx,
		re:       mustParse(ctx, centerRe),
		im:       mustParse(ctx, centerIm),
		radius:   r,
		radius2:  ctx.Mul(r, r),
		halfSide: ctx.Mul(ctx.Mul(r, k.Sqrt2), k.Half),
	}
}

// Period2 is the disk of radius 1/4 around -1.
func Period2[T any](ctx arith.Context[T]) *Bulb[T] {
	return NewBulb(ctx, "period2", "-1", "0", "0.25")
}

func (b *Bulb[T]) String() string { return b.Name }

func (b *Bulb[T]) offsets(re, im T) (T, T) {
	return b.ctx.Abs(b.ctx.Sub(re, b.re)), b.ctx.Abs(b.ctx.Sub(im, b.im))
}

// Exclude reports that the point lies outside the bounding square.
func (b *Bulb[T]) Exclude(re, im T) bool {
	dre, dim := b.offsets(re, im)
	return arith.Greater(b.ctx, dre, b.radius) || arith.Greater(b.ctx, dim, b.radius)
}

// Include reports that the point lies inside the inscribed square.
func (b *Bulb[T]) Include(re, im T) bool {
	dre, dim := b.offsets(re, im)
	return arith.Less(b.ctx, dre, b.halfSide) && arith.Less(b.ctx, dim, b.halfSide)
}

func (b *Bulb[T]) Exact(re, im T) bool {
	ctx := b.ctx
	dre, dim := b.offsets(re, im)
	return ctx.Cmp(ctx.Add(ctx.Mul(dre, dre), ctx.Mul(dim, dim)), b.radius2) <= 0
}

func (b *Bulb[T]) Test(re, im T) bool {
	if b.Exclude(re, im) {
		return false
	}
	if b.Include(re, im) {
		return true
	}
	return b.Exact(re, im)
}
