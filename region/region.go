// Package region holds closed-form tests proving a point never escapes.
//
// Each predicate first tries an excluding box (cheap rejection), then
// including boxes (cheap acceptance), and only then the exact formula.
// Predicates keep their constants in the context they were built for and must
// be rebuilt when the context changes.
package region

import (
	"fmt"

	"github.com/marben/panel_mandel/arith"
)

// Predicate reports whether c = re + i·im is permanently bounded.
type Predicate[T any] interface {
	Test(re, im T) bool
}

// Default returns the predicates the engine short-circuits with.
func Default[T any](ctx arith.Context[T]) []Predicate[T] {
	return []Predicate[T]{
		NewCardioid(ctx),
		Period2(ctx),
	}
}

// Any reports whether any of preds accepts the point.
func Any[T any](preds []Predicate[T], re, im T) bool {
	for _, p := range preds {
		if p.Test(re, im) {
			return true
		}
	}
	return false
}

type rect[T any] struct {
	reMin, reMax T
	imMin, imMax T
}

func (r rect[T]) contains(ctx arith.Context[T], re, im T) bool {
	return ctx.Cmp(re, r.reMin) >= 0 && ctx.Cmp(re, r.reMax) <= 0 &&
		ctx.Cmp(im, r.imMin) >= 0 && ctx.Cmp(im, r.imMax) <= 0
}

func newRect[T any](ctx arith.Context[T], reMin, reMax, imMin, imMax string) rect[T] {
	return rect[T]{
		reMin: mustParse(ctx, reMin),
		reMax: mustParse(ctx, reMax),
		imMin: mustParse(ctx, imMin),
		imMax: mustParse(ctx, imMax),
	}
}

func mustParse[T any](ctx arith.Context[T], s string) T {
	v, err := ctx.Parse(s)
	if err != nil {
		panic(fmt.Sprintf("region: constant %q: %v", s, err))
	}
	return v
}

// sqrt clamps tiny negative rounding residue to zero.
func sqrt[T any](ctx arith.Context[T], x T) T {
	if ctx.Sign(x) < 0 {
		return ctx.Consts().Zero
	}
	return ctx.Sqrt(x)
}
