// Package arith provides the numeric backends the fractal engine runs on.
//
// Every component is written against Context[T]. Native (float64) is used up
// to NativeDigits significant digits, Decimal (cockroachdb/apd) beyond that.
// Values created by one context must never be handed to another one; the
// type parameter keeps the two backends apart at compile time.
package arith

import "errors"

// NativeDigits is the largest precision float64 serves.
const NativeDigits = 19

var (
	ErrSyntax = errors.New("arith: invalid number")
	ErrRange  = errors.New("arith: value out of native integer range")
)

// Consts are the named constants of a context.
type Consts[T any] struct {
	Zero, Half, One T
	Sqrt2, NegSqrt2 T
	Two, NegTwo     T
	Four, NegFour   T
}

// Context is the table of operations over values of type T.
type Context[T any] interface {
	// Precision in significant digits, 0 for native.
	Precision() int
	Consts() *Consts[T]

	FromInt(i int64) T
	FromFloat(f float64) T
	Parse(s string) (T, error)

	Add(x, y T) T
	Sub(x, y T) T
	Mul(x, y T) T
	Quo(x, y T) T
	Neg(x T) T
	Abs(x T) T
	Sqrt(x T) T

	Floor(x T) T
	Ceil(x T) T
	Round(x T) T
	Sign(x T) int
	Cmp(x, y T) int

	// Float64 converts x to the nearest float64.
	Float64(x T) float64
	// Int converts an integral x to int.
	Int(x T) (int, error)
	// Text is the canonical decimal representation of x.
	Text(x T) string
}

// IsNative reports whether precision is served by the float64 backend.
// Unset (<= 0) precision is native.
func IsNative(precision int) bool {
	return precision <= NativeDigits
}

// Mod returns the non-negative remainder of the integral x modulo m.
func Mod[T any](ctx Context[T], x T, m int) T {
	mm := ctx.FromInt(int64(m))
	q := ctx.Floor(ctx.Quo(x, mm))
	return ctx.Sub(x, ctx.Mul(q, mm))
}

// Less reports x < y.
func Less[T any](ctx Context[T], x, y T) bool {
	return ctx.Cmp(x, y) < 0
}

// Greater reports x > y.
func Greater[T any](ctx Context[T], x, y T) bool {
	return ctx.Cmp(x, y) > 0
}
