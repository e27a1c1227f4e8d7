package arith

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"
)

// Decimal is an arbitrary precision decimal context.
// Operations allocate a fresh value, operands are never modified.
type Decimal struct {
	ctx *apd.Context
	k   *Consts[*apd.Decimal]
}

var _ Context[*apd.Decimal] = (*Decimal)(nil)

// NewDecimal returns a context rounding every result to digits significant digits.
func NewDecimal(digits int) *Decimal {
	if digits < 1 {
		digits = 1
	}
	ctx := apd.BaseContext.WithPrecision(uint32(digits))
	ctx.Rounding = apd.RoundHalfEven
	d := &Decimal{ctx: ctx}

	sqrt2 := d.Sqrt(apd.New(2, 0))
	d.k = &Consts[*apd.Decimal]{
		Zero:     apd.New(0, 0),
		Half:     apd.New(5, -1),
		One:      apd.New(1, 0),
		Sqrt2:    sqrt2,
		NegSqrt2: d.Neg(sqrt2),
		Two:      apd.New(2, 0),
		NegTwo:   apd.New(-2, 0),
		Four:     apd.New(4, 0),
		NegFour:  apd.New(-4, 0),
	}
	return d
}

func (d *Decimal) Precision() int { return int(d.ctx.Precision) }

func (d *Decimal) Consts() *Consts[*apd.Decimal] { return d.k }

// op runs fn into a fresh value. Trapped conditions are programming errors
// (division by zero, square root of a negative) and panic.
func (d *Decimal) op(fn func(z *apd.Decimal) (apd.Condition, error)) *apd.Decimal {
	z := new(apd.Decimal)
	if _, err := fn(z); err != nil {
		panic(fmt.Errorf("arith: %w", err))
	}
	return z
}

func (d *Decimal) FromInt(i int64) *apd.Decimal {
	return apd.New(i, 0)
}

func (d *Decimal) FromFloat(f float64) *apd.Decimal {
	z, err := new(apd.Decimal).SetFloat64(f)
	if err != nil {
		panic(fmt.Errorf("arith: %w", err))
	}
	return d.op(func(r *apd.Decimal) (apd.Condition, error) { return d.ctx.Round(r, z) })
}

func (d *Decimal) Parse(s string) (*apd.Decimal, error) {
	x, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	z := new(apd.Decimal)
	if _, err := d.ctx.Round(z, x); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSyntax, s, err)
	}
	return z, nil
}

func (d *Decimal) Add(x, y *apd.Decimal) *apd.Decimal {
	return d.op(func(z *apd.Decimal) (apd.Condition, error) { return d.ctx.Add(z, x, y) })
}

func (d *Decimal) Sub(x, y *apd.Decimal) *apd.Decimal {
	return d.op(func(z *apd.Decimal) (apd.Condition, error) { return d.ctx.Sub(z, x, y) })
}

func (d *Decimal) Mul(x, y *apd.Decimal) *apd.Decimal {
	return d.op(func(z *apd.Decimal) (apd.Condition, error) { return d.ctx.Mul(z, x, y) })
}

func (d *Decimal) Quo(x, y *apd.Decimal) *apd.Decimal {
	return d.op(func(z *apd.Decimal) (apd.Condition, error) { return d.ctx.Quo(z, x, y) })
}

func (d *Decimal) Neg(x *apd.Decimal) *apd.Decimal {
	return d.op(func(z *apd.Decimal) (apd.Condition, error) { return d.ctx.Neg(z, x) })
}

func (d *Decimal) Abs(x *apd.Decimal) *apd.Decimal {
	return d.op(func(z *apd.Decimal) (apd.Condition, error) { return d.ctx.Abs(z, x) })
}

func (d *Decimal) Sqrt(x *apd.Decimal) *apd.Decimal {
	return d.op(func(z *apd.Decimal) (apd.Condition, error) { return d.ctx.Sqrt(z, x) })
}

func (d *Decimal) Floor(x *apd.Decimal) *apd.Decimal {
	return d.op(func(z *apd.Decimal) (apd.Condition, error) { return d.ctx.Floor(z, x) })
}

func (d *Decimal) Ceil(x *apd.Decimal) *apd.Decimal {
	return d.op(func(z *apd.Decimal) (apd.Condition, error) { return d.ctx.Ceil(z, x) })
}

func (d *Decimal) Round(x *apd.Decimal) *apd.Decimal {
	return d.op(func(z *apd.Decimal) (apd.Condition, error) { return d.ctx.RoundToIntegralValue(z, x) })
}

func (d *Decimal) Sign(x *apd.Decimal) int { return x.Sign() }

func (d *Decimal) Cmp(x, y *apd.Decimal) int { return x.Cmp(y) }

func (d *Decimal) Float64(x *apd.Decimal) float64 {
	f, err := x.Float64()
	if err != nil {
		// out of float64 range
		if x.Sign() < 0 {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	return f
}

func (d *Decimal) Int(x *apd.Decimal) (int, error) {
	i, err := x.Int64()
	if err != nil || i > math.MaxInt32 || i < math.MinInt32 {
		return 0, fmt.Errorf("%w: %s", ErrRange, x.Text('f'))
	}
	return int(i), nil
}

func (d *Decimal) Text(x *apd.Decimal) string {
	if x.Sign() == 0 {
		return "0"
	}
	return x.Text('f')
}
