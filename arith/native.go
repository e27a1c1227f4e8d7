package arith

import (
	"fmt"
	"math"
	"strconv"
)

// Native is the float64 context.
type Native struct {
	k *Consts[float64]
}

var _ Context[float64] = Native{}

var nativeConsts = Consts[float64]{
	Zero: 0, Half: 0.5, One: 1,
	Sqrt2: math.Sqrt2, NegSqrt2: -math.Sqrt2,
	Two: 2, NegTwo: -2,
	Four: 4, NegFour: -4,
}

func NewNative() Native {
	return Native{k: &nativeConsts}
}

func (Native) Precision() int { return 0 }

func (n Native) Consts() *Consts[float64] { return n.k }

func (Native) FromInt(i int64) float64 { return float64(i) }
func (Native) FromFloat(f float64) float64 { return f }

func (Native) Parse(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	return f, nil
}

func (Native) Add(x, y float64) float64 { return x + y }
func (Native) Sub(x, y float64) float64 { return x - y }
func (Native) Mul(x, y float64) float64 { return x * y }
func (Native) Quo(x, y float64) float64 { return x / y }
func (Native) Neg(x float64) float64 { return -x }
func (Native) Abs(x float64) float64 { return math.Abs(x) }
func (Native) Sqrt(x float64) float64 { return math.Sqrt(x) }
func (Native) Floor(x float64) float64 { return math.Floor(x) }
func (Native) Ceil(x float64) float64 { return math.Ceil(x) }
func (Native) Round(x float64) float64 { return math.RoundToEven(x) }

func (Native) Sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func (Native) Cmp(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func (Native) Float64(x float64) float64 { return x }

func (Native) Int(x float64) (int, error) {
	if x != math.Trunc(x) || x > math.MaxInt32 || x < math.MinInt32 {
		return 0, fmt.Errorf("%w: %v", ErrRange, x)
	}
	return int(x), nil
}

func (Native) Text(x float64) string {
	if x == 0 {
		return "0"
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
