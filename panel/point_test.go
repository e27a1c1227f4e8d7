package panel

import (
	"math"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/marben/panel_mandel/arith"
	"github.com/marben/panel_mandel/region"
)

func run[T any](ctx arith.Context[T], p *Point[T], limit int) {
	for !p.Determined && p.Age < limit {
		p.Iterate(ctx)
	}
}

func TestPointScenarios(t *testing.T) {
	ctx := arith.NewNative()
	preds := region.Default[float64](ctx)

	p := NewPoint(ctx, preds, -1, 0)
	if !p.Determined || !p.Formula || p.Escaped || p.Age != 1 {
		t.Fatalf("c=-1: %+v, want determined by formula without iterating", p)
	}

	p = NewPoint(ctx, preds, 0.25, 0)
	if !p.Determined || !p.Formula || p.Escaped {
		t.Fatalf("c=0.25: %+v, want bounded by cardioid", p)
	}

	p = NewPoint(ctx, preds, 1, 1)
	if p.Determined {
		t.Fatalf("c=1+1i escaped at construction, |c|^2 = 2")
	}
	p.Iterate(ctx)
	if zr, zi := p.Z(); zr != 1 || zi != 3 {
		t.Fatalf("c=1+1i: z2 = %v+%vi, want 1+3i", zr, zi)
	}
	if !p.Escaped || p.EscapeAge != 2 {
		t.Fatalf("c=1+1i: %+v, want escape at age 2", p)
	}
}

func TestOriginNeverEscapes(t *testing.T) {
	ctx := arith.NewNative()
	// no predicates: force plain iteration
	p := NewPoint[float64](ctx, nil, 0, 0)
	run[float64](ctx, &p, 10000)
	if p.Determined {
		t.Fatalf("c=0 escaped at age %d", p.EscapeAge)
	}
}

func TestOutsideDiskEscapes(t *testing.T) {
	ctx := arith.NewNative()
	for i := 0; i < 360; i += 7 {
		a := float64(i) * math.Pi / 180
		for _, r := range []float64{2.0001, 2.5, 10} {
			p := NewPoint[float64](ctx, nil, r*math.Cos(a), r*math.Sin(a))
			// |z| grows at least geometrically once above 2
			run[float64](ctx, &p, 64)
			if !p.Escaped {
				t.Fatalf("c=%v·e^(i%d°) did not escape within 64 iterations", r, i)
			}
		}
	}
}

func TestDecimalMatchesNative(t *testing.T) {
	n := arith.NewNative()
	d := arith.NewDecimal(30)

	for _, c := range [][2]string{{"-0.75", "0.1"}, {"0.3", "0.5"}, {"-1.8", "0.01"}, {"0.26", "0"}} {
		nre, _ := n.Parse(c[0])
		nim, _ := n.Parse(c[1])
		np := NewPoint(n, region.Default[float64](n), nre, nim)
		run[float64](n, &np, 500)

		dre, _ := d.Parse(c[0])
		dim, _ := d.Parse(c[1])
		dp := NewPoint(d, region.Default[*apd.Decimal](d), dre, dim)
		run[*apd.Decimal](d, &dp, 500)

		if np.Escaped != dp.Escaped || np.EscapeAge != dp.EscapeAge || np.Formula != dp.Formula {
			t.Fatalf("c=%s+%si: native %+v vs decimal escaped=%v age=%d", c[0], c[1], np, dp.Escaped, dp.EscapeAge)
		}
	}
}
