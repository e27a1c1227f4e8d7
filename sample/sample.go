// Package sample traces the orbit of a single point, outside of any panel.
package sample

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/marben/panel_mandel/arith"
	"github.com/marben/panel_mandel/panel"
	"github.com/marben/panel_mandel/region"
)

// DefaultMaxIterations bounds a trace when the request leaves it unset.
const DefaultMaxIterations = 1000

var ErrIterations = errors.New("sample: iteration limit must not be negative")

type Request struct {
	Re            string `json:"re"`
	Im            string `json:"im"`
	Precision     int    `json:"precision"`
	MaxIterations int    `json:"maxIterations,omitempty"`
}

type Z struct {
	Re string `json:"re"`
	Im string `json:"im"`
}

type Result struct {
	Request             Request `json:"request"`
	Runout              []Z     `json:"runout"`
	EscapeAge           *int    `json:"escapeAge"` // nil while bounded
	DeterminedByFormula bool    `json:"determinedByFormula"`
}

// Trace iterates c = Re + i·Im until it escapes or the iteration limit is
// reached. The runout starts with z = c. A point settled by a region formula
// has an empty runout.
func Trace(req Request) (Result, error) {
	if req.MaxIterations < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrIterations, req.MaxIterations)
	}
	if req.MaxIterations == 0 {
		req.MaxIterations = DefaultMaxIterations
	}
	if arith.IsNative(req.Precision) {
		return trace[float64](arith.NewNative(), req)
	}
	return trace[*apd.Decimal](arith.NewDecimal(req.Precision), req)
}

func trace[T any](ctx arith.Context[T], req Request) (Result, error) {
	re, err := ctx.Parse(req.Re)
	if err != nil {
		return Result{}, fmt.Errorf("re: %w", err)
	}
	im, err := ctx.Parse(req.Im)
	if err != nil {
		return Result{}, fmt.Errorf("im: %w", err)
	}

	res := Result{Request: req}
	p := panel.NewPoint(ctx, region.Default(ctx), re, im)
	if p.Formula {
		res.DeterminedByFormula = true
		return res, nil
	}

	for {
		zr, zi := p.Z()
		res.Runout = append(res.Runout, Z{Re: ctx.Text(zr), Im: ctx.Text(zi)})
		if p.Escaped {
			age := p.EscapeAge
			res.EscapeAge = &age
			return res, nil
		}
		if p.Age >= req.MaxIterations {
			return res, nil
		}
		p.Iterate(ctx)
	}
}
