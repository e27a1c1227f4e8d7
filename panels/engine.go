package panels

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/arith"
)

// Engine is a Cache with its number type erased, as held by a shard.
type Engine interface {
	SetView(v mandel.View) error
	Iterate() bool
	Busy() bool
	Dirty() bool
	Flush() []mandel.Snapshot
	Stats() mandel.Stats
	Active() []mandel.Coord
	Len() int
	Precision() int
}

var (
	_ Engine = (*Cache[float64])(nil)
	_ Engine = (*Cache[*apd.Decimal])(nil)
)

// New selects the arithmetic for s.Precision and returns an empty cache at s.Zoom.
func New(s mandel.Setup) (Engine, error) {
	if arith.IsNative(s.Precision) {
		c, err := newCache[float64](arith.NewNative(), s.Zoom)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := newCache[*apd.Decimal](arith.NewDecimal(s.Precision), s.Zoom)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newCache[T any](ctx arith.Context[T], zoomText string) (*Cache[T], error) {
	zoom, err := ctx.Parse(zoomText)
	if err != nil {
		return nil, fmt.Errorf("zoom: %w", err)
	}
	return NewCache(ctx, zoom)
}
