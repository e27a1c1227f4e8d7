// Package panels keeps the panels of one shard and decides which are active.
package panels

import (
	"fmt"

	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/arith"
	"github.com/marben/panel_mandel/panel"
	"github.com/marben/panel_mandel/region"
)

// Cache maps panel coordinates to panels computed at one zoom and precision.
// Panels are created on first use and kept until the cache is dropped.
type Cache[T any] struct {
	ctx   arith.Context[T]
	preds []region.Predicate[T]
	zoom  T

	panels map[mandel.Coord]*panel.Panel[T]
	active []*panel.Panel[T]
}

func NewCache[T any](ctx arith.Context[T], zoom T) (*Cache[T], error) {
	if ctx.Sign(zoom) <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrZoom, ctx.Text(zoom))
	}
	return &Cache[T]{
		ctx:    ctx,
		preds:  region.Default(ctx),
		zoom:   zoom,
		panels: make(map[mandel.Coord]*panel.Panel[T]),
	}, nil
}

// SetView activates the panels of v's stripe.
func (c *Cache[T]) SetView(v mandel.View) error {
	coords, err := Resolve(c.ctx, c.zoom, v)
	if err != nil {
		return err
	}
	return c.SetActivePanels(coords)
}

// SetActivePanels makes coords the active list, creating missing panels.
// Inactive panels stay cached and untouched. Repeated coordinates are
// activated once.
func (c *Cache[T]) SetActivePanels(coords []mandel.Coord) error {
	active := make([]*panel.Panel[T], 0, len(coords))
	seen := make(map[mandel.Coord]bool, len(coords))
	for _, coord := range coords {
		if seen[coord] {
			continue
		}
		seen[coord] = true

		p, ok := c.panels[coord]
		if !ok {
			var err error
			p, err = panel.New(c.ctx, c.preds, coord, c.zoom)
			if err != nil {
				return err
			}
			p.Initiate()
			c.panels[coord] = p
		}
		active = append(active, p)
	}
	c.active = active
	return nil
}

// Iterate advances every active panel once.
func (c *Cache[T]) Iterate() bool {
	changed := false
	for _, p := range c.active {
		if p.Iterate() {
			changed = true
		}
	}
	return changed
}

// Busy reports whether any active panel has undetermined points.
func (c *Cache[T]) Busy() bool {
	for _, p := range c.active {
		if p.Live() > 0 {
			return true
		}
	}
	return false
}

// Dirty reports whether any active panel changed since its last snapshot.
func (c *Cache[T]) Dirty() bool {
	for _, p := range c.active {
		if p.Dirty() {
			return true
		}
	}
	return false
}

// Flush snapshots the dirty active panels.
func (c *Cache[T]) Flush() []mandel.Snapshot {
	var snaps []mandel.Snapshot
	for _, p := range c.active {
		if p.Dirty() {
			snaps = append(snaps, p.Snapshot())
		}
	}
	return snaps
}

// Stats reports the deepest iteration among active panels.
func (c *Cache[T]) Stats() mandel.Stats {
	var s mandel.Stats
	for _, p := range c.active {
		s = s.Merge(mandel.Stats{Iterations: p.Age()})
	}
	return s
}

// Len is the number of cached panels, active or not.
func (c *Cache[T]) Len() int { return len(c.panels) }

// Active lists the active coordinates in resolution order.
func (c *Cache[T]) Active() []mandel.Coord {
	coords := make([]mandel.Coord, len(c.active))
	for i, p := range c.active {
		coords[i] = p.Coord
	}
	return coords
}

// Panel returns the cached panel at coord.
func (c *Cache[T]) Panel(coord mandel.Coord) (*panel.Panel[T], bool) {
	p, ok := c.panels[coord]
	return p, ok
}

func (c *Cache[T]) Precision() int { return c.ctx.Precision() }
