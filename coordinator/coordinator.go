// Package coordinator spawns the shards of one session and merges their
// results into the tiles the renderer draws.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/panels"
	"github.com/marben/panel_mandel/shard"
)

// MaxShards caps the number of shards regardless of the CPU count.
const MaxShards = 8

const DefaultTimeToIdle = 2 * time.Second

var ErrShape = errors.New("coordinator: view dimensions must be positive")

type Config struct {
	Shards      int           // <= 0: one per CPU up to MaxShards
	FramePeriod time.Duration // pushed to shards as the minimum time between flushes
	TimeToIdle  time.Duration // pushed with every view
	IdleBackoff time.Duration
	Logger      *log.Logger
}

func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = runtime.NumCPU()
	}
	if c.Shards > MaxShards {
		c.Shards = MaxShards
	}
	if c.FramePeriod <= 0 {
		c.FramePeriod = shard.DefaultFramePeriod
	}
	if c.TimeToIdle <= 0 {
		c.TimeToIdle = DefaultTimeToIdle
	}
	if c.Logger == nil {
		c.Logger = log.New(os.Stderr, "coordinator: ", log.LstdFlags)
	}
	return c
}

type Coordinator struct {
	cfg    Config
	log    *log.Logger
	shards []*shard.Shard
	msgs   chan mandel.Message
	wg     sync.WaitGroup

	m          sync.Mutex
	reference  int
	configured bool
	setup      mandel.Setup
	place      *placement
	snapshots  map[mandel.Coord]mandel.Tile
	updates    map[mandel.Coord]mandel.Tile
	fromBlank  bool
	stats      mandel.Stats
}

var _ mandel.TileProvider = (*Coordinator)(nil)

// New creates the shards. They do not run until Start.
func New(cfg Config) *Coordinator {
	cfg = cfg.withDefaults()
	c := &Coordinator{
		cfg:       cfg,
		log:       cfg.Logger,
		msgs:      make(chan mandel.Message, cfg.Shards),
		snapshots: make(map[mandel.Coord]mandel.Tile),
		updates:   make(map[mandel.Coord]mandel.Tile),
	}
	for i := 0; i < cfg.Shards; i++ {
		c.shards = append(c.shards, shard.New(shard.Config{
			Index:       i,
			FramePeriod: cfg.FramePeriod,
			IdleBackoff: cfg.IdleBackoff,
			Logger:      log.New(cfg.Logger.Writer(), fmt.Sprintf("shard %d: ", i), cfg.Logger.Flags()),
		}, c.msgs))
	}
	return c
}

// Start runs the shards and the message pump until ctx is done.
func (c *Coordinator) Start(ctx context.Context) {
	for _, s := range c.shards {
		c.wg.Add(1)
		go func(s *shard.Shard) {
			defer c.wg.Done()
			if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Printf("shard stopped: %v", err)
			}
		}(s)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case msg := <-c.msgs:
				c.HandleMessage(msg)
			case <-ctx.Done():
				return
			}
		}
	}()
	c.log.Printf("workers: %d", len(c.shards))
}

// Wait blocks until every goroutine started by Start has returned.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Shards is the number of shards.
func (c *Coordinator) Shards() int { return len(c.shards) }

// Setup starts a new generation at zoom and precision. Everything computed
// before is dropped and late results of older generations are ignored.
func (c *Coordinator) Setup(zoom string, precision int) (int, error) {
	if _, err := panels.New(mandel.Setup{Zoom: zoom, Precision: precision}); err != nil {
		return 0, err
	}

	c.m.Lock()
	c.reference++
	c.configured = true
	c.setup = mandel.Setup{Reference: c.reference, Zoom: zoom, Precision: precision}
	c.snapshots = make(map[mandel.Coord]mandel.Tile)
	c.updates = make(map[mandel.Coord]mandel.Tile)
	c.fromBlank = true
	c.stats = mandel.Stats{}
	if c.place != nil {
		c.place = c.place.rezoom(c.setup)
	}
	setup := c.setup
	c.m.Unlock()

	for _, s := range c.shards {
		s.Send(setup)
	}
	return setup.Reference, nil
}

// SetView moves the viewport. The next Flush returns the full cache.
func (c *Coordinator) SetView(centerRe, centerIm string, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrShape, width, height)
	}

	c.m.Lock()
	if !c.configured {
		c.m.Unlock()
		return mandel.ErrNotConfigured
	}
	place, err := newPlacement(c.setup, centerRe, centerIm, width, height)
	if err != nil {
		c.m.Unlock()
		return err
	}
	c.place = place
	c.updates = make(map[mandel.Coord]mandel.Tile)
	c.fromBlank = true
	c.m.Unlock()

	limit := mandel.Limit{TimeToIdle: c.cfg.TimeToIdle, FramePeriod: c.cfg.FramePeriod}
	for i, s := range c.shards {
		s.Send(mandel.View{
			CenterRe: centerRe,
			CenterIm: centerIm,
			Width:    width,
			Height:   height,
			Step:     len(c.shards),
			Offset:   i,
		})
		s.Send(limit)
	}
	return nil
}

// Limit keeps the shards busy for timeToIdle from now.
func (c *Coordinator) Limit(timeToIdle time.Duration) error {
	c.m.Lock()
	configured := c.configured
	c.m.Unlock()
	if !configured {
		return mandel.ErrNotConfigured
	}

	limit := mandel.Limit{TimeToIdle: timeToIdle, FramePeriod: c.cfg.FramePeriod}
	for _, s := range c.shards {
		s.Send(limit)
	}
	return nil
}

// HandleMessage merges msg unless it belongs to an older generation.
func (c *Coordinator) HandleMessage(msg mandel.Message) bool {
	c.m.Lock()
	defer c.m.Unlock()

	if msg.Reference != c.reference {
		return false
	}
	for _, s := range msg.Snapshots {
		t := mandel.Tile{Coord: s.Coord, Side: s.Side, Bitmap: s.Bitmap}
		c.snapshots[s.Coord] = t
		c.updates[s.Coord] = t
	}
	c.stats = c.stats.Merge(msg.Stats)
	return true
}

// Flush returns the tiles changed since the last call, or every cached tile
// on the first call after a view change.
func (c *Coordinator) Flush() mandel.Frame {
	c.m.Lock()
	defer c.m.Unlock()

	src := c.updates
	frame := mandel.Frame{Reference: c.reference, Incremental: true}
	if c.fromBlank {
		src = c.snapshots
		frame.Incremental = false
		c.fromBlank = false
	}

	frame.Tiles = make([]mandel.Tile, 0, len(src))
	for _, t := range src {
		if c.place != nil {
			pos, err := c.place.locate(t.Coord)
			if err != nil {
				// far outside the current view
				continue
			}
			t.Pos = pos
		}
		frame.Tiles = append(frame.Tiles, t)
	}
	c.updates = make(map[mandel.Coord]mandel.Tile)

	sort.Slice(frame.Tiles, func(i, j int) bool {
		a, b := frame.Tiles[i].Pos, frame.Tiles[j].Pos
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return frame
}

func (c *Coordinator) Stats() mandel.Stats {
	c.m.Lock()
	defer c.m.Unlock()
	return c.stats
}

// Reference is the current generation.
func (c *Coordinator) Reference() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.reference
}
