package coordinator

import (
	"context"
	"errors"
	"image"
	"io"
	"log"
	"testing"
	"time"

	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/arith"
	"github.com/marben/panel_mandel/panels"
)

func newTestCoordinator(t *testing.T, shards int) *Coordinator {
	t.Helper()
	return New(Config{
		Shards:      shards,
		FramePeriod: 10 * time.Millisecond,
		IdleBackoff: 5 * time.Millisecond,
		Logger:      log.New(io.Discard, "", 0),
	})
}

func snap(x, y int, b byte) mandel.Snapshot {
	return mandel.Snapshot{Coord: mandel.IntCoord(x, y), Side: 32, Bitmap: []byte{b}}
}

func coords(f mandel.Frame) map[mandel.Coord]mandel.Tile {
	m := make(map[mandel.Coord]mandel.Tile, len(f.Tiles))
	for _, t := range f.Tiles {
		m[t.Coord] = t
	}
	return m
}

func TestShardCount(t *testing.T) {
	if n := newTestCoordinator(t, 100).Shards(); n != MaxShards {
		t.Fatalf("shards = %d, want cap %d", n, MaxShards)
	}
	if n := newTestCoordinator(t, 3).Shards(); n != 3 {
		t.Fatalf("shards = %d, want 3", n)
	}
	if n := newTestCoordinator(t, 0).Shards(); n < 1 || n > MaxShards {
		t.Fatalf("shards = %d", n)
	}
}

func TestNotConfigured(t *testing.T) {
	c := newTestCoordinator(t, 2)
	if err := c.SetView("0", "0", 10, 10); !errors.Is(err, mandel.ErrNotConfigured) {
		t.Fatalf("SetView before setup: %v", err)
	}
	if err := c.Limit(time.Second); !errors.Is(err, mandel.ErrNotConfigured) {
		t.Fatalf("Limit before setup: %v", err)
	}
	if _, err := c.Setup("0", 0); !errors.Is(err, panels.ErrZoom) {
		t.Fatalf("Setup with zero zoom: %v", err)
	}
	if _, err := c.Setup("1", 0); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := c.SetView("0", "0", 0, 10); !errors.Is(err, ErrShape) {
		t.Fatalf("SetView with zero width: %v", err)
	}
	if err := c.SetView("0", "zero", 10, 10); !errors.Is(err, arith.ErrSyntax) {
		t.Fatalf("SetView with bad center: %v", err)
	}
}

func TestFlushSemantics(t *testing.T) {
	c := newTestCoordinator(t, 2)
	ref, err := c.Setup("100", 0)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := c.SetView("0", "0", 64, 64); err != nil {
		t.Fatalf("SetView: %v", err)
	}

	c.HandleMessage(mandel.Message{Reference: ref, Snapshots: []mandel.Snapshot{snap(0, 0, 1), snap(1, 0, 1)}})
	f := c.Flush()
	if f.Incremental || len(f.Tiles) != 2 {
		t.Fatalf("first flush: incremental=%v tiles=%d, want full batch of 2", f.Incremental, len(f.Tiles))
	}
	if f.Reference != ref {
		t.Fatalf("frame reference = %d, want %d", f.Reference, ref)
	}

	c.HandleMessage(mandel.Message{Reference: ref, Snapshots: []mandel.Snapshot{snap(1, 0, 2), snap(-1, -1, 1)}})
	f = c.Flush()
	got := coords(f)
	if !f.Incremental || len(got) != 2 {
		t.Fatalf("second flush: incremental=%v tiles=%d", f.Incremental, len(f.Tiles))
	}
	if got[mandel.IntCoord(1, 0)].Bitmap[0] != 2 {
		t.Fatalf("repainted tile not updated")
	}
	if _, ok := got[mandel.IntCoord(0, 0)]; ok {
		t.Fatalf("clean tile returned again")
	}

	if f = c.Flush(); !f.Incremental || len(f.Tiles) != 0 {
		t.Fatalf("idle flush returned %d tiles", len(f.Tiles))
	}

	if err := c.SetView("0.1", "0", 64, 64); err != nil {
		t.Fatalf("SetView: %v", err)
	}
	f = c.Flush()
	if f.Incremental || len(f.Tiles) != 3 {
		t.Fatalf("flush after view change: incremental=%v tiles=%d, want full cache of 3", f.Incremental, len(f.Tiles))
	}
	if f = c.Flush(); !f.Incremental {
		t.Fatalf("second flush after view change must be incremental")
	}
}

func TestStaleMessagesDropped(t *testing.T) {
	c := newTestCoordinator(t, 2)
	old, _ := c.Setup("100", 0)
	if err := c.SetView("0", "0", 64, 64); err != nil {
		t.Fatalf("SetView: %v", err)
	}
	if !c.HandleMessage(mandel.Message{Reference: old, Snapshots: []mandel.Snapshot{snap(0, 0, 1)}, Stats: mandel.Stats{Iterations: 9}}) {
		t.Fatalf("current message rejected")
	}

	ref, _ := c.Setup("200", 0)
	if ref != old+1 {
		t.Fatalf("reference %d -> %d", old, ref)
	}
	if c.HandleMessage(mandel.Message{Reference: old, Snapshots: []mandel.Snapshot{snap(3, 3, 1)}, Stats: mandel.Stats{Iterations: 50}}) {
		t.Fatalf("stale message merged")
	}
	f := c.Flush()
	if len(f.Tiles) != 0 || f.Incremental {
		t.Fatalf("cache after setup: incremental=%v tiles=%d", f.Incremental, len(f.Tiles))
	}
	if f.Reference != ref {
		t.Fatalf("frame reference = %d, want the new generation %d", f.Reference, ref)
	}
	if s := c.Stats(); s.Iterations != 0 {
		t.Fatalf("stats leaked from stale generation: %+v", s)
	}
}

func TestStatsMonotone(t *testing.T) {
	c := newTestCoordinator(t, 2)
	ref, _ := c.Setup("100", 0)
	c.HandleMessage(mandel.Message{Reference: ref, Stats: mandel.Stats{Iterations: 10}})
	c.HandleMessage(mandel.Message{Reference: ref, Stats: mandel.Stats{Iterations: 4}})
	if s := c.Stats(); s.Iterations != 10 {
		t.Fatalf("iterations = %d, want 10", s.Iterations)
	}
}

func TestTilePositions(t *testing.T) {
	c := newTestCoordinator(t, 1)
	ref, _ := c.Setup("100", 0)
	if err := c.SetView("0", "0", 64, 64); err != nil {
		t.Fatalf("SetView: %v", err)
	}
	c.HandleMessage(mandel.Message{Reference: ref, Snapshots: []mandel.Snapshot{snap(0, 0, 1), snap(-1, -1, 1), snap(1, -1, 1)}})
	got := coords(c.Flush())
	want := map[mandel.Coord]image.Point{
		mandel.IntCoord(-1, -1): image.Pt(0, 0),
		mandel.IntCoord(0, 0):   image.Pt(32, 32),
		mandel.IntCoord(1, -1):  image.Pt(64, 0),
	}
	for coord, pos := range want {
		if got[coord].Pos != pos {
			t.Fatalf("%s at %v, want %v", coord, got[coord].Pos, pos)
		}
	}
}

func TestTilePositionsDeepZoom(t *testing.T) {
	c := newTestCoordinator(t, 1)
	ref, err := c.Setup("1e30", 50)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	// center pixel x = 1e30 * 1e-30 * 64 = 64, exactly on a panel edge
	if err := c.SetView("0.000000000000000000000000000064", "0", 64, 64); err != nil {
		t.Fatalf("SetView: %v", err)
	}
	c.HandleMessage(mandel.Message{Reference: ref, Snapshots: []mandel.Snapshot{snap(2, 0, 1)}})
	got := coords(c.Flush())
	if pos := got[mandel.IntCoord(2, 0)].Pos; pos != image.Pt(32, 32) {
		t.Fatalf("tile at %v, want (32, 32)", pos)
	}
}

func TestEndToEnd(t *testing.T) {
	c := newTestCoordinator(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	defer func() {
		cancel()
		c.Wait()
	}()

	if _, err := c.Setup("40", 0); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	const w, h = 64, 64
	if err := c.SetView("1.5", "0", w, h); err != nil {
		t.Fatalf("SetView: %v", err)
	}

	want, err := panels.Resolve[float64](arith.NewNative(), 40, mandel.View{CenterRe: "1.5", CenterIm: "0", Width: w, Height: h, Step: 1})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	expected := make(map[mandel.Coord]bool, len(want))
	for _, coord := range want {
		expected[coord] = true
	}

	seen := make(map[mandel.Coord]bool)
	deadline := time.Now().Add(10 * time.Second)
	for len(seen) < len(expected) || c.Stats().Iterations < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("saw %d of %d panels, %d iterations", len(seen), len(expected), c.Stats().Iterations)
		}
		for _, tile := range c.Flush().Tiles {
			if !expected[tile.Coord] {
				t.Fatalf("unexpected panel %s", tile.Coord)
			}
			seen[tile.Coord] = true
		}
		time.Sleep(5 * time.Millisecond)
	}
}
