package wire

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/sample"
)

func TestRequests(t *testing.T) {
	var buf bytes.Buffer
	c := NewConn(&buf)
	sent := []Request{
		Setup("1e20", 40),
		View("-0.75", "0.1", 640, 480),
		Limit(1500 * time.Millisecond),
		Sample(sample.Request{Re: "0.3", Im: "0", MaxIterations: 50}),
	}
	for _, r := range sent {
		if err := c.Send(r); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	for _, want := range sent {
		got, err := c.ReadRequest()
		if err != nil {
			t.Fatalf("ReadRequest: %v", err)
		}
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	}
	if _, err := c.ReadRequest(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestRequestAccessors(t *testing.T) {
	if d := Limit(2 * time.Second).TimeToIdle(); d != 2*time.Second {
		t.Fatalf("TimeToIdle = %v", d)
	}
	req := sample.Request{Re: "1", Im: "-1", Precision: 30, MaxIterations: 7}
	if got := Sample(req).Sample(); got != req {
		t.Fatalf("Sample = %+v, want %+v", got, req)
	}
}

func TestUnknownOp(t *testing.T) {
	c := NewConn(struct {
		io.Reader
		io.Writer
	}{strings.NewReader(`{"op":"zoom"}`), io.Discard})
	if _, err := c.ReadRequest(); !errors.Is(err, ErrOp) {
		t.Fatalf("expected ErrOp, got %v", err)
	}
}

func TestFrameResponse(t *testing.T) {
	var buf bytes.Buffer
	c := NewConn(&buf)
	frame := mandel.Frame{Tiles: []mandel.Tile{{Coord: mandel.IntCoord(-3, 4), Side: 32, Bitmap: []byte{1, 2, 3}}}}
	if err := c.Send(Response{Kind: KindFrame, Reference: 2, Frame: &frame, Stats: &mandel.Stats{Iterations: 12}}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := c.ReadResponse()
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if got.Kind != KindFrame || got.Reference != 2 || got.Stats.Iterations != 12 {
		t.Fatalf("got %+v", got)
	}
	tile := got.Frame.Tiles[0]
	if tile.Coord != mandel.IntCoord(-3, 4) || !bytes.Equal(tile.Bitmap, []byte{1, 2, 3}) {
		t.Fatalf("tile = %+v", tile)
	}
}
