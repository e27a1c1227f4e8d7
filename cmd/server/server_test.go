package main

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/marben/panel_mandel/coordinator"
	"github.com/marben/panel_mandel/sample"
	"github.com/marben/panel_mandel/wire"
)

func startServer(t *testing.T) (*wire.Conn, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	logger := log.New(io.Discard, "", 0)

	l, srv := webServer(ctx, "127.0.0.1:0", t.TempDir())
	ts := httptest.NewServer(srv.Handler)
	cfg := sessionConfig{
		Coordinator: coordinator.Config{
			Shards:      2,
			FramePeriod: 10 * time.Millisecond,
			TimeToIdle:  time.Second,
			Logger:      logger,
		},
		PushPeriod:  10 * time.Millisecond,
		SampleDelay: 10 * time.Millisecond,
		Logger:      logger,
	}
	go serve(ctx, l, cfg)

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		cancel()
		ts.Close()
		t.Fatalf("Dial: %v", err)
	}
	nc := websocket.NetConn(ctx, c, websocket.MessageText)
	if err := nc.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	return wire.NewConn(nc), func() {
		nc.Close()
		cancel()
		ts.Close()
	}
}

// await reads responses until one of kind arrives for which ok is true.
func await(t *testing.T, conn *wire.Conn, kind wire.Kind, ok func(wire.Response) bool) wire.Response {
	t.Helper()
	for {
		r, err := conn.ReadResponse()
		if err != nil {
			t.Fatalf("ReadResponse: %v", err)
		}
		if r.Kind == kind && ok(r) {
			return r
		}
	}
}

func TestSession(t *testing.T) {
	conn, stop := startServer(t)
	defer stop()

	for _, r := range []wire.Request{wire.Setup("40", 0), wire.View("-0.5", "0", 64, 64)} {
		if err := conn.Send(r); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	r := await(t, conn, wire.KindFrame, func(r wire.Response) bool {
		return len(r.Frame.Tiles) > 0
	})
	if r.Reference != 1 {
		t.Fatalf("reference = %d, want 1", r.Reference)
	}

	if err := conn.Send(wire.Sample(sample.Request{Re: "1", Im: "1"})); err != nil {
		t.Fatalf("Send: %v", err)
	}
	r = await(t, conn, wire.KindSample, func(wire.Response) bool { return true })
	if r.Sample.EscapeAge == nil || *r.Sample.EscapeAge != 2 {
		t.Fatalf("sample = %+v", r.Sample)
	}

	if err := conn.Send(wire.Setup("-1", 0)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	r = await(t, conn, wire.KindError, func(wire.Response) bool { return true })
	if !strings.Contains(r.Error, "zoom") {
		t.Fatalf("error = %q", r.Error)
	}
}

func TestSessionRejectsUnknownOp(t *testing.T) {
	conn, stop := startServer(t)
	defer stop()

	if err := conn.Send(map[string]string{"op": "rotate"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	for {
		if _, err := conn.ReadResponse(); err != nil {
			return
		}
	}
}
