package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/marben/panel_mandel/coordinator"
)

// main is the entry point for the Mandelbrot server.
// Every websocket client gets its own coordinator and shards.
func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	addr := flag.String("addr", ":8080", "http listen address")
	static := flag.String("static", "./static", "directory served at /")
	shards := flag.Int("shards", 0, "shards per session, 0 for one per CPU")
	framePeriod := flag.Duration("frame", 50*time.Millisecond, "minimum time between shard flushes")
	timeToIdle := flag.Duration("ttl", 2*time.Second, "how long shards keep iterating after a view change")
	push := flag.Duration("push", 100*time.Millisecond, "how often frames are pushed to clients")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := sessionConfig{
		Coordinator: coordinator.Config{
			Shards:      *shards,
			FramePeriod: *framePeriod,
			TimeToIdle:  *timeToIdle,
		},
		PushPeriod: *push,
		Logger:     log.Default(),
	}

	websocketListener, httpServer := webServer(ctx, *addr, *static)

	// httpServer provides static files along with the websocket endpoint
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("httpServer: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	log.Printf("mb server waiting for websocket connections")
	if err := serve(ctx, websocketListener, cfg); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serve starts a session for every connection accepted on l.
func serve(ctx context.Context, l net.Listener, cfg sessionConfig) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}

		go func() {
			log.Printf("got connection from: %s", conn.RemoteAddr())
			if err := serveSession(ctx, conn, cfg); err != nil {
				log.Printf("session %s: %v", conn.RemoteAddr(), err)
			}
			log.Printf("connection closed: %s", conn.RemoteAddr())
		}()
	}
}
