// cliclient is a CLI client for the panel Mandelbrot server.
// It connects to the server, shows one landmark region, waits until the
// shards reach an iteration target and saves the composed view as a PNG file.

package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/coder/websocket"
	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/wire"
)

// main is the entry point for the CLI client.
// It runs the client logic and logs any fatal errors.
func main() {
	log.Printf("Starting CLI client...")
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// run connects to the server, streams frames of the requested region and saves the result as a PNG file.
func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "server websocket endpoint")
	regionName := flag.String("region", "seahorse", "landmark region: "+strings.Join(regionNames(), ", "))
	width := flag.Int("width", 640, "image width")
	height := flag.Int("height", 480, "image height")
	precision := flag.Int("precision", 0, "significant digits, 0 for float64")
	iterations := flag.Int("iterations", 500, "iteration target")
	timeout := flag.Duration("timeout", 2*time.Minute, "give up after")
	out := flag.String("out", "mandel.png", "output file")
	flag.Parse()

	region, ok := mandel.Regions[*regionName]
	if !ok {
		return fmt.Errorf("unknown region %q", *regionName)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Step 1: Connect to the server
	log.Printf("Connecting to Mandelbrot server on %s...", *addr)
	ws, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	nc := websocket.NetConn(ctx, ws, websocket.MessageText)
	defer nc.Close()
	conn := wire.NewConn(nc)

	// Step 2: Configure the session. The shards stay busy for the whole timeout.
	centerRe, centerIm, zoom := region.View(*width)
	log.Printf("Region %s: center (%s, %s), zoom %s", *regionName, centerRe, centerIm, zoom)
	for _, req := range []wire.Request{
		wire.Setup(zoom, *precision),
		wire.View(centerRe, centerIm, *width, *height),
		wire.Limit(*timeout),
	} {
		if err := conn.Send(req); err != nil {
			return err
		}
	}

	// Step 3: Collect frames until the iteration target
	canvas := newCanvas(*width, *height)
	for {
		resp, err := conn.ReadResponse()
		if err != nil {
			return fmt.Errorf("conn.ReadResponse: %w", err)
		}
		if resp.Kind == wire.KindError {
			return fmt.Errorf("server: %s", resp.Error)
		}
		if resp.Kind != wire.KindFrame {
			continue
		}
		if err := canvas.apply(resp.Reference, *resp.Frame); err != nil {
			return err
		}
		if resp.Stats.Iterations >= *iterations {
			log.Printf("Reached %d iterations with %d panels", resp.Stats.Iterations, canvas.len())
			break
		}
	}

	// Step 4: Save the composed image to a PNG file
	log.Printf("Saving rendered image to %q...", *out)
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, canvas.img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}

	log.Printf("Rendered image saved to %q", *out)
	return nil
}

func regionNames() []string {
	names := make([]string, 0, len(mandel.Regions))
	for name := range mandel.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
