package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/coordinator"
	"github.com/marben/panel_mandel/sample"
	"github.com/marben/panel_mandel/wire"
)

type sessionConfig struct {
	Coordinator coordinator.Config
	PushPeriod  time.Duration // how often frames are flushed to the client
	SampleDelay time.Duration
	Logger      *log.Logger
}

func (c sessionConfig) withDefaults() sessionConfig {
	if c.PushPeriod <= 0 {
		c.PushPeriod = 100 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

// session drives one coordinator for one connected client.
type session struct {
	cfg     sessionConfig
	log     *log.Logger
	conn    *wire.Conn
	coord   *coordinator.Coordinator
	sampler *sample.Sampler
}

// serveSession runs until the client disconnects, sends an unknown op
// or ctx is done. The connection is closed on return.
func serveSession(ctx context.Context, nc net.Conn, cfg sessionConfig) error {
	defer nc.Close()
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(ctx)

	s := &session{
		cfg:   cfg,
		log:   cfg.Logger,
		conn:  wire.NewConn(nc),
		coord: coordinator.New(cfg.Coordinator),
	}
	s.sampler = sample.NewSampler(sample.Config{Delay: cfg.SampleDelay, Logger: cfg.Logger}, s.sendSample)

	s.coord.Start(ctx)
	defer func() {
		cancel()
		s.sampler.Stop()
		s.coord.Wait()
	}()

	go func() {
		if err := s.push(ctx); err != nil {
			s.log.Printf("push: %v", err)
		}
		// unblocks the read loop
		nc.Close()
	}()

	return s.read()
}

func (s *session) read() error {
	for {
		req, err := s.conn.ReadRequest()
		switch {
		case errors.Is(err, wire.ErrOp):
			return err
		case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			return nil
		case err != nil:
			return fmt.Errorf("read: %w", err)
		}

		if err := s.handle(req); err != nil {
			s.log.Printf("%s: %v", req.Op, err)
			if err := s.conn.Send(wire.Response{Kind: wire.KindError, Error: err.Error()}); err != nil {
				return err
			}
		}
	}
}

func (s *session) handle(req wire.Request) error {
	switch req.Op {
	case wire.OpSetup:
		ref, err := s.coord.Setup(req.Zoom, req.Precision)
		if err != nil {
			return err
		}
		s.log.Printf("setup %d: zoom %s, precision %d", ref, req.Zoom, req.Precision)
		return nil
	case wire.OpView:
		return s.coord.SetView(req.CenterRe, req.CenterIm, req.Width, req.Height)
	case wire.OpLimit:
		return s.coord.Limit(req.TimeToIdle())
	case wire.OpSample:
		s.sampler.Request(req.Sample())
		return nil
	}
	return fmt.Errorf("%w: %q", wire.ErrOp, req.Op)
}

// push flushes the coordinator every PushPeriod. Empty incremental frames
// are sent only when the statistics moved.
func (s *session) push(ctx context.Context) error {
	t := time.NewTicker(s.cfg.PushPeriod)
	defer t.Stop()

	var last mandel.Stats
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}

		frame := s.coord.Flush()
		stats := s.coord.Stats()
		if frame.Incremental && len(frame.Tiles) == 0 && stats == last {
			continue
		}
		last = stats

		if err := s.conn.Send(wire.Response{Kind: wire.KindFrame, Reference: frame.Reference, Frame: &frame, Stats: &stats}); err != nil {
			return err
		}
	}
}

func (s *session) sendSample(res sample.Result) {
	if err := s.conn.Send(wire.Response{Kind: wire.KindSample, Sample: &res}); err != nil {
		s.log.Printf("sample: %v", err)
	}
}
