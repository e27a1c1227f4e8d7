// Package shard runs the cooperative scheduling loop of one worker.
//
// A shard owns a stripe of the panels and never shares memory with other
// shards. Commands arrive through Send, results leave through the out channel
// given to New. Each Tick performs at most one action so a new command is
// picked up after at most one bounded step.
package shard

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/panels"
)

const (
	DefaultFramePeriod = 50 * time.Millisecond
	DefaultIdleBackoff = 100 * time.Millisecond
)

// Action is what a Tick did.
type Action int

const (
	ActionIdle Action = iota
	ActionSetup
	ActionView
	ActionFlush
	ActionIterate
	ActionWait // nothing to iterate, dirty panels wait for the next frame
)

func (a Action) String() string {
	switch a {
	case ActionIdle:
		return "idle"
	case ActionSetup:
		return "setup"
	case ActionView:
		return "view"
	case ActionFlush:
		return "flush"
	case ActionIterate:
		return "iterate"
	case ActionWait:
		return "wait"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

type Config struct {
	Index       int
	FramePeriod time.Duration // minimum time between two flushes
	IdleBackoff time.Duration // sleep after an idle tick
	Logger      *log.Logger
	Now         func() time.Time
}

func (c Config) withDefaults() Config {
	if c.FramePeriod <= 0 {
		c.FramePeriod = DefaultFramePeriod
	}
	if c.IdleBackoff <= 0 {
		c.IdleBackoff = DefaultIdleBackoff
	}
	if c.Logger == nil {
		c.Logger = log.New(os.Stderr, fmt.Sprintf("shard %d: ", c.Index), log.LstdFlags)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

type Shard struct {
	cfg Config
	out chan<- mandel.Message
	log *log.Logger

	m     sync.Mutex
	inbox []mandel.Command
	wake  chan struct{}

	// owned by the goroutine calling Tick
	engine      panels.Engine
	configured  bool
	reference   int
	setup       *mandel.Setup
	view        *mandel.View
	lastView    *mandel.View
	framePeriod time.Duration
	activeUntil time.Time
	lastFrame   time.Time
}

func New(cfg Config, out chan<- mandel.Message) *Shard {
	cfg = cfg.withDefaults()
	return &Shard{
		cfg:         cfg,
		out:         out,
		log:         cfg.Logger,
		wake:        make(chan struct{}, 1),
		framePeriod: cfg.FramePeriod,
	}
}

// Send queues cmd. It never blocks and is safe for concurrent use.
func (s *Shard) Send(cmd mandel.Command) {
	s.m.Lock()
	s.inbox = append(s.inbox, cmd)
	s.m.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run ticks until ctx is done.
func (s *Shard) Run(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.IdleBackoff)
	defer timer.Stop()

	for {
		act, err := s.Tick(ctx)
		if err != nil {
			return err
		}
		if act != ActionIdle && act != ActionWait {
			if err := ctx.Err(); err != nil {
				return err
			}
			runtime.Gosched()
			continue
		}

		sleep := s.cfg.IdleBackoff
		if act == ActionWait {
			sleep = min(sleep, s.untilFrame())
		}
		timer.Reset(sleep)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		case <-timer.C:
		}
	}
}

// Tick applies queued commands and performs one action, in priority order:
// setup, view, flush, iterate. With nothing to iterate but dirty panels
// pending it reports ActionWait.
func (s *Shard) Tick(ctx context.Context) (Action, error) {
	s.drain()

	if s.setup != nil {
		s.applySetup(*s.setup)
		s.setup = nil
		return ActionSetup, nil
	}
	if s.view != nil {
		s.applyView(*s.view)
		s.view = nil
		return ActionView, nil
	}
	if s.engine == nil {
		return ActionIdle, nil
	}

	now := s.cfg.Now()
	if !now.Before(s.activeUntil) {
		return ActionIdle, nil
	}

	if now.Sub(s.lastFrame) >= s.framePeriod {
		if snaps := s.engine.Flush(); len(snaps) > 0 {
			msg := mandel.Message{
				Reference: s.reference,
				Shard:     s.cfg.Index,
				Snapshots: snaps,
				Stats:     s.engine.Stats(),
			}
			select {
			case s.out <- msg:
			case <-ctx.Done():
				return ActionIdle, ctx.Err()
			}
			s.lastFrame = now
			return ActionFlush, nil
		}
	}

	if s.engine.Busy() {
		s.engine.Iterate()
		return ActionIterate, nil
	}
	if s.engine.Dirty() {
		return ActionWait, nil
	}
	return ActionIdle, nil
}

func (s *Shard) drain() {
	s.m.Lock()
	cmds := s.inbox
	s.inbox = nil
	s.m.Unlock()

	for _, cmd := range cmds {
		s.accept(cmd)
	}
}

// accept records cmd as pending. Setups and views are applied by Tick,
// limits right away.
func (s *Shard) accept(cmd mandel.Command) {
	switch c := cmd.(type) {
	case mandel.Setup:
		s.configured = true
		s.setup = &c
		s.view = nil
	case mandel.View:
		if !s.configured {
			s.log.Printf("view ignored: %v", mandel.ErrNotConfigured)
			return
		}
		s.view = &c
		s.lastView = &c
	case mandel.Limit:
		if !s.configured {
			s.log.Printf("limit ignored: %v", mandel.ErrNotConfigured)
			return
		}
		if c.TimeToIdle > 0 {
			s.activeUntil = s.cfg.Now().Add(c.TimeToIdle)
		}
		if c.FramePeriod > 0 {
			s.framePeriod = c.FramePeriod
		}
	default:
		panic(fmt.Sprintf("shard %d: unknown command %T", s.cfg.Index, cmd))
	}
}

func (s *Shard) applySetup(setup mandel.Setup) {
	s.reference = setup.Reference
	s.lastFrame = time.Time{}

	engine, err := panels.New(setup)
	if err != nil {
		s.log.Printf("setup %d: %v", setup.Reference, err)
		s.engine = nil
		return
	}
	s.engine = engine

	// the new cache is empty: bring the last view back
	if s.lastView != nil {
		s.view = s.lastView
	}
}

func (s *Shard) applyView(v mandel.View) {
	s.lastFrame = time.Time{}
	if s.engine == nil {
		return
	}
	if err := s.engine.SetView(v); err != nil {
		s.log.Printf("view: %v", err)
	}
}

// untilFrame is the time left before the next flush is allowed.
func (s *Shard) untilFrame() time.Duration {
	return max(s.framePeriod-s.cfg.Now().Sub(s.lastFrame), 0)
}

// Reference is the setup reference results are tagged with.
func (s *Shard) Reference() int { return s.reference }

// Engine exposes the current cache, nil before a valid setup.
func (s *Shard) Engine() panels.Engine { return s.engine }
