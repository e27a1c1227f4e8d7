package sample

import (
	"log"
	"sync"
	"time"
)

const DefaultDelay = 150 * time.Millisecond

type Config struct {
	Delay  time.Duration // quiet period before the latest request is traced
	Logger *log.Logger
}

func (c Config) withDefaults() Config {
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

// Sampler debounces bursts of requests. Only the last request of a burst is
// traced, and a result is dropped if a newer request arrived while it ran.
type Sampler struct {
	cfg     Config
	deliver func(Result)

	m       sync.Mutex
	timer   *time.Timer
	pending *Request
	seq     uint64
	stopped bool
}

// NewSampler calls deliver from its own goroutine with every result.
func NewSampler(cfg Config, deliver func(Result)) *Sampler {
	return &Sampler{cfg: cfg.withDefaults(), deliver: deliver}
}

// Request replaces any pending request and restarts the quiet period.
func (s *Sampler) Request(req Request) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.stopped {
		return
	}

	s.seq++
	s.pending = &req
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.Delay, s.fire)
}

func (s *Sampler) fire() {
	s.m.Lock()
	req := s.pending
	seq := s.seq
	s.pending = nil
	s.m.Unlock()
	if req == nil {
		return
	}

	res, err := Trace(*req)
	if err != nil {
		s.cfg.Logger.Printf("sample (%s, %s): %v", req.Re, req.Im, err)
		return
	}

	s.m.Lock()
	current := seq == s.seq && !s.stopped
	s.m.Unlock()
	if current {
		s.deliver(res)
	}
}

// Stop discards the pending request. Results in flight are not delivered.
func (s *Sampler) Stop() {
	s.m.Lock()
	defer s.m.Unlock()
	s.stopped = true
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
	}
}
