// Package wire defines the JSON envelopes exchanged over a session's
// websocket. Each envelope is one websocket text message.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	mandel "github.com/marben/panel_mandel"
	"github.com/marben/panel_mandel/sample"
)

type Op string

const (
	OpSetup  Op = "setup"
	OpView   Op = "view"
	OpLimit  Op = "limit"
	OpSample Op = "sample"
)

type Kind string

const (
	KindFrame  Kind = "frame"
	KindSample Kind = "sample"
	KindError  Kind = "error"
)

var ErrOp = errors.New("wire: unknown op")

// Request is a client command. Only the fields of its Op are set.
type Request struct {
	Op Op `json:"op"`

	// setup
	Zoom      string `json:"zoom,omitempty"`
	Precision int    `json:"precision,omitempty"`

	// view
	CenterRe string `json:"centerRe,omitempty"`
	CenterIm string `json:"centerIm,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`

	// limit
	TimeToIdleMs int64 `json:"timeToIdleMs,omitempty"`

	// sample
	Re            string `json:"re,omitempty"`
	Im            string `json:"im,omitempty"`
	MaxIterations int    `json:"maxIterations,omitempty"`
}

func Setup(zoom string, precision int) Request {
	return Request{Op: OpSetup, Zoom: zoom, Precision: precision}
}

func View(centerRe, centerIm string, width, height int) Request {
	return Request{Op: OpView, CenterRe: centerRe, CenterIm: centerIm, Width: width, Height: height}
}

func Limit(timeToIdle time.Duration) Request {
	return Request{Op: OpLimit, TimeToIdleMs: timeToIdle.Milliseconds()}
}

func Sample(req sample.Request) Request {
	return Request{
		Op:            OpSample,
		Re:            req.Re,
		Im:            req.Im,
		Precision:     req.Precision,
		MaxIterations: req.MaxIterations,
	}
}

func (r Request) TimeToIdle() time.Duration {
	return time.Duration(r.TimeToIdleMs) * time.Millisecond
}

func (r Request) Sample() sample.Request {
	return sample.Request{Re: r.Re, Im: r.Im, Precision: r.Precision, MaxIterations: r.MaxIterations}
}

// Response is a server push.
type Response struct {
	Kind      Kind           `json:"kind"`
	Reference int            `json:"reference,omitempty"`
	Frame     *mandel.Frame  `json:"frame,omitempty"`
	Stats     *mandel.Stats  `json:"stats,omitempty"`
	Sample    *sample.Result `json:"sample,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Conn reads and writes envelopes on a stream. Sends may come from several
// goroutines; receives must not.
type Conn struct {
	dec *json.Decoder

	wm  sync.Mutex
	enc *json.Encoder
}

func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{dec: json.NewDecoder(rw), enc: json.NewEncoder(rw)}
}

func (c *Conn) Send(v any) error {
	c.wm.Lock()
	defer c.wm.Unlock()
	if err := c.enc.Encode(v); err != nil {
		return fmt.Errorf("wire: send: %w", err)
	}
	return nil
}

// ReadRequest decodes the next request and rejects unknown ops.
func (c *Conn) ReadRequest() (Request, error) {
	var r Request
	if err := c.dec.Decode(&r); err != nil {
		return Request{}, err
	}
	switch r.Op {
	case OpSetup, OpView, OpLimit, OpSample:
		return r, nil
	}
	return r, fmt.Errorf("%w: %q", ErrOp, r.Op)
}

func (c *Conn) ReadResponse() (Response, error) {
	var r Response
	if err := c.dec.Decode(&r); err != nil {
		return Response{}, err
	}
	return r, nil
}
