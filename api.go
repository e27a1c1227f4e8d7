package mandel

import (
	"errors"
	"time"
)

// ErrNotConfigured is reported when a view or limit arrives before setup.
var ErrNotConfigured = errors.New("mandel: no setup received")

// Command is a coordinator to shard message.
// Implemented by Setup, View and Limit only.
type Command interface {
	command()
}

// Setup selects zoom and precision. It invalidates every computed panel.
type Setup struct {
	Reference int    `json:"reference"`
	Zoom      string `json:"zoom"`      // pixels per unit, decimal string
	Precision int    `json:"precision"` // significant digits, <= 0 for native
}

// View positions the viewport and tells the shard which stripe it owns.
type View struct {
	CenterRe string `json:"centerRe"`
	CenterIm string `json:"centerIm"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Step     int    `json:"step"`
	Offset   int    `json:"offset"`
}

// Limit pushes the throttles. A zero field keeps the current value.
type Limit struct {
	TimeToIdle  time.Duration `json:"timeToIdle"`
	FramePeriod time.Duration `json:"framePeriod"`
}

func (Setup) command() {}
func (View) command()  {}
func (Limit) command() {}

// Message is a shard to coordinator batch of panel snapshots.
type Message struct {
	Reference int        `json:"reference"`
	Shard     int        `json:"shard"`
	Snapshots []Snapshot `json:"snapshots"`
	Stats     Stats      `json:"stats"`
}

// Snapshot is an immutable bitmap of one panel.
// A nil Bitmap marks a panel whose every point is bounded by formula.
type Snapshot struct {
	Coord  Coord  `json:"coord"`
	Side   int    `json:"side"`
	Bitmap []byte `json:"bitmap"`
}

// Stats are scalar statistics merged monotonically by the coordinator.
type Stats struct {
	Iterations int `json:"iterations"`
}

// Merge folds o into s keeping the maximum of every field.
func (s Stats) Merge(o Stats) Stats {
	if o.Iterations > s.Iterations {
		s.Iterations = o.Iterations
	}
	return s
}

// TileProvider is the boundary towards the rendering layer.
type TileProvider interface {
	// Flush returns and forgets the tiles accumulated since the last call.
	Flush() Frame
	Stats() Stats
}
