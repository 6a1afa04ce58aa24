package nav

import (
	"fmt"

	"github.com/cjeanneret/RoboGo/internal/debug"
)

// Copilot walks a Path one move at a time through its Pilot.
type Copilot struct {
	pilot  *Pilot
	path   Path
	step   int
	status PathStatus
}

// NewCopilot returns a Copilot with no path.
func NewCopilot(p *Pilot) *Copilot {
	return &Copilot{pilot: p}
}

// SetPath installs the path to follow and resets progress. Replacing a
// path in progress is the caller's responsibility.
func (c *Copilot) SetPath(p Path) {
	c.path = p
	c.step = 0
	c.status = PathNotStarted
	debug.Verbose("Copilot: path set (%d steps)", p.Len())
}

// StartPath starts the first move. It returns ErrNoPath when the path is empty.
func (c *Copilot) StartPath() error {
	if c.path.Len() == 0 {
		err := fmt.Errorf("start path: %w", ErrNoPath)
		debug.Error(err)
		return err
	}
	c.step = 0
	c.status = PathInProgress
	debug.Live("Path started: %d steps", c.path.Len())
	debug.Step(1, c.path.At(0).String())
	if err := c.pilot.StartMove(c.path.At(0)); err != nil {
		// the Pilot reports the move as done; the next poll advances past it
		debug.Verbose("Copilot: step 1 rejected: %v", err)
	}
	return nil
}

// PollStep polls the Pilot once and advances to the next move when the
// current one is done. Calling it on a path that is not in progress
// changes nothing.
func (c *Copilot) PollStep() PathStatus {
	if c.status != PathInProgress {
		return c.status
	}
	if c.pilot.PollTarget() != MoveDone {
		return c.status
	}

	c.step++
	if c.step >= c.path.Len() {
		c.status = PathCompleted
		debug.Info("Path completed (%d steps)", c.path.Len())
		return c.status
	}
	m := c.path.At(c.step)
	debug.Step(c.step+1, m.String())
	if err := c.pilot.StartMove(m); err != nil {
		debug.Verbose("Copilot: step %d rejected: %v", c.step+1, err)
	}
	return c.status
}

// IsCompleted reports whether every move of the path is done.
func (c *Copilot) IsCompleted() bool {
	return c.status == PathCompleted
}

// Status returns the path status without polling.
func (c *Copilot) Status() PathStatus {
	return c.status
}

// Step returns the index of the active move.
func (c *Copilot) Step() int {
	return c.step
}

// Steps returns the number of moves in the path.
func (c *Copilot) Steps() int {
	return c.path.Len()
}

// Pilot returns the Pilot executing the moves.
func (c *Copilot) Pilot() *Pilot {
	return c.pilot
}
