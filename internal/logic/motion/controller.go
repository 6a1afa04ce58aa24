package motion

import (
	"context"
	"fmt"
	"time"

	"github.com/cjeanneret/RoboGo/internal/debug"
	"github.com/cjeanneret/RoboGo/internal/hw/robot"
)

// Controller turns drive primitives into wheel speed commands for the
// differential-drive base. It's an intermediate layer between behaviours
// (wall following, recovery) and the robot driver.
type Controller struct {
	robot robot.Robot
}

func NewController(r robot.Robot) *Controller {
	return &Controller{robot: r}
}

// Segment is one open-loop command held for a fixed duration.
type Segment struct {
	Name        string
	Left, Right int
	Duration    time.Duration
}

func (c *Controller) Forward(speed int) error {
	return c.drive("forward", speed, speed)
}

func (c *Controller) Reverse(speed int) error {
	return c.drive("reverse", -speed, -speed)
}

// PivotRight spins in place clockwise.
func (c *Controller) PivotRight(speed int) error {
	return c.drive("pivot-right", speed, -speed)
}

// PivotLeft spins in place counter-clockwise.
func (c *Controller) PivotLeft(speed int) error {
	return c.drive("pivot-left", -speed, speed)
}

func (c *Controller) Stop() error {
	return c.drive("stop", 0, 0)
}

func (c *Controller) drive(name string, left, right int) error {
	debug.Move(name, left, right)
	if err := c.robot.SetSpeed(left, right); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Hold commands seg and keeps it for seg.Duration. The wheels keep
// turning afterwards; the caller issues the next command.
func (c *Controller) Hold(seg Segment) error {
	if err := c.drive(seg.Name, seg.Left, seg.Right); err != nil {
		return err
	}
	time.Sleep(seg.Duration)
	return nil
}

// Sequence holds each segment in turn. Cancellation is checked before
// each segment, never in the middle of one.
func (c *Controller) Sequence(ctx context.Context, segs ...Segment) error {
	for _, seg := range segs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := c.Hold(seg); err != nil {
			return err
		}
	}
	return nil
}

// Pivot returns a timed in-place rotation segment.
func Pivot(right bool, speed int, d time.Duration) Segment {
	if right {
		return Segment{Name: "pivot-right", Left: speed, Right: -speed, Duration: d}
	}
	return Segment{Name: "pivot-left", Left: -speed, Right: speed, Duration: d}
}

// Backward returns a timed reverse segment.
func Backward(speed int, d time.Duration) Segment {
	return Segment{Name: "reverse", Left: -speed, Right: -speed, Duration: d}
}
