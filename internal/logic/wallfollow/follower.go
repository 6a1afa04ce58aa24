// Package wallfollow implements the reactive right-wall-following behaviour.
package wallfollow

import (
	"context"
	"fmt"
	"time"

	"github.com/cjeanneret/RoboGo/internal/debug"
	"github.com/cjeanneret/RoboGo/internal/hw/robot"
	"github.com/cjeanneret/RoboGo/internal/logic/motion"
)

// Action is the decision taken for one sensor snapshot.
type Action int

const (
	TurnRight Action = iota // pivot right, then forward
	Straight
	TurnLeft // pivot left, then forward
	Recover  // dead angle: every sensor blocked
)

func (a Action) String() string {
	switch a {
	case TurnRight:
		return "turn-right"
	case Straight:
		return "straight"
	case TurnLeft:
		return "turn-left"
	case Recover:
		return "recover"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Stage is a step of the dead-angle recovery.
type Stage int

const (
	Probing Stage = iota
	ForcedReverse
	ForcedPivot
	Resume
)

func (s Stage) String() string {
	switch s {
	case Probing:
		return "probing"
	case ForcedReverse:
		return "forced-reverse"
	case ForcedPivot:
		return "forced-pivot"
	case Resume:
		return "resume"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Settings tune the behaviour.
type Settings struct {
	Speed      int // cruise wheel speed, percent
	Threshold  int // a sensor is clear above this reading
	Pivot      time.Duration
	Probe      time.Duration
	Reverse    time.Duration
	Turnaround time.Duration
}

// Decide picks the action for a snapshot: right clear first, then front,
// then left, else recovery. It is a pure function of st.
func Decide(st robot.Status, threshold int) Action {
	switch {
	case st.Clear(robot.SensorRight, threshold):
		return TurnRight
	case st.Clear(robot.SensorCenter, threshold):
		return Straight
	case st.Clear(robot.SensorLeft, threshold):
		return TurnLeft
	}
	return Recover
}

// Follower drives the robot directly, bypassing the Pilot.
type Follower struct {
	robot    robot.Robot
	drive    *motion.Controller
	settings Settings

	last       robot.Status
	steps      int
	recoveries int
}

func New(r robot.Robot, s Settings) *Follower {
	return &Follower{
		robot:    r,
		drive:    motion.NewController(r),
		settings: s,
	}
}

// Step reads the sensors once and acts on them. Timed pivots run to
// their end; ctx is checked between recovery stages.
func (f *Follower) Step(ctx context.Context) (Action, error) {
	st, err := robot.ReadStatus(f.robot)
	if err != nil {
		debug.Error(fmt.Errorf("wall follow: %w", err))
	}
	f.last = st
	f.steps++

	s := f.settings
	action := Decide(st, s.Threshold)
	debug.Live("Wall follow: %s (left=%d, center=%d, right=%d)", action, st.Left, st.Center, st.Right)

	switch action {
	case TurnRight:
		err = f.pivotThenForward(ctx, true)
	case Straight:
		err = f.drive.Forward(s.Speed)
	case TurnLeft:
		err = f.pivotThenForward(ctx, false)
	case Recover:
		f.recoveries++
		err = f.recover(ctx)
	}
	return action, err
}

func (f *Follower) pivotThenForward(ctx context.Context, right bool) error {
	s := f.settings
	if err := f.drive.Sequence(ctx, motion.Pivot(right, s.Speed, s.Pivot)); err != nil {
		return err
	}
	return f.drive.Forward(s.Speed)
}

// recover runs Probing -> ForcedReverse -> ForcedPivot -> Resume.
// Probing ends the recovery early when the right side opens up.
func (f *Follower) recover(ctx context.Context) error {
	s := f.settings
	stage := Probing
	debug.Live("Dead angle: all sensors blocked")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		debug.Verbose("Recovery stage: %s", stage)

		switch stage {
		case Probing:
			if err := f.drive.Hold(motion.Pivot(false, s.Speed, s.Probe)); err != nil {
				return err
			}
			st, err := robot.ReadStatus(f.robot)
			if err != nil {
				debug.Error(fmt.Errorf("recovery probe: %w", err))
			}
			if st.Clear(robot.SensorRight, s.Threshold) {
				debug.Live("Recovery: right side open, resuming")
				return nil
			}
			stage = ForcedReverse
		case ForcedReverse:
			if err := f.drive.Hold(motion.Backward(s.Speed, s.Reverse)); err != nil {
				return err
			}
			stage = ForcedPivot
		case ForcedPivot:
			if err := f.drive.Hold(motion.Pivot(true, s.Speed, s.Turnaround)); err != nil {
				return err
			}
			stage = Resume
		case Resume:
			return f.drive.Forward(s.Speed)
		}
	}
}

// Stop zeroes the wheels.
func (f *Follower) Stop() error {
	return f.drive.Stop()
}

func (f *Follower) Settings() Settings {
	return f.settings
}

// Last returns the snapshot the latest Step decided on.
func (f *Follower) Last() robot.Status {
	return f.last
}

// Steps returns how many times Step ran.
func (f *Follower) Steps() int {
	return f.steps
}

// Recoveries returns how many dead-angle recoveries started.
func (f *Follower) Recoveries() int {
	return f.recoveries
}
