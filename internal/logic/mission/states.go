package mission

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjeanneret/RoboGo/internal/debug"
	"github.com/cjeanneret/RoboGo/internal/hw/robot"
	"github.com/cjeanneret/RoboGo/internal/logic/nav"
)

// ErrInvalidSpeed is reported when the speed prompt gets a non-digit.
var ErrInvalidSpeed = errors.New("invalid speed")

// Menu returns the entries offered in SelectPath.
func (m *Mission) Menu() []MenuItem {
	items := []MenuItem{{Key: KeyFollowWall, Label: "follow right wall"}}
	for _, id := range m.opts.Registry.IDs() {
		items = append(items, MenuItem{Key: rune('0' + id), Label: m.opts.Registry.Describe(id)})
	}
	return append(items, MenuItem{Key: KeyQuit, Label: "quit"})
}

func (m *Mission) selectPath(ctx context.Context) (bool, error) {
	m.opts.Display.Menu(m.Menu())
	key, err := m.opts.Input.ReadKey(ctx)
	if err != nil {
		return false, err
	}

	switch {
	case key == KeyQuit:
		return true, nil
	case key == KeyFollowWall:
		m.opts.Display.Message("Right wall following: press t to stop")
		m.begin(KindWallFollow, 0, m.opts.Follower.Settings().Speed)
		m.setState(FollowWall)
		return false, nil
	case key < '0' || key > '9':
		m.opts.Display.Message(fmt.Sprintf("Invalid choice %q", key))
		return false, nil
	}

	id := int(key - '0')
	m.opts.Display.Message("Speed (1-10, 0 = 10):")
	sk, err := m.opts.Input.ReadKey(ctx)
	if err != nil {
		return false, err
	}
	speed, err := m.speed(sk)
	if err != nil {
		debug.Error(err)
		m.opts.Display.Message(err.Error())
		return false, nil
	}

	st, err := robot.ReadStatus(m.opts.Robot)
	if err != nil {
		debug.Error(fmt.Errorf("select path: %w", err))
	}
	path, err := m.opts.Registry.Resolve(id, speed, st)
	if err != nil {
		debug.Error(err)
		m.opts.Display.Message(fmt.Sprintf("Path unavailable: %v", err))
		return false, nil
	}

	m.opts.Copilot.SetPath(path)
	if err := m.opts.Copilot.StartPath(); err != nil {
		m.opts.Display.Message(err.Error())
		return false, nil
	}
	debug.Info("Path %d (%s) selected at speed %d", id, m.opts.Registry.Describe(id), speed)
	m.begin(KindPath, id, speed)
	m.setState(ExecutePath)
	return false, nil
}

// speed turns a speed digit into a wheel percentage. 0 stands for 10.
func (m *Mission) speed(key rune) (int, error) {
	if key < '0' || key > '9' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSpeed, key)
	}
	n := int(key - '0')
	if n == 0 {
		n = 10
	}
	return n * m.opts.SpeedScale, nil
}

func (m *Mission) executePath(ctx context.Context) {
	st, err := robot.ReadStatus(m.opts.Robot)
	if err != nil {
		debug.Error(fmt.Errorf("execute path: %w", err))
	}
	m.report(st)

	completed, stopped := m.awaitCompletion(ctx)
	switch {
	case ctx.Err() != nil:
		// Run aborts the run
	case stopped:
		robot.Stop(m.opts.Robot)
		m.opts.Display.Message("Path stopped")
		m.finish(OutcomeStopped)
		m.setState(SelectPath)
	case completed || m.opts.Copilot.Pilot().Status() == nav.MoveDone:
		m.setState(CheckCompletion)
	}
}

// awaitCompletion polls the Copilot up to PollRetries times, waiting
// PollInterval before each poll. It returns as soon as the path is
// completed, a stop is requested or ctx is done.
func (m *Mission) awaitCompletion(ctx context.Context) (completed, stopped bool) {
	for i := 0; i < m.opts.PollRetries; i++ {
		if err := wait(ctx, m.opts.PollInterval); err != nil {
			return false, false
		}
		if m.stopRequested() {
			return false, true
		}
		if m.opts.Copilot.PollStep() == nav.PathCompleted {
			return true, false
		}
	}
	return m.opts.Copilot.IsCompleted(), false
}

func (m *Mission) checkCompletion() {
	outcome := OutcomeCompleted
	if !m.opts.Copilot.IsCompleted() {
		outcome = OutcomeStopped
	}
	m.opts.Display.Message("Path finished. Choose another path or quit.")
	m.finish(outcome)
	m.setState(SelectPath)
}

func (m *Mission) followWall(ctx context.Context) {
	f := m.opts.Follower
	if m.stopRequested() {
		if err := f.Stop(); err != nil {
			debug.Error(err)
		}
		m.opts.Display.Message("Manual mode")
		m.finish(OutcomeStopped)
		m.setState(SelectPath)
		return
	}

	if _, err := f.Step(ctx); err != nil && ctx.Err() == nil {
		debug.Error(err)
	}
	m.report(f.Last())
	_ = wait(ctx, m.opts.Pacing)
}
