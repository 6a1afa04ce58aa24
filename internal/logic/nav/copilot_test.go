package nav

import (
	"errors"
	"testing"

	"github.com/cjeanneret/RoboGo/internal/hw/robot"
)

func TestCopilot_StartWithoutPath(t *testing.T) {
	p, sim := newTestPilot(t)
	c := NewCopilot(p)

	if err := c.StartPath(); !errors.Is(err, ErrNoPath) {
		t.Fatalf("error = %v, want ErrNoPath", err)
	}
	if c.Status() != PathNotStarted {
		t.Errorf("status = %s, want not-started", c.Status())
	}
	if len(sim.Commands()) != 0 {
		t.Errorf("unexpected actuation: %v", sim.Commands())
	}

	c.SetPath(NewPath())
	if err := c.StartPath(); !errors.Is(err, ErrNoPath) {
		t.Errorf("empty path: error = %v, want ErrNoPath", err)
	}
}

func TestCopilot_CompletesAfterNDoneEvents(t *testing.T) {
	p, sim := newTestPilot(t)
	c := NewCopilot(p)
	c.SetPath(NewPath(Forwarding(50), Rotating(RotateRight, 50), UTurning(50)))

	if err := c.StartPath(); err != nil {
		t.Fatalf("StartPath: %v", err)
	}
	targets := []int{200, 200, 456}
	for i, target := range targets {
		if c.Step() != i {
			t.Fatalf("step = %d, want %d", c.Step(), i)
		}
		// not there yet
		if got := c.PollStep(); got != PathInProgress {
			t.Fatalf("step %d: status = %s before target", i, got)
		}
		sim.SetEncoders(target, -target)
		got := c.PollStep()
		if i < len(targets)-1 && got != PathInProgress {
			t.Fatalf("step %d: status = %s, want in-progress", i, got)
		}
		if i == len(targets)-1 && got != PathCompleted {
			t.Fatalf("last step: status = %s, want completed", got)
		}
	}
	if !c.IsCompleted() {
		t.Error("IsCompleted = false")
	}

	want := [][2]int{{50, 50}, {0, 0}, {50, -50}, {0, 0}, {50, -50}, {0, 0}}
	got := sim.Commands()
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCopilot_PollAfterCompletionIsIdempotent(t *testing.T) {
	p, sim := newTestPilot(t)
	c := NewCopilot(p)
	c.SetPath(NewPath(Forwarding(50)))
	_ = c.StartPath()
	sim.SetEncoders(200, 200)
	if got := c.PollStep(); got != PathCompleted {
		t.Fatalf("status = %s, want completed", got)
	}

	cmds, resets := len(sim.Commands()), sim.Resets()
	for i := 0; i < 3; i++ {
		if got := c.PollStep(); got != PathCompleted {
			t.Fatalf("poll %d: status = %s", i, got)
		}
	}
	if len(sim.Commands()) != cmds || sim.Resets() != resets {
		t.Error("polling a completed path must not touch the hardware")
	}
	if c.Step() != 1 {
		t.Errorf("step = %d, want 1", c.Step())
	}
}

func TestCopilot_PollBeforeStart(t *testing.T) {
	p, sim := newTestPilot(t)
	c := NewCopilot(p)
	c.SetPath(NewPath(Forwarding(50)))
	if got := c.PollStep(); got != PathNotStarted {
		t.Errorf("status = %s, want not-started", got)
	}
	if len(sim.Commands()) != 0 {
		t.Error("unexpected actuation before StartPath")
	}
}

func TestCopilot_ForwardWithMovingEncoders(t *testing.T) {
	sim := robot.NewSimulator(10) // +speed ticks per encoder read
	if err := sim.Init(); err != nil {
		t.Fatal(err)
	}
	c := NewCopilot(NewPilot(sim, DefaultLimits))
	c.SetPath(NewPath(Forwarding(50)))
	if err := c.StartPath(); err != nil {
		t.Fatal(err)
	}

	polls := 0
	for !c.IsCompleted() && polls < 10 {
		c.PollStep()
		polls++
	}
	if !c.IsCompleted() {
		t.Fatal("path did not complete")
	}
	if polls != 4 {
		t.Errorf("polls = %d, want 4 (50 ticks per read, target 200)", polls)
	}
}

func TestCopilot_InvalidMoveIsSkipped(t *testing.T) {
	p, sim := newTestPilot(t)
	c := NewCopilot(p)
	c.SetPath(NewPath(Move{Direction: "sideways", Speed: 50}, Forwarding(40)))

	if err := c.StartPath(); err != nil {
		t.Fatalf("StartPath: %v", err)
	}
	if got := c.PollStep(); got != PathInProgress {
		t.Fatalf("status = %s, want in-progress", got)
	}
	if c.Step() != 1 {
		t.Fatalf("step = %d, want 1", c.Step())
	}
	if l, r := sim.Speed(); l != 40 || r != 40 {
		t.Errorf("speed = (%d, %d), want (40, 40)", l, r)
	}
}

func TestCopilot_SetPathResetsProgress(t *testing.T) {
	p, sim := newTestPilot(t)
	c := NewCopilot(p)
	c.SetPath(NewPath(Forwarding(50)))
	_ = c.StartPath()
	sim.SetEncoders(200, 200)
	c.PollStep()

	c.SetPath(NewPath(Forwarding(50), Forwarding(50)))
	if c.Status() != PathNotStarted || c.Step() != 0 || c.Steps() != 2 {
		t.Errorf("after SetPath: status=%s step=%d steps=%d", c.Status(), c.Step(), c.Steps())
	}
}

func TestCopilot_ObstaclesDoNotAdvancePath(t *testing.T) {
	p, sim := newTestPilot(t)
	c := NewCopilot(p)
	c.SetPath(NewPath(Forwarding(50), Rotating(RotateLeft, 50)))
	if err := c.StartPath(); err != nil {
		t.Fatal(err)
	}

	sim.SetProximity(100, 100, 100)
	for i := 0; i < 5; i++ {
		if got := c.PollStep(); got != PathInProgress {
			t.Fatalf("poll %d: status = %s, want in-progress", i, got)
		}
		if c.Step() != 0 {
			t.Fatalf("poll %d: step = %d, want 0", i, c.Step())
		}
	}
	if p.Status() != MoveObstacleForward {
		t.Errorf("pilot = %s, want obstacle-forward", p.Status())
	}
	if p.Obstacles() != 1 {
		t.Errorf("obstacles = %d, want 1 after repeated blocked polls", p.Obstacles())
	}

	// first target reached with the sensors still blocked
	sim.SetEncoders(200, 200)
	if got := c.PollStep(); got != PathInProgress || c.Step() != 1 {
		t.Fatalf("after first target: status = %s step = %d", got, c.Step())
	}
	for i := 0; i < 3; i++ {
		if got := c.PollStep(); got != PathInProgress {
			t.Fatalf("second move, poll %d: status = %s", i, got)
		}
	}
	if p.Obstacles() != 2 {
		t.Errorf("obstacles = %d, want one flag per move", p.Obstacles())
	}

	sim.SetEncoders(-200, 200)
	if got := c.PollStep(); got != PathCompleted {
		t.Fatalf("status = %s, want completed after two targets", got)
	}
	if c.Step() != 2 {
		t.Errorf("step = %d, want 2", c.Step())
	}
}
