package motion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cjeanneret/RoboGo/internal/hw/robot"
)

func newTestController(t *testing.T) (*Controller, *robot.Simulator) {
	t.Helper()
	sim := robot.NewSimulator(0)
	if err := sim.Init(); err != nil {
		t.Fatal(err)
	}
	return NewController(sim), sim
}

func TestController_Primitives(t *testing.T) {
	cases := []struct {
		name        string
		run         func(c *Controller) error
		left, right int
	}{
		{"forward", func(c *Controller) error { return c.Forward(30) }, 30, 30},
		{"reverse", func(c *Controller) error { return c.Reverse(30) }, -30, -30},
		{"pivot right", func(c *Controller) error { return c.PivotRight(30) }, 30, -30},
		{"pivot left", func(c *Controller) error { return c.PivotLeft(30) }, -30, 30},
		{"stop", func(c *Controller) error { return c.Stop() }, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl, sim := newTestController(t)
			_ = sim.SetSpeed(99, 99)
			if err := tc.run(ctrl); err != nil {
				t.Fatalf("error: %v", err)
			}
			if l, r := sim.Speed(); l != tc.left || r != tc.right {
				t.Errorf("speed = (%d, %d), want (%d, %d)", l, r, tc.left, tc.right)
			}
		})
	}
}

func TestController_DriverError(t *testing.T) {
	ctrl := NewController(robot.NewSimulator(0)) // not initialized
	if err := ctrl.Forward(30); !errors.Is(err, robot.ErrNotInitialized) {
		t.Errorf("error = %v, want ErrNotInitialized", err)
	}
}

func TestController_Sequence(t *testing.T) {
	ctrl, sim := newTestController(t)
	err := ctrl.Sequence(context.Background(),
		Backward(30, time.Microsecond),
		Pivot(true, 30, time.Microsecond),
		Pivot(false, 20, time.Microsecond),
	)
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	want := [][2]int{{-30, -30}, {30, -30}, {-20, 20}}
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

func TestController_SequenceCancelledBetweenSegments(t *testing.T) {
	ctrl, sim := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	sim.OnSetSpeed = func(_ *robot.Simulator, _, _ int) { cancel() }

	err := ctrl.Sequence(ctx,
		Backward(30, time.Microsecond),
		Pivot(true, 30, time.Microsecond),
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if n := len(sim.Commands()); n != 1 {
		t.Errorf("commands = %d, want 1 (first segment runs to its end)", n)
	}
}
