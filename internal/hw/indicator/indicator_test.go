package indicator

import (
	"errors"
	"testing"

	"github.com/cjeanneret/RoboGo/internal/hw/gpio"
	"github.com/cjeanneret/RoboGo/internal/hw/robot"
)

// recordingDriver records GPIO calls for verification.
type recordingDriver struct {
	calls   []gpioCall
	failPin int
}

type gpioCall struct {
	op    string
	pin   int
	level gpio.Level
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error {
	d.calls = append(d.calls, gpioCall{op: "setup", pin: pin})
	return nil
}

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	if pin == d.failPin {
		return errors.New("write failed")
	}
	d.calls = append(d.calls, gpioCall{op: "write", pin: pin, level: level})
	return nil
}

func (d *recordingDriver) ReadPin(pin int) (gpio.Level, error) {
	return gpio.Low, nil
}

func (d *recordingDriver) Close() error { return nil }

// lastLevel returns the last level written to pin.
func (d *recordingDriver) lastLevel(pin int) (gpio.Level, bool) {
	for i := len(d.calls) - 1; i >= 0; i-- {
		if d.calls[i].op == "write" && d.calls[i].pin == pin {
			return d.calls[i].level, true
		}
	}
	return gpio.Low, false
}

func TestNewRGB_SetsUpPinsAndTurnsOff(t *testing.T) {
	drv := &recordingDriver{}
	led, err := NewRGB(drv, 17, 27, 22)
	if err != nil {
		t.Fatalf("NewRGB: %v", err)
	}

	setups := 0
	for _, c := range drv.calls {
		if c.op == "setup" {
			setups++
		}
	}
	if setups != 3 {
		t.Errorf("expected 3 pin setups, got %d", setups)
	}
	for _, pin := range []int{17, 27, 22} {
		lvl, ok := drv.lastLevel(pin)
		if !ok || lvl != gpio.Low {
			t.Errorf("pin %d should be written LOW at init", pin)
		}
	}
	if led.Current() != Off {
		t.Errorf("Current() = %+v, want Off", led.Current())
	}
}

func TestRGB_ShowMapping(t *testing.T) {
	cases := []struct {
		signal           robot.Signal
		red, green, blue gpio.Level
	}{
		{robot.SignalIdle, gpio.Low, gpio.Low, gpio.High},
		{robot.SignalOK, gpio.Low, gpio.Low, gpio.Low},
		{robot.SignalObstacle, gpio.High, gpio.Low, gpio.Low},
		{robot.SignalProblem, gpio.Low, gpio.High, gpio.Low},
	}
	for _, tc := range cases {
		t.Run(tc.signal.String(), func(t *testing.T) {
			drv := &recordingDriver{}
			led, err := NewRGB(drv, 17, 27, 22)
			if err != nil {
				t.Fatalf("NewRGB: %v", err)
			}
			if err := led.Show(tc.signal); err != nil {
				t.Fatalf("Show: %v", err)
			}
			want := map[int]gpio.Level{17: tc.red, 27: tc.green, 22: tc.blue}
			for pin, lvl := range want {
				got, _ := drv.lastLevel(pin)
				if got != lvl {
					t.Errorf("pin %d = %v, want %v", pin, got, lvl)
				}
			}
		})
	}
}

func TestRGB_WriteFailureKeepsPreviousColor(t *testing.T) {
	drv := &recordingDriver{}
	led, err := NewRGB(drv, 17, 27, 22)
	if err != nil {
		t.Fatalf("NewRGB: %v", err)
	}
	_ = led.Set(Blue)
	drv.failPin = 17
	if err := led.Show(robot.SignalObstacle); err == nil {
		t.Fatal("expected error from failing pin")
	}
	if led.Current() != Blue {
		t.Errorf("Current() = %+v, want Blue", led.Current())
	}
}

func TestRGB_WithIndicatorDecorator(t *testing.T) {
	drv := gpio.NewMockDriver()
	led, err := NewRGB(drv, 5, 6, 13)
	if err != nil {
		t.Fatalf("NewRGB: %v", err)
	}
	sim := robot.NewSimulator(0)
	r := robot.WithIndicator(sim, led)
	if err := r.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := r.SetIndicator(robot.SignalObstacle); err != nil {
		t.Fatalf("SetIndicator: %v", err)
	}
	if lvl, _ := drv.ReadPin(5); lvl != gpio.High {
		t.Error("red pin should be HIGH for obstacle")
	}
	if len(sim.Signals()) != 0 {
		t.Error("decorated robot should not receive indicator calls")
	}

	// Other calls still reach the robot.
	if err := r.SetSpeed(10, 20); err != nil {
		t.Fatalf("SetSpeed: %v", err)
	}
	if l, rt := sim.Speed(); l != 10 || rt != 20 {
		t.Errorf("Speed() = (%d, %d), want (10, 20)", l, rt)
	}
}

func TestRGB_CloseTurnsOff(t *testing.T) {
	drv := &recordingDriver{}
	led, _ := NewRGB(drv, 17, 27, 22)
	_ = led.Set(Red)
	if err := led.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if lvl, _ := drv.lastLevel(17); lvl != gpio.Low {
		t.Error("red pin should be LOW after Close")
	}
}

func TestRGB_ImplementsSignaler(t *testing.T) {
	var _ robot.Signaler = &RGB{}
}
