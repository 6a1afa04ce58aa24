package robot

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/RoboGo/internal/debug"
)

// Simulator is an in-memory robot for development and tests.
// Every encoder read advances that wheel by speed*Gain/10 ticks, so a
// moving robot eventually reaches any encoder target. Gain 0 freezes
// the encoders; tests then drive them with SetEncoders.
type Simulator struct {
	mu sync.Mutex

	Gain int
	// OnSetSpeed, if set, runs after every SetSpeed with the new command.
	// Tests use it to change the scenery in reaction to the robot.
	OnSetSpeed func(sim *Simulator, left, right int)

	initialized bool
	closed      bool
	left, right int
	enc         [2]int
	prox        [3]int
	battery     int
	signal      Signal

	commands [][2]int
	signals  []Signal
	resets   int
}

// NewSimulator returns an initialized-on-Init simulator with all sensors clear.
func NewSimulator(gain int) *Simulator {
	return &Simulator{
		Gain:    gain,
		prox:    [3]int{255, 255, 255},
		battery: 100,
	}
}

func (s *Simulator) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	s.closed = false
	debug.Trace("simulator: init")
	return nil
}

func (s *Simulator) SetSpeed(left, right int) error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.left, s.right = left, right
	s.commands = append(s.commands, [2]int{left, right})
	hook := s.OnSetSpeed
	s.mu.Unlock()

	debug.Trace("simulator: speed left=%d right=%d", left, right)
	if hook != nil {
		hook(s, left, right)
	}
	return nil
}

func (s *Simulator) Encoder(w Wheel) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	switch w {
	case LeftWheel:
		s.enc[0] += s.left * s.Gain / 10
		return s.enc[0], nil
	case RightWheel:
		s.enc[1] += s.right * s.Gain / 10
		return s.enc[1], nil
	}
	return 0, fmt.Errorf("invalid wheel: %s", w)
}

func (s *Simulator) ResetEncoders() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.enc = [2]int{}
	s.resets++
	return nil
}

func (s *Simulator) Proximity(sensor Sensor) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	if sensor < SensorLeft || sensor > SensorRight {
		return SensorFault, ErrSensorFault
	}
	v := s.prox[sensor]
	if v == SensorFault {
		return SensorFault, ErrSensorFault
	}
	return v, nil
}

func (s *Simulator) Battery() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return 0, ErrNotInitialized
	}
	return s.battery, nil
}

func (s *Simulator) SetIndicator(sig Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signal = sig
	s.signals = append(s.signals, sig)
	return nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.left, s.right = 0, 0
	s.closed = true
	s.initialized = false
	debug.Trace("simulator: close")
	return nil
}

// --- scenery and inspection ---

// SetProximity sets the three front readings. Use SensorFault to simulate a fault.
func (s *Simulator) SetProximity(left, center, right int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prox = [3]int{left, center, right}
}

// SetEncoders overwrites both encoder positions.
func (s *Simulator) SetEncoders(left, right int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enc = [2]int{left, right}
}

// SetBattery sets the reported charge.
func (s *Simulator) SetBattery(pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battery = pct
}

// Speed returns the last commanded wheel speeds.
func (s *Simulator) Speed() (left, right int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.left, s.right
}

// Commands returns every SetSpeed command in order.
func (s *Simulator) Commands() [][2]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]int(nil), s.commands...)
}

// ClearCommands forgets the recorded SetSpeed history.
func (s *Simulator) ClearCommands() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = nil
}

// Signal returns the current indicator state.
func (s *Simulator) Signal() Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signal
}

// Signals returns every indicator state set, in order.
func (s *Simulator) Signals() []Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Signal(nil), s.signals...)
}

// Resets returns how many times the encoders were reset.
func (s *Simulator) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// Closed reports whether Close was called.
func (s *Simulator) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
