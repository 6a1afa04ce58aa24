// Package robot is the hardware interface of the two-wheeled robot:
// wheel speeds, encoders, proximity sensors, battery and status LED.
package robot

import (
	"errors"
	"fmt"

	"github.com/cjeanneret/RoboGo/internal/debug"
)

// Wheel identifies a motor/encoder.
type Wheel int

const (
	LeftWheel  Wheel = 0
	RightWheel Wheel = 1
	BothWheels Wheel = 2
)

func (w Wheel) String() string {
	switch w {
	case LeftWheel:
		return "left"
	case RightWheel:
		return "right"
	case BothWheels:
		return "both"
	}
	return fmt.Sprintf("wheel(%d)", int(w))
}

// Sensor identifies a front proximity sensor.
type Sensor int

const (
	SensorLeft Sensor = iota
	SensorCenter
	SensorRight
)

func (s Sensor) String() string {
	switch s {
	case SensorLeft:
		return "left"
	case SensorCenter:
		return "center"
	case SensorRight:
		return "right"
	}
	return fmt.Sprintf("sensor(%d)", int(s))
}

// Signal is what the status LED shows. It never feeds back into control.
type Signal int

const (
	SignalIdle Signal = iota
	SignalOK
	SignalObstacle
	SignalProblem
)

func (s Signal) String() string {
	switch s {
	case SignalIdle:
		return "idle"
	case SignalOK:
		return "ok"
	case SignalObstacle:
		return "obstacle"
	case SignalProblem:
		return "problem"
	}
	return fmt.Sprintf("signal(%d)", int(s))
}

// SensorFault is the raw proximity value a sensor reports on hardware error.
const SensorFault = -1

// ErrSensorFault is returned by Proximity when the sensor reports its fault sentinel.
var ErrSensorFault = errors.New("proximity sensor fault")

// ErrNotInitialized is returned by drivers used before Init.
var ErrNotInitialized = errors.New("robot not initialized")

// Robot is the hardware interface consumed by the navigation core.
// Init must succeed before any other call.
type Robot interface {
	Init() error
	// SetSpeed commands signed wheel speeds in percent, typically [-100, 100]. 0 stops a wheel.
	SetSpeed(left, right int) error
	// Encoder returns the wheel position since the last reset.
	Encoder(w Wheel) (int, error)
	ResetEncoders() error
	// Proximity returns 0-255, higher is farther. A faulted sensor returns ErrSensorFault.
	Proximity(s Sensor) (int, error)
	// Battery returns the charge in percent.
	Battery() (int, error)
	SetIndicator(s Signal) error
	Close() error
}

// Status is a read-only snapshot of every sensor.
type Status struct {
	LeftEncoder  int `json:"left_encoder"`
	RightEncoder int `json:"right_encoder"`
	Left         int `json:"left"`
	Center       int `json:"center"`
	Right        int `json:"right"`
	Battery      int `json:"battery"`
	// Faults holds one bit per Sensor whose reading failed. A faulted
	// sensor's value is SensorFault.
	Faults uint8 `json:"faults,omitempty"`
}

// Proximity returns the recorded reading of a sensor.
func (s Status) Proximity(sensor Sensor) int {
	switch sensor {
	case SensorLeft:
		return s.Left
	case SensorCenter:
		return s.Center
	case SensorRight:
		return s.Right
	}
	return SensorFault
}

// Faulted reports whether a sensor failed during the snapshot.
func (s Status) Faulted(sensor Sensor) bool {
	return s.Faults&(1<<uint(sensor)) != 0
}

// Clear reports whether a sensor sees nothing nearer than threshold.
// A faulted sensor is never clear.
func (s Status) Clear(sensor Sensor, threshold int) bool {
	return !s.Faulted(sensor) && s.Proximity(sensor) > threshold
}

// Blocked reports whether a sensor sees an obstacle below threshold.
// A faulted sensor is always blocked.
func (s Status) Blocked(sensor Sensor, threshold int) bool {
	return s.Faulted(sensor) || s.Proximity(sensor) < threshold
}

// AnyBlocked reports whether at least one front sensor is blocked.
func (s Status) AnyBlocked(threshold int) bool {
	return s.Blocked(SensorLeft, threshold) ||
		s.Blocked(SensorCenter, threshold) ||
		s.Blocked(SensorRight, threshold)
}

// ReadStatus reads every sensor of r. Sensor faults are recorded in
// Status.Faults and reported as errors wrapping ErrSensorFault; the
// snapshot is always complete.
func ReadStatus(r Robot) (Status, error) {
	var st Status
	var errs []error

	readProx := func(sensor Sensor, dst *int) {
		v, err := r.Proximity(sensor)
		if err != nil {
			*dst = SensorFault
			st.Faults |= 1 << uint(sensor)
			errs = append(errs, fmt.Errorf("%s proximity: %w", sensor, err))
			return
		}
		*dst = v
	}
	readProx(SensorLeft, &st.Left)
	readProx(SensorCenter, &st.Center)
	readProx(SensorRight, &st.Right)

	var err error
	if st.LeftEncoder, err = r.Encoder(LeftWheel); err != nil {
		errs = append(errs, fmt.Errorf("left encoder: %w", err))
	}
	if st.RightEncoder, err = r.Encoder(RightWheel); err != nil {
		errs = append(errs, fmt.Errorf("right encoder: %w", err))
	}
	if st.Battery, err = r.Battery(); err != nil {
		errs = append(errs, fmt.Errorf("battery: %w", err))
	}

	debug.Sensors(st.LeftEncoder, st.RightEncoder, st.Left, st.Center, st.Right)
	return st, errors.Join(errs...)
}

// Stop zeroes both wheel speeds, logging any failure.
func Stop(r Robot) {
	if err := r.SetSpeed(0, 0); err != nil {
		debug.Error(fmt.Errorf("stop wheels: %w", err))
	}
}
