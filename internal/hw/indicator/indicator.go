package indicator

import (
	"fmt"

	"github.com/cjeanneret/RoboGo/internal/debug"
	"github.com/cjeanneret/RoboGo/internal/hw/gpio"
	"github.com/cjeanneret/RoboGo/internal/hw/robot"
)

// Color is a combination of the three LED channels.
type Color struct {
	Red, Green, Blue bool
}

var (
	Off   = Color{}
	Red   = Color{Red: true}
	Green = Color{Green: true}
	Blue  = Color{Blue: true}
)

// ColorFor maps a robot signal to the LED color:
// idle is blue, ok is off, obstacle is red, problem is green.
func ColorFor(s robot.Signal) Color {
	switch s {
	case robot.SignalIdle:
		return Blue
	case robot.SignalObstacle:
		return Red
	case robot.SignalProblem:
		return Green
	}
	return Off
}

// RGB is a common-cathode RGB LED wired to three GPIO lines:
// a HIGH line lights its channel.
type RGB struct {
	gpio                      gpio.Driver
	redPin, greenPin, bluePin int
	current                   Color
}

// NewRGB configures the three pins as outputs and turns the LED off.
func NewRGB(g gpio.Driver, redPin, greenPin, bluePin int) (*RGB, error) {
	for _, pin := range []int{redPin, greenPin, bluePin} {
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, fmt.Errorf("setup LED pin %d: %w", pin, err)
		}
	}
	led := &RGB{
		gpio:     g,
		redPin:   redPin,
		greenPin: greenPin,
		bluePin:  bluePin,
	}
	if err := led.Set(Off); err != nil {
		return nil, err
	}
	return led, nil
}

// Set drives the three channels. A failed write leaves the previous color recorded.
func (l *RGB) Set(c Color) error {
	channels := []struct {
		pin int
		on  bool
	}{
		{l.redPin, c.Red},
		{l.greenPin, c.Green},
		{l.bluePin, c.Blue},
	}
	for _, ch := range channels {
		level := gpio.Low
		if ch.on {
			level = gpio.High
		}
		if err := l.gpio.WritePin(ch.pin, level); err != nil {
			return fmt.Errorf("write LED pin %d: %w", ch.pin, err)
		}
	}
	l.current = c
	return nil
}

// Show implements robot.Signaler.
func (l *RGB) Show(s robot.Signal) error {
	debug.Verbose("LED: %s", s)
	return l.Set(ColorFor(s))
}

// Current returns the last color successfully set.
func (l *RGB) Current() Color {
	return l.current
}

// Close turns the LED off.
func (l *RGB) Close() error {
	return l.Set(Off)
}
