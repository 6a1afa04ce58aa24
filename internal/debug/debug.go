// Package debug is RoboGo's levelled logger. Every package logs through it;
// nothing is printed until Init selects a level above LevelOff.
package debug

import (
	"io"
	"log"
	"os"
	"strings"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Selected path, completion, errors
	LevelLive    = 2 // Moves, obstacles, wall-follow decisions, transitions
	LevelVerbose = 3 // Sensor snapshots, recovery stages, config
	LevelTrace   = 4 // GPIO writes, UART lines
)

var (
	level  int
	out    io.Writer = os.Stdout
	logger *log.Logger
)

var rule = strings.Repeat("─", 40)

// Init sets the level (0-4) and (re)creates the logger on the current output.
func Init(debugLevel int) {
	level = debugLevel
	logger = nil
	if level > LevelOff {
		logger = log.New(out, "[RoboGo] ", log.LstdFlags|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output (e.g. to stdout and the web broadcaster).
func SetOutput(w io.Writer) {
	out = w
	if logger != nil {
		logger.SetOutput(w)
	}
}

// emit prints one tagged line when minLevel is enabled.
func emit(minLevel int, tag, format string, args ...interface{}) {
	if logger == nil || level < minLevel {
		return
	}
	logger.Printf(tag+" "+format, args...)
}

func banner(minLevel int, title string) {
	if logger == nil || level < minLevel {
		return
	}
	logger.Print(rule)
	logger.Printf("  %s", title)
	logger.Print(rule)
}

// Info logs path selection, completion and other operator-facing events.
func Info(format string, args ...interface{}) { emit(LevelInfo, "[INFO]", format, args...) }

// Summary prints a title between two rules.
func Summary(title string) { banner(LevelInfo, title) }

// Value logs "name = value" at info level, used for the startup summary.
func Value(name string, value interface{}) {
	emit(LevelInfo, "[INFO]", "  %s = %v", name, value)
}

// Error logs err at info level.
func Error(err error) { emit(LevelInfo, "[ERROR]", "%v", err) }

func Live(format string, args ...interface{}) { emit(LevelLive, "[LIVE]", format, args...) }

// Move logs the wheel speeds commanded for a move.
func Move(kind string, left, right int) {
	emit(LevelLive, "[LIVE]", "Move %s: left=%d right=%d", kind, left, right)
}

// Obstacle logs the three proximity readings that flagged an obstacle.
func Obstacle(left, center, right int) {
	emit(LevelLive, "[LIVE]", "Obstacle ahead (left=%d, center=%d, right=%d)", left, center, right)
}

// Transition logs a mission state change.
func Transition(from, to string) {
	emit(LevelLive, "[LIVE]", "State %s -> %s", from, to)
}

func Verbose(format string, args ...interface{}) { emit(LevelVerbose, "[VERBOSE]", format, args...) }

// PrintStruct dumps v with field names.
func PrintStruct(name string, v interface{}) {
	emit(LevelVerbose, "[VERBOSE]", "%s: %+v", name, v)
}

// Section separates startup phases.
func Section(name string) { banner(LevelVerbose, name) }

// Step logs a numbered step: a startup phase or a path move.
func Step(num int, description string) {
	emit(LevelVerbose, "[VERBOSE]", "Step %d: %s", num, description)
}

// Sensors logs one encoder/proximity snapshot.
func Sensors(leftEnc, rightEnc, left, center, right int) {
	emit(LevelVerbose, "[VERBOSE]", "enc=(%d,%d) prox=(%d,%d,%d)", leftEnc, rightEnc, left, center, right)
}

func Trace(format string, args ...interface{}) { emit(LevelTrace, "[TRACE]", format, args...) }

// GPIO logs a pin operation.
func GPIO(operation string, pin int, value interface{}) {
	emit(LevelTrace, "[GPIO]", "%s pin=%d value=%v", operation, pin, value)
}

// UART logs a line exchanged with the robot board.
func UART(direction, line string) {
	emit(LevelTrace, "[UART]", "%s %q", direction, line)
}
