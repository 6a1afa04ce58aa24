// Package nav executes moves (Pilot) and sequences them into paths (Copilot).
package nav

import (
	"errors"
	"fmt"
)

// Direction is the kind of a move.
type Direction string

const (
	Forward Direction = "forward"
	Rotate  Direction = "rotate"
	UTurn   Direction = "u-turn"
)

// Rotation is the sense of a Rotate move. Other moves use RotateNone.
type Rotation string

const (
	RotateNone  Rotation = ""
	RotateLeft  Rotation = "left"
	RotateRight Rotation = "right"
)

// Move is one atomic commanded motion. Speed is a percentage, 0-100.
type Move struct {
	Direction Direction
	Rotation  Rotation
	Speed     int
}

// Forwarding returns a forward move.
func Forwarding(speed int) Move {
	return Move{Direction: Forward, Speed: speed}
}

// Rotating returns an in-place rotation.
func Rotating(sense Rotation, speed int) Move {
	return Move{Direction: Rotate, Rotation: sense, Speed: speed}
}

// UTurning returns a U-turn.
func UTurning(speed int) Move {
	return Move{Direction: UTurn, Speed: speed}
}

func (m Move) String() string {
	if m.Direction == Rotate {
		return fmt.Sprintf("rotate-%s@%d", m.Rotation, m.Speed)
	}
	return fmt.Sprintf("%s@%d", m.Direction, m.Speed)
}

// Path is an immutable, ordered sequence of moves. The zero Path is empty.
type Path struct {
	moves []Move
}

// NewPath copies moves into a new Path.
func NewPath(moves ...Move) Path {
	return Path{moves: append([]Move(nil), moves...)}
}

// Len returns the number of moves.
func (p Path) Len() int { return len(p.moves) }

// At returns the i-th move.
func (p Path) At(i int) Move { return p.moves[i] }

// Moves returns a copy of the moves.
func (p Path) Moves() []Move { return append([]Move(nil), p.moves...) }

// MoveStatus is the Pilot's view of the active move. It is recomputed on every poll.
type MoveStatus int

const (
	MoveForwarding MoveStatus = iota
	MoveTurning
	MoveDone
	MoveObstacleForward
)

func (s MoveStatus) String() string {
	switch s {
	case MoveForwarding:
		return "forwarding"
	case MoveTurning:
		return "turning"
	case MoveDone:
		return "done"
	case MoveObstacleForward:
		return "obstacle-forward"
	}
	return fmt.Sprintf("move-status(%d)", int(s))
}

// PathStatus only moves forward: NotStarted -> InProgress -> Completed.
type PathStatus int

const (
	PathNotStarted PathStatus = iota
	PathInProgress
	PathCompleted
)

func (s PathStatus) String() string {
	switch s {
	case PathNotStarted:
		return "not-started"
	case PathInProgress:
		return "in-progress"
	case PathCompleted:
		return "completed"
	}
	return fmt.Sprintf("path-status(%d)", int(s))
}

var (
	// ErrNoPath is returned by StartPath when no path or an empty path is set.
	ErrNoPath = errors.New("no path configured")
	// ErrInvalidMove is returned by StartMove for an unknown direction or rotation sense.
	ErrInvalidMove = errors.New("invalid move")
)
