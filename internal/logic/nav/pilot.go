package nav

import (
	"fmt"

	"github.com/cjeanneret/RoboGo/internal/debug"
	"github.com/cjeanneret/RoboGo/internal/hw/robot"
)

// Limits are the Pilot's encoder targets and obstacle threshold.
type Limits struct {
	DefaultTarget     int // encoder ticks for forward and rotate moves
	UTurnTarget       int // encoder ticks for a U-turn, larger than DefaultTarget
	ObstacleThreshold int // proximity below this flags an obstacle
}

// DefaultLimits matches the MRPiZ tuning.
var DefaultLimits = Limits{DefaultTarget: 200, UTurnTarget: 456, ObstacleThreshold: 150}

// Pilot executes one move at a time. It never waits: callers start a move
// and then call PollTarget until it reports MoveDone.
type Pilot struct {
	robot  robot.Robot
	limits Limits

	move      Move
	status    MoveStatus
	target    int
	obstacles int
}

// NewPilot returns an idle Pilot (status MoveDone).
func NewPilot(r robot.Robot, limits Limits) *Pilot {
	return &Pilot{
		robot:  r,
		limits: limits,
		status: MoveDone,
		target: limits.DefaultTarget,
	}
}

// StartMove commands the wheel speeds for m. An unknown direction or
// rotation sense ends the move immediately without actuation and
// returns ErrInvalidMove; the error is also logged.
func (p *Pilot) StartMove(m Move) error {
	var left, right int
	var status MoveStatus

	switch m.Direction {
	case Forward:
		left, right = m.Speed, m.Speed
		status = MoveForwarding
	case Rotate:
		switch m.Rotation {
		case RotateRight:
			left, right = m.Speed, -m.Speed
		case RotateLeft:
			left, right = -m.Speed, m.Speed
		default:
			return p.reject(m, fmt.Errorf("%w: unknown rotation sense %q", ErrInvalidMove, m.Rotation))
		}
		p.target = p.limits.DefaultTarget
		status = MoveTurning
	case UTurn:
		left, right = m.Speed, -m.Speed
		p.target = p.limits.UTurnTarget
		status = MoveTurning
	default:
		return p.reject(m, fmt.Errorf("%w: unknown direction %q", ErrInvalidMove, m.Direction))
	}

	p.move = m
	debug.Move(m.String(), left, right)
	if err := p.robot.SetSpeed(left, right); err != nil {
		err = fmt.Errorf("start %s: %w", m, err)
		debug.Error(err)
		p.status = MoveDone
		p.target = p.limits.DefaultTarget
		p.signal(robot.SignalProblem)
		return err
	}
	p.status = status
	p.signal(robot.SignalOK)
	return nil
}

func (p *Pilot) reject(m Move, err error) error {
	debug.Error(err)
	p.move = m
	p.status = MoveDone
	return err
}

// PollTarget reads the robot once. When either encoder reaches the target
// the wheels stop, the encoders and the target are reset and the move is
// done. Otherwise an obstacle on any front sensor flags MoveObstacleForward
// without stopping. A done move stays done and touches no hardware.
func (p *Pilot) PollTarget() MoveStatus {
	if p.status == MoveDone {
		return p.status
	}

	st, err := robot.ReadStatus(p.robot)
	if err != nil {
		debug.Error(fmt.Errorf("pilot poll: %w", err))
	}

	if abs(st.LeftEncoder) >= p.target || abs(st.RightEncoder) >= p.target {
		debug.Live("Move %s done (enc=%d,%d target=%d)", p.move, st.LeftEncoder, st.RightEncoder, p.target)
		p.status = MoveDone
		if err := p.robot.ResetEncoders(); err != nil {
			debug.Error(fmt.Errorf("reset encoders: %w", err))
		}
		robot.Stop(p.robot)
		p.target = p.limits.DefaultTarget
		p.signal(robot.SignalIdle)
		return p.status
	}

	if st.AnyBlocked(p.limits.ObstacleThreshold) {
		if p.status != MoveObstacleForward {
			debug.Obstacle(st.Left, st.Center, st.Right)
			p.signal(robot.SignalObstacle)
			p.obstacles++
		}
		p.status = MoveObstacleForward
	}
	return p.status
}

// Status returns the last computed status without touching the hardware.
func (p *Pilot) Status() MoveStatus {
	return p.status
}

// Move returns the last move started.
func (p *Pilot) Move() Move {
	return p.move
}

// Target returns the current encoder target.
func (p *Pilot) Target() int {
	return p.target
}

// Obstacles returns how many moves have been flagged MoveObstacleForward
// since the Pilot was created.
func (p *Pilot) Obstacles() int {
	return p.obstacles
}

func (p *Pilot) signal(s robot.Signal) {
	if err := p.robot.SetIndicator(s); err != nil {
		debug.Verbose("indicator %s: %v", s, err)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
