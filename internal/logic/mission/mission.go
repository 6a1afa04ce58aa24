// Package mission is the top-level control loop: it lets the operator pick
// a path or the wall-following behaviour and drives it to the end.
package mission

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cjeanneret/RoboGo/internal/debug"
	"github.com/cjeanneret/RoboGo/internal/hw/robot"
	"github.com/cjeanneret/RoboGo/internal/logic/nav"
	"github.com/cjeanneret/RoboGo/internal/logic/paths"
	"github.com/cjeanneret/RoboGo/internal/logic/wallfollow"
)

// State is the mission state.
type State int

const (
	SelectPath State = iota
	ExecutePath
	CheckCompletion
	FollowWall
)

func (s State) String() string {
	switch s {
	case SelectPath:
		return "select-path"
	case ExecutePath:
		return "execute-path"
	case CheckCompletion:
		return "check-completion"
	case FollowWall:
		return "follow-wall"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Menu keys outside the path ids.
const (
	KeyQuit       = '0'
	KeyFollowWall = '1'
)

// Journal run kinds and outcomes.
const (
	KindPath       = "path"
	KindWallFollow = "wall-follow"

	OutcomeCompleted = "completed"
	OutcomeStopped   = "stopped"
	OutcomeCancelled = "cancelled"
)

// Input is the operator keyboard.
type Input interface {
	// ReadKey blocks until a key is pressed or ctx is done.
	ReadKey(ctx context.Context) (rune, error)
	// StopRequested reports, without blocking, whether the stop key was pressed.
	StopRequested() bool
}

// MenuItem is one selectable entry.
type MenuItem struct {
	Key   rune
	Label string
}

// Display renders the menu, live telemetry and messages.
type Display interface {
	Menu(items []MenuItem)
	Status(t Telemetry)
	Message(msg string)
}

// Journal records each path run and wall-follow session. For a
// wall-follow session, obstacles counts dead-angle recoveries.
type Journal interface {
	Begin(kind string, pathID, speed int) (string, error)
	Finish(id string, steps, obstacles int, outcome string) error
}

// Publisher receives telemetry, e.g. for the web dashboard.
type Publisher interface {
	Publish(t Telemetry)
}

// Telemetry is the live view of the mission.
type Telemetry struct {
	State  string       `json:"state"`
	PathID int          `json:"path_id,omitempty"`
	Speed  int          `json:"speed,omitempty"`
	Move   string       `json:"move,omitempty"` // active move while a path runs
	Step   int          `json:"step"`
	Steps  int          `json:"steps"`
	Status robot.Status `json:"status"`
	Time   time.Time    `json:"time"`
}

// Options wires a Mission. Journal and Publisher are optional.
type Options struct {
	Robot     robot.Robot
	Copilot   *nav.Copilot
	Registry  *paths.Registry
	Follower  *wallfollow.Follower
	Input     Input
	Display   Display
	Journal   Journal
	Publisher Publisher

	PollInterval time.Duration // delay before each completion poll
	PollRetries  int           // polls per completion check
	SpeedScale   int           // speed digit multiplier
	Pacing       time.Duration // delay between wall-follow steps
}

// run is the path run or wall-follow session in progress.
type run struct {
	id        string
	kind      string
	pathID    int
	speed     int
	obstacles int // Pilot obstacle count at start
	steps     int // Follower step count at start
	recovered int // Follower recovery count at start
}

// Mission owns the navigation context. It is driven from a single
// goroutine; only RequestStop may be called concurrently.
type Mission struct {
	opts  Options
	state State
	run   *run

	stop atomic.Bool
}

func New(opts Options) *Mission {
	if opts.Journal == nil {
		opts.Journal = nopJournal{}
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.SpeedScale <= 0 {
		opts.SpeedScale = 10
	}
	return &Mission{opts: opts, state: SelectPath}
}

// State returns the current state.
func (m *Mission) State() State {
	return m.state
}

// RequestStop asks the running path or wall-follow session to stop,
// like the stop key. Safe to call from any goroutine.
func (m *Mission) RequestStop() {
	debug.Live("Remote stop requested")
	m.stop.Store(true)
}

func (m *Mission) stopRequested() bool {
	remote := m.stop.Swap(false)
	return m.opts.Input.StopRequested() || remote
}

// Run loops until the operator quits, the input fails or ctx is done.
// Cancellation overrides any state: the wheels are stopped and the run
// in progress is journaled as cancelled.
func (m *Mission) Run(ctx context.Context) error {
	debug.Info("Mission started")
	for {
		if ctx.Err() != nil {
			m.abort()
			debug.Info("Mission cancelled")
			return nil
		}
		quit, err := m.Step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			m.abort()
			return err
		}
		if quit {
			debug.Info("Mission ended by operator")
			return nil
		}
	}
}

// Step runs the handler of the current state once. quit is true when
// the operator chose to leave.
func (m *Mission) Step(ctx context.Context) (quit bool, err error) {
	switch m.state {
	case SelectPath:
		return m.selectPath(ctx)
	case ExecutePath:
		m.executePath(ctx)
	case CheckCompletion:
		m.checkCompletion()
	case FollowWall:
		m.followWall(ctx)
	}
	return false, nil
}

func (m *Mission) setState(s State) {
	if s != m.state {
		debug.Transition(m.state.String(), s.String())
	}
	m.state = s
}

func (m *Mission) telemetry(st robot.Status) Telemetry {
	t := Telemetry{State: m.state.String(), Status: st, Time: time.Now()}
	if m.run != nil {
		t.PathID, t.Speed = m.run.pathID, m.run.speed
	}
	if m.state == ExecutePath {
		t.Step, t.Steps = m.opts.Copilot.Step(), m.opts.Copilot.Steps()
		t.Move = m.opts.Copilot.Pilot().Move().String()
	}
	return t
}

func (m *Mission) report(st robot.Status) {
	t := m.telemetry(st)
	m.opts.Display.Status(t)
	m.opts.Publisher.Publish(t)
}

func (m *Mission) begin(kind string, pathID, speed int) {
	m.stop.Store(false)
	r := &run{
		kind:      kind,
		pathID:    pathID,
		speed:     speed,
		obstacles: m.opts.Copilot.Pilot().Obstacles(),
		steps:     m.opts.Follower.Steps(),
		recovered: m.opts.Follower.Recoveries(),
	}
	id, err := m.opts.Journal.Begin(kind, pathID, speed)
	if err != nil {
		debug.Error(fmt.Errorf("journal begin: %w", err))
	}
	r.id = id
	m.run = r
}

func (m *Mission) finish(outcome string) {
	r := m.run
	if r == nil {
		return
	}
	m.run = nil

	var steps, obstacles int
	switch r.kind {
	case KindPath:
		steps = m.opts.Copilot.Step()
		obstacles = m.opts.Copilot.Pilot().Obstacles() - r.obstacles
	case KindWallFollow:
		steps = m.opts.Follower.Steps() - r.steps
		obstacles = m.opts.Follower.Recoveries() - r.recovered
	}
	debug.Info("Run %s finished: %s (steps=%d, obstacles=%d)", r.kind, outcome, steps, obstacles)
	if r.id == "" {
		return
	}
	if err := m.opts.Journal.Finish(r.id, steps, obstacles, outcome); err != nil {
		debug.Error(fmt.Errorf("journal finish: %w", err))
	}
}

// abort stops the wheels if a run is in progress.
func (m *Mission) abort() {
	if m.run == nil {
		return
	}
	robot.Stop(m.opts.Robot)
	m.finish(OutcomeCancelled)
	m.setState(SelectPath)
}

// wait sleeps d unless ctx is done first.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopJournal struct{}

func (nopJournal) Begin(string, int, int) (string, error) { return "", nil }
func (nopJournal) Finish(string, int, int, string) error  { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(Telemetry) {}
