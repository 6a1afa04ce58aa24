// Package paths builds the predefined paths offered in the mission menu.
package paths

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cjeanneret/RoboGo/internal/debug"
	"github.com/cjeanneret/RoboGo/internal/hw/robot"
	"github.com/cjeanneret/RoboGo/internal/logic/nav"
)

var (
	// ErrUnknownPath is returned by Resolve for an id with no template.
	ErrUnknownPath = errors.New("unknown path")
	// ErrPathBlocked is returned by Resolve when a path's clearance check fails.
	ErrPathBlocked = errors.New("path blocked")
)

// Path ids shown in the menu.
const (
	ZigzagA    = 7
	ZigzagB    = 9
	Straight   = 8
	TurnRight  = 6
	TurnLeft   = 4
	TurnAround = 2
)

type template struct {
	description string
	// needsFront refuses the path unless the center sensor is clear.
	needsFront bool
	build      func(speed int) []nav.Move
}

// Registry maps path ids to move templates. Paths are built on demand
// for the requested speed and never shared.
type Registry struct {
	threshold int
	templates map[int]template
}

// NewRegistry returns the standard registry. steps is the length of
// the zigzag paths; threshold is the front clearance needed by paths
// that start by driving forward.
func NewRegistry(steps, threshold int) *Registry {
	zigzag := func(speed int) []nav.Move {
		moves := make([]nav.Move, steps)
		for i := range moves {
			switch {
			case i%2 == 0:
				moves[i] = nav.Forwarding(speed)
			case i%4 == 1:
				moves[i] = nav.Rotating(nav.RotateRight, speed)
			default:
				moves[i] = nav.Rotating(nav.RotateLeft, speed)
			}
		}
		return moves
	}
	single := func(m func(speed int) nav.Move) func(int) []nav.Move {
		return func(speed int) []nav.Move { return []nav.Move{m(speed)} }
	}

	return &Registry{
		threshold: threshold,
		templates: map[int]template{
			ZigzagA: {description: fmt.Sprintf("zigzag (%d steps)", steps), build: zigzag},
			ZigzagB: {description: fmt.Sprintf("zigzag (%d steps)", steps), build: zigzag},
			Straight: {
				description: "forward",
				needsFront:  true,
				build:       single(nav.Forwarding),
			},
			TurnRight: {
				description: "rotate right",
				build:       single(func(s int) nav.Move { return nav.Rotating(nav.RotateRight, s) }),
			},
			TurnLeft: {
				description: "rotate left",
				build:       single(func(s int) nav.Move { return nav.Rotating(nav.RotateLeft, s) }),
			},
			TurnAround: {description: "u-turn", build: single(nav.UTurning)},
		},
	}
}

// Resolve builds path id at speed. status is the latest sensor snapshot,
// used for clearance checks.
func (r *Registry) Resolve(id, speed int, status robot.Status) (nav.Path, error) {
	t, ok := r.templates[id]
	if !ok {
		return nav.Path{}, fmt.Errorf("%w: %d", ErrUnknownPath, id)
	}
	if t.needsFront && !status.Clear(robot.SensorCenter, r.threshold) {
		return nav.Path{}, fmt.Errorf("%w: %s needs front clearance (center=%d)", ErrPathBlocked, t.description, status.Center)
	}
	path := nav.NewPath(t.build(speed)...)
	debug.Verbose("Resolved path %d (%s) at speed %d: %d steps", id, t.description, speed, path.Len())
	return path, nil
}

// IDs returns the known path ids in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Describe returns a short label for id, or "" if unknown.
func (r *Registry) Describe(id int) string {
	return r.templates[id].description
}
