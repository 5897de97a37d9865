// Package runlevel drives every cooperating subsystem through an
// ordered sequence of bring-up and tear-down phases with implicit
// barriers between runlevels — the mechanism the message transport
// relies on to assume a neighbor's queues already exist by the time
// it starts wiring outbound handles.
package runlevel

import (
	"context"
	"time"
)

// RunLevel is one of the canonical bring-up/tear-down stages the
// runtime walks through at start and stop, in this fixed order.
type RunLevel int

const (
	ConfigParse RunLevel = iota
	NetworkOK
	PdOK
	MemoryOK
	GuidOK
	ComputeOK
	UserOK
)

// levelOrder is the canonical ascending sequence; Down traversals walk
// it in reverse.
var levelOrder = []RunLevel{ConfigParse, NetworkOK, PdOK, MemoryOK, GuidOK, ComputeOK, UserOK}

// String renders the runlevel's canonical name.
func (rl RunLevel) String() string {
	switch rl {
	case ConfigParse:
		return "config-parse"
	case NetworkOK:
		return "network-ok"
	case PdOK:
		return "pd-ok"
	case MemoryOK:
		return "memory-ok"
	case GuidOK:
		return "guid-ok"
	case ComputeOK:
		return "compute-ok"
	case UserOK:
		return "user-ok"
	default:
		return "unknown-runlevel"
	}
}

// Direction distinguishes a bring-up traversal from a tear-down one.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Properties are the flags passed alongside a runlevel switch,
// separating the caller's request from the callee's acknowledgement
// and from the final commit.
type Properties uint8

const (
	// PropRequest marks this call as the initial request for a phase.
	PropRequest Properties = 1 << iota
	// PropResponse marks the callee's acknowledgement of a request.
	PropResponse
	// PropRelease marks the final commit of a phase, after every
	// participant has acknowledged.
	PropRelease
	// PropFromMessage flags a transition triggered by a remote peer
	// over the message transport, rather than locally.
	PropFromMessage
)

// Has reports whether flag is set in p.
func (p Properties) Has(flag Properties) bool { return p&flag != 0 }

// Transition describes one phase of one runlevel, handed to every
// registered Participant.
type Transition struct {
	ID         string
	RunLevel   RunLevel
	Phase      int
	Direction  Direction
	Properties Properties
	Timestamp  time.Time
}

// Callback lets a participant defer completion of a phase: instead of
// returning synchronously from SwitchRunlevel, it returns ErrDeferred
// and later invokes cb(nil) or cb(err) once its asynchronous work
// finishes. The barrier for the current phase does not advance until
// every deferred callback has fired.
type Callback func(err error)

// Participant is implemented by every subsystem the runlevel machine
// coordinates. SwitchRunlevel is called twice per phase, per runlevel,
// in both the Up and Down directions: once with PropRequest, then,
// after the barrier, once with PropResponse|PropRelease as a commit
// notice whose result is ignored.
type Participant interface {
	// Name identifies the participant for logging and for
	// EnsurePhaseUp bookkeeping.
	Name() string

	// SwitchRunlevel is invoked for each phase's request and again for
	// its release notice. On the request the participant may:
	//   - do its work inline and return nil (or an error),
	//   - call Controller.EnsurePhaseUp to request more phases at a
	//     later runlevel, or
	//   - return ErrDeferred and invoke cb asynchronously once done.
	SwitchRunlevel(ctx context.Context, t Transition, ctrl Controller, cb Callback) error
}

// Controller is the handle a Participant uses to influence the
// runlevel machine from inside SwitchRunlevel.
type Controller interface {
	// EnsurePhaseUp requests that rl have at least minPhase+1 phases
	// (0-indexed) during the current pass. tag identifies the
	// requester for diagnostics. Once the machine has already
	// committed a phase, requesting a lower or equal minPhase for
	// that same phase has no effect.
	EnsurePhaseUp(rl RunLevel, tag string, minPhase int) error
}

// PhaseCounts configures how many phases (>=1) each runlevel has.
// Index by RunLevel.
type PhaseCounts [int(UserOK) + 1]int

// DefaultPhaseCounts gives every runlevel a single phase, the minimal
// legal configuration; callers needing more (e.g. PdOK, which the
// message transport wiring typically splits into "create queues" then
// "exchange handles") raise the relevant entries or call
// EnsurePhaseUp at runtime.
func DefaultPhaseCounts() PhaseCounts {
	var pc PhaseCounts
	for i := range pc {
		pc[i] = 1
	}
	return pc
}

// Levels returns the canonical ascending runlevel sequence.
func Levels() []RunLevel {
	out := make([]RunLevel, len(levelOrder))
	copy(out, levelOrder)
	return out
}
