package edtrt

import (
	"context"

	"github.com/open-edt/edtrt/runlevel"
)

// Subsystem is the minimal contract every runtime-internal facility
// (transport endpoint, guid registry, event engine, data-block
// allocator, task dispatcher, ...) must satisfy to be wired into a
// Runtime. Additional capability is opted into via the Configurable,
// DependencyAware, and ServiceAware interfaces below.
type Subsystem interface {
	// Name uniquely identifies the subsystem within a Runtime.
	Name() string
	// Description is a short human-readable summary, surfaced by the
	// introspection HTTP endpoint.
	Description() string
}

// Configurable is implemented by a Subsystem that needs its own
// configuration section decoded before bring-up begins.
type Configurable interface {
	RegisterConfig(rt Runtime) error
}

// DependencyAware is implemented by a Subsystem that must be brought
// up after specific other subsystems. The Runtime resolves these into
// a bring-up order before running any runlevel, and rejects a cycle
// outright.
type DependencyAware interface {
	Dependencies() []ServiceDependency
}

// ServiceAware is implemented by a Subsystem that publishes one or
// more named services for others to look up via GetService.
type ServiceAware interface {
	ProvidedServices() []Service
}

// RunlevelParticipant is implemented by a Subsystem that wants to run
// code during bring-up/tear-down. It is the runlevel.Participant
// contract, scoped to subsystems: the runlevel machine calls
// SwitchRunlevel twice per phase, per runlevel, in both directions:
// once for the request and once for the release notice.
//
// This replaces the single Start(ctx)/Stop(ctx) pair a plain service
// object would use elsewhere, because spec.md requires per-phase
// bring-up and tear-down rather than one-shot start/stop: the comm
// platform, for instance, creates its queues at PdOK phase 0 and only
// exchanges remote handles at PdOK phase 1, once every peer's queues
// are known to exist.
type RunlevelParticipant interface {
	Subsystem
	runlevel.Participant
}

// subsystemAdapter lets a bare Subsystem that does not implement
// RunlevelParticipant still be registered with a Runtime: it is
// wired into the registry and dependency graph but does nothing
// during runlevel transitions.
type subsystemAdapter struct {
	Subsystem
}

func (a subsystemAdapter) SwitchRunlevel(context.Context, runlevel.Transition, runlevel.Controller, runlevel.Callback) error {
	return nil
}

func asParticipant(s Subsystem) RunlevelParticipant {
	if p, ok := s.(RunlevelParticipant); ok {
		return p
	}
	return subsystemAdapter{s}
}
