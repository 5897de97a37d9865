package edtrt

import (
	"context"
	"sync"

	"github.com/open-edt/edtrt/runlevel"
)

// Runtime hosts a fixed set of Subsystems and drives them through the
// canonical runlevel bring-up/tear-down sequence. It is the single
// object an embedding program builds via RuntimeBuilder and calls Up
// on; individual subsystems reach each other only through the service
// registry, never through a concrete Runtime type.
type Runtime interface {
	RuntimeRegistry
	Subject

	// Logger returns the runtime-wide structured logger.
	Logger() Logger

	// ConfigProvider returns the top-level RuntimeConfig provider.
	ConfigProvider() ConfigProvider

	// RegisterConfigSection attaches a named configuration section,
	// normally called by a Subsystem's RegisterConfig during
	// RegisterSubsystem.
	RegisterConfigSection(name string, cp ConfigProvider)

	// ConfigSections returns every registered section by name.
	ConfigSections() map[string]ConfigProvider

	// GetConfigSection looks up a previously registered section.
	GetConfigSection(name string) (ConfigProvider, error)

	// RegisterSubsystem adds s to the runtime: its config section is
	// registered immediately (if Configurable), its services are
	// published immediately (if ServiceAware), and, if it implements
	// RunlevelParticipant, it is wired into the runlevel machine.
	// Calling this after Up has run returns ErrRuntimeAlreadyUp.
	RegisterSubsystem(s Subsystem) error

	// Subsystems returns every registered subsystem in registration
	// order.
	Subsystems() []Subsystem

	// Up resolves the bring-up order, validates it has no cycles, then
	// walks every runlevel up to and including to.
	Up(ctx context.Context, to runlevel.RunLevel) error

	// Down tears every runlevel down to and including to, in reverse.
	Down(ctx context.Context, to runlevel.RunLevel) error

	// Current reports the highest fully-committed runlevel.
	Current() runlevel.RunLevel
}

// StdRuntime is the default Runtime implementation.
type StdRuntime struct {
	logger   Logger
	cfgProvider ConfigProvider
	cfgSections map[string]ConfigProvider

	svcRegistry ServiceRegistry

	subsystems   []Subsystem
	subsystemIdx map[string]Subsystem

	machine *runlevel.Machine

	observerMu sync.RWMutex
	observers  map[string]*observerRegistration
	up         bool
}

// NewStdRuntime creates a Runtime with the given top-level config
// provider, logger, and per-runlevel phase counts. Pass
// runlevel.DefaultPhaseCounts() for the minimal one-phase-per-level
// configuration.
func NewStdRuntime(cp ConfigProvider, logger Logger, phaseCounts runlevel.PhaseCounts) *StdRuntime {
	return &StdRuntime{
		logger:       logger,
		cfgProvider:  cp,
		cfgSections:  make(map[string]ConfigProvider),
		svcRegistry:  make(ServiceRegistry),
		subsystemIdx: make(map[string]Subsystem),
		machine:      runlevel.NewMachine(phaseCounts),
		observers:    make(map[string]*observerRegistration),
	}
}

func (rt *StdRuntime) Logger() Logger                { return rt.logger }
func (rt *StdRuntime) ConfigProvider() ConfigProvider { return rt.cfgProvider }
func (rt *StdRuntime) SvcRegistry() ServiceRegistry   { return rt.svcRegistry }

func (rt *StdRuntime) RegisterConfigSection(name string, cp ConfigProvider) {
	rt.cfgSections[name] = cp
}

func (rt *StdRuntime) ConfigSections() map[string]ConfigProvider {
	return rt.cfgSections
}

func (rt *StdRuntime) GetConfigSection(name string) (ConfigProvider, error) {
	cp, ok := rt.cfgSections[name]
	if !ok {
		return nil, ErrConfigSectionNotFound
	}
	return cp, nil
}

func (rt *StdRuntime) Subsystems() []Subsystem {
	out := make([]Subsystem, len(rt.subsystems))
	copy(out, rt.subsystems)
	return out
}

func (rt *StdRuntime) Current() runlevel.RunLevel { return rt.machine.Current() }
