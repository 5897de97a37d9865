package runlevel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for this package. Kept local (rather than reusing
// the root edtrt package's taxonomy) to avoid an import cycle — the
// root package imports runlevel, not the other way around.
var (
	// ErrDeferred is returned by Participant.SwitchRunlevel to signal
	// that the participant will finish this phase asynchronously via
	// the supplied Callback.
	ErrDeferred = errors.New("runlevel: phase deferred, callback pending")

	// ErrPastRunLevel is returned by EnsurePhaseUp when asked to grow
	// the phase count of a runlevel the machine has already finished
	// walking.
	ErrPastRunLevel = errors.New("runlevel: cannot extend a runlevel already completed")

	// ErrUnknownParticipant is returned by Unregister for a name that
	// was never registered.
	ErrUnknownParticipant = errors.New("runlevel: unknown participant")
)

// Observer is notified after every phase commits (Up or Down).
type Observer interface {
	OnTransition(ctx context.Context, t Transition)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(ctx context.Context, t Transition)

func (f ObserverFunc) OnTransition(ctx context.Context, t Transition) { f(ctx, t) }

// Machine coordinates a fixed set of Participants through the
// canonical runlevel sequence, enforcing an implicit barrier between
// phases: every participant finishes (synchronously or via callback)
// the current phase before the next one begins.
type Machine struct {
	mu           sync.Mutex
	participants []Participant
	phaseCounts  PhaseCounts
	highWater    RunLevel // highest runlevel fully brought up so far
	haveRun      bool
	observers    []Observer
}

// NewMachine creates a Machine with the given per-runlevel phase
// counts. Pass DefaultPhaseCounts() for the minimal one-phase-per-level
// configuration.
func NewMachine(counts PhaseCounts) *Machine {
	return &Machine{phaseCounts: counts}
}

// Register adds a participant. Must be called before the first RunUp.
func (m *Machine) Register(p Participant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants = append(m.participants, p)
}

// Unregister removes a participant by name.
func (m *Machine) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.participants {
		if p.Name() == name {
			m.participants = append(m.participants[:i], m.participants[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownParticipant, name)
}

// RegisterObserver adds an observer notified after every phase commit.
func (m *Machine) RegisterObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Current reports the highest fully-committed runlevel. Before the
// first RunUp, and after a RunDown through ConfigParse, it reports
// ConfigParse.
func (m *Machine) Current() RunLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highWater
}

// EnsurePhaseUp implements Controller.EnsurePhaseUp for participants
// invoked during RunUp/RunDown.
func (m *Machine) EnsurePhaseUp(rl RunLevel, tag string, minPhase int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.haveRun && rl < m.highWater {
		return fmt.Errorf("%w: %s requested by %q", ErrPastRunLevel, rl, tag)
	}
	if minPhase+1 > m.phaseCounts[int(rl)] {
		m.phaseCounts[int(rl)] = minPhase + 1
	}
	return nil
}

// RunUp brings every registered participant up from the machine's
// current runlevel through to (inclusive), walking the canonical
// sequence one runlevel and phase at a time with a barrier between
// phases.
func (m *Machine) RunUp(ctx context.Context, to RunLevel) error {
	start := ConfigParse
	m.mu.Lock()
	if m.haveRun {
		start = m.highWater + 1
	}
	m.haveRun = true
	m.mu.Unlock()

	for _, rl := range Levels() {
		if rl < start || rl > to {
			continue
		}
		if err := m.runLevel(ctx, rl, Up); err != nil {
			return fmt.Errorf("bring-up failed at runlevel %s: %w", rl, err)
		}
		m.mu.Lock()
		m.highWater = rl
		m.mu.Unlock()
	}
	return nil
}

// RunDown tears every registered participant down from the machine's
// current runlevel through to (inclusive), walking the canonical
// sequence in reverse.
func (m *Machine) RunDown(ctx context.Context, to RunLevel) error {
	levels := Levels()
	m.mu.Lock()
	from := m.highWater
	m.mu.Unlock()

	for i := len(levels) - 1; i >= 0; i-- {
		rl := levels[i]
		if rl > from || rl < to {
			continue
		}
		if err := m.runLevel(ctx, rl, Down); err != nil {
			return fmt.Errorf("tear-down failed at runlevel %s: %w", rl, err)
		}
		m.mu.Lock()
		if rl > ConfigParse {
			m.highWater = rl - 1
		} else {
			m.haveRun = false
		}
		m.mu.Unlock()
	}
	return nil
}

// runLevel walks every phase of rl in direction dir, honoring phase
// counts that grow mid-pass via EnsurePhaseUp.
func (m *Machine) runLevel(ctx context.Context, rl RunLevel, dir Direction) error {
	phase := 0
	for {
		m.mu.Lock()
		count := m.phaseCounts[int(rl)]
		m.mu.Unlock()
		if phase >= count {
			return nil
		}
		if err := m.runPhase(ctx, rl, phase, dir); err != nil {
			return err
		}
		phase++
	}
}

// runPhase runs one phase: Request to every participant (possibly
// deferred via callback), barrier, then Release.
func (m *Machine) runPhase(ctx context.Context, rl RunLevel, phase int, dir Direction) error {
	m.mu.Lock()
	participants := make([]Participant, len(m.participants))
	copy(participants, m.participants)
	m.mu.Unlock()

	reqT := Transition{
		ID:         uuid.NewString(),
		RunLevel:   rl,
		Phase:      phase,
		Direction:  dir,
		Properties: PropRequest,
		Timestamp:  time.Now(),
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(participants))
	for _, p := range participants {
		wg.Add(1)
		go func(p Participant) {
			defer wg.Done()
			if err := m.runOne(ctx, p, reqT); err != nil {
				errCh <- fmt.Errorf("%s: %w", p.Name(), err)
			}
		}(p)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	relT := reqT
	relT.ID = uuid.NewString()
	relT.Properties = PropResponse | PropRelease
	relT.Timestamp = time.Now()
	for _, p := range participants {
		// Release is a commit notice; participants are not expected
		// to fail it, and a failure here is ignored: it never aborts
		// the pass.
		_ = p.SwitchRunlevel(ctx, relT, m, func(error) {})
	}
	m.notify(ctx, relT)
	return nil
}

// runOne invokes SwitchRunlevel on p and, if it returns ErrDeferred,
// waits for the callback (or ctx cancellation).
func (m *Machine) runOne(ctx context.Context, p Participant, t Transition) error {
	done := make(chan error, 1)
	cb := func(err error) { done <- err }

	err := p.SwitchRunlevel(ctx, t, m, cb)
	if !errors.Is(err, ErrDeferred) {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Machine) notify(ctx context.Context, t Transition) {
	m.mu.Lock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()
	for _, o := range observers {
		o.OnTransition(ctx, t)
	}
}
