// Package event implements the event engine: the gating primitive
// that holds task dependence slots pending until their producer
// fires. Events are modelled as a tagged union (Variant) with a
// per-variant dispatch table rather than an inheritance hierarchy,
// mirroring the teacher's RegisterEngine/engineRegistry factory-table
// pattern used to dispatch per-backend event-bus behaviour.
package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/registry"
)

// Variant selects an event's satisfaction semantics.
type Variant int

const (
	// Once destroys the event once its subscriber walk completes.
	Once Variant = iota
	// Sticky persists after satisfaction; a second Satisfy is a
	// caller error.
	Sticky
	// Idempotent persists after satisfaction; a second Satisfy is a
	// silent no-op.
	Idempotent
	// Latch only fires on the zero-to-positive-to-zero round trip of
	// its internal counter; Satisfy is not used directly, Increment
	// and Decrement are. It behaves like a once event on firing: the
	// firing Decrement destroys it, same as Once's post-walk destroy.
	Latch
	// Counted auto-destroys once it has been satisfied and every
	// expected subscriber has bound and drained.
	Counted
)

func (v Variant) String() string {
	switch v {
	case Once:
		return "once"
	case Sticky:
		return "sticky"
	case Idempotent:
		return "idempotent"
	case Latch:
		return "latch"
	case Counted:
		return "counted"
	default:
		return "unknown"
	}
}

type state int

const (
	pending state = iota
	satisfied
	destroyed
)

// Deliverer is implemented by whatever owns dependence slots (the
// task engine) so the event engine can hand a bound payload to a
// consumer without importing it directly — the two packages are
// coupled only through this interface, keeping the cyclic
// event<->task reference handle-based rather than a direct pointer
// cycle.
type Deliverer interface {
	Deliver(ctx context.Context, producer edtrt.Guid, consumer edtrt.Guid, slot int, payload any, mode edtrt.Mode) error
}

// subscription is one {consumer, slot, mode} binding recorded against
// a producer event.
type subscription struct {
	consumer edtrt.Guid
	slot     int
	mode     edtrt.Mode
}

// Event is one instance of the tagged union; which fields are
// meaningful depends on Variant.
type Event struct {
	mu sync.Mutex

	guid    edtrt.Guid
	variant Variant
	st      state
	payload any

	subscribers []subscription

	// counter backs Latch (signed running total) and Counted
	// (remaining-subscribers-to-drain, set at creation).
	counter int

	createdAt time.Time
}

func (e *Event) Guid() edtrt.Guid { return e.guid }
func (e *Event) Variant() Variant { return e.variant }

// variantOps is the per-variant half of the dispatch table: what
// happens when the event is satisfied (onSatisfy, returning whether
// the event is to be destroyed after the walk), when a subscriber
// binds before satisfaction (onBindBeforeSatisfy), and when a
// subscriber drains (onDrainedSubscriber). Shared subscriber-list mechanics
// (addDependence's append, satisfy's detach-then-walk) live in Engine
// itself; only the variant-specific reaction lives here.
type variantOps struct {
	// onSatisfy runs with e.mu held, before payload is stored and
	// before the subscriber walk. It returns whether the event should
	// be destroyed once the walk completes.
	onSatisfy func(e *Event) (destroyAfterWalk bool, err error)
	// onBindBeforeSatisfy runs when a subscriber is recorded on an
	// event that has not yet been satisfied. Only Counted needs this,
	// to track its expected-subscriber counter; it returns an error if
	// the bind would exceed the event's declared subscriber count.
	onBindBeforeSatisfy func(e *Event) error
	// onDrainedSubscriber runs once a late-bound subscriber (joining
	// an already-satisfied event) has been delivered to. Counted uses
	// this to decrement remaining-subscribers and auto-destroy.
	onDrainedSubscriber func(e *Event) (destroy bool)
}

var dispatch = map[Variant]variantOps{
	Once: {
		onSatisfy: func(e *Event) (bool, error) { return true, nil },
	},
	Sticky: {
		onSatisfy: func(e *Event) (bool, error) {
			if e.st == satisfied {
				return false, fmt.Errorf("%w: sticky event already satisfied", edtrt.ErrEPERM)
			}
			return false, nil
		},
	},
	Idempotent: {
		onSatisfy: func(e *Event) (bool, error) { return false, nil },
	},
	Latch: {
		// Latch never reaches onSatisfy through Engine.Satisfy; it is
		// driven entirely by Increment/Decrement, handled separately
		// in Engine.
		onSatisfy: func(e *Event) (bool, error) {
			return false, fmt.Errorf("%w: latch events are driven by Increment/Decrement, not Satisfy", edtrt.ErrEINVAL)
		},
	},
	Counted: {
		onSatisfy: func(e *Event) (bool, error) {
			return e.counter <= 0, nil
		},
		onBindBeforeSatisfy: func(e *Event) error {
			// Counted's remaining counter is set at creation to the
			// expected subscriber count and decremented as each binds,
			// independent of satisfaction order — this is what makes
			// "late binding" (a subscriber arriving after Satisfy) and
			// "early binding" (arriving before) both converge on the
			// same auto-destroy condition. A bind beyond the declared
			// count is a caller error, not silently tolerated.
			if e.counter <= 0 {
				return fmt.Errorf("%w: counted event already has its declared subscriber count bound", edtrt.ErrEPERM)
			}
			e.counter--
			return nil
		},
		onDrainedSubscriber: func(e *Event) bool {
			e.counter--
			return e.st == satisfied && e.counter <= 0
		},
	},
}

// Engine owns every live Event, keyed through the handle registry so
// events and the tasks that subscribe to them reference each other by
// Guid, never by a raw pointer cycle.
type Engine struct {
	reg       registry.Registry
	deliverer Deliverer
}

// NewEngine creates an event engine backed by reg for handle issuance
// and deliverer for handing bound payloads to consumers.
func NewEngine(reg registry.Registry, deliverer Deliverer) *Engine {
	return &Engine{reg: reg, deliverer: deliverer}
}

// Create allocates a new event of the given variant. expectedSubscribers
// is only meaningful for Counted (spec.md's "expected-subscriber
// counter"); it is ignored for every other variant.
func (eng *Engine) Create(ctx context.Context, variant Variant, expectedSubscribers int) (edtrt.Guid, error) {
	if _, ok := dispatch[variant]; !ok {
		return edtrt.NilGuid, fmt.Errorf("%w: unrecognised event variant %d", edtrt.ErrEINVAL, variant)
	}
	e := &Event{
		variant:   variant,
		st:        pending,
		counter:   expectedSubscribers,
		createdAt: time.Now(),
	}
	g, err := eng.reg.Create(ctx, registry.KindEvent, e)
	if err != nil {
		return edtrt.NilGuid, err
	}
	e.guid = g
	return g, nil
}

func (eng *Engine) resolve(ctx context.Context, g edtrt.Guid) (*Event, error) {
	obj, err := eng.reg.ResolveKind(ctx, g, registry.KindEvent)
	if err != nil {
		return nil, err
	}
	return obj.(*Event), nil
}
