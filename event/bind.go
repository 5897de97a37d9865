package event

import (
	"context"
	"fmt"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/registry"
)

// AddDependence records {consumer, slot, mode} against producer's
// subscriber list, atomically with respect to a concurrent Satisfy.
// If producer is already satisfied, the binding is serviced
// immediately instead of queued: the consumer's slot is filled with
// the producer's carried payload (translated through mode) right
// here, before AddDependence returns.
func (eng *Engine) AddDependence(ctx context.Context, producer edtrt.Guid, consumer edtrt.Guid, slot int, mode edtrt.Mode) error {
	e, err := eng.resolve(ctx, producer)
	if err != nil {
		return err
	}

	e.mu.Lock()
	switch e.st {
	case destroyed:
		e.mu.Unlock()
		return fmt.Errorf("%w: event already destroyed", registry.ErrDestroyed)
	case pending:
		if ops := dispatch[e.variant]; ops.onBindBeforeSatisfy != nil {
			if err := ops.onBindBeforeSatisfy(e); err != nil {
				e.mu.Unlock()
				return err
			}
		}
		e.subscribers = append(e.subscribers, subscription{consumer: consumer, slot: slot, mode: mode})
		e.mu.Unlock()
		return nil
	case satisfied:
		payload := e.payload
		variant := e.variant
		e.mu.Unlock()

		if err := eng.deliver(ctx, producer, consumer, slot, payload, mode); err != nil {
			return err
		}

		ops := dispatch[variant]
		if ops.onDrainedSubscriber == nil {
			return nil
		}
		e.mu.Lock()
		destroy := ops.onDrainedSubscriber(e)
		e.mu.Unlock()
		if destroy {
			return eng.destroy(ctx, e)
		}
		return nil
	default:
		e.mu.Unlock()
		return fmt.Errorf("%w: unrecognised event state", edtrt.ErrEINVAL)
	}
}

// Unbind removes a still-pending {consumer, slot} subscription from
// producer, used by the task engine's destroy-before-dispatch path to
// make sure a task destroyed before it was dispatched never receives
// a delivery for an event that satisfies afterward. A no-op if
// producer has already satisfied or destroyed (a satisfied event has
// already delivered, or is about to via its own in-flight walk, and
// there is nothing left to remove).
func (eng *Engine) Unbind(ctx context.Context, producer edtrt.Guid, consumer edtrt.Guid, slot int) error {
	e, err := eng.resolve(ctx, producer)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.st != pending {
		return nil
	}
	for i, sub := range e.subscribers {
		if sub.consumer == consumer && sub.slot == slot {
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			if e.variant == Counted {
				e.counter++ // reverse onBindBeforeSatisfy's decrement
			}
			return nil
		}
	}
	return nil
}

// Satisfy transitions producer from pending to satisfied, stores
// payload, then walks the subscriber list after detaching it
// atomically; a subscriber that arrives mid-walk sees the now-
// satisfied state through AddDependence's satisfied branch and is
// serviced there instead of here. Latch events reject Satisfy
// directly — drive them with Increment/Decrement.
func (eng *Engine) Satisfy(ctx context.Context, producer edtrt.Guid, payload any) error {
	e, err := eng.resolve(ctx, producer)
	if err != nil {
		return err
	}
	return eng.satisfyEvent(ctx, e, payload)
}

func (eng *Engine) satisfyEvent(ctx context.Context, e *Event, payload any) error {
	e.mu.Lock()
	if e.st == destroyed {
		e.mu.Unlock()
		return fmt.Errorf("%w: event already destroyed", registry.ErrDestroyed)
	}
	// A redundant Satisfy on an already-satisfied idempotent event is a
	// silent no-op: the first payload is kept and nothing is re-walked.
	if e.st == satisfied && e.variant == Idempotent {
		e.mu.Unlock()
		return nil
	}

	ops := dispatch[e.variant]
	destroyAfterWalk, err := ops.onSatisfy(e)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	e.payload = payload
	e.st = satisfied

	// Detach the subscriber list before walking it: a subscription
	// that races in concurrently with this walk takes the
	// AddDependence satisfied-branch instead of being missed or
	// double-serviced here.
	subs := e.subscribers
	e.subscribers = nil
	e.mu.Unlock()

	for _, sub := range subs {
		if err := eng.deliver(ctx, e.guid, sub.consumer, sub.slot, payload, sub.mode); err != nil {
			return err
		}
	}

	if destroyAfterWalk {
		return eng.destroy(ctx, e)
	}
	return nil
}

// Increment and Decrement drive a Latch event's running counter.
// Latch only fires — running Satisfy's subscriber walk with the
// latch's last-stored payload — on the transition from a positive
// counter back to zero; a Decrement that does not cross that
// threshold, or an Increment, never fires. Firing destroys the latch,
// so any Increment/Decrement/AddDependence against it afterward fails
// with ErrDestroyed.
func (eng *Engine) Increment(ctx context.Context, latch edtrt.Guid) error {
	e, err := eng.resolve(ctx, latch)
	if err != nil {
		return err
	}
	if e.variant != Latch {
		return fmt.Errorf("%w: Increment is only valid on a latch event", edtrt.ErrEINVAL)
	}
	e.mu.Lock()
	e.counter++
	e.mu.Unlock()
	return nil
}

func (eng *Engine) Decrement(ctx context.Context, latch edtrt.Guid, payload any) error {
	e, err := eng.resolve(ctx, latch)
	if err != nil {
		return err
	}
	if e.variant != Latch {
		return fmt.Errorf("%w: Decrement is only valid on a latch event", edtrt.ErrEINVAL)
	}

	e.mu.Lock()
	e.counter--
	fire := e.counter == 0
	e.mu.Unlock()

	if !fire {
		return nil
	}
	return eng.satisfyLatch(ctx, e, payload)
}

// satisfyLatch runs the shared subscriber-walk machinery for a latch
// firing, bypassing Once/Sticky/Idempotent/Counted's onSatisfy checks
// (Latch's own dispatch entry already rejects a direct Satisfy call;
// this is the only path that actually publishes a latch's payload).
// A latch "behaves like a once event on firing": the zero-return-to-zero
// transition destroys it, so a later Increment/Decrement against the
// same guid fails with ErrDestroyed exactly as a second Satisfy on a
// destroyed Once event would.
func (eng *Engine) satisfyLatch(ctx context.Context, e *Event, payload any) error {
	e.mu.Lock()
	e.payload = payload
	e.st = satisfied
	subs := e.subscribers
	e.subscribers = nil
	e.mu.Unlock()

	for _, sub := range subs {
		if err := eng.deliver(ctx, e.guid, sub.consumer, sub.slot, payload, sub.mode); err != nil {
			return err
		}
	}
	return eng.destroy(ctx, e)
}

func (eng *Engine) deliver(ctx context.Context, producer edtrt.Guid, consumer edtrt.Guid, slot int, payload any, mode edtrt.Mode) error {
	if mode == edtrt.Null {
		payload = nil
	}
	return eng.deliverer.Deliver(ctx, producer, consumer, slot, payload, mode)
}

func (eng *Engine) destroy(ctx context.Context, e *Event) error {
	e.mu.Lock()
	e.st = destroyed
	e.mu.Unlock()
	return eng.reg.Destroy(ctx, e.guid)
}

// Destroy explicitly destroys an event regardless of variant or
// state. It does not walk or notify the event's subscribers.
func (eng *Engine) Destroy(ctx context.Context, g edtrt.Guid) error {
	e, err := eng.resolve(ctx, g)
	if err != nil {
		return err
	}
	return eng.destroy(ctx, e)
}
