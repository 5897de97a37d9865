package task

import (
	"context"
	"fmt"

	"github.com/open-edt/edtrt"
)

// Deliver implements event.Deliverer: it fills consumer's slot with
// the bound payload, decrements the task's frontier, and enqueues the
// task the instant the frontier reaches zero. It is also the landing
// point for a slot bound by a data block producer, not just an event
// (this engine's own AddDependence below calls Deliver directly when
// the producer is not an event, rather than going through the event
// engine, since a data block has no subscriber-list machinery of its
// own).
func (eng *Engine) Deliver(ctx context.Context, producer edtrt.Guid, consumer edtrt.Guid, slot int, payload any, mode edtrt.Mode) error {
	t, err := eng.resolveTask(ctx, consumer)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if slot < 0 || slot >= len(t.depv) {
		t.mu.Unlock()
		return fmt.Errorf("%w: slot %d out of range for %d-slot task", edtrt.ErrEINVAL, slot, len(t.depv))
	}
	if t.bound[slot] {
		t.mu.Unlock()
		return fmt.Errorf("%w: slot %d already bound", edtrt.ErrEPERM, slot)
	}
	if t.st == taskDestroyed {
		t.mu.Unlock()
		return nil
	}
	handle := producer
	if mode == edtrt.Null {
		handle = edtrt.NilGuid
		payload = nil
	}
	t.bound[slot] = true
	t.depv[slot] = Dependence{Handle: handle, Payload: payload, Mode: mode}
	remaining := t.frontier.Add(-1)
	t.mu.Unlock()

	if remaining == 0 {
		return eng.dispatchIfReady(ctx, t)
	}
	return nil
}

// AddDependence binds producer into consumer's slot after creation,
// for a slot left edtrt.UninitializedGuid at CreateTask time. producer
// may be an event (routed through the event engine's own subscriber
// bookkeeping) or a data block (delivered directly, since a data
// block has no satisfied/pending state machine of its own — it is
// simply acquired and handed over).
func (eng *Engine) AddDependence(ctx context.Context, producer edtrt.Guid, consumer edtrt.Guid, slot int, mode edtrt.Mode, isEvent bool) error {
	if isEvent {
		return eng.events.AddDependence(ctx, producer, consumer, slot, mode)
	}
	return eng.Deliver(ctx, producer, consumer, slot, producer, mode)
}
