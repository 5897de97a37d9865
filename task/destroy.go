package task

import (
	"context"
	"fmt"

	"github.com/open-edt/edtrt"
)

// DestroyTask is legal only before dispatch: it unbinds every slot
// still waiting on a pending event subscription, fires the task's
// output event with edtrt.NilGuid (a destroyed task never produces a
// real result), and decrements the enclosing finish scope's counter
// exactly as a normal completion would. After dispatch has begun,
// destroy is rejected — matching spec.md §4.7's "After dispatch has
// begun, destroy is rejected" and the original's testEdtDestroy0
// non-regression coverage of destroying a task whose slots are
// variously unbound, pending, or already satisfied.
func (eng *Engine) DestroyTask(ctx context.Context, g edtrt.Guid) error {
	t, err := eng.resolveTask(ctx, g)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.st == taskDispatched {
		t.mu.Unlock()
		return fmt.Errorf("%w: task has already been dispatched", edtrt.ErrEPERM)
	}
	if t.st == taskDestroyed {
		t.mu.Unlock()
		return fmt.Errorf("%w: task already destroyed", edtrt.ErrEPERM)
	}
	t.st = taskDestroyed
	producers := append([]edtrt.Guid(nil), t.producers...)
	bound := append([]bool(nil), t.bound...)
	outputEvent := t.outputEvent
	ownScope := t.ownScope
	enclosingScope := t.enclosingScope
	t.mu.Unlock()

	for slot, producer := range producers {
		if bound[slot] || producer == edtrt.NilGuid {
			continue
		}
		if err := eng.events.Unbind(ctx, producer, g, slot); err != nil {
			return err
		}
	}

	if err := eng.reg.Destroy(ctx, g); err != nil {
		return err
	}
	t.template.refCount.Add(-1)

	if ownScope != edtrt.NilGuid {
		if err := eng.completeOwn(ctx, ownScope, edtrt.NilGuid); err != nil {
			return err
		}
	} else if outputEvent != edtrt.NilGuid {
		if err := eng.events.Satisfy(ctx, outputEvent, edtrt.NilGuid); err != nil {
			return err
		}
	}

	if enclosingScope != edtrt.NilGuid {
		if err := eng.completeWithin(ctx, enclosingScope); err != nil {
			return err
		}
	}
	return nil
}
