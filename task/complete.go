package task

import (
	"context"

	"github.com/open-edt/edtrt"
)

// Run invokes t's template function with its frozen parameters and
// bound dependence slots, then retires the task: the result is either
// folded into the task's own finish scope (if it was created with
// Properties.Finish) or published straight to outputEvent, the
// enclosing scope (if any) is decremented, and the template's
// reference count is released. This is the single entry point the
// dispatch-glue worker pool calls for a task it has pulled off the
// ready queue — Engine never calls a template's function itself
// outside of Run.
func (eng *Engine) Run(ctx context.Context, g edtrt.Guid) error {
	t, err := eng.resolveTask(ctx, g)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.st != taskDispatched {
		t.mu.Unlock()
		return nil
	}
	paramv := t.paramv
	depv := append([]Dependence(nil), t.depv...)
	fn := t.template.fn
	outputEvent := t.outputEvent
	ownScope := t.ownScope
	enclosingScope := t.enclosingScope
	t.mu.Unlock()

	result, runErr := fn(ctx, paramv, depv)

	t.mu.Lock()
	t.st = taskDestroyed
	t.mu.Unlock()

	if err := eng.reg.Destroy(ctx, g); err != nil {
		return err
	}
	t.template.refCount.Add(-1)

	if runErr != nil {
		result = edtrt.NilGuid
	}

	if ownScope != edtrt.NilGuid {
		if err := eng.completeOwn(ctx, ownScope, result); err != nil {
			return err
		}
	} else if outputEvent != edtrt.NilGuid {
		if err := eng.events.Satisfy(ctx, outputEvent, result); err != nil {
			return err
		}
	}

	if enclosingScope != edtrt.NilGuid {
		if err := eng.completeWithin(ctx, enclosingScope); err != nil {
			return err
		}
	}

	return runErr
}
