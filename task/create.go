package task

import (
	"context"
	"fmt"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/registry"
)

// CreateTask allocates a task from template, copying paramv and
// initialising each dependence slot. depv and modes must each have
// template's D entries; an entry equal to edtrt.UninitializedGuid
// leaves that slot unbound (to be filled later via AddDependence — see
// bind.go), any other value is bound immediately through the event
// engine's AddDependence, exactly mirroring spec.md §4.7's "If
// depv[i] is given and non-uninitialized, the slot is immediately
// bound" rule. enclosingScope, if non-Nil, must name a live finish
// scope this task is considered spawned within.
func (eng *Engine) CreateTask(
	ctx context.Context,
	template edtrt.Guid,
	paramv []uint64,
	depv []edtrt.Guid,
	modes []edtrt.Mode,
	props Properties,
	outputEvent edtrt.Guid,
	enclosingScope edtrt.Guid,
) (edtrt.Guid, error) {
	tpl, err := eng.resolveTemplate(ctx, template)
	if err != nil {
		return edtrt.NilGuid, err
	}
	if len(paramv) != tpl.paramc {
		return edtrt.NilGuid, fmt.Errorf("%w: template expects %d parameters, got %d", edtrt.ErrEINVAL, tpl.paramc, len(paramv))
	}
	if len(depv) != tpl.depc || len(modes) != tpl.depc {
		return edtrt.NilGuid, fmt.Errorf("%w: template expects %d dependence slots, got depv=%d modes=%d", edtrt.ErrEINVAL, tpl.depc, len(depv), len(modes))
	}

	t := &Task{
		template:       tpl,
		paramv:         append([]uint64(nil), paramv...),
		depv:           make([]Dependence, tpl.depc),
		bound:          make([]bool, tpl.depc),
		producers:      make([]edtrt.Guid, tpl.depc),
		props:          props,
		outputEvent:    outputEvent,
		enclosingScope: enclosingScope,
	}
	t.frontier.Store(int32(tpl.depc))

	g, err := eng.reg.Create(ctx, registry.KindTask, t)
	if err != nil {
		return edtrt.NilGuid, err
	}
	t.guid = g
	tpl.refCount.Add(1)

	if props.Finish {
		scope, err := eng.createFinishScope(ctx, outputEvent)
		if err != nil {
			_ = eng.reg.Destroy(ctx, g)
			tpl.refCount.Add(-1)
			return edtrt.NilGuid, err
		}
		t.ownScope = scope
	}

	if enclosingScope != edtrt.NilGuid {
		if err := eng.spawnWithin(ctx, enclosingScope); err != nil {
			return edtrt.NilGuid, err
		}
	}

	for i, producer := range depv {
		if producer == edtrt.UninitializedGuid {
			continue
		}
		t.producers[i] = producer
		if err := eng.events.AddDependence(ctx, producer, g, i, modes[i]); err != nil {
			return edtrt.NilGuid, err
		}
	}

	// A task created with zero dependence slots, or whose every slot
	// was immediately bound above, is ready the instant it's created.
	if t.frontier.Load() == 0 {
		if err := eng.dispatchIfReady(ctx, t); err != nil {
			return edtrt.NilGuid, err
		}
	}

	return g, nil
}

// dispatchIfReady enqueues t exactly once, the moment its frontier
// first reaches zero; a second call (e.g. from a race between the
// zero-slot fast path above and a slot bound concurrently through
// Deliver) is a guarded no-op via the dispatched state transition.
func (eng *Engine) dispatchIfReady(ctx context.Context, t *Task) error {
	t.mu.Lock()
	if t.st != taskPending {
		t.mu.Unlock()
		return nil
	}
	t.st = taskDispatched
	t.mu.Unlock()

	return eng.dispatcher.Enqueue(ctx, t.guid)
}
