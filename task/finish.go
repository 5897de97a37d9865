package task

import (
	"context"
	"sync"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/registry"
)

// FinishScope implements spec.md §3's finish scope: "an atomic
// counter on the finish task, incremented on spawn-within-scope,
// decremented on completion-within-scope". The counter starts at 1,
// representing the finish task's own eventual completion; every task
// spawned while the finish task's scope is active increments it on
// creation and decrements it on its own completion. Only once the
// counter reaches zero — meaning the finish task itself has completed
// *and* every descendant it (transitively) spawned has too — does the
// scope publish the finish task's return handle to outputEvent.
type FinishScope struct {
	mu sync.Mutex

	guid        edtrt.Guid
	outputEvent edtrt.Guid
	counter     int64
	ownResult   edtrt.Guid
	ownDone     bool
}

func (fs *FinishScope) Guid() edtrt.Guid { return fs.guid }

// OwnScope resolves the finish scope a finish task created for
// itself (Properties.Finish at CreateTask time), so the task's own
// Func can pass it as enclosingScope to children it spawns
// dynamically, keeping them inside the same scope. Returns
// edtrt.NilGuid if g does not name a finish task.
func (eng *Engine) OwnScope(ctx context.Context, g edtrt.Guid) (edtrt.Guid, error) {
	t, err := eng.resolveTask(ctx, g)
	if err != nil {
		return edtrt.NilGuid, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ownScope, nil
}

func (eng *Engine) createFinishScope(ctx context.Context, outputEvent edtrt.Guid) (edtrt.Guid, error) {
	fs := &FinishScope{outputEvent: outputEvent, counter: 1}
	g, err := eng.reg.Create(ctx, registry.KindFinish, fs)
	if err != nil {
		return edtrt.NilGuid, err
	}
	fs.guid = g
	return g, nil
}

func (eng *Engine) resolveFinishScope(ctx context.Context, g edtrt.Guid) (*FinishScope, error) {
	obj, err := eng.reg.ResolveKind(ctx, g, registry.KindFinish)
	if err != nil {
		return nil, err
	}
	return obj.(*FinishScope), nil
}

// spawnWithin records a task created while scope is active.
func (eng *Engine) spawnWithin(ctx context.Context, scope edtrt.Guid) error {
	fs, err := eng.resolveFinishScope(ctx, scope)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	fs.counter++
	fs.mu.Unlock()
	return nil
}

// completeWithin records the completion of a task spawned within
// scope (not the finish task itself), firing the scope's output event
// once its counter returns to zero.
func (eng *Engine) completeWithin(ctx context.Context, scope edtrt.Guid) error {
	fs, err := eng.resolveFinishScope(ctx, scope)
	if err != nil {
		return err
	}
	return eng.decrementAndMaybeFire(ctx, fs)
}

// completeOwn records the finish task's own completion: its result is
// stashed (to be published once the scope empties, not necessarily
// right away) and the counter's reserved "self" unit is released.
func (eng *Engine) completeOwn(ctx context.Context, scope edtrt.Guid, result edtrt.Guid) error {
	fs, err := eng.resolveFinishScope(ctx, scope)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	fs.ownResult = result
	fs.ownDone = true
	fs.mu.Unlock()
	return eng.decrementAndMaybeFire(ctx, fs)
}

func (eng *Engine) decrementAndMaybeFire(ctx context.Context, fs *FinishScope) error {
	fs.mu.Lock()
	fs.counter--
	fire := fs.counter == 0 && fs.ownDone
	result := fs.ownResult
	fs.mu.Unlock()

	if !fire {
		return nil
	}
	if fs.outputEvent == edtrt.NilGuid {
		return nil
	}
	return eng.events.Satisfy(ctx, fs.outputEvent, result)
}
