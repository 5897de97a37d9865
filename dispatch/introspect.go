package dispatch

import (
	"context"

	"github.com/open-edt/edtrt"
)

// Introspection is carried on the per-task context rather than
// goroutine-local storage, per spec.md §9's "explicit context handles,
// never ambient globals" design note: a task function that wants to
// know its own identity reads it off the ctx it was already given.
type contextKey int

const (
	taskKey contextKey = iota
	workerKey
)

type workerInfo struct {
	workerID   int
	numWorkers int
}

func withTaskContext(ctx context.Context, workerID int, numWorkers int, taskGuid edtrt.Guid) context.Context {
	ctx = context.WithValue(ctx, taskKey, taskGuid)
	ctx = context.WithValue(ctx, workerKey, workerInfo{workerID: workerID, numWorkers: numWorkers})
	return ctx
}

// CurrentTask resolves the guid of the task currently executing on
// ctx's worker, or edtrt.NilGuid outside of a task's execution
// context (e.g. called from mainEdt setup code before dispatch).
func CurrentTask(ctx context.Context) edtrt.Guid {
	g, ok := ctx.Value(taskKey).(edtrt.Guid)
	if !ok {
		return edtrt.NilGuid
	}
	return g
}

// CurrentWorker resolves the 0-based index of the worker goroutine
// executing ctx's task, or -1 outside of a task's execution context.
func CurrentWorker(ctx context.Context) int {
	info, ok := ctx.Value(workerKey).(workerInfo)
	if !ok {
		return -1
	}
	return info.workerID
}

// NumWorkers resolves the fixed size of the pool that dispatched ctx's
// task, or 0 outside of a task's execution context.
func NumWorkers(ctx context.Context) int {
	info, ok := ctx.Value(workerKey).(workerInfo)
	if !ok {
		return 0
	}
	return info.numWorkers
}
