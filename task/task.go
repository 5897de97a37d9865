// Package task implements the task engine: templates, tasks, their
// dependence-slot frontier, and finish scopes. It implements
// event.Deliverer so the event engine can hand a bound payload
// straight to a dependence slot without either package importing the
// other's concrete types — only event.Deliverer and task.Dispatcher
// cross the boundary.
package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/event"
	"github.com/open-edt/edtrt/registry"
)

// Dependence is what a task's function sees for one bound slot:
// the producer's handle (an event or data block guid) and the
// payload-pointer, valid only when the slot's Mode is non-Null and
// the producer carried a deliverable payload.
type Dependence struct {
	Handle  edtrt.Guid
	Payload any
	Mode    edtrt.Mode
}

// Func is a template's executable body. It receives its frozen
// parameters and the fully-bound dependence slot array.
type Func func(ctx context.Context, paramv []uint64, depv []Dependence) (edtrt.Guid, error)

// Template is a reusable {function, P, D} declaration. A template may
// only be destroyed once no live task still references it.
type Template struct {
	guid     edtrt.Guid
	fn       Func
	paramc   int
	depc     int
	refCount atomic.Int32
}

func (t *Template) Guid() edtrt.Guid { return t.guid }

// Properties are task creation flags.
type Properties struct {
	// Finish marks this task as the root of a finish scope: its
	// output event does not fire on its own return, but once the
	// transitive closure of tasks spawned within its scope has
	// completed.
	Finish bool
}

type taskState int

const (
	taskPending taskState = iota
	taskDispatched
	taskDestroyed
)

// Task is one instance created from a Template.
type Task struct {
	mu sync.Mutex

	guid     edtrt.Guid
	template *Template

	paramv []uint64
	depv   []Dependence
	bound  []bool
	// producers[i] records the guid a bind was attempted against for
	// slot i (event or data block), so destroyTask can unwind a
	// still-pending event subscription; Nil until a bind is attempted.
	producers []edtrt.Guid

	frontier atomic.Int32

	props       Properties
	outputEvent edtrt.Guid

	// enclosingScope is the finish scope this task was spawned within
	// (Nil if none); its completion decrements that scope's counter.
	enclosingScope edtrt.Guid
	// ownScope is the finish scope this task created for itself
	// because it was marked Finish (Nil otherwise); its own
	// completion feeds that scope's "own task done" slot rather than
	// firing outputEvent directly.
	ownScope edtrt.Guid

	st taskState
}

func (t *Task) Guid() edtrt.Guid { return t.guid }

// Dispatcher is implemented by the dispatch-glue worker pool: Engine
// calls Enqueue exactly once per task, the moment its frontier
// reaches zero.
type Dispatcher interface {
	Enqueue(ctx context.Context, taskGuid edtrt.Guid) error
}

// Engine owns every live Template, Task, and FinishScope.
type Engine struct {
	reg        registry.Registry
	events     *event.Engine
	dispatcher Dispatcher
}

// NewEngine creates a task engine. dispatcher receives ready tasks;
// events is the event engine used to bind dependence slots and fire
// output events.
func NewEngine(reg registry.Registry, events *event.Engine, dispatcher Dispatcher) *Engine {
	return &Engine{reg: reg, events: events, dispatcher: dispatcher}
}

// CreateTemplate declares a reusable {fn, paramc, depc}.
func (eng *Engine) CreateTemplate(ctx context.Context, fn Func, paramc, depc int) (edtrt.Guid, error) {
	if fn == nil {
		return edtrt.NilGuid, fmt.Errorf("%w: template function cannot be nil", edtrt.ErrEINVAL)
	}
	tpl := &Template{fn: fn, paramc: paramc, depc: depc}
	g, err := eng.reg.Create(ctx, registry.KindTemplate, tpl)
	if err != nil {
		return edtrt.NilGuid, err
	}
	tpl.guid = g
	return g, nil
}

// DestroyTemplate destroys tpl. Legal only once no live task still
// references it (spec.md §3's "reference counted by task creation").
func (eng *Engine) DestroyTemplate(ctx context.Context, tpl edtrt.Guid) error {
	t, err := eng.resolveTemplate(ctx, tpl)
	if err != nil {
		return err
	}
	if t.refCount.Load() > 0 {
		return fmt.Errorf("%w: template still referenced by %d live task(s)", edtrt.ErrEBUSY, t.refCount.Load())
	}
	return eng.reg.Destroy(ctx, tpl)
}

func (eng *Engine) resolveTemplate(ctx context.Context, g edtrt.Guid) (*Template, error) {
	obj, err := eng.reg.ResolveKind(ctx, g, registry.KindTemplate)
	if err != nil {
		return nil, err
	}
	return obj.(*Template), nil
}

func (eng *Engine) resolveTask(ctx context.Context, g edtrt.Guid) (*Task, error) {
	obj, err := eng.reg.ResolveKind(ctx, g, registry.KindTask)
	if err != nil {
		return nil, err
	}
	return obj.(*Task), nil
}
