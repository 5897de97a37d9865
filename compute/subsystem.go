// Package compute wires the registry, event, datablock, task, and
// dispatch engines into a single edtrt.Subsystem: the "compute domain"
// half of spec.md's policy domain (the other half, the comm platform,
// is transport.Endpoint). It participates in the runlevel machine at
// ComputeOK, starting and stopping the dispatch pool, and at UserOK,
// creating the single user-supplied root task spec.md §6 calls
// "mainEdt".
package compute

import (
	"context"
	"fmt"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/datablock"
	"github.com/open-edt/edtrt/dispatch"
	"github.com/open-edt/edtrt/event"
	"github.com/open-edt/edtrt/registry"
	"github.com/open-edt/edtrt/runlevel"
	"github.com/open-edt/edtrt/task"
)

// Config sizes the subsystem's worker pool.
type Config struct {
	// Workers is the dispatch pool's fixed worker count. 0 falls back
	// to RuntimeConfig.Workers when that is positive, otherwise to
	// dispatch.Pool's own default (1).
	Workers int

	// RootParamc/RootDepc size mainEdt's template; both are
	// conventionally 0 (argc/argv travel through a data block instead
	// of paramv, per spec.md §6).
	RootParamc int
	RootDepc   int
}

// Subsystem bundles the compute-domain engines into one edtrt.Subsystem.
type Subsystem struct {
	cfg     Config
	rt      edtrt.Runtime
	mainEdt task.Func

	Registry   registry.Registry
	Events     *event.Engine
	DataBlocks *datablock.Engine
	Tasks      *task.Engine
	Pool       *dispatch.Pool
}

// NewSubsystem builds every compute-domain engine immediately (none of
// them depend on another subsystem's runlevel-gated state, unlike the
// message transport's queues), deferring only goroutine start-up
// (dispatch.Pool.Start) and mainEdt creation to their runlevel phases.
// rt is needed up front to notify observers of task lifecycle events
// and read RuntimeConfig.Workers if cfg.Workers is left at 0.
func NewSubsystem(rt edtrt.Runtime, cfg Config, mainEdt task.Func) *Subsystem {
	if cfg.Workers == 0 {
		if rc, ok := rt.ConfigProvider().GetConfig().(*edtrt.RuntimeConfig); ok && rc.Workers > 0 {
			cfg.Workers = rc.Workers
		}
	}

	reg := registry.NewStdRegistry()
	proxy := &deliverProxy{}
	events := event.NewEngine(reg, proxy)
	dataBlocks := datablock.NewEngine(reg, datablock.HeapAllocator{})

	pool := dispatch.NewPool(dispatch.Config{Workers: cfg.Workers}, nil, rt.Logger())
	tasks := task.NewEngine(reg, events, &notifyingDispatcher{rt: rt, next: pool})
	proxy.target = tasks
	_ = pool.SetRunner(&notifyingRunner{rt: rt, next: tasks})

	return &Subsystem{
		cfg:        cfg,
		rt:         rt,
		mainEdt:    mainEdt,
		Registry:   reg,
		Events:     events,
		DataBlocks: dataBlocks,
		Tasks:      tasks,
		Pool:       pool,
	}
}

func (s *Subsystem) Name() string        { return "compute" }
func (s *Subsystem) Description() string { return "task, event, data-block, and dispatch engines" }

// ProvidedServices publishes every engine by name so other subsystems
// (and the demo HTTP introspection surface) can look them up through
// edtrt.GetService without importing this package's concrete types.
func (s *Subsystem) ProvidedServices() []edtrt.Service {
	return []edtrt.Service{
		{Name: "compute.tasks", Description: "task engine", Instance: s.Tasks},
		{Name: "compute.events", Description: "event engine", Instance: s.Events},
		{Name: "compute.datablocks", Description: "data-block engine", Instance: s.DataBlocks},
		{Name: "compute.dispatch", Description: "dispatch pool", Instance: s.Pool},
	}
}

// SwitchRunlevel starts the dispatch pool's workers at ComputeOK and
// creates the root mainEdt task at UserOK, tearing the pool back down
// on the corresponding Down phases.
func (s *Subsystem) SwitchRunlevel(ctx context.Context, t runlevel.Transition, ctrl runlevel.Controller, cb runlevel.Callback) error {
	// The machine's release notice for a phase carries no work here.
	if t.Properties.Has(runlevel.PropRelease) {
		return nil
	}
	switch t.Direction {
	case runlevel.Up:
		switch t.RunLevel {
		case runlevel.ComputeOK:
			if t.Phase == 0 {
				return s.Pool.Start(ctx)
			}
		case runlevel.UserOK:
			if t.Phase == 0 && s.mainEdt != nil {
				return s.CreateRoot(ctx)
			}
		}
	case runlevel.Down:
		if t.RunLevel == runlevel.ComputeOK {
			return s.Pool.Stop(ctx)
		}
	}
	return nil
}

// CreateRoot creates a fresh mainEdt task under a new finish scope. It
// runs once automatically at UserOK; an embedding program may call it
// again later (e.g. on a cron tick) to resubmit the root task, which
// is exactly what a long-running edtrt-demo process does.
func (s *Subsystem) CreateRoot(ctx context.Context) error {
	if s.mainEdt == nil {
		return nil
	}
	tpl, err := s.Tasks.CreateTemplate(ctx, s.mainEdt, s.cfg.RootParamc, s.cfg.RootDepc)
	if err != nil {
		return fmt.Errorf("compute: create mainEdt template: %w", err)
	}
	paramv := make([]uint64, s.cfg.RootParamc)
	depv := make([]edtrt.Guid, s.cfg.RootDepc)
	modes := make([]edtrt.Mode, s.cfg.RootDepc)
	for i := range depv {
		depv[i] = edtrt.UninitializedGuid
		modes[i] = edtrt.Null
	}
	_, err = s.Tasks.CreateTask(ctx, tpl, paramv, depv, modes, task.Properties{Finish: true}, edtrt.NilGuid, edtrt.NilGuid)
	if err != nil {
		return fmt.Errorf("compute: create mainEdt task: %w", err)
	}
	return nil
}

// deliverProxy breaks the event.Engine/task.Engine constructor cycle:
// event.NewEngine needs a Deliverer before task.NewEngine (which
// implements Deliverer) can exist, since task.NewEngine itself needs
// the already-constructed event.Engine.
type deliverProxy struct {
	target event.Deliverer
}

func (p *deliverProxy) Deliver(ctx context.Context, producer, consumer edtrt.Guid, slot int, payload any, mode edtrt.Mode) error {
	return p.target.Deliver(ctx, producer, consumer, slot, payload, mode)
}

// notifyingDispatcher wraps a task.Dispatcher to publish
// edtrt.EventTypeTaskDispatched on every Enqueue, turning the
// runtime's generic CloudEvents observer surface into a live feed of
// task-graph activity.
type notifyingDispatcher struct {
	rt   edtrt.Runtime
	next task.Dispatcher
}

func (d *notifyingDispatcher) Enqueue(ctx context.Context, g edtrt.Guid) error {
	ce := edtrt.NewCloudEvent(edtrt.EventTypeTaskDispatched, "edtrt-compute", map[string]any{"task": g.String()}, nil)
	_ = d.rt.NotifyObservers(ctx, ce)
	return d.next.Enqueue(ctx, g)
}

// notifyingRunner wraps a dispatch.Runner to publish
// edtrt.EventTypeTaskCompleted or edtrt.EventTypeTaskFailed once a
// task's function returns.
type notifyingRunner struct {
	rt   edtrt.Runtime
	next dispatch.Runner
}

func (r *notifyingRunner) Run(ctx context.Context, g edtrt.Guid) error {
	err := r.next.Run(ctx, g)
	eventType := edtrt.EventTypeTaskCompleted
	metadata := map[string]any{"task": g.String()}
	if err != nil {
		eventType = edtrt.EventTypeTaskFailed
		metadata["error"] = err.Error()
	}
	ce := edtrt.NewCloudEvent(eventType, "edtrt-compute", metadata, nil)
	_ = r.rt.NotifyObservers(ctx, ce)
	return err
}
