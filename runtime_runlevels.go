package edtrt

import (
	"context"
	"fmt"
	"time"

	"github.com/open-edt/edtrt/runlevel"
)

// machineObserver forwards every committed runlevel.Transition to the
// Runtime's own Subject as a CloudEvent, so an embedding program (or a
// remote peer listening over transport) sees runlevel progress the
// same way it sees subsystem lifecycle events.
type machineObserver struct {
	rt *StdRuntime
}

func (o machineObserver) OnTransition(ctx context.Context, t runlevel.Transition) {
	evt := NewRunlevelLifecycleEvent("edtrt-runtime", "runtime", "", t.RunLevel.String(), "transition", map[string]interface{}{
		"phase":     t.Phase,
		"direction": t.Direction.String(),
	})
	_ = o.rt.NotifyObservers(WithSynchronousNotification(ctx), evt)
}

// Up resolves the bring-up order (failing fast on a cycle or a missing
// required dependency), then walks the runlevel machine from wherever
// it currently sits through to, inclusive. Calling Up a second time
// with a higher to value is a valid way to grow a running runtime
// (e.g. ConfigParse..ComputeOK at construction, then UserOK once an
// embedding program has registered its own subsystems).
func (rt *StdRuntime) Up(ctx context.Context, to runlevel.RunLevel) error {
	if _, err := rt.bringupOrder(); err != nil {
		rt.emitLifecycleEvent("runtime", "", "", "failed", map[string]interface{}{"error": err.Error()})
		return err
	}

	if !rt.up {
		rt.machine.RegisterObserver(machineObserver{rt: rt})
	}

	if err := rt.machine.RunUp(ctx, to); err != nil {
		rt.emitLifecycleEvent("runtime", "", to.String(), "failed", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("runtime bring-up: %w", err)
	}

	rt.up = true
	rt.emitLifecycleEvent("runtime", "", to.String(), "up", nil)
	return nil
}

// Down tears the runlevel machine down from its current high-water
// mark through to, inclusive, in reverse. Tear-down is bounded by the
// configured ShutdownGrace so a subsystem stuck on a deferred
// SwitchRunlevel callback cannot hang process exit forever.
func (rt *StdRuntime) Down(ctx context.Context, to runlevel.RunLevel) error {
	grace := 10 * time.Second
	if cfg, ok := rt.cfgProvider.GetConfig().(*RuntimeConfig); ok {
		grace = cfg.shutdownGraceOrDefault()
	}
	ctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	if err := rt.machine.RunDown(ctx, to); err != nil {
		rt.emitLifecycleEvent("runtime", "", to.String(), "failed", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("runtime tear-down: %w", err)
	}
	if to == runlevel.ConfigParse {
		rt.up = false
	}
	rt.emitLifecycleEvent("runtime", "", to.String(), "down", nil)
	return nil
}
