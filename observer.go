// Package edtrt provides Observer pattern interfaces for runtime-level
// notifications. These are operational events about the runtime itself
// (a subsystem completing bring-up, a task being dispatched or
// finishing) — distinct from the task-graph event package's
// user-visible Event engine, which exists to satisfy task dependences,
// not to notify external listeners. Notifications use the CloudEvents
// specification so an embedding application, or a remote peer
// listening over transport, can consume them without depending on
// edtrt's internal types.
package edtrt

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer receives runtime notifications it registered interest in.
type Observer interface {
	// OnEvent is called when a notification occurs. Observers should
	// return quickly; a slow observer delays others when delivery is
	// synchronous (see WithSynchronousNotification).
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID identifies this observer for registration and logging.
	ObserverID() string
}

// Subject is implemented by anything that can be observed — in
// practice, Runtime.
type Subject interface {
	// RegisterObserver adds an observer. If eventTypes is empty the
	// observer receives every notification type.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. Idempotent.
	UnregisterObserver(observer Observer) error

	// NotifyObservers delivers event to every interested observer,
	// handling observer errors and panics without propagating them.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers reports currently registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo describes a registered observer for introspection.
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Notification type constants, in reverse domain notation per the
// CloudEvents spec.
const (
	EventTypeSubsystemRegistered = "io.edtrt.subsystem.registered"
	EventTypeSubsystemUp         = "io.edtrt.subsystem.up"
	EventTypeSubsystemDown       = "io.edtrt.subsystem.down"
	EventTypeSubsystemFailed     = "io.edtrt.subsystem.failed"

	EventTypeServiceRegistered = "io.edtrt.service.registered"

	EventTypeRunlevelTransition = "io.edtrt.runlevel.transition"

	EventTypeRuntimeUp     = "io.edtrt.runtime.up"
	EventTypeRuntimeDown   = "io.edtrt.runtime.down"
	EventTypeRuntimeFailed = "io.edtrt.runtime.failed"

	EventTypeTaskDispatched = "io.edtrt.task.dispatched"
	EventTypeTaskCompleted  = "io.edtrt.task.completed"
	EventTypeTaskFailed     = "io.edtrt.task.failed"
)

// FunctionalObserver adapts a plain function to Observer.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver builds an Observer from a handler function.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{id: id, handler: handler}
}

func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

func (f *FunctionalObserver) ObserverID() string { return f.id }
