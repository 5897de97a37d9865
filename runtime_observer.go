package edtrt

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration tracks one registered observer and the event
// types it filters on.
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

// RegisterObserver implements Subject.
func (rt *StdRuntime) RegisterObserver(observer Observer, eventTypes ...string) error {
	types := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = true
	}
	rt.observerMu.Lock()
	rt.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   types,
		registeredAt: time.Now(),
	}
	rt.observerMu.Unlock()
	rt.logger.Debug("observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver implements Subject. Idempotent.
func (rt *StdRuntime) UnregisterObserver(observer Observer) error {
	rt.observerMu.Lock()
	delete(rt.observers, observer.ObserverID())
	rt.observerMu.Unlock()
	return nil
}

// NotifyObservers implements Subject. Delivery runs synchronously when
// the context carries WithSynchronousNotification (the runlevel
// machine uses this so a phase's commit notice is visible to an
// observer before the next phase starts); otherwise each observer is
// notified from its own goroutine so a slow or panicking observer
// never blocks the runtime.
func (rt *StdRuntime) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		rt.logger.Error("invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	synchronous := IsSynchronousNotification(ctx)

	rt.observerMu.RLock()
	regs := make([]*observerRegistration, 0, len(rt.observers))
	for _, reg := range rt.observers {
		regs = append(regs, reg)
	}
	rt.observerMu.RUnlock()

	for _, reg := range regs {
		reg := reg
		if len(reg.eventTypes) > 0 && !reg.eventTypes[event.Type()] {
			continue
		}

		notify := func() {
			defer func() {
				if r := recover(); r != nil {
					rt.logger.Error("observer panicked", "observerID", reg.observer.ObserverID(), "event", event.Type(), "panic", r)
				}
			}()
			if err := reg.observer.OnEvent(ctx, event); err != nil {
				rt.logger.Error("observer error", "observerID", reg.observer.ObserverID(), "event", event.Type(), "error", err)
			}
		}

		if synchronous {
			notify()
		} else {
			go notify()
		}
	}
	return nil
}

// GetObservers implements Subject.
func (rt *StdRuntime) GetObservers() []ObserverInfo {
	rt.observerMu.RLock()
	defer rt.observerMu.RUnlock()

	info := make([]ObserverInfo, 0, len(rt.observers))
	for _, reg := range rt.observers {
		types := make([]string, 0, len(reg.eventTypes))
		for t := range reg.eventTypes {
			types = append(types, t)
		}
		info = append(info, ObserverInfo{
			ID:           reg.observer.ObserverID(),
			EventTypes:   types,
			RegisteredAt: reg.registeredAt,
		})
	}
	return info
}
