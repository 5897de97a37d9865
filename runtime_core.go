package edtrt

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/open-edt/edtrt/runlevel"
)

// RegisterSubsystem wires s into the runtime: config section, provided
// services, and (if applicable) the runlevel machine. Dependency order
// among already- and not-yet-registered subsystems is resolved lazily,
// at Up, once every subsystem the embedding program intends to run has
// been added.
func (rt *StdRuntime) RegisterSubsystem(s Subsystem) error {
	if rt.up {
		return ErrRuntimeAlreadyUp
	}
	if _, exists := rt.subsystemIdx[s.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrSubsystemAlreadyRegistered, s.Name())
	}

	rt.subsystems = append(rt.subsystems, s)
	rt.subsystemIdx[s.Name()] = s

	if sa, ok := s.(ServiceAware); ok {
		for _, svc := range sa.ProvidedServices() {
			rt.svcRegistry[svc.Name] = svc.Instance
			rt.emitLifecycleEvent("subsystem", s.Name(), "", "service-registered", map[string]interface{}{
				"service": svc.Name,
			})
		}
	}

	if cfgAware, ok := s.(Configurable); ok {
		if err := cfgAware.RegisterConfig(rt); err != nil {
			return fmt.Errorf("subsystem %s: register config: %w", s.Name(), err)
		}
	}

	rt.machine.Register(asParticipant(s))
	rt.emitLifecycleEvent("subsystem", s.Name(), "", "registered", nil)
	return nil
}

// serviceProvider maps a service name to the subsystem that publishes
// it, used to translate a ServiceDependency into a subsystem-to-
// subsystem graph edge.
func (rt *StdRuntime) serviceProviders() map[string]string {
	providers := make(map[string]string)
	for _, s := range rt.subsystems {
		sa, ok := s.(ServiceAware)
		if !ok {
			continue
		}
		for _, svc := range sa.ProvidedServices() {
			providers[svc.Name] = s.Name()
		}
	}
	return providers
}

// bringupOrder returns subsystem names in dependency order: a
// subsystem's declared ServiceDependency names are resolved to the
// subsystem that provides them, and topologically sorted with cycle
// detection. This order does not itself drive the runlevel machine
// (every phase fans out to all participants concurrently; a
// participant that truly needs another to be further along calls
// Controller.EnsurePhaseUp and defers) — it is used to validate, before
// Up ever runs a single phase, that the declared dependency graph is
// acyclic and fully satisfiable.
func (rt *StdRuntime) bringupOrder() ([]string, error) {
	providers := rt.serviceProviders()

	graph := make(map[string][]string)
	for _, s := range rt.subsystems {
		name := s.Name()
		da, ok := s.(DependencyAware)
		if !ok {
			graph[name] = nil
			continue
		}
		var deps []string
		for _, dep := range da.Dependencies() {
			provider, found := providers[dep.Name]
			if !found {
				if dep.Required {
					return nil, fmt.Errorf("%w: %s needs service %q", ErrSubsystemDependencyMissing, name, dep.Name)
				}
				continue
			}
			if provider == name {
				continue // self-dependency on an own service: not an ordering constraint
			}
			deps = append(deps, provider)
		}
		graph[name] = deps
	}

	var result []string
	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	var path []string

	var visit func(string) error
	visit = func(node string) error {
		if inStack[node] {
			return fmt.Errorf("%w: %s", ErrCircularDependency, cyclePath(path, node))
		}
		if visited[node] {
			return nil
		}
		inStack[node] = true
		path = append(path, node)

		deps := append([]string(nil), graph[node]...)
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		visited[node] = true
		inStack[node] = false
		path = path[:len(path)-1]
		result = append(result, node)
		return nil
	}

	var names []string
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}

	rt.logger.Debug("subsystem bring-up order resolved", "order", result)
	return result, nil
}

// cyclePath renders the dependency chain that closes a cycle back on
// cycleNode, for diagnostics.
func cyclePath(path []string, cycleNode string) string {
	start := -1
	for i, node := range path {
		if node == cycleNode {
			start = i
			break
		}
	}
	if start == -1 {
		return fmt.Sprintf("cycle involving %s", cycleNode)
	}
	chain := append(append([]string(nil), path[start:]...), cycleNode)
	return "cycle: " + strings.Join(chain, " -> ")
}

// emitLifecycleEvent is a small helper around NotifyObservers so
// subsystem bookkeeping reads the same whether or not an observer is
// attached; HandleEventEmissionError callers rely on it being a no-op
// when nothing is listening.
func (rt *StdRuntime) emitLifecycleEvent(subject, name, runLevel, action string, metadata map[string]interface{}) {
	evt := NewRunlevelLifecycleEvent("edtrt-runtime", subject, name, runLevel, action, metadata)
	_ = rt.NotifyObservers(context.Background(), evt)
}
