package edtrt

// ServiceRegistry maps a service name to its instance. Subsystems use
// this, through RuntimeRegistry, to find each other by name during
// runlevel bring-up (the comm endpoint looks up the guid registry,
// the dispatcher looks up the event engine, and so on) without
// depending on one another's concrete package.
type ServiceRegistry map[string]any

// RuntimeRegistry is implemented by anything that exposes a
// ServiceRegistry — in practice, Runtime.
type RuntimeRegistry interface {
	SvcRegistry() ServiceRegistry
}

// RegisterService stores service under name in rt's registry.
func RegisterService[T any](rt RuntimeRegistry, name string, service *T) {
	rt.SvcRegistry()[name] = service
}

// GetService retrieves the service registered under name, type-asserted
// to *T. The second return is false if no service is registered under
// that name or it doesn't hold a *T.
func GetService[T any](rt RuntimeRegistry, name string) (*T, bool) {
	registry := rt.SvcRegistry()
	if registry == nil {
		return nil, false
	}

	svc, exists := registry[name].(*T)
	if !exists {
		return nil, exists
	}
	return svc, exists
}
