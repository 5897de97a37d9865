package edtrt

import "reflect"

// Service describes a named runtime-internal facility (the comm
// endpoint, the allocator facade, the guid registry, ...) that one
// subsystem provides for others to look up during runlevel bring-up.
type Service struct {
	Name        string
	Description string
	Instance    any
}

// ServiceDependency declares that a Subsystem needs another
// subsystem's service to be available before it can finish its own
// bring-up.
type ServiceDependency struct {
	Name               string
	Required           bool
	Type               reflect.Type // Concrete type (if known)
	SatisfiesInterface reflect.Type // Interface type (if known)
}
