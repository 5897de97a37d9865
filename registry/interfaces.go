// Package registry implements the GUID-keyed handle table every other
// engine (event, datablock, task) resolves its handles through. A
// handle is issued once by GuidGenerator, is resolvable only between
// its Create and Destroy calls, and fails to resolve with ErrDestroyed
// forever after Destroy — callers that hold a handle across a destroy
// race get a well-defined failure instead of a dangling pointer.
package registry

import (
	"context"
	"time"

	"github.com/open-edt/edtrt"
)

// Kind distinguishes what a handle names, so a misdirected lookup
// (resolving an event handle as a task, say) fails fast instead of
// silently type-asserting onto the wrong struct.
type Kind string

const (
	KindTask      Kind = "task"
	KindTemplate  Kind = "template"
	KindEvent     Kind = "event"
	KindDataBlock Kind = "datablock"
	KindFinish    Kind = "finish-scope"
)

// Entry is one live handle's registration.
type Entry struct {
	Guid      edtrt.Guid
	Kind      Kind
	Object    interface{}
	CreatedAt time.Time
}

// Registry is the handle table contract. Implementations must be safe
// for concurrent use; the task, event, and datablock engines all
// create and resolve handles from worker goroutines.
type Registry interface {
	// Create issues a fresh handle for object, tagged kind, and
	// registers it as resolvable immediately.
	Create(ctx context.Context, kind Kind, object interface{}) (edtrt.Guid, error)

	// Resolve looks up the live object behind g. Resolving a handle
	// that was never issued, or one already destroyed, returns a nil
	// object and an error satisfying errors.Is(err, ErrUnknownHandle) or
	// ErrDestroyed respectively.
	Resolve(ctx context.Context, g edtrt.Guid) (interface{}, error)

	// ResolveKind is Resolve plus a Kind check; it fails with
	// ErrWrongKind if g resolves but names something of a different
	// Kind than expected.
	ResolveKind(ctx context.Context, g edtrt.Guid, expect Kind) (interface{}, error)

	// Destroy removes g's entry. After Destroy returns, every
	// subsequent Resolve(g) fails with ErrDestroyed. Destroying an
	// already-destroyed or never-issued handle is an error.
	Destroy(ctx context.Context, g edtrt.Guid) error

	// Count reports the number of currently live (non-destroyed)
	// handles, by kind. Used by the introspection HTTP surface.
	Count() map[Kind]int
}
