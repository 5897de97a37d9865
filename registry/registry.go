package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/open-edt/edtrt"
)

var (
	// ErrUnknownHandle is returned resolving a handle Create never issued.
	ErrUnknownHandle = errors.New("registry: handle was never issued")
	// ErrDestroyed is returned resolving a handle whose Destroy already ran.
	ErrDestroyed = errors.New("registry: handle already destroyed")
	// ErrWrongKind is returned when ResolveKind's expect doesn't match.
	ErrWrongKind = errors.New("registry: handle resolves to a different kind")
	// ErrNilObject rejects Create(nil): every handle must name something.
	ErrNilObject = errors.New("registry: cannot create a handle for a nil object")
)

// StdRegistry is the default Registry: a single RWMutex-guarded map
// plus a generator for fresh handles, and a tombstone set so a
// destroyed handle is distinguishable from one that was never issued.
type StdRegistry struct {
	mu        sync.RWMutex
	gen       *edtrt.GuidGenerator
	entries   map[edtrt.Guid]Entry
	destroyed map[edtrt.Guid]struct{}
}

// NewStdRegistry returns an empty registry ready to issue handles.
func NewStdRegistry() *StdRegistry {
	return &StdRegistry{
		gen:       edtrt.NewGuidGenerator(),
		entries:   make(map[edtrt.Guid]Entry),
		destroyed: make(map[edtrt.Guid]struct{}),
	}
}

func (r *StdRegistry) Create(ctx context.Context, kind Kind, object interface{}) (edtrt.Guid, error) {
	if object == nil {
		return edtrt.ErrorGuid, ErrNilObject
	}
	g := r.gen.Next()

	r.mu.Lock()
	r.entries[g] = Entry{Guid: g, Kind: kind, Object: object, CreatedAt: time.Now()}
	r.mu.Unlock()

	return g, nil
}

func (r *StdRegistry) Resolve(ctx context.Context, g edtrt.Guid) (interface{}, error) {
	if g == edtrt.NilGuid || g == edtrt.UninitializedGuid {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, g)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.entries[g]; ok {
		return entry.Object, nil
	}
	if _, ok := r.destroyed[g]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDestroyed, g)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, g)
}

func (r *StdRegistry) ResolveKind(ctx context.Context, g edtrt.Guid, expect Kind) (interface{}, error) {
	r.mu.RLock()
	entry, ok := r.entries[g]
	r.mu.RUnlock()

	if !ok {
		_, err := r.Resolve(ctx, g)
		return nil, err
	}
	if entry.Kind != expect {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrWrongKind, g, entry.Kind, expect)
	}
	return entry.Object, nil
}

func (r *StdRegistry) Destroy(ctx context.Context, g edtrt.Guid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[g]; !ok {
		if _, already := r.destroyed[g]; already {
			return fmt.Errorf("%w: %s", ErrDestroyed, g)
		}
		return fmt.Errorf("%w: %s", ErrUnknownHandle, g)
	}
	delete(r.entries, g)
	r.destroyed[g] = struct{}{}
	return nil
}

func (r *StdRegistry) Count() map[Kind]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Kind]int)
	for _, entry := range r.entries {
		counts[entry.Kind]++
	}
	return counts
}
