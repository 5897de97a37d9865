package edtrt

import "sync/atomic"

// Guid is an opaque, totally-ordered handle naming a runtime object
// (task, event, data block, or template). Handles are comparable for
// equality; comparing against NilGuid is the standard termination
// check used throughout the engines.
type Guid uint64

const (
	// NilGuid denotes "no object". It is the standard value tested
	// for termination (e.g. an unbound output event).
	NilGuid Guid = 0

	// UninitializedGuid is a placeholder meaning "to be supplied
	// later" — used for dependence-slot producers that have not yet
	// been bound.
	UninitializedGuid Guid = 1

	// ErrorGuid represents a failed handle operation; Registry.Create
	// returns it alongside its error. Resolving a destroyed handle
	// reports registry.ErrDestroyed rather than returning this value.
	ErrorGuid Guid = 2
)

// firstIssuable is the first value the generator will hand out. The
// three reserved sentinels above are never issued.
const firstIssuable = Guid(3)

// IsReserved reports whether g is one of the three sentinel values
// that the generator never issues.
func (g Guid) IsReserved() bool {
	return g == NilGuid || g == UninitializedGuid || g == ErrorGuid
}

// String renders the handle for logging; reserved values print their
// symbolic name rather than a bare integer.
func (g Guid) String() string {
	switch g {
	case NilGuid:
		return "guid(nil)"
	case UninitializedGuid:
		return "guid(uninitialized)"
	case ErrorGuid:
		return "guid(error)"
	default:
		return "guid(" + itoa(uint64(g)) + ")"
	}
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// GuidGenerator hands out fresh, monotonically increasing handles.
// It never reissues the reserved sentinel values. Safe for concurrent
// use by multiple producers, matching the rest of the engine's
// lock-free, CAS-based shared state.
type GuidGenerator struct {
	next atomic.Uint64
}

// NewGuidGenerator returns a generator ready to issue handles starting
// at the first non-reserved value.
func NewGuidGenerator() *GuidGenerator {
	g := &GuidGenerator{}
	g.next.Store(uint64(firstIssuable))
	return g
}

// Next issues a fresh handle. It is never one of the reserved
// sentinel values and is strictly greater than every value issued so
// far by this generator.
func (g *GuidGenerator) Next() Guid {
	return Guid(g.next.Add(1) - 1)
}
