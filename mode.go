package edtrt

// Mode constrains what a dependence slot's receiver may do with the
// handle bound into it. The event engine only tags a slot with a
// Mode; it never itself mutates or isolates the underlying data
// block — that enforcement lives in the datablock package's
// acquisition bookkeeping.
type Mode int

const (
	// ReadOnly permits many concurrent readers, no mutation.
	ReadOnly Mode = iota
	// Const behaves like ReadOnly but the engine may forbid release
	// back to writable once granted.
	Const
	// ReadWrite is shared with other ReadWrite acquirers with no
	// isolation guarantee; the caller orders its own writes.
	ReadWrite
	// ExclusiveWrite serializes: at most one ExclusiveWrite task runs
	// over the block at a time, in arbitrary but total order.
	ExclusiveWrite
	// Null means no handle is delivered to the slot at all — a pure
	// control dependence. A satisfy on a Null slot strips the payload
	// regardless of what the producer carried.
	Null
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case Const:
		return "const"
	case ReadWrite:
		return "read-write"
	case ExclusiveWrite:
		return "exclusive-write"
	case Null:
		return "null"
	default:
		return "unknown"
	}
}

// Precedence ranks modes for merge ordering when the data-block engine
// must reconcile concurrent acquisition requests; lower values win.
// ReadOnly/Const acquirers can be granted together; ReadWrite admits
// concurrent ReadWrite acquirers with no isolation; ExclusiveWrite
// always serializes against every other mode including itself.
func (m Mode) Precedence() int {
	switch m {
	case ReadOnly:
		return 0
	case Const:
		return 1
	case ReadWrite:
		return 2
	case ExclusiveWrite:
		return 3
	default:
		return 4
	}
}
