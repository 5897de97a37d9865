// Package slotqueue implements a lock-free, bounded, single-reader
// multi-writer slot-reservation ring: the primitive the transport
// package's inter-policy-domain message queues are built on. A writer
// reserves a slot by CAS-advancing a shared write index, fills it,
// then validates it as readable; a single reader scans forward from
// its read index for the first full slot, marking emptied slots along
// the way so the writer side never observes EMPTY as a false negative
// for WRITEABLE.
//
// This is a direct port of OCR's comQueue — deliberately hand-rolled
// rather than built on a library, because the spec calls for the
// exact reservation/validate/read/empty state machine and CAS
// choreography that primitive embodies, not a generic queue.
package slotqueue

import (
	"sync/atomic"

	"github.com/open-edt/edtrt"
)

// status is the lifecycle state of one slot. Transitions are driven
// entirely by atomic compare-and-swap on the slot's status word, so
// multiple writers can race to reserve distinct slots concurrently
// while a single reader advances independently.
type status uint32

const (
	// writeable is the slot's initial state, and the state a slot
	// returns to directly (queue depth 1) or via empty (depth > 1)
	// once a reader has drained it.
	writeable status = iota
	// reserved marks a slot a writer has claimed but not yet filled.
	reserved
	// full marks a slot holding a validated, readable message.
	full
	// reading marks a slot the reader has claimed but not yet emptied.
	reading
	// empty marks a slot the reader has drained but not yet recycled
	// to writeable; see emptySlot's invariant comment for why this is
	// a distinct state from writeable rather than folded into it.
	empty
)

// Slot holds one ring position: its lifecycle state plus the message
// payload a writer deposits and a reader collects.
type Slot struct {
	state atomic.Uint32
	msg   any
}

// Queue is a fixed-size ring of Slots. The zero Queue is not usable;
// build one with New.
type Queue struct {
	readIdx  atomic.Uint32
	writeIdx atomic.Uint32
	size     uint32
	slots    []Slot
}

// New creates a Queue with size slots, all initially writeable. A
// size of zero is legal to construct but every operation on it
// returns edtrt.ErrENOMEM, matching comQueueInit's contract of never
// rejecting construction outright.
func New(size uint32) *Queue {
	q := &Queue{size: size, slots: make([]Slot, size)}
	for i := range q.slots {
		q.slots[i].state.Store(uint32(writeable))
	}
	return q
}

// Size reports the ring's slot count.
func (q *Queue) Size() uint32 { return q.size }

// Reserve claims a writeable slot for a writer, returning its index.
// Returns edtrt.ErrENOMEM if the queue has zero slots, or
// edtrt.ErrEAGAIN if the slot after the write index is not writeable,
// so a ring of two or more slots holds at most Size()-1 reserved or
// unread messages. The caller must
// eventually call Validate or Unreserve on the returned index.
func (q *Queue) Reserve() (uint32, error) {
	if q.size == 0 {
		return 0, edtrt.ErrENOMEM
	}

	if q.size == 1 {
		if q.slots[0].state.CompareAndSwap(uint32(writeable), uint32(reserved)) {
			return 0, nil
		}
		return 0, edtrt.ErrEAGAIN
	}

	for {
		oldIdx := q.writeIdx.Load()
		nextIdx := (oldIdx + 1) % q.size
		if q.slots[nextIdx].state.Load() != uint32(writeable) {
			return 0, edtrt.ErrEAGAIN
		}
		if !q.writeIdx.CompareAndSwap(oldIdx, nextIdx) {
			continue // another writer raced ahead of us, retry
		}
		// We won the index race; now claim the slot itself. Between
		// the two CAS operations writeIdx may have wrapped all the way
		// around and another writer could reach here first, so losing
		// this CAS is not an error — it just means retrying.
		if q.slots[oldIdx].state.CompareAndSwap(uint32(writeable), uint32(reserved)) {
			return oldIdx, nil
		}
	}
}

// Unreserve releases slot back without publishing a message, letting
// the writer change its mind after a successful Reserve.
func (q *Queue) Unreserve(slot uint32) error {
	if slot >= q.size {
		return edtrt.ErrEINVAL
	}
	if q.slots[slot].state.Load() != uint32(reserved) {
		return edtrt.ErrEPERM
	}
	q.slots[slot].msg = nil
	if q.size == 1 {
		q.slots[slot].state.Store(uint32(writeable))
	} else {
		q.slots[slot].state.Store(uint32(empty))
	}
	return nil
}

// Validate publishes msg into slot and marks it readable. slot must
// have come from a successful Reserve on this Queue and not yet been
// validated or unreserved.
func (q *Queue) Validate(slot uint32, msg any) error {
	if slot >= q.size {
		return edtrt.ErrEINVAL
	}
	if q.slots[slot].state.Load() != uint32(reserved) {
		return edtrt.ErrEPERM
	}
	q.slots[slot].msg = msg
	q.slots[slot].state.Store(uint32(full))
	return nil
}

// Read finds the next full slot starting from the queue's read index,
// marks it reading, and returns its index and message. Only one
// goroutine may call Read (and Empty) on a given Queue at a time;
// serializing reads is the caller's responsibility, mirroring
// comQueue's single-reader contract. Returns edtrt.ErrEAGAIN if no
// slot is currently full.
func (q *Queue) Read() (uint32, any, error) {
	if q.size == 0 {
		return 0, nil, edtrt.ErrENOMEM
	}

	if q.size == 1 {
		if q.slots[0].state.CompareAndSwap(uint32(full), uint32(reading)) {
			return 0, q.slots[0].msg, nil
		}
		return 0, nil, edtrt.ErrEAGAIN
	}

	start := q.readIdx.Load()
	lastWriteable := uint32(0)
	sawWriteable := false

	for offset := uint32(0); offset < q.size; offset++ {
		idx := (start + offset) % q.size
		st := status(q.slots[idx].state.Load())

		switch st {
		case full:
			q.slots[idx].state.Store(uint32(reading))
			if sawWriteable {
				q.readIdx.Store((lastWriteable + 1) % q.size)
			}
			return idx, q.slots[idx].msg, nil
		case empty:
			// Recycle drained slots to writeable as we pass over them;
			// only the reader may perform this transition, which is
			// why Read and Empty share the single-reader contract.
			q.slots[idx].state.Store(uint32(writeable))
			lastWriteable = idx
			sawWriteable = true
		default:
			// reserved or writeable: not yet ours to read, keep scanning
		}
	}

	if sawWriteable {
		q.readIdx.Store((lastWriteable + 1) % q.size)
	}
	return 0, nil, edtrt.ErrEAGAIN
}

// Empty returns slot to the empty (or, for a depth-1 queue,
// writeable) state once the reader is done with its message, and
// advances the read index when slot was the queue's current read
// position. Must only be called with a slot previously returned by
// Read.
func (q *Queue) Empty(slot uint32) error {
	if slot >= q.size {
		return edtrt.ErrEINVAL
	}
	if q.slots[slot].state.Load() != uint32(reading) {
		return edtrt.ErrEPERM
	}
	q.slots[slot].msg = nil

	if q.size == 1 {
		q.slots[slot].state.Store(uint32(writeable))
		return nil
	}

	if slot == q.readIdx.Load() {
		q.slots[slot].state.Store(uint32(writeable))
		q.readIdx.Store((q.readIdx.Load() + 1) % q.size)
	} else {
		q.slots[slot].state.Store(uint32(empty))
	}
	return nil
}
