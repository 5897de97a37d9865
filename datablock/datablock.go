// Package datablock implements the data-block engine: acquisition-mode
// bookkeeping over a handle-addressed buffer. The allocator that backs
// a block's actual storage is out of scope for this engine (spec.md
// §1 draws that boundary at the Allocator interface); only who may
// hold the block open, in what mode, and when it tears down is
// implemented here.
package datablock

import (
	"context"
	"fmt"
	"sync"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/registry"
)

// Allocator backs a data block's storage. A real implementation would
// carve blocks out of a managed memory pool (the teacher's domain
// equivalent is a pluggable backend behind a narrow interface, e.g.
// its cache/database module facades); this engine only needs Alloc
// and Free, so the interface stays narrow rather than exposing pool
// internals.
type Allocator interface {
	Alloc(ctx context.Context, size uint64) ([]byte, error)
	Free(ctx context.Context, buf []byte) error
}

// HeapAllocator is the default Allocator: a plain Go slice per block.
// Suitable for tests and for a single-process runtime with no real
// memory-domain boundaries to enforce.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(_ context.Context, size uint64) ([]byte, error) {
	return make([]byte, size), nil
}

func (HeapAllocator) Free(_ context.Context, _ []byte) error { return nil }

// DataBlock is one allocated, handle-addressed region with its
// current set of acquirers.
type DataBlock struct {
	mu sync.Mutex

	guid        edtrt.Guid
	buf         []byte
	autoDestroy bool

	acquirers   map[edtrt.Guid]edtrt.Mode
	constLocked bool // true once any acquirer has held Const; forbids future writable acquisition
}

func (db *DataBlock) Guid() edtrt.Guid { return db.guid }

// Bytes exposes the block's backing storage. The caller's Mode (as
// recorded at Acquire) governs what it may legally do with this —
// the engine hands back the same slice regardless of mode and trusts
// the caller, matching spec.md §4.6's framing of mode as the
// contract, not a language-level access control the engine enforces
// byte-by-byte.
func (db *DataBlock) Bytes() []byte { return db.buf }

// Engine owns every live DataBlock, keyed through the handle registry.
type Engine struct {
	reg   registry.Registry
	alloc Allocator
}

// NewEngine creates a data-block engine backed by reg for handle
// issuance and alloc for storage. Pass HeapAllocator{} for a runtime
// with no real memory-domain boundaries.
func NewEngine(reg registry.Registry, alloc Allocator) *Engine {
	return &Engine{reg: reg, alloc: alloc}
}

// Create allocates a block of size bytes. When autoDestroy is set,
// the block is destroyed implicitly the moment its acquirer set
// empties out via Release rather than requiring an explicit Destroy.
func (eng *Engine) Create(ctx context.Context, size uint64, autoDestroy bool) (edtrt.Guid, error) {
	buf, err := eng.alloc.Alloc(ctx, size)
	if err != nil {
		return edtrt.NilGuid, err
	}
	db := &DataBlock{
		buf:         buf,
		autoDestroy: autoDestroy,
		acquirers:   make(map[edtrt.Guid]edtrt.Mode),
	}
	g, err := eng.reg.Create(ctx, registry.KindDataBlock, db)
	if err != nil {
		_ = eng.alloc.Free(ctx, buf)
		return edtrt.NilGuid, err
	}
	db.guid = g
	return g, nil
}

func (eng *Engine) resolve(ctx context.Context, g edtrt.Guid) (*DataBlock, error) {
	obj, err := eng.reg.ResolveKind(ctx, g, registry.KindDataBlock)
	if err != nil {
		return nil, err
	}
	return obj.(*DataBlock), nil
}

// Acquire admits acquirer to db in mode. Precedence in merge order:
// ReadOnly and Const admit freely alongside any non-ExclusiveWrite
// holder; ReadWrite admits alongside anything but ExclusiveWrite,
// with no isolation between concurrent ReadWrite holders (the
// caller's problem per spec.md §4.6); ExclusiveWrite requires the
// acquirer set to be empty and, once granted, blocks every further
// acquisition until released. Null is a control dependence only — it
// never touches the block and Acquire rejects it outright, matching
// the event engine's Null handling of never delivering a handle.
func (eng *Engine) Acquire(ctx context.Context, block edtrt.Guid, acquirer edtrt.Guid, mode edtrt.Mode) error {
	if mode == edtrt.Null {
		return fmt.Errorf("%w: null mode never acquires a data block", edtrt.ErrEINVAL)
	}

	db, err := eng.resolve(ctx, block)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	for _, held := range db.acquirers {
		if held == edtrt.ExclusiveWrite || mode == edtrt.ExclusiveWrite {
			return fmt.Errorf("%w: block is held exclusive-write or being requested exclusive-write", edtrt.ErrEBUSY)
		}
	}
	if db.constLocked && (mode == edtrt.ReadWrite || mode == edtrt.ExclusiveWrite) {
		return fmt.Errorf("%w: block was acquired const and cannot be reacquired writable", edtrt.ErrEPERM)
	}

	db.acquirers[acquirer] = mode
	if mode == edtrt.Const {
		db.constLocked = true
	}
	return nil
}

// Release publishes acquirer's pending writes (a no-op for the plain
// Go-slice storage model; a real allocator backend would flush here)
// and removes it from the acquirer set. If db has no acquirers left
// and was created with autoDestroy, it is destroyed as a side effect,
// matching spec.md §4.6's "implicit [destroy] at the end of the last
// releasing task" rule.
func (eng *Engine) Release(ctx context.Context, block edtrt.Guid, acquirer edtrt.Guid) error {
	db, err := eng.resolve(ctx, block)
	if err != nil {
		return err
	}

	db.mu.Lock()
	if _, ok := db.acquirers[acquirer]; !ok {
		db.mu.Unlock()
		return fmt.Errorf("%w: acquirer does not hold this block", edtrt.ErrEPERM)
	}
	delete(db.acquirers, acquirer)
	empty := len(db.acquirers) == 0
	autoDestroy := db.autoDestroy
	db.mu.Unlock()

	if empty && autoDestroy {
		return eng.destroy(ctx, db)
	}
	return nil
}

// Destroy explicitly tears down block, regardless of its acquirer set.
func (eng *Engine) Destroy(ctx context.Context, block edtrt.Guid) error {
	db, err := eng.resolve(ctx, block)
	if err != nil {
		return err
	}
	return eng.destroy(ctx, db)
}

func (eng *Engine) destroy(ctx context.Context, db *DataBlock) error {
	if err := eng.alloc.Free(ctx, db.buf); err != nil {
		return err
	}
	return eng.reg.Destroy(ctx, db.guid)
}
