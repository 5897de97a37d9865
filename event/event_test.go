package event

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/registry"
)

type delivery struct {
	producer edtrt.Guid
	consumer edtrt.Guid
	slot     int
	payload  any
	mode     edtrt.Mode
}

type recordingDeliverer struct {
	mu        sync.Mutex
	delivered []delivery
}

func (d *recordingDeliverer) Deliver(_ context.Context, producer edtrt.Guid, consumer edtrt.Guid, slot int, payload any, mode edtrt.Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delivered = append(d.delivered, delivery{producer, consumer, slot, payload, mode})
	return nil
}

func newEngine() (*Engine, *recordingDeliverer) {
	d := &recordingDeliverer{}
	return NewEngine(registry.NewStdRegistry(), d), d
}

func TestEngine_OnceDestroysAfterSatisfy(t *testing.T) {
	ctx := context.Background()
	eng, deliverer := newEngine()

	g, err := eng.Create(ctx, Once, 0)
	require.NoError(t, err)
	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(100), 0, edtrt.ReadOnly))
	require.NoError(t, eng.Satisfy(ctx, g, "payload"))

	require.Len(t, deliverer.delivered, 1)
	assert.Equal(t, "payload", deliverer.delivered[0].payload)

	err = eng.Satisfy(ctx, g, "again")
	assert.Error(t, err, "once event should be destroyed and unresolvable")
}

func TestEngine_StickyRejectsDoubleSatisfy(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine()

	g, err := eng.Create(ctx, Sticky, 0)
	require.NoError(t, err)
	require.NoError(t, eng.Satisfy(ctx, g, "first"))

	err = eng.Satisfy(ctx, g, "second")
	assert.ErrorIs(t, err, edtrt.ErrEPERM)
}

func TestEngine_IdempotentSilentlyIgnoresDoubleSatisfy(t *testing.T) {
	ctx := context.Background()
	eng, deliverer := newEngine()

	g, err := eng.Create(ctx, Idempotent, 0)
	require.NoError(t, err)
	require.NoError(t, eng.Satisfy(ctx, g, "first"))
	require.NoError(t, eng.Satisfy(ctx, g, "second"))

	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(1), 0, edtrt.ReadOnly))
	require.Len(t, deliverer.delivered, 1)
	assert.Equal(t, "first", deliverer.delivered[0].payload, "idempotent keeps its first payload")
}

func TestEngine_LateBindingAfterSatisfy(t *testing.T) {
	ctx := context.Background()
	eng, deliverer := newEngine()

	g, err := eng.Create(ctx, Sticky, 0)
	require.NoError(t, err)
	require.NoError(t, eng.Satisfy(ctx, g, "ready"))

	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(7), 2, edtrt.ReadWrite))
	require.Len(t, deliverer.delivered, 1)
	assert.Equal(t, edtrt.Guid(7), deliverer.delivered[0].consumer)
	assert.Equal(t, 2, deliverer.delivered[0].slot)
}

func TestEngine_EarlyBindingBeforeSatisfy(t *testing.T) {
	ctx := context.Background()
	eng, deliverer := newEngine()

	g, err := eng.Create(ctx, Once, 0)
	require.NoError(t, err)
	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(9), 1, edtrt.Const))
	assert.Empty(t, deliverer.delivered, "subscriber bound before satisfy should not be serviced yet")

	require.NoError(t, eng.Satisfy(ctx, g, "go"))
	require.Len(t, deliverer.delivered, 1)
}

func TestEngine_NullModeStripsPayload(t *testing.T) {
	ctx := context.Background()
	eng, deliverer := newEngine()

	g, err := eng.Create(ctx, Once, 0)
	require.NoError(t, err)
	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(3), 0, edtrt.Null))
	require.NoError(t, eng.Satisfy(ctx, g, "irrelevant"))

	require.Len(t, deliverer.delivered, 1)
	assert.Nil(t, deliverer.delivered[0].payload)
}

func TestEngine_CountedAutoDestroysWhenDrained(t *testing.T) {
	ctx := context.Background()
	eng, deliverer := newEngine()

	g, err := eng.Create(ctx, Counted, 2)
	require.NoError(t, err)

	require.NoError(t, eng.Satisfy(ctx, g, "payload"))
	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(1), 0, edtrt.ReadOnly))

	// Not yet drained: still one expected subscriber outstanding.
	err = eng.AddDependence(ctx, g, edtrt.Guid(2), 0, edtrt.ReadOnly)
	require.NoError(t, err)
	require.Len(t, deliverer.delivered, 2)

	// Now fully drained; the event should have been destroyed.
	err = eng.AddDependence(ctx, g, edtrt.Guid(3), 0, edtrt.ReadOnly)
	assert.Error(t, err, "counted event should auto-destroy once drained")
}

func TestEngine_CountedEarlyBindingDecrementsExpected(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine()

	g, err := eng.Create(ctx, Counted, 1)
	require.NoError(t, err)

	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(5), 0, edtrt.ReadOnly))
	require.NoError(t, eng.Satisfy(ctx, g, "x"))

	_, err = eng.resolve(ctx, g)
	assert.Error(t, err, "counted event with zero remaining should auto-destroy on satisfy")
}

func TestEngine_CountedRejectsBindBeyondDeclaredCount(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine()

	g, err := eng.Create(ctx, Counted, 1)
	require.NoError(t, err)

	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(1), 0, edtrt.ReadOnly))

	err = eng.AddDependence(ctx, g, edtrt.Guid(2), 0, edtrt.ReadOnly)
	assert.ErrorIs(t, err, edtrt.ErrEPERM)
}

func TestEngine_UnbindRemovesPendingSubscription(t *testing.T) {
	ctx := context.Background()
	eng, deliverer := newEngine()

	g, err := eng.Create(ctx, Sticky, 0)
	require.NoError(t, err)
	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(1), 0, edtrt.ReadOnly))
	require.NoError(t, eng.Unbind(ctx, g, edtrt.Guid(1), 0))

	require.NoError(t, eng.Satisfy(ctx, g, "x"))
	assert.Empty(t, deliverer.delivered, "unbound consumer should never receive the delivery")
}

func TestEngine_UnbindReversesCountedReservation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine()

	g, err := eng.Create(ctx, Counted, 1)
	require.NoError(t, err)
	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(1), 0, edtrt.ReadOnly))
	require.NoError(t, eng.Unbind(ctx, g, edtrt.Guid(1), 0))

	// The slot Unbind freed should be bindable again.
	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(2), 0, edtrt.ReadOnly))
}

func TestEngine_LatchFiresOnlyOnZeroReturnToZero(t *testing.T) {
	ctx := context.Background()
	eng, deliverer := newEngine()

	g, err := eng.Create(ctx, Latch, 0)
	require.NoError(t, err)
	require.NoError(t, eng.AddDependence(ctx, g, edtrt.Guid(1), 0, edtrt.ReadOnly))

	require.NoError(t, eng.Increment(ctx, g))
	require.NoError(t, eng.Increment(ctx, g))
	assert.Empty(t, deliverer.delivered, "latch should not fire while its counter is above zero")

	require.NoError(t, eng.Decrement(ctx, g, "still-pending"))
	assert.Empty(t, deliverer.delivered, "one decrement from two should not reach zero")

	require.NoError(t, eng.Decrement(ctx, g, "fired"))
	require.Len(t, deliverer.delivered, 1)
	assert.Equal(t, "fired", deliverer.delivered[0].payload)
}

func TestEngine_LatchRejectsDirectSatisfy(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine()

	g, err := eng.Create(ctx, Latch, 0)
	require.NoError(t, err)

	err = eng.Satisfy(ctx, g, "x")
	assert.ErrorIs(t, err, edtrt.ErrEINVAL)
}

func TestEngine_LatchDestroysOnFire(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine()

	g, err := eng.Create(ctx, Latch, 0)
	require.NoError(t, err)

	require.NoError(t, eng.Increment(ctx, g))
	require.NoError(t, eng.Decrement(ctx, g, "fired"))

	err = eng.Increment(ctx, g)
	assert.ErrorIs(t, err, registry.ErrDestroyed, "a fired latch behaves like a once event: destroyed, not re-armed")

	err = eng.Decrement(ctx, g, "late")
	assert.ErrorIs(t, err, registry.ErrDestroyed)

	err = eng.AddDependence(ctx, g, edtrt.Guid(1), 0, edtrt.ReadOnly)
	assert.ErrorIs(t, err, registry.ErrDestroyed, "late binding to a destroyed latch must fail")
}

func TestEngine_CreateRejectsUnknownVariant(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine()

	_, err := eng.Create(ctx, Variant(99), 0)
	assert.ErrorIs(t, err, edtrt.ErrEINVAL)
}

func TestEngine_ExplicitDestroy(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine()

	g, err := eng.Create(ctx, Sticky, 0)
	require.NoError(t, err)
	require.NoError(t, eng.Destroy(ctx, g))

	err = eng.Satisfy(ctx, g, "x")
	assert.Error(t, err)
}
