package datablock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/registry"
)

func newEngine() *Engine {
	return NewEngine(registry.NewStdRegistry(), HeapAllocator{})
}

func TestEngine_CreateAndAcquireReadOnly(t *testing.T) {
	ctx := context.Background()
	eng := newEngine()

	g, err := eng.Create(ctx, 64, false)
	require.NoError(t, err)

	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(1), edtrt.ReadOnly))
	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(2), edtrt.ReadOnly))
}

func TestEngine_ExclusiveWriteSerializes(t *testing.T) {
	ctx := context.Background()
	eng := newEngine()

	g, err := eng.Create(ctx, 64, false)
	require.NoError(t, err)

	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(1), edtrt.ExclusiveWrite))

	err = eng.Acquire(ctx, g, edtrt.Guid(2), edtrt.ReadOnly)
	assert.ErrorIs(t, err, edtrt.ErrEBUSY)

	require.NoError(t, eng.Release(ctx, g, edtrt.Guid(1)))
	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(2), edtrt.ExclusiveWrite))
}

func TestEngine_ExclusiveWriteRejectedWhenOthersHold(t *testing.T) {
	ctx := context.Background()
	eng := newEngine()

	g, err := eng.Create(ctx, 64, false)
	require.NoError(t, err)

	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(1), edtrt.ReadOnly))

	err = eng.Acquire(ctx, g, edtrt.Guid(2), edtrt.ExclusiveWrite)
	assert.ErrorIs(t, err, edtrt.ErrEBUSY)
}

func TestEngine_ReadWriteCoexistsWithoutIsolation(t *testing.T) {
	ctx := context.Background()
	eng := newEngine()

	g, err := eng.Create(ctx, 64, false)
	require.NoError(t, err)

	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(1), edtrt.ReadWrite))
	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(2), edtrt.ReadWrite))
}

func TestEngine_ConstLocksOutFutureWritableAcquisition(t *testing.T) {
	ctx := context.Background()
	eng := newEngine()

	g, err := eng.Create(ctx, 64, false)
	require.NoError(t, err)

	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(1), edtrt.Const))
	require.NoError(t, eng.Release(ctx, g, edtrt.Guid(1)))

	err = eng.Acquire(ctx, g, edtrt.Guid(2), edtrt.ReadWrite)
	assert.ErrorIs(t, err, edtrt.ErrEPERM)

	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(3), edtrt.ReadOnly), "read-only remains legal after const lock")
}

func TestEngine_NullModeRejectedOnAcquire(t *testing.T) {
	ctx := context.Background()
	eng := newEngine()

	g, err := eng.Create(ctx, 64, false)
	require.NoError(t, err)

	err = eng.Acquire(ctx, g, edtrt.Guid(1), edtrt.Null)
	assert.ErrorIs(t, err, edtrt.ErrEINVAL)
}

func TestEngine_AutoDestroyOnLastRelease(t *testing.T) {
	ctx := context.Background()
	eng := newEngine()

	g, err := eng.Create(ctx, 64, true)
	require.NoError(t, err)

	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(1), edtrt.ReadOnly))
	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(2), edtrt.ReadOnly))

	require.NoError(t, eng.Release(ctx, g, edtrt.Guid(1)))
	_, err = eng.resolve(ctx, g)
	require.NoError(t, err, "block should survive while an acquirer remains")

	require.NoError(t, eng.Release(ctx, g, edtrt.Guid(2)))
	_, err = eng.resolve(ctx, g)
	assert.Error(t, err, "block should auto-destroy once its last acquirer releases")
}

func TestEngine_ExplicitDestroyIgnoresAcquirers(t *testing.T) {
	ctx := context.Background()
	eng := newEngine()

	g, err := eng.Create(ctx, 64, false)
	require.NoError(t, err)
	require.NoError(t, eng.Acquire(ctx, g, edtrt.Guid(1), edtrt.ReadOnly))
	require.NoError(t, eng.Destroy(ctx, g))

	_, err = eng.resolve(ctx, g)
	assert.Error(t, err)
}

func TestEngine_ReleaseByNonAcquirerRejected(t *testing.T) {
	ctx := context.Background()
	eng := newEngine()

	g, err := eng.Create(ctx, 64, false)
	require.NoError(t, err)

	err = eng.Release(ctx, g, edtrt.Guid(404))
	assert.ErrorIs(t, err, edtrt.ErrEPERM)
}
