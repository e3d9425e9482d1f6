package fscap_test

import (
	"testing"

	"github.com/userlandfs/server/internal/fscap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_SetAndGet(t *testing.T) {
	s := fscap.NewSet(fscap.DialectCurrent)

	assert.False(t, s.Get(fscap.OpRename))

	s.SetOp(fscap.OpRename, true)
	assert.True(t, s.Get(fscap.OpRename))

	s.SetOp(fscap.OpRename, false)
	assert.False(t, s.Get(fscap.OpRename))
}

func TestSet_ClearAllKeepsDialect(t *testing.T) {
	s := fscap.NewSet(fscap.DialectLegacy)
	s.SetOp(fscap.OpRead, true)
	s.SetOp(fscap.OpWrite, true)

	s.ClearAll()

	assert.False(t, s.Get(fscap.OpRead))
	assert.False(t, s.Get(fscap.OpWrite))
	assert.Equal(t, fscap.DialectLegacy, s.Dialect())
}

func TestSet_OutOfRangeOpIsNoop(t *testing.T) {
	s := fscap.NewSet(fscap.DialectCurrent)
	bogus := fscap.Op(100000)

	s.SetOp(bogus, true)

	assert.False(t, s.Get(bogus))
}

func TestSet_WireRoundTrip(t *testing.T) {
	s := fscap.NewSet(fscap.DialectCurrent)
	s.SetOp(fscap.OpMount, true)
	s.SetOp(fscap.OpReadDir, true)
	s.SetOp(fscap.OpRenameAttr, true)

	var restored fscap.Set
	restored.SetFromBytes(s.Bytes())

	for op := fscap.Op(0); int(op) < fscap.Count; op++ {
		require.Equal(t, s.Get(op), restored.Get(op), "op %v", op)
	}
}

func TestAtomicSet_SnapshotIsIndependentCopy(t *testing.T) {
	base := fscap.NewSet(fscap.DialectCurrent)
	base.SetOp(fscap.OpOpen, true)
	atomic := fscap.NewAtomicSet(base)

	snap := atomic.Snapshot()
	snap.SetOp(fscap.OpOpen, false)

	assert.True(t, atomic.Get(fscap.OpOpen), "mutating a snapshot must not affect the source")
}

func TestOp_StringAndValid(t *testing.T) {
	assert.True(t, fscap.OpMount.Valid())
	assert.Equal(t, "Mount", fscap.OpMount.String())

	bogus := fscap.Op(fscap.Count + 10)
	assert.False(t, bogus.Valid())
}
