package leasepool_test

import (
	"testing"

	"github.com/userlandfs/server/internal/leasepool"
	"github.com/stretchr/testify/assert"
)

func TestPool_GetReturnsZeroedBufferOfRequestedSize(t *testing.T) {
	p := leasepool.New()

	l := p.Get(512)

	assert.Len(t, l.Bytes(), 512)
	for _, b := range l.Bytes() {
		assert.Equal(t, byte(0), b)
	}
}

func TestPool_ReleaseRecyclesBuffer(t *testing.T) {
	p := leasepool.New()

	l1 := p.Get(512)
	copy(l1.Bytes(), []byte("dirty"))
	l1.Release()

	assert.Equal(t, 0, p.Live())

	l2 := p.Get(512)
	assert.Equal(t, byte(0), l2.Bytes()[0], "recycled buffer must be cleared")
}

func TestPool_LiveCountTracksOutstandingLeases(t *testing.T) {
	p := leasepool.New()

	l1 := p.Get(64)
	l2 := p.Get(64)
	assert.Equal(t, 2, p.Live())

	l1.Release()
	assert.Equal(t, 1, p.Live())

	l2.Release()
	assert.Equal(t, 0, p.Live())
}

func TestLease_DoubleReleaseIsSafe(t *testing.T) {
	p := leasepool.New()
	l := p.Get(64)

	l.Release()
	assert.NotPanics(t, l.Release)
	assert.Equal(t, 0, p.Live())
}
