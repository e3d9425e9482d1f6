package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest_CountsByOutcome(t *testing.T) {
	ObserveRequest("read", 0.01, true)
	ObserveRequest("read", 0.02, false)

	ok := testutil.ToFloat64(instance().requestsTotal.WithLabelValues("read", "ok"))
	errCount := testutil.ToFloat64(instance().requestsTotal.WithLabelValues("read", "error"))

	assert.Equal(t, float64(1), ok)
	assert.Equal(t, float64(1), errCount)
}

func TestRecordCacheAccess_HitAndMiss(t *testing.T) {
	before := testutil.ToFloat64(instance().cacheAccessTotal.WithLabelValues("hit"))
	RecordCacheAccess(true)
	after := testutil.ToFloat64(instance().cacheAccessTotal.WithLabelValues("hit"))

	assert.Equal(t, before+1, after)
}

func TestRecordCacheEviction_Increments(t *testing.T) {
	before := testutil.ToFloat64(instance().cacheEvictedTotal)
	RecordCacheEviction()
	after := testutil.ToFloat64(instance().cacheEvictedTotal)

	assert.Equal(t, before+1, after)
}

func TestSetWorkerQueueDepth_ReflectsLastValue(t *testing.T) {
	SetWorkerQueueDepth("priority", 3)
	assert.Equal(t, float64(3), testutil.ToFloat64(instance().workerQueueDepth.WithLabelValues("priority")))

	SetWorkerQueueDepth("priority", 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(instance().workerQueueDepth.WithLabelValues("priority")))
}

func TestRegistry_RegistersEveryCollector(t *testing.T) {
	r := Registry()
	families, err := r.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
