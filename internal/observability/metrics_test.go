package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("check")
	m.RecordRequest("check")
	m.RecordRequest("maintenance")
	m.RecordFailure("check")
	m.RecordDuration("check", 10*time.Millisecond)
	m.RecordDuration("check", 30*time.Millisecond)
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordCacheMiss()

	s := m.Snapshot()
	assert.Equal(t, int64(3), s.RequestTotal)
	assert.Equal(t, int64(1), s.RequestFailed)
	assert.Equal(t, int64(2), s.Operations["check"].ExecutionCount)
	assert.Equal(t, int64(20), s.Operations["check"].AverageDuration)
	assert.Equal(t, int64(1), s.Operations["check"].ErrorCount)
	assert.InDelta(t, 33.3, s.CacheHitRate(), 0.1)
	assert.InDelta(t, 66.6, s.SuccessRate(), 0.1)

	m.Reset()
	s = m.Snapshot()
	assert.Equal(t, int64(0), s.RequestTotal)
	assert.Empty(t, s.Operations)
	assert.Equal(t, 100.0, s.SuccessRate())
}
