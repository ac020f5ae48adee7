package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/muurk/smartac/internal/sensibo"
)

func TestRequestMetrics(t *testing.T) {
	m := NewRequestMetrics()

	m.ObserveRequest(sensibo.MethodGet, 200, 120*time.Millisecond)
	m.ObserveRequest(sensibo.MethodGet, 200, 80*time.Millisecond)
	m.ObserveRequest(sensibo.MethodPatch, 401, 50*time.Millisecond)
	m.ObserveRequest(sensibo.MethodPatch, 0, 5*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("PATCH", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("PATCH", "0")))

	// three counter series plus two histogram series
	assert.Equal(t, 5, testutil.CollectAndCount(m))
}
