package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("n8n", "list_workflows", "success"))

	ObserveUpstream("n8n", "list_workflows", "success", time.Now())

	after := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("n8n", "list_workflows", "success"))
	assert.Equal(t, before+1, after)
}

func TestSetCachedRecords(t *testing.T) {
	SetCachedRecords("grants", 7)
	assert.Equal(t, float64(7), testutil.ToFloat64(cachedRecords.WithLabelValues("grants")))
}
