package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncScan("NEW_BOX", OutcomeCreated)
	pr.IncScan("NEW_BOX", OutcomeCreated)
	pr.IncScan("ADD_ITEM", OutcomeRejected)
	pr.IncTransition("ACTIVE", "SEALED")
	pr.ObserveRefreshDuration(20 * time.Millisecond)
	pr.SetBoxesByStatus(map[string]int{"ACTIVE": 3, "RECEIVED": 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.scans.WithLabelValues("NEW_BOX", OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.transitions.WithLabelValues("ACTIVE", "SEALED")))
	assert.Equal(t, 3.0, testutil.ToFloat64(pr.boxes.WithLabelValues("ACTIVE")))

	// Statuses missing from a later snapshot drop out of the gauge.
	pr.SetBoxesByStatus(map[string]int{"SEALED": 2})
	assert.Equal(t, 1, testutil.CollectAndCount(pr.boxes))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncScan("RECEIVE_BOX", OutcomeReceived)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), "scantrack_scans_total"))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncScan("NEW_BOX", OutcomeCreated)
	pr.SetBoxesByStatus(map[string]int{"ACTIVE": 1})

	var r Recorder = NoopRecorder{}
	r.IncTransition("ACTIVE", "SEALED")
}
