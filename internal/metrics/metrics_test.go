package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordAssessment("diabetes", "HIGH")
	m.RecordAssessment("diabetes", "HIGH")
	m.RecordRejection("kidney_disease", "missing_selection")
	m.ObserveModelLoad("heart_disease", time.Millisecond, nil)
	m.ObserveModelLoad("breast_cancer", time.Millisecond, errors.New("boom"))
	m.RecordHTTPRequest("GET", "/", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AssessmentsTotal.WithLabelValues("diabetes", "HIGH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectionsTotal.WithLabelValues("kidney_disease", "missing_selection")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelLoadsTotal.WithLabelValues("heart_disease", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelLoadsTotal.WithLabelValues("breast_cancer", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/", "200")))
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
