package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jafarshop/gopiorder/internal/domain"
)

func TestSubmissionFinished(t *testing.T) {
	m := New()

	m.SubmissionFinished(domain.SubmissionOutcome{Success: true}, 120*time.Millisecond)
	m.SubmissionFinished(domain.SubmissionOutcome{Kind: domain.FailureRateLimited}, time.Second)
	m.SubmissionFinished(domain.SubmissionOutcome{Kind: domain.FailureRateLimited}, time.Second)
	m.SubmissionFinished(domain.SubmissionOutcome{Ignored: true}, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("RATE_LIMITED")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Submissions))
}

func TestSessionsOpenAndHandler(t *testing.T) {
	m := New()
	m.SessionsOpen(3)
	m.ObserveRequest("/v1/sessions/:id", http.StatusOK, 4*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Sessions))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gopiorder_sessions_open 3")
	assert.Contains(t, rec.Body.String(), `gopiorder_http_requests_total{route="/v1/sessions/:id",status="200"} 1`)
}
