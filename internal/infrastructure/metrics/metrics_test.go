package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New("identity")

	m.ObserveAuth("LOCAL", "success")
	m.ObserveAuth("LOCAL", "success")
	m.ObservePublish("UserLoggedIn", nil)
	m.ObservePublish("UserLoggedIn", errors.New("down"))
	m.ObserveEmail("", nil)
	m.ObserveHTTP("GET", "/api/health", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("LOCAL", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("UserLoggedIn", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmailsSent.WithLabelValues("raw", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/health", "200")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New("identity")
	m.ObserveAuth("GOOGLE", "failure")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `identity_auth_attempts_total{method="GOOGLE",outcome="failure"} 1`)
}

func TestInstancesAreIndependent(t *testing.T) {
	assert.NotPanics(t, func() {
		New("identity")
		New("identity")
	})
}
