// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/platform/metrics"
)

/*
TestMetrics_Counters verifies decisions and expiries are counted on the instance registry.
*/
func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.RecordDecision("require_role", "forbidden")
	m.RecordDecision("require_role", "forbidden")
	m.RecordDecision("require_auth", "allowed")
	m.RecordSessionExpired()
	m.ObserveRequest(http.MethodGet, http.StatusOK, 15*time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry(), "portal_auth_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(m.Registry(), "portal_sessions_expired_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

/*
TestMetrics_Handler verifies the exposition endpoint renders Portal series.
*/
func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.RecordSessionExpired()

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, string(body), "portal_sessions_expired_total 1")
}
