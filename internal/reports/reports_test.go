// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reports_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/platform/middleware"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/reports"
)

type fixedCounter struct {
	counts map[sec.UserRole]int
	err    error
}

func (counter fixedCounter) CountByRole(context.Context) (map[sec.UserRole]int, error) {
	return counter.counts, counter.err
}

func newRouter(t *testing.T, counter reports.RoleCounter) (http.Handler, *sec.TokenService) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := sec.NewTokenServiceFromKey(key, &key.PublicKey, "portal.app")

	authz := middleware.NewAuthorizer(tokens, sec.DefaultPermissions, nil)
	router := chi.NewRouter()
	router.Mount("/api/reports", reports.NewHandler(reports.NewService(counter), authz).Routes())
	return router, tokens
}

func get(t *testing.T, router http.Handler, tokens *sec.TokenService, path string, role sec.UserRole) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		token, err := tokens.GenerateAccessToken("u-1", "Caller", "caller@portal.app", string(role), time.Hour)
		require.NoError(t, err)
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

/*
TestSummary verifies every role is listed, zero counts included.
*/
func TestSummary(t *testing.T) {
	service := reports.NewService(fixedCounter{counts: map[sec.UserRole]int{sec.RoleAdmin: 1, sec.RoleViewer: 4}})

	summary, err := service.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, []reports.RoleCount{
		{Role: sec.RoleAdmin, Count: 1},
		{Role: sec.RoleEditor, Count: 0},
		{Role: sec.RoleViewer, Count: 4},
	}, summary.ByRole)
}

/*
TestEndpoints checks the permission split between summary and export.
*/
func TestEndpoints(t *testing.T) {
	router, tokens := newRouter(t, fixedCounter{counts: map[sec.UserRole]int{sec.RoleEditor: 2}})

	tests := []struct {
		name       string
		path       string
		role       sec.UserRole
		wantStatus int
	}{
		{"viewer_summary", "/api/reports/summary", sec.RoleViewer, http.StatusOK},
		{"viewer_export", "/api/reports/export", sec.RoleViewer, http.StatusForbidden},
		{"editor_export", "/api/reports/export", sec.RoleEditor, http.StatusOK},
		{"anonymous_summary", "/api/reports/summary", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, get(t, router, tokens, tt.path, tt.role).Code)
		})
	}
}

/*
TestExportCSV verifies the CSV body and download headers.
*/
func TestExportCSV(t *testing.T) {
	router, tokens := newRouter(t, fixedCounter{counts: map[sec.UserRole]int{sec.RoleEditor: 2, sec.RoleAdmin: 1}})

	response := get(t, router, tokens, "/api/reports/export", sec.RoleAdmin)
	require.Equal(t, http.StatusOK, response.Code)

	assert.Equal(t, "text/csv; charset=utf-8", response.Header().Get("Content-Type"))
	assert.Contains(t, response.Header().Get("Content-Disposition"), reports.ExportFilename)
	assert.Equal(t, "role,count\nAdmin,1\nEditor,2\nViewer,0\ntotal,3\n", response.Body.String())
}

/*
TestSummaryStoreFailure verifies storage errors surface as 500.
*/
func TestSummaryStoreFailure(t *testing.T) {
	router, tokens := newRouter(t, fixedCounter{err: errors.New("db down")})

	response := get(t, router, tokens, "/api/reports/summary", sec.RoleViewer)
	assert.Equal(t, http.StatusInternalServerError, response.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}
