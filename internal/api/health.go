// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/respond"
)

// HealthCheck probes one backing dependency.
type HealthCheck struct {
	// Name labels the dependency in the /ready payload (e.g. "postgres").
	Name string

	// Check returns nil when the dependency answers.
	Check func(ctx context.Context) error
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthHandler struct {
	checks []HealthCheck
}

// NewHealthHandlers creates the /health and /ready handlers.
//
// Checks run in order on every /ready call; any failure turns the response
// into 503 "degraded".
func NewHealthHandlers(checks ...HealthCheck) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{checks: checks}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health.
func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{"status": "ok"})
}

// readiness handles GET /ready.
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	results := make([]checkResult, 0, len(handler.checks))
	isSystemReady := true

	for _, check := range handler.checks {
		result := checkResult{Name: check.Name, IsOK: true}
		if err := check.Check(ctx); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemReady = false
			logger.ErrorContext(ctx, "readiness_check_failed",
				slog.String("dependency", check.Name),
				slog.Any("error", err),
			)
		}
		results = append(results, result)
	}

	status, httpStatus := "ready", http.StatusOK
	if !isSystemReady {
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		"status": status,
		"checks": results,
	}})
}
