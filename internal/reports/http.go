// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reports

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/middleware"
	"github.com/taibuivan/portal/internal/platform/respond"
	"github.com/taibuivan/portal/internal/platform/sec"
)

// ExportFilename is suggested to browsers for the CSV download.
const ExportFilename = "portal-users-by-role.csv"

// Handler implements the /api/reports endpoints.
type Handler struct {
	service *Service
	authz   *middleware.Authorizer
}

// NewHandler constructs a reports [Handler].
func NewHandler(service *Service, authz *middleware.Authorizer) *Handler {
	return &Handler{service: service, authz: authz}
}

// Routes returns a [chi.Router] for the report endpoints.
//
// # Endpoints
//   - GET /summary : reports:read
//   - GET /export  : reports:export
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.With(handler.authz.RequirePermission(sec.ResourceReports, sec.ActionRead)).Get("/summary", handler.summary)
	router.With(handler.authz.RequirePermission(sec.ResourceReports, sec.ActionExport)).Get("/export", handler.export)

	return router
}

func (handler *Handler) summary(writer http.ResponseWriter, request *http.Request) {
	summary, err := handler.service.Summary(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, summary)
}

func (handler *Handler) export(writer http.ResponseWriter, request *http.Request) {
	summary, err := handler.service.Summary(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	writer.WriteHeader(http.StatusOK)

	out := csv.NewWriter(writer)
	records := [][]string{{"role", "count"}}
	for _, row := range summary.ByRole {
		records = append(records, []string{string(row.Role), strconv.Itoa(row.Count)})
	}
	records = append(records, []string{"total", strconv.Itoa(summary.Total)})

	// Headers are already sent; a failed write can only be logged.
	if err := out.WriteAll(records); err != nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "report_export_write_failed",
			slog.Any("error", err),
		)
	}
}
