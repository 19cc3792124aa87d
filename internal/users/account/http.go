// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/portal/internal/platform/middleware"
	requestutil "github.com/taibuivan/portal/internal/platform/request"
	"github.com/taibuivan/portal/internal/platform/respond"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/platform/validate"
	"github.com/taibuivan/portal/pkg/pagination"
	"github.com/taibuivan/portal/pkg/query"
	"github.com/taibuivan/portal/pkg/slice"
)

var roleNames = slice.Map(sec.Roles(), func(role sec.UserRole) string { return string(role) })

// Handler implements the HTTP layer for user administration.
type Handler struct {
	service *Service
	authz   *middleware.Authorizer
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, authz *middleware.Authorizer) *Handler {
	return &Handler{service: service, authz: authz}
}

// Routes returns a [chi.Router] configured with the administration endpoints.
//
// # Endpoints
//   - GET    /            : users:read
//   - GET    /{id}        : users:read
//   - PATCH  /{id}/role   : Admin only
//   - DELETE /{id}        : users:delete
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	authz := handler.authz

	router.With(authz.RequirePermission(sec.ResourceUsers, sec.ActionRead)).Get("/", handler.list)
	router.With(authz.RequirePermission(sec.ResourceUsers, sec.ActionRead)).Get("/{id}", handler.get)
	router.With(authz.RequireRole(sec.RoleAdmin)).Patch("/{id}/role", handler.changeRole)
	router.With(authz.RequirePermission(sec.ResourceUsers, sec.ActionDelete)).Delete("/{id}", handler.delete)

	return router
}

/*
GET /api/users?role=Editor,Viewer&page=1&limit=20.

Response:
  - 200: {data: []User, meta}
  - 400: Unknown role in the filter
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	names := query.StringSlice(request.URL.Query().Get(FieldRole))

	validator := &validate.Validator{}
	for _, name := range names {
		validator.OneOf(FieldRole, name, roleNames...)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{Roles: slice.Map(names, func(name string) sec.UserRole {
		role, _ := sec.ParseRole(name)
		return role
	})}

	users, meta, err := handler.service.List(request.Context(), filter, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

/*
GET /api/users/{id}.

Response:
  - 200: {data: User}
  - 404: Unknown account
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, FieldID)

	validator := &validate.Validator{}
	if err := validator.UUID(FieldID, id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

/*
PATCH /api/users/{id}/role.

Request:
  - Body: {role}

Response:
  - 200: {data: User}
  - 400: Unknown role
  - 403: Not an Admin, or changing own role
*/
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changeRoleRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.Param(request, FieldID)

	validator := &validate.Validator{}
	validator.UUID(FieldID, id).Required(FieldRole, input.Role)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.ChangeRole(request.Context(), actor, id, input.Role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/users/{id}.

Response:
  - 204: Deleted
  - 403: Missing users:delete, or deleting self
  - 404: Unknown account
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.Param(request, FieldID)

	validator := &validate.Validator{}
	if err := validator.UUID(FieldID, id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), actor, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Empty(writer, http.StatusNoContent)
}
