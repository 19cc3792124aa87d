// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/middleware"
	requestutil "github.com/taibuivan/portal/internal/platform/request"
	"github.com/taibuivan/portal/internal/platform/respond"
	"github.com/taibuivan/portal/internal/platform/validate"
	"github.com/taibuivan/portal/internal/session"
)

// # Definitions & Constructors

// Handler implements the /api/auth endpoints.
//
// Bodies are flat JSON objects (no data envelope) because the client caches the
// /api/auth/me body as-is.
type Handler struct {
	service *Service
	authz   *middleware.Authorizer
	cookie  *session.CookieCodec
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, authz *middleware.Authorizer, cookie *session.CookieCodec) *Handler {
	return &Handler{service: service, authz: authz, cookie: cookie}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /login    : Starts a session and issues a bearer token.
//   - POST /register : Creates an account and starts a session.
//   - POST /logout   : Ends the session.
//   - GET  /me       : Current user (RequireAuth).
//   - GET  /roles    : Role catalogue (AttachIdentity).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/register", handler.register)
	router.Post("/logout", handler.logout)

	router.With(handler.authz.RequireAuth).Get("/me", handler.me)
	router.With(handler.authz.AttachIdentity).Get("/roles", handler.roles)

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

/*
Login authenticates a user.

POST /api/auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Profile with token; session cookie set
  - 400: Validation failure
  - 401: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Login(request.Context(), LoginInput{
		Email:             input.Email,
		Password:          input.Password,
		PreviousSessionID: currentSessionID(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.cookie.Write(writer, result.SessionID)
	respond.JSON(writer, http.StatusOK, result.Profile)
}

/*
Register creates a new account.

POST /api/auth/register

Request:
  - Body: registerRequest (Email, Password, Name, Role?)

Response:
  - 200: Profile; session cookie set
  - 400: Validation failure or unknown role
  - 403: Role cannot be self-assigned
  - 409: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		MaxLen(FieldEmail, input.Email, MaxEmailLength).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, MaxNameLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Register(request.Context(), RegisterInput{
		Email:             input.Email,
		Password:          input.Password,
		Name:              input.Name,
		Role:              input.Role,
		PreviousSessionID: currentSessionID(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.cookie.Write(writer, result.SessionID)
	respond.JSON(writer, http.StatusOK, result.Profile)
}

/*
Logout ends the caller's session.

POST /api/auth/logout

Response:
  - 200: Empty body; session cookie cleared
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Logout(request.Context(), currentSessionID(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.cookie.Clear(writer)
	respond.Empty(writer, http.StatusOK)
}

/*
Me returns the authenticated caller.

GET /api/auth/me

Response:
  - 200: Profile
  - 401: Not authenticated (or INACTIVITY_TIMEOUT from the inactivity guard)
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.service.Me(request.Context(), identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, profile)
}

/*
Roles lists the roles for the role-selection screen.

GET /api/auth/roles

Response:
  - 200: {data: []RoleInfo}
*/
func (handler *Handler) roles(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.service.Roles(requestutil.Identity(request)))
}

// currentSessionID returns the ID of the session loaded for this request, if any.
func currentSessionID(request *http.Request) string {
	if record := ctxutil.GetSession(request.Context()); record != nil {
		return record.ID
	}
	return ""
}
