// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/middleware"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/internal/users/auth"
	"github.com/taibuivan/portal/pkg/pagination"
)

const (
	adminID  = "0190f1c2-0000-7000-8000-000000000001"
	editorID = "0190f1c2-0000-7000-8000-000000000002"
	viewerID = "0190f1c2-0000-7000-8000-000000000003"
	ghostID  = "0190f1c2-0000-7000-8000-0000000000ff"
)

type memoryAccounts struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryAccounts() *memoryAccounts {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &memoryAccounts{users: map[string]*auth.User{}}
	for index, seed := range []struct {
		id   string
		role sec.UserRole
	}{{adminID, sec.RoleAdmin}, {editorID, sec.RoleEditor}, {viewerID, sec.RoleViewer}} {
		repo.users[seed.id] = &auth.User{
			ID: seed.id, Email: string(seed.role) + "@portal.app", Name: string(seed.role),
			Role: seed.role, CreatedAt: base.Add(time.Duration(index) * time.Hour),
		}
	}
	return repo
}

func (repo *memoryAccounts) List(_ context.Context, filter account.Filter, params pagination.Params) ([]*auth.User, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	all := make([]*auth.User, 0, len(repo.users))
	for _, user := range repo.users {
		if len(filter.Roles) == 0 || user.Role.In(filter.Roles...) {
			all = append(all, user)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := min(params.Offset(), len(all))
	end := min(start+params.Limit, len(all))
	return all[start:end], len(all), nil
}

func (repo *memoryAccounts) FindByID(_ context.Context, id string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryAccounts) UpdateRole(_ context.Context, id string, role sec.UserRole) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	user.Role = role
	return user, nil
}

func (repo *memoryAccounts) SoftDelete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.users[id]; !ok {
		return apperr.NotFound("User")
	}
	delete(repo.users, id)
	return nil
}

type harness struct {
	repo   *memoryAccounts
	tokens *sec.TokenService
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	h := &harness{
		repo:   newMemoryAccounts(),
		tokens: sec.NewTokenServiceFromKey(key, &key.PublicKey, "portal.app"),
	}

	authz := middleware.NewAuthorizer(h.tokens, sec.DefaultPermissions, nil)
	router := chi.NewRouter()
	router.Mount("/api/users", account.NewHandler(account.NewService(h.repo), authz).Routes())
	h.router = router
	return h
}

func (h *harness) do(t *testing.T, method, path, userID string, role sec.UserRole, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	request := httptest.NewRequest(method, path, &payload)
	if userID != "" {
		token, err := h.tokens.GenerateAccessToken(userID, "Caller", "caller@portal.app", string(role), time.Hour)
		require.NoError(t, err)
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response := httptest.NewRecorder()
	h.router.ServeHTTP(response, request)
	return response
}

/*
TestList verifies pagination and that only roles with users:read can list.
*/
func TestList(t *testing.T) {
	h := newHarness(t)

	response := h.do(t, http.MethodGet, "/api/users?page=1&limit=2", editorID, sec.RoleEditor, nil)
	require.Equal(t, http.StatusOK, response.Code)

	var envelope struct {
		Data []auth.User    `json:"data"`
		Meta pagination.Meta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
	assert.Equal(t, 3, envelope.Meta.Total)
	assert.Equal(t, 2, envelope.Meta.TotalPages)
	assert.Equal(t, viewerID, envelope.Data[0].ID)
	assert.NotContains(t, response.Body.String(), "passwordhash")

	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/users", viewerID, sec.RoleViewer, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/users", "", "", nil).Code)
}

/*
TestGet covers lookups, bad IDs and unknown accounts.
*/
func TestGet(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"found", "/api/users/" + viewerID, http.StatusOK},
		{"not_uuid", "/api/users/abc", http.StatusBadRequest},
		{"unknown", "/api/users/" + ghostID, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, h.do(t, http.MethodGet, tt.path, adminID, sec.RoleAdmin, nil).Code)
		})
	}
}

/*
TestChangeRole verifies only Admin can change roles, never their own.
*/
func TestChangeRole(t *testing.T) {
	tests := []struct {
		name       string
		callerID   string
		callerRole sec.UserRole
		targetID   string
		role       string
		wantStatus int
	}{
		{"admin_promotes_viewer", adminID, sec.RoleAdmin, viewerID, "editor", http.StatusOK},
		{"editor_cannot", editorID, sec.RoleEditor, viewerID, "Editor", http.StatusForbidden},
		{"admin_self", adminID, sec.RoleAdmin, adminID, "Viewer", http.StatusForbidden},
		{"unknown_role", adminID, sec.RoleAdmin, viewerID, "Owner", http.StatusBadRequest},
		{"missing_role", adminID, sec.RoleAdmin, viewerID, "", http.StatusBadRequest},
		{"unknown_user", adminID, sec.RoleAdmin, ghostID, "Viewer", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			response := h.do(t, http.MethodPatch, "/api/users/"+tt.targetID+"/role", tt.callerID, tt.callerRole,
				map[string]string{"role": tt.role})
			assert.Equal(t, tt.wantStatus, response.Code)

			if tt.wantStatus == http.StatusOK {
				user, err := h.repo.FindByID(context.Background(), tt.targetID)
				require.NoError(t, err)
				assert.Equal(t, sec.RoleEditor, user.Role)
			}
		})
	}
}

/*
TestDelete verifies the users:delete permission and the self-delete rule.
*/
func TestDelete(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodDelete, "/api/users/"+viewerID, editorID, sec.RoleEditor, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodDelete, "/api/users/"+adminID, adminID, sec.RoleAdmin, nil).Code)
	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/api/users/"+viewerID, adminID, sec.RoleAdmin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, "/api/users/"+viewerID, adminID, sec.RoleAdmin, nil).Code)
}

/*
TestList_RoleFilter verifies the comma-separated role filter and its validation.
*/
func TestList_RoleFilter(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantTotal int
	}{
		{"single_role", "?role=Editor", http.StatusOK, 1},
		{"two_roles", "?role=Editor,Viewer", http.StatusOK, 2},
		{"blank_items_ignored", "?role=Admin,,", http.StatusOK, 1},
		{"unknown_role", "?role=Owner", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := h.do(t, http.MethodGet, "/api/users"+tt.query, adminID, sec.RoleAdmin, nil)
			require.Equal(t, tt.wantCode, response.Code, response.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}

			var envelope struct {
				Meta pagination.Meta `json:"meta"`
			}
			require.NoError(t, json.Unmarshal(response.Body.Bytes(), &envelope))
			assert.Equal(t, tt.wantTotal, envelope.Meta.Total)
		})
	}
}
