// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
)

// API paths used by [AuthContext].
const (
	KeyMe        = "/api/auth/me"
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathLogout   = "/api/auth/logout"
	PathRoles    = "/api/auth/roles"
)

// User is the signed-in account as the API reports it.
type User struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Role        string              `json:"role"`
	Permissions map[string][]string `json:"permissions,omitempty"`
	Token       string              `json:"token,omitempty"`
}

// Role is one entry of the role catalogue.
type Role struct {
	Role        string              `json:"role"`
	Description string              `json:"description"`
	Permissions map[string][]string `json:"permissions"`
	Current     bool                `json:"current"`
	SelfService bool                `json:"selfService"`
}

// HasPermission reports whether user's role grants action on resource.
// A nil user or one without permissions has none.
func HasPermission(user *User, resource, action string) bool {
	if user == nil || user.Permissions == nil {
		return false
	}
	return slices.Contains(user.Permissions[resource], action)
}

/*
AuthContext tracks the signed-in user of a [Client].

The user is never stored separately: [AuthContext.User] decodes the cached
/api/auth/me response on every call, so a cache clear after a 401 signs the user
out everywhere at once.
*/
type AuthContext struct {
	client *Client
}

// NewAuthContext binds to client and registers the /api/auth/me query, which
// answers a plain 401 with "no user" instead of an error.
func NewAuthContext(client *Client) *AuthContext {
	client.cache.Register(KeyMe, func(ctx context.Context, key string) (json.RawMessage, error) {
		return client.Fetch(ctx, key, ReturnNull)
	})
	return &AuthContext{client: client}
}

// Load resolves the current user, fetching /api/auth/me if it is not cached.
func (auth *AuthContext) Load(ctx context.Context) (*User, error) {
	data, err := auth.client.cache.Query(ctx, KeyMe)
	if err != nil {
		return nil, err
	}
	return decodeUser(data), nil
}

// User returns the cached user, or nil when signed out or not loaded yet.
func (auth *AuthContext) User() *User {
	data, _ := auth.client.cache.Get(KeyMe)
	return decodeUser(data)
}

// IsLoading reports whether /api/auth/me is being fetched.
func (auth *AuthContext) IsLoading() bool {
	return auth.client.cache.IsLoading(KeyMe)
}

/*
Login signs in with email and password.

The response, minus its token, seeds the /api/auth/me entry; the entry is then
refetched so it reflects the server's view of the new session. A returned token is
persisted in the client's [TokenStore].

Once the server accepts the credentials the login stands: a failed refetch is
logged and the seeded user is returned.
*/
func (auth *AuthContext) Login(ctx context.Context, email, password string) (*User, error) {
	data, err := auth.post(ctx, PathLogin, map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	seed, token := splitToken(data)
	if token != "" {
		if err := auth.client.tokens.Set(token); err != nil {
			return nil, err
		}
	}

	cache := auth.client.cache
	cache.SetData(KeyMe, seed)
	cache.Invalidate(KeyMe)
	if _, err := cache.Refetch(ctx, KeyMe); err != nil {
		auth.client.logger.Warn("login_refetch_failed", slog.String("key", KeyMe), slog.Any("error", err))
	}

	return auth.User(), nil
}

// RegisterInput is the sign-up payload. Role is optional; the server defaults it.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

// Register creates an account. The response seeds /api/auth/me, which is then
// invalidated and refetched lazily on the next [AuthContext.Load].
func (auth *AuthContext) Register(ctx context.Context, input RegisterInput) (*User, error) {
	data, err := auth.post(ctx, PathRegister, input)
	if err != nil {
		return nil, err
	}

	seed, _ := splitToken(data)
	auth.client.cache.SetData(KeyMe, seed)
	auth.client.cache.Invalidate(KeyMe)

	return decodeUser(seed), nil
}

// Logout ends the server session, forgets the token, and clears every cached response.
func (auth *AuthContext) Logout(ctx context.Context) error {
	if _, err := auth.post(ctx, PathLogout, nil); err != nil {
		return err
	}
	if err := auth.client.tokens.Clear(); err != nil {
		return err
	}
	auth.client.cache.Clear()
	return nil
}

// Roles fetches the role catalogue, marking the caller's role when signed in.
func (auth *AuthContext) Roles(ctx context.Context) ([]Role, error) {
	var envelope struct {
		Data []Role `json:"data"`
	}
	if err := auth.client.Do(ctx, http.MethodGet, PathRoles, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// OnChange calls fn with the derived user whenever the /api/auth/me entry may have
// changed. It returns the cancel function.
func (auth *AuthContext) OnChange(fn func(user *User)) (unsubscribe func()) {
	return auth.client.cache.Subscribe(func(key string) {
		if key == KeyMe || key == "" {
			fn(auth.User())
		}
	})
}

func (auth *AuthContext) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	response, err := auth.client.Send(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: read POST %s: %w", path, err)
	}
	if len(payload) == 0 || !json.Valid(payload) {
		return nil, nil
	}
	return json.RawMessage(payload), nil
}

// splitToken separates the bearer token from a user payload. Payloads that are not
// a user are returned unchanged.
func splitToken(data json.RawMessage) (json.RawMessage, string) {
	user := decodeUser(data)
	if user == nil || user.Token == "" {
		return data, ""
	}
	token := user.Token
	user.Token = ""
	stripped, _ := json.Marshal(user)
	return stripped, token
}

func decodeUser(data json.RawMessage) *User {
	if len(data) == 0 {
		return nil
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil || user.ID == "" {
		return nil
	}
	return &user
}
