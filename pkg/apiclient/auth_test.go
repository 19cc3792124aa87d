// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apiclient_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/pkg/apiclient"
)

/*
TestAuthContext_LoginLogout walks the full sign-in cycle.
*/
func TestAuthContext_LoginLogout(t *testing.T) {
	api := newFakeAPI(t)
	client, _ := newClient(t, api)
	auth := apiclient.NewAuthContext(client)
	ctx := context.Background()

	user, err := auth.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Nil(t, auth.User())

	user, err = auth.Login(ctx, "ada@portal.app", "secret-password")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, fakeToken, client.Tokens().Get())
	assert.Equal(t, int32(2), api.meCalls.Load(), "login awaits a refetch of /api/auth/me")
	assert.False(t, auth.IsLoading())

	// Cached: no further request.
	_, err = auth.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.meCalls.Load())

	require.NoError(t, auth.Logout(ctx))
	assert.Nil(t, auth.User())
	assert.Equal(t, "", client.Tokens().Get())
}

/*
TestAuthContext_LoginFailure verifies bad credentials leave the context signed out.
*/
func TestAuthContext_LoginFailure(t *testing.T) {
	api := newFakeAPI(t)
	client, _ := newClient(t, api)
	auth := apiclient.NewAuthContext(client)

	_, err := auth.Login(context.Background(), "ada@portal.app", "wrong")

	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", apiclient.AsError(err).Message)
	assert.Nil(t, auth.User())
	assert.Equal(t, "", client.Tokens().Get())
}

/*
TestAuthContext_RegisterRefetchesLazily verifies register seeds the user and
defers the /api/auth/me refetch to the next read.
*/
func TestAuthContext_RegisterRefetchesLazily(t *testing.T) {
	api := newFakeAPI(t)
	client, _ := newClient(t, api)
	auth := apiclient.NewAuthContext(client)
	ctx := context.Background()

	user, err := auth.Register(ctx, apiclient.RegisterInput{Email: "new@portal.app", Password: "secret-password", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "new@portal.app", user.Email)
	assert.Equal(t, "new@portal.app", auth.User().Email)
	assert.Equal(t, int32(0), api.meCalls.Load())

	user, err = auth.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.meCalls.Load())
	assert.Equal(t, "ada@portal.app", user.Email)
}

/*
TestAuthContext_InactivitySignsOut verifies a timeout on a regular request drops the
user, and the following /api/auth/me read settles on "no user" without an error.
*/
func TestAuthContext_InactivitySignsOut(t *testing.T) {
	api := newFakeAPI(t)
	client, navigator := newClient(t, api)
	auth := apiclient.NewAuthContext(client)
	ctx := context.Background()

	_, err := auth.Login(ctx, "ada@portal.app", "secret-password")
	require.NoError(t, err)
	require.NotNil(t, auth.User())

	api.expired.Store(true)
	err = client.Do(ctx, http.MethodGet, apiclient.KeyMe, nil, nil)

	assert.True(t, apiclient.IsSessionExpired(err))
	assert.Nil(t, auth.User())
	assert.Equal(t, "", client.Tokens().Get())
	assert.Equal(t, []string{apiclient.RouteLanding}, navigator.visited())

	user, err := auth.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Len(t, navigator.visited(), 1)
}

/*
TestAuthContext_LoginSupersedesAnonymousLoad verifies a /api/auth/me read started
before sign-in cannot overwrite the signed-in user when it lands late.
*/
func TestAuthContext_LoginSupersedesAnonymousLoad(t *testing.T) {
	api := newFakeAPI(t)
	gate := make(chan struct{})
	release := sync.OnceFunc(func() { close(gate) })
	defer release()
	api.hold.Store(&gate)

	client, _ := newClient(t, api)
	auth := apiclient.NewAuthContext(client)
	ctx := context.Background()

	anonymous := make(chan *apiclient.User, 1)
	go func() {
		user, _ := auth.Load(ctx)
		anonymous <- user
	}()
	require.Eventually(t, func() bool { return api.meCalls.Load() == 1 }, time.Second, time.Millisecond)

	user, err := auth.Login(ctx, "ada@portal.app", "secret-password")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ada@portal.app", user.Email)
	assert.Equal(t, int32(2), api.meCalls.Load(), "login fetches on its own")

	release()
	assert.Nil(t, <-anonymous)

	require.NotNil(t, auth.User())
	assert.Equal(t, "ada@portal.app", auth.User().Email)
	assert.False(t, auth.IsLoading())
}

/*
TestAuthContext_LoginSurvivesRefetchFailure verifies an accepted login returns the
seeded user when the follow-up /api/auth/me read fails, and that the token never
reaches the cached user.
*/
func TestAuthContext_LoginSurvivesRefetchFailure(t *testing.T) {
	api := newFakeAPI(t)
	api.broken.Store(true)
	client, navigator := newClient(t, api)
	auth := apiclient.NewAuthContext(client)

	var mu sync.Mutex
	var tokens []string
	auth.OnChange(func(user *apiclient.User) {
		if user != nil {
			mu.Lock()
			tokens = append(tokens, user.Token)
			mu.Unlock()
		}
	})

	user, err := auth.Login(context.Background(), "ada@portal.app", "secret-password")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u-1", user.ID)
	assert.Empty(t, user.Token)
	assert.Equal(t, fakeToken, client.Tokens().Get())
	assert.Error(t, client.Cache().Err(apiclient.KeyMe))
	assert.Empty(t, navigator.visited())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, tokens)
	for _, token := range tokens {
		assert.Empty(t, token)
	}
}

/*
TestAuthContext_OnChange verifies subscribers see sign-in and sign-out.
*/
func TestAuthContext_OnChange(t *testing.T) {
	api := newFakeAPI(t)
	client, _ := newClient(t, api)
	auth := apiclient.NewAuthContext(client)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	unsubscribe := auth.OnChange(func(user *apiclient.User) {
		mu.Lock()
		defer mu.Unlock()
		if user == nil {
			seen = append(seen, "signed-out")
			return
		}
		seen = append(seen, user.Email)
	})

	_, err := auth.Login(ctx, "ada@portal.app", "secret-password")
	require.NoError(t, err)
	require.NoError(t, auth.Logout(ctx))

	mu.Lock()
	assert.Contains(t, seen, "ada@portal.app")
	assert.Equal(t, "signed-out", seen[len(seen)-1])
	count := len(seen)
	mu.Unlock()

	unsubscribe()
	client.Cache().Clear()

	mu.Lock()
	assert.Len(t, seen, count)
	mu.Unlock()
}

/*
TestAuthContext_Roles verifies the catalogue is unwrapped from its envelope.
*/
func TestAuthContext_Roles(t *testing.T) {
	api := newFakeAPI(t)
	client, _ := newClient(t, api)

	roles, err := apiclient.NewAuthContext(client).Roles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "Admin", roles[0].Role)
	assert.True(t, roles[1].SelfService)
}

/*
TestHasPermission covers nil users, missing resources and granted actions.
*/
func TestHasPermission(t *testing.T) {
	editor := &apiclient.User{Permissions: map[string][]string{"reports": {"read", "export"}}}

	tests := []struct {
		name     string
		user     *apiclient.User
		resource string
		action   string
		want     bool
	}{
		{"nil_user", nil, "reports", "read", false},
		{"no_permissions", &apiclient.User{ID: "u-1"}, "reports", "read", false},
		{"granted", editor, "reports", "export", true},
		{"missing_action", editor, "reports", "delete", false},
		{"missing_resource", editor, "users", "read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apiclient.HasPermission(tt.user, tt.resource, tt.action))
		})
	}
}

/*
TestLogout_ServerFailureKeepsState verifies a failed logout does not drop the token.
*/
func TestLogout_ServerFailureKeepsState(t *testing.T) {
	client, err := apiclient.New("http://127.0.0.1:1", apiclient.WithHTTPClient(&http.Client{}))
	require.NoError(t, err)
	require.NoError(t, client.Tokens().Set("kept"))

	assert.Error(t, apiclient.NewAuthContext(client).Logout(context.Background()))
	assert.Equal(t, "kept", client.Tokens().Get())
}
