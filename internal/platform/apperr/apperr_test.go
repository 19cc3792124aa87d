// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/platform/apperr"
)

/*
TestAppError_Taxonomy verifies the status and code carried by each auth-related constructor.
*/
func TestAppError_Taxonomy(t *testing.T) {
	tests := []struct {
		name    string
		err     *apperr.AppError
		status  int
		code    string
		message string
	}{
		{"unauthenticated", apperr.Unauthorized("Authentication required"), http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
		{"forbidden", apperr.Forbidden("Insufficient permissions"), http.StatusForbidden, "FORBIDDEN", "Insufficient permissions"},
		{"session_expired", apperr.SessionExpired(), http.StatusUnauthorized, "INACTIVITY_TIMEOUT", "Session expired due to inactivity"},
		{"not_found", apperr.NotFound("User"), http.StatusNotFound, "NOT_FOUND", "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

/*
TestAppError_Unwrap verifies that wrapped AppErrors remain discoverable.
*/
func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := fmt.Errorf("store: %w", apperr.Internal(cause))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeInternal, ae.Code)
	assert.ErrorIs(t, wrapped, cause)

	assert.True(t, apperr.HasCode(wrapped, apperr.CodeInternal))
	assert.False(t, apperr.HasCode(errors.New("plain"), apperr.CodeInternal))
	assert.Nil(t, apperr.As(errors.New("plain")))
}
