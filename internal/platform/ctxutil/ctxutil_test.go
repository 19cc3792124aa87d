// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/session"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Identity verifies that the resolved caller can be stored in context.
*/
func TestContext_Identity(t *testing.T) {
	ctx := context.Background()

	// 1. Initially should be nil
	assert.Nil(t, ctxutil.GetIdentity(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithIdentity(ctx, &sec.Identity{ID: "user-123", Role: sec.RoleAdmin})
	retrieved := ctxutil.GetIdentity(ctx)

	require.NotNil(t, retrieved)
	assert.Equal(t, "user-123", retrieved.ID)
	assert.Equal(t, sec.RoleAdmin, retrieved.Role)
}

/*
TestContext_Session verifies that a session record can be stored in context.
*/
func TestContext_Session(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ctxutil.GetSession(ctx))

	ctx = ctxutil.WithSession(ctx, &session.Record{ID: "sid-1", UserID: "user-123"})
	record := ctxutil.GetSession(ctx)

	require.NotNil(t, record)
	assert.Equal(t, "sid-1", record.ID)
}
