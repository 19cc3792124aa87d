// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements server-side session records.

A session is created at login or registration, referenced by a signed cookie,
and read on every request by the session loader middleware. The inactivity guard
refreshes LastActivity and destroys records that idled too long.

Records are stored in Redis with an absolute TTL. Writes are last-write-wins:
LastActivity is advisory and concurrent requests from one client may race on it.
*/
package session

import (
	"context"
	"errors"
	"time"

	"github.com/taibuivan/portal/internal/platform/sec"
)

// ErrNotFound is returned when no live record exists for a session ID.
var ErrNotFound = errors.New("session: not found")

// Record is the server-side state of one browser session.
type Record struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	UserRole     sec.UserRole `json:"userRole"`
	UserName     string       `json:"userName"`
	UserEmail    string       `json:"userEmail"`
	LastActivity time.Time    `json:"lastActivity,omitzero"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Authenticated reports whether the record carries a user.
func (record *Record) Authenticated() bool {
	return record != nil && record.UserID != ""
}

// Identity derives the request identity from the record fields.
func (record *Record) Identity() *sec.Identity {
	return &sec.Identity{
		ID:    record.UserID,
		Role:  record.UserRole,
		Name:  record.UserName,
		Email: record.UserEmail,
	}
}

// Store defines the persistence contract for session records.
type Store interface {

	/*
		Get returns the live record for id.

		Returns:
		  - *Record: Hydrated record
		  - error: ErrNotFound when absent or expired
	*/
	Get(ctx context.Context, id string) (*Record, error)

	/*
		Save writes the record, resetting its absolute TTL.

		Returns:
		  - error: Persistence failures
	*/
	Save(ctx context.Context, record *Record) error

	/*
		Destroy removes the record. Destroying a missing record is not an error.

		Returns:
		  - error: Persistence failures
	*/
	Destroy(ctx context.Context, id string) error
}
