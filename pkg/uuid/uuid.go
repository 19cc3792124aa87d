// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the time-ordered identifiers used for user accounts and
server-side sessions.

Version 7 values sort by creation time, so new rows land at the end of the
users.account primary key index.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// Entropy failure is unrecoverable and panics.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}

// Valid reports whether s parses as a UUID of any version.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
