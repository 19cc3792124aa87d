// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apiclient

import (
	"errors"
	"fmt"
)

// CodeInactivityTimeout is the error code the API sends when an idle session was destroyed.
const CodeInactivityTimeout = "INACTIVITY_TIMEOUT"

// MessageSessionExpired replaces the server message for inactivity timeouts.
const MessageSessionExpired = "Session expired due to inactivity. Please login again."

// Error is returned for every non-2xx API response.
type Error struct {
	// Status is the HTTP status code.
	Status int
	// Code is the machine-readable code from the error envelope, if any.
	Code string
	// Message is the human-readable reason.
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// AsError extracts an [*Error] from err's chain, or nil.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// IsStatus reports whether err is an API error with the given HTTP status.
func IsStatus(err error, status int) bool {
	apiErr := AsError(err)
	return apiErr != nil && apiErr.Status == status
}

// IsSessionExpired reports whether err is an inactivity timeout.
func IsSessionExpired(err error) bool {
	apiErr := AsError(err)
	return apiErr != nil && apiErr.Code == CodeInactivityTimeout
}
