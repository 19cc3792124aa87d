// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "time"

// Identity is the caller resolved for a single request.
//
// It is derived either from verified bearer-token claims or from a live session record,
// and it is never persisted. TokenIssuedAt is only set for token-derived identities.
type Identity struct {
	ID            string     `json:"id"`
	Role          UserRole   `json:"role"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	TokenIssuedAt *time.Time `json:"tokenIssuedAt,omitempty"`
}

// FromToken reports whether the identity was derived from a bearer token.
func (identity *Identity) FromToken() bool {
	return identity.TokenIssuedAt != nil
}
