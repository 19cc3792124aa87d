// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/portal/internal/platform/constants"
	"github.com/taibuivan/portal/internal/platform/ctxutil"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/session"
)

// TokenVerifier defines the interface needed to verify bearer tokens in middleware.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// # Credentials

type credentialKind int

const (
	credentialBearer credentialKind = iota
	credentialSession
)

// credential is one candidate source of identity found on a request.
// Exactly one of token or record is set, according to kind.
type credential struct {
	kind   credentialKind
	token  string
	record *session.Record
}

// credentials lists the candidates carried by the request in precedence order:
// a bearer token first, then an authenticated session.
func credentials(request *http.Request) []credential {
	candidates := make([]credential, 0, 2)

	if token, ok := BearerToken(request); ok {
		candidates = append(candidates, credential{kind: credentialBearer, token: token})
	}

	if record := ctxutil.GetSession(request.Context()); record.Authenticated() {
		candidates = append(candidates, credential{kind: credentialSession, record: record})
	}

	return candidates
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(request *http.Request) (string, bool) {
	header := request.Header.Get(constants.HeaderAuthorization)
	if !strings.HasPrefix(header, constants.BearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(constants.BearerPrefix):])
	if token == "" {
		return "", false
	}

	return token, true
}

// # Resolver

// Resolver turns request credentials into an [sec.Identity].
type Resolver struct {
	verifier TokenVerifier
}

// NewResolver creates a Resolver backed by verifier.
func NewResolver(verifier TokenVerifier) *Resolver {
	return &Resolver{verifier: verifier}
}

// Resolve returns the caller for the request, or false when none can be established.
//
// # Flow
//  1. Reuse an identity already attached earlier in the chain.
//  2. Walk the credentials in precedence order; the first one that yields an identity wins.
//  3. A bearer token that fails verification falls through to the session.
func (resolver *Resolver) Resolve(request *http.Request) (*sec.Identity, bool) {
	if identity := ctxutil.GetIdentity(request.Context()); identity != nil {
		return identity, true
	}

	for _, candidate := range credentials(request) {
		switch candidate.kind {
		case credentialBearer:
			claims, err := resolver.verifier.VerifyToken(candidate.token)
			if err != nil {
				ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "bearer_token_rejected",
					slog.Any("error", err),
				)
				continue
			}
			return claims.Identity(), true

		case credentialSession:
			return candidate.record.Identity(), true
		}
	}

	return nil, false
}

// tokenDriven reports whether a verifiable bearer token accompanies the request.
func (resolver *Resolver) tokenDriven(request *http.Request) bool {
	token, ok := BearerToken(request)
	if !ok {
		return false
	}
	_, err := resolver.verifier.VerifyToken(token)
	return err == nil
}
