// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

// CookieCodec signs session IDs and writes the session cookie.
type CookieCodec struct {
	name   string
	secret []byte
	secure bool
	maxAge time.Duration
}

// NewCookieCodec creates a codec for the cookie called name.
func NewCookieCodec(name, secret string, secure bool, maxAge time.Duration) *CookieCodec {
	return &CookieCodec{
		name:   name,
		secret: []byte(secret),
		secure: secure,
		maxAge: maxAge,
	}
}

// Name returns the cookie name.
func (codec *CookieCodec) Name() string {
	return codec.name
}

// Sign returns "<id>.<signature>".
func (codec *CookieCodec) Sign(id string) string {
	return id + "." + codec.signature(id)
}

// Verify extracts the session ID from a signed value. ok is false for tampered or malformed values.
func (codec *CookieCodec) Verify(value string) (id string, ok bool) {
	dot := strings.LastIndexByte(value, '.')
	if dot <= 0 || dot == len(value)-1 {
		return "", false
	}

	id, signature := value[:dot], value[dot+1:]
	if !hmac.Equal([]byte(signature), []byte(codec.signature(id))) {
		return "", false
	}

	return id, true
}

// Read returns the verified session ID carried by the request, if any.
func (codec *CookieCodec) Read(request *http.Request) (string, bool) {
	cookie, err := request.Cookie(codec.name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return codec.Verify(cookie.Value)
}

// Write sets the session cookie for id.
func (codec *CookieCodec) Write(writer http.ResponseWriter, id string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     codec.name,
		Value:    codec.Sign(id),
		Path:     "/",
		MaxAge:   int(codec.maxAge / time.Second),
		Secure:   codec.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie on the client.
func (codec *CookieCodec) Clear(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     codec.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   codec.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (codec *CookieCodec) signature(id string) string {
	mac := hmac.New(sha256.New, codec.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
