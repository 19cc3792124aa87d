// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/session"
)

/*
TestCookieCodec_SignVerify covers valid, tampered and malformed cookie values.
*/
func TestCookieCodec_SignVerify(t *testing.T) {
	codec := session.NewCookieCodec("portal_sid", "0123456789abcdef0123456789abcdef", true, time.Hour)
	signed := codec.Sign("sid-1")

	tests := []struct {
		name  string
		value string
		id    string
		ok    bool
	}{
		{"valid", signed, "sid-1", true},
		{"tampered_id", "sid-2" + signed[len("sid-1"):], "", false},
		{"missing_signature", "sid-1.", "", false},
		{"no_separator", "sid-1", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := codec.Verify(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}

	other := session.NewCookieCodec("portal_sid", "another-secret-another-secret-xx", true, time.Hour)
	_, ok := other.Verify(signed)
	assert.False(t, ok)
}

/*
TestCookieCodec_WriteRead verifies the written cookie can be read back from a request.
*/
func TestCookieCodec_WriteRead(t *testing.T) {
	codec := session.NewCookieCodec("portal_sid", "0123456789abcdef0123456789abcdef", false, time.Hour)

	recorder := httptest.NewRecorder()
	codec.Write(recorder, "sid-9")

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(cookies[0])

	id, ok := codec.Read(request)
	assert.True(t, ok)
	assert.Equal(t, "sid-9", id)

	cleared := httptest.NewRecorder()
	codec.Clear(cleared)
	assert.Equal(t, -1, cleared.Result().Cookies()[0].MaxAge)
}
