// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20}},
		{"?page=3&limit=50", Params{Page: 3, Limit: 50}},
		{"?page=0&limit=0", Params{Page: 1, Limit: 20}},
		{"?page=-2&limit=abc", Params{Page: 1, Limit: 20}},
		{"?limit=500", Params{Page: 1, Limit: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := FromRequest(httptest.NewRequest("GET", "/api/users"+tt.query, nil))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMeta(t *testing.T) {
	assert.Equal(t, Meta{Page: 1, Limit: 2, Total: 3, TotalPages: 2, HasNext: true}, NewMeta(1, 2, 3))
	assert.Equal(t, Meta{Page: 2, Limit: 2, Total: 3, TotalPages: 2}, NewMeta(2, 2, 3))
	assert.Equal(t, Meta{Page: 1, Limit: 20}, NewMeta(1, 20, 0))
	assert.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())
}
