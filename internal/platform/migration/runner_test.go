// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/portal?sslmode=disable", "pgx5://u:p@db:5432/portal?sslmode=disable"},
		{"postgresql://u@db/portal", "pgx5://u@db/portal"},
		{"pgx5://u@db/portal", "pgx5://u@db/portal"},
		{"host=db user=u dbname=portal", "host=db user=u dbname=portal"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, pgx5DSN(tt.in))
		})
	}
}
