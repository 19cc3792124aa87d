// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	assert.Nil(t, Map[string, string](nil, strings.ToUpper))
	assert.Equal(t, []string{}, Map([]string{}, strings.ToUpper))
	assert.Equal(t, []int{5, 6}, Map([]string{"Admin", "Viewer"}, func(s string) int { return len(s) }))
}
