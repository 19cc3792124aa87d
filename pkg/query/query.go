// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-style URL query parameters.
package query

import "strings"

// StringSlice splits a comma-separated query value such as "Editor,Viewer" into
// trimmed, non-empty items. An empty value yields nil.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		if clean := strings.TrimSpace(v); clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
