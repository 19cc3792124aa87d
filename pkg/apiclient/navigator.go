// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apiclient

// Routes the client forces on the embedding application when authentication is lost.
const (
	// RouteLanding is shown after an inactivity timeout.
	RouteLanding = "/"
	// RouteRoleSelection is shown after any other 401.
	RouteRoleSelection = "/role-selection"
)

// Navigator receives forced route changes.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(route string)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route string) { f(route) }

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}
