// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns the repositories query, so that
// SQL strings are assembled from one definition per table.
package schema

import "strings"

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table     string
	ID        string
	Email     string
	Name      string
	Password  string
	Role      string
	CreatedAt string
	UpdatedAt string
	DeletedAt string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:     "users.account",
	ID:        "id",
	Email:     "email",
	Name:      "name",
	Password:  "passwordhash",
	Role:      "role",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
	DeletedAt: "deletedat",
}

// Columns returns the columns read into a user entity, in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{t.ID, t.Email, t.Name, t.Password, t.Role, t.CreatedAt, t.UpdatedAt}
}

// Select returns the comma-separated projection of [UserAccountTable.Columns].
func (t UserAccountTable) Select() string {
	return strings.Join(t.Columns(), ", ")
}
