// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

/*
HashPassword produces the bcrypt hash stored in users.account.passwordhash when an
account registers. The plain password never leaves the register flow.
*/
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec: hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash reports whether a login attempt's password matches the stored
// hash. A malformed hash counts as a mismatch, so login answers it like a wrong password.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword)) == nil
}
