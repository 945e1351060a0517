package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor for account passwords.
const HashCost = 10

// HashPassword returns the bcrypt hash of password. Passwords longer than
// bcrypt's 72-byte input limit are rejected instead of silently truncated.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is longer than 72 bytes", common.ErrorValidation)
		}
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
