package account

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPIN hashes a plain text PIN using bcrypt
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPIN checks a supplied PIN against the account's stored proof.
func (a *Account) VerifyPIN(pin string) error {
	if a.PINHash == "" || pin == "" {
		return ErrInvalidPIN
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PINHash), []byte(pin)); err != nil {
		return ErrInvalidPIN
	}
	return nil
}
