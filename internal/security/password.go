package security

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordMismatch = errors.New("password mismatch")

// PasswordVerifier checks the single admin password. The configured secret
// is either a bcrypt hash or, when allowPlaintext is set, a plain string.
type PasswordVerifier struct {
	secret         string
	allowPlaintext bool
}

func NewPasswordVerifier(secret string, allowPlaintext bool) *PasswordVerifier {
	return &PasswordVerifier{secret: secret, allowPlaintext: allowPlaintext}
}

func (v *PasswordVerifier) Hashed() bool { return IsBcryptHash(v.secret) }

func (v *PasswordVerifier) Verify(password string) error {
	if v.secret == "" {
		return ErrPasswordMismatch
	}
	if v.Hashed() {
		if err := bcrypt.CompareHashAndPassword([]byte(v.secret), []byte(password)); err != nil {
			return ErrPasswordMismatch
		}
		return nil
	}
	if !v.allowPlaintext {
		return ErrPasswordMismatch
	}
	if subtle.ConstantTimeCompare([]byte(v.secret), []byte(password)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func IsBcryptHash(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
