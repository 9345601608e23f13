package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/servicedesk/internal/domain"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
)

// ValidatePassword checks a new account password before it is hashed.
func ValidatePassword(password string) error {
	switch {
	case strings.TrimSpace(password) == "":
		return domain.NewValidationError("password", "is required")
	case len(password) < MinPasswordLength:
		return domain.NewValidationError("password", "must be at least 8 characters")
	case len(password) > MaxPasswordBytes:
		return domain.NewValidationError("password", "must be at most 72 bytes")
	}
	return nil
}

// HashPassword hashes an account password. A cost outside bcrypt's range
// (for example a mistyped AUTH_BCRYPT_COST) uses bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a login attempt against the stored hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
