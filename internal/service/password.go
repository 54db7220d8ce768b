package service

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 128

	passwordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>?"
)

// commonPasswords are rejected outright regardless of composition. Matching
// is case-insensitive.
var commonPasswords = []string{
	"password",
	"123456",
	"password123",
	"admin",
	"qwerty",
	"letmein",
	"welcome",
	"monkey",
	"1234567890",
	"password1",
}

// PasswordPolicy validates candidate passwords against the composition rules.
type PasswordPolicy struct{}

// NewPasswordPolicy creates the password policy validator.
func NewPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{}
}

// Validate checks the candidate password and returns every violated rule, not
// just the first one. A nil return means the password is acceptable.
func (p *PasswordPolicy) Validate(password string) []string {
	var reasons []string

	if len(password) < passwordMinLength {
		reasons = append(reasons, fmt.Sprintf("password must be at least %d characters long", passwordMinLength))
	}
	if len(password) > passwordMaxLength {
		reasons = append(reasons, fmt.Sprintf("password must be at most %d characters long", passwordMaxLength))
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		reasons = append(reasons, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		reasons = append(reasons, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		reasons = append(reasons, "password must contain at least one number")
	}
	if !hasSymbol {
		reasons = append(reasons, "password must contain at least one special character")
	}

	lowered := strings.ToLower(password)
	for _, common := range commonPasswords {
		if lowered == common {
			reasons = append(reasons, "password is too common")
			break
		}
	}

	return reasons
}

// ValidateWithConfirm checks the candidate password against the policy and
// verifies the confirmation matches. The mismatch is reported as its own
// reason alongside any policy violations.
func (p *PasswordPolicy) ValidateWithConfirm(password, confirm string) error {
	reasons := p.Validate(password)
	if password != confirm {
		reasons = append(reasons, "password confirmation does not match")
	}
	if len(reasons) > 0 {
		return apperrors.Validation("password does not meet requirements", reasons...)
	}
	return nil
}

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a bcrypt hasher with the given cost.
func NewPasswordHasher(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Hash derives a bcrypt hash from the password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether the password matches the stored hash.
func (h *PasswordHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
