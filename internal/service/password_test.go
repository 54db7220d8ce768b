package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
)

func TestPasswordPolicy_Valid(t *testing.T) {
	policy := NewPasswordPolicy()

	for _, password := range []string{
		"Str0ng!pass",
		"C0rrect-horse",
		"Xy9?abcdef",
	} {
		assert.Empty(t, policy.Validate(password), "expected %q to pass", password)
	}
}

func TestPasswordPolicy_ReportsEveryViolation(t *testing.T) {
	policy := NewPasswordPolicy()

	// Too short, no uppercase, no digit, no symbol: four reasons at once.
	reasons := policy.Validate("abc")
	assert.Len(t, reasons, 4)
}

func TestPasswordPolicy_Rules(t *testing.T) {
	policy := NewPasswordPolicy()

	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"too short", "Ab1!", "at least 8 characters"},
		{"too long", "Ab1!" + strings.Repeat("x", 130), "at most 128 characters"},
		{"missing uppercase", "lowercase1!", "uppercase letter"},
		{"missing lowercase", "UPPERCASE1!", "lowercase letter"},
		{"missing digit", "NoDigits!!", "one number"},
		{"missing symbol", "NoSymbols123", "special character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasons := policy.Validate(tt.password)
			require.NotEmpty(t, reasons)
			found := false
			for _, r := range reasons {
				if strings.Contains(r, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "expected a reason containing %q, got %v", tt.want, reasons)
		})
	}
}

func TestPasswordPolicy_DenyList(t *testing.T) {
	policy := NewPasswordPolicy()

	for _, password := range []string{"password", "PASSWORD", "Password123", "qwerty", "LetMeIn"} {
		reasons := policy.Validate(password)
		found := false
		for _, r := range reasons {
			if r == "password is too common" {
				found = true
			}
		}
		assert.True(t, found, "expected %q to be rejected as common, got %v", password, reasons)
	}
}

func TestPasswordPolicy_ConfirmMismatch(t *testing.T) {
	policy := NewPasswordPolicy()

	err := policy.ValidateWithConfirm("Str0ng!pass", "Different!1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Reasons, "password confirmation does not match")
}

func TestPasswordPolicy_ConfirmMismatchCombinesWithPolicyFailures(t *testing.T) {
	policy := NewPasswordPolicy()

	err := policy.ValidateWithConfirm("weak", "also-weak")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Reasons, "password confirmation does not match")
	assert.Greater(t, len(appErr.Reasons), 1)
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(4) // low cost for test speed

	hash, err := hasher.Hash("Str0ng!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!pass", hash)

	assert.True(t, hasher.Compare(hash, "Str0ng!pass"))
	assert.False(t, hasher.Compare(hash, "Wr0ng!pass"))
}
