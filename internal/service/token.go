package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenByteLength is the entropy of each issued token. Hex encoding doubles
// it to a 128-character string.
const tokenByteLength = 64

// TokenIssuer generates opaque session and refresh tokens. Tokens carry no
// claims; all session state lives in the database.
type TokenIssuer struct{}

// NewTokenIssuer creates a token issuer.
func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{}
}

// Issue returns a new random token as a 128-character hex string.
func (TokenIssuer) Issue() (string, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IssuePair returns a fresh session and refresh token.
func (t TokenIssuer) IssuePair() (sessionToken, refreshToken string, err error) {
	if sessionToken, err = t.Issue(); err != nil {
		return "", "", err
	}
	if refreshToken, err = t.Issue(); err != nil {
		return "", "", err
	}
	return sessionToken, refreshToken, nil
}
