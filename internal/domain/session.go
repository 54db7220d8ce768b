package domain

import (
	"encoding/json"
	"time"
)

// DeviceInfo describes the client that opened a session. It is stored as a
// JSON blob alongside the session row.
type DeviceInfo struct {
	Platform string `json:"platform,omitempty"`
	Browser  string `json:"browser,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

// Encode serializes the device info for storage. A nil receiver encodes as
// SQL NULL.
func (d *DeviceInfo) Encode() ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// DecodeDeviceInfo parses a stored device info blob. Malformed or empty blobs
// decode to nil rather than failing the session lookup.
func DecodeDeviceInfo(data []byte) *DeviceInfo {
	if len(data) == 0 {
		return nil
	}
	var d DeviceInfo
	if err := json.Unmarshal(data, &d); err != nil {
		return nil
	}
	return &d
}

// Session represents a persisted authentication session. The tokens are never
// serialized into API responses that list sessions.
type Session struct {
	ID           int64       `json:"id"`
	UserID       int64       `json:"-"`
	SessionToken string      `json:"-"`
	RefreshToken string      `json:"-"`
	DeviceInfo   *DeviceInfo `json:"device_info,omitempty"`
	IPAddress    string      `json:"ip_address,omitempty"`
	UserAgent    string      `json:"user_agent,omitempty"`
	ExpiresAt    time.Time   `json:"expires_at"`
	LastActivity time.Time   `json:"last_activity"`
	CreatedAt    time.Time   `json:"created_at"`
}

// IsExpired reports whether the session has passed its expiry at the given
// instant.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// AuthenticatedSession is a session joined with the identity of its owner. It
// is the result of resolving a presented session token.
type AuthenticatedSession struct {
	Session
	UserUUID   string `json:"-"`
	Username   string `json:"-"`
	Email      string `json:"-"`
	FullName   string `json:"-"`
	UserStatus string `json:"-"`
}

// TokenPair holds the opaque session and refresh tokens issued to a client.
type TokenPair struct {
	SessionToken string    `json:"session_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
