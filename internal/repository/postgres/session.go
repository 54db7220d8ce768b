package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/anonymousminati/finly-backend/internal/domain"
	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
)

// SessionRepository implements repository.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session row. The generated ID and timestamps are
// written back into s.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	deviceInfo, err := s.DeviceInfo.Encode()
	if err != nil {
		return fmt.Errorf("encode device info: %w", err)
	}

	query := `
		INSERT INTO user_sessions (user_id, session_token, refresh_token, device_info, ip_address, user_agent, expires_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, last_activity, created_at`

	err = r.db.QueryRow(ctx, query,
		s.UserID,
		s.SessionToken,
		s.RefreshToken,
		deviceInfo,
		s.IPAddress,
		s.UserAgent,
		s.ExpiresAt,
	).Scan(&s.ID, &s.LastActivity, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("session", "token", "generated")
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByToken resolves a live session by its session token, joined with the
// owning user's identity. Expired sessions behave as if they do not exist.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*domain.AuthenticatedSession, error) {
	query := `
		SELECT s.id, s.user_id, s.session_token, s.refresh_token, s.device_info, s.ip_address, s.user_agent,
		       s.expires_at, s.last_activity, s.created_at,
		       u.uuid, u.username, u.email, u.full_name, u.status
		FROM user_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.session_token = $1 AND s.expires_at > now()`

	var (
		as         domain.AuthenticatedSession
		deviceInfo []byte
	)
	err := r.db.QueryRow(ctx, query, token).Scan(
		&as.ID,
		&as.UserID,
		&as.SessionToken,
		&as.RefreshToken,
		&deviceInfo,
		&as.IPAddress,
		&as.UserAgent,
		&as.ExpiresAt,
		&as.LastActivity,
		&as.CreatedAt,
		&as.UserUUID,
		&as.Username,
		&as.Email,
		&as.FullName,
		&as.UserStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	as.DeviceInfo = domain.DecodeDeviceInfo(deviceInfo)

	return &as, nil
}

// Touch updates the last activity timestamp of a live session.
func (r *SessionRepository) Touch(ctx context.Context, token string) (bool, error) {
	query := `
		UPDATE user_sessions
		SET last_activity = now()
		WHERE session_token = $1 AND expires_at > now()`

	ct, err := r.db.Exec(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("touch session: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// Rotate atomically replaces the token pair of the live session holding the
// given refresh token. The same row is updated in place so concurrent refresh
// attempts with the same token resolve to a single winner.
func (r *SessionRepository) Rotate(ctx context.Context, refreshToken, newSessionToken, newRefreshToken string, expiresAt time.Time) (*domain.Session, error) {
	query := `
		UPDATE user_sessions
		SET session_token = $1, refresh_token = $2, expires_at = $3, last_activity = now()
		WHERE refresh_token = $4 AND expires_at > now()
		RETURNING id, user_id`

	var s domain.Session
	err := r.db.QueryRow(ctx, query, newSessionToken, newRefreshToken, expiresAt, refreshToken).Scan(&s.ID, &s.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	s.SessionToken = newSessionToken
	s.RefreshToken = newRefreshToken
	s.ExpiresAt = expiresAt

	return &s, nil
}

// Delete removes a session by its session token. Deleting an absent session
// is not an error; the boolean reports whether a row was removed.
func (r *SessionRepository) Delete(ctx context.Context, token string) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM user_sessions WHERE session_token = $1`, token)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// DeleteAllForUser removes every session belonging to the user.
func (r *SessionRepository) DeleteAllForUser(ctx context.Context, userID int64) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}

	return ct.RowsAffected(), nil
}

// DeleteAllForUserExcept removes every session belonging to the user except
// the one holding keepToken.
func (r *SessionRepository) DeleteAllForUserExcept(ctx context.Context, userID int64, keepToken string) (int64, error) {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM user_sessions WHERE user_id = $1 AND session_token <> $2`,
		userID, keepToken,
	)
	if err != nil {
		return 0, fmt.Errorf("delete other user sessions: %w", err)
	}

	return ct.RowsAffected(), nil
}

// DeleteExpired removes all sessions past their expiry.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	return ct.RowsAffected(), nil
}

// ListActiveForUser returns the user's live sessions, most recently active
// first.
func (r *SessionRepository) ListActiveForUser(ctx context.Context, userID int64) ([]domain.Session, error) {
	query := `
		SELECT id, user_id, session_token, refresh_token, device_info, ip_address, user_agent, expires_at, last_activity, created_at
		FROM user_sessions
		WHERE user_id = $1 AND expires_at > now()
		ORDER BY last_activity DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var (
			s          domain.Session
			deviceInfo []byte
		)
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.SessionToken,
			&s.RefreshToken,
			&deviceInfo,
			&s.IPAddress,
			&s.UserAgent,
			&s.ExpiresAt,
			&s.LastActivity,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		s.DeviceInfo = domain.DecodeDeviceInfo(deviceInfo)
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	if sessions == nil {
		sessions = []domain.Session{}
	}

	return sessions, nil
}
