package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonymousminati/finly-backend/internal/domain"
	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
)

func newSessionTestFixture(t *testing.T) (*SessionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewSessionRepository(mock)
	return repo, mock
}

func TestSessionRepository_Create_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()
	s := &domain.Session{
		UserID:       42,
		SessionToken: "tok-session",
		RefreshToken: "tok-refresh",
		DeviceInfo:   &domain.DeviceInfo{Platform: "macOS", Browser: "Firefox"},
		IPAddress:    "203.0.113.7",
		UserAgent:    "Mozilla/5.0",
		ExpiresAt:    now.Add(24 * time.Hour),
	}

	deviceJSON, err := s.DeviceInfo.Encode()
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO user_sessions").
		WithArgs(s.UserID, s.SessionToken, s.RefreshToken, deviceJSON, s.IPAddress, s.UserAgent, s.ExpiresAt).
		WillReturnRows(pgxmock.NewRows([]string{"id", "last_activity", "created_at"}).
			AddRow(int64(11), now, now))

	err = repo.Create(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(11), s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Create_NilDeviceInfo(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()
	s := &domain.Session{
		UserID:       42,
		SessionToken: "tok-session",
		RefreshToken: "tok-refresh",
		ExpiresAt:    now.Add(24 * time.Hour),
	}

	mock.ExpectQuery("INSERT INTO user_sessions").
		WithArgs(s.UserID, s.SessionToken, s.RefreshToken, []byte(nil), s.IPAddress, s.UserAgent, s.ExpiresAt).
		WillReturnRows(pgxmock.NewRows([]string{"id", "last_activity", "created_at"}).
			AddRow(int64(12), now, now))

	err := repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByToken_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM user_sessions s\\s+JOIN users u").
		WithArgs("tok-session").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "session_token", "refresh_token", "device_info", "ip_address", "user_agent",
			"expires_at", "last_activity", "created_at",
			"uuid", "username", "email", "full_name", "status",
		}).AddRow(
			int64(11), int64(42), "tok-session", "tok-refresh",
			[]byte(`{"platform":"macOS","browser":"Firefox"}`), "203.0.113.7", "Mozilla/5.0",
			now.Add(time.Hour), now, now,
			"7f9c5f10-2f1c-4a9e-9a39-0d6a3f9b1c2e", "alice", "alice@example.com", "Alice Smith", domain.UserStatusActive,
		))

	got, err := repo.GetByToken(context.Background(), "tok-session")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "Alice Smith", got.FullName)
	assert.Equal(t, domain.UserStatusActive, got.UserStatus)
	require.NotNil(t, got.DeviceInfo)
	assert.Equal(t, "macOS", got.DeviceInfo.Platform)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByToken_MalformedDeviceInfo(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM user_sessions s\\s+JOIN users u").
		WithArgs("tok-session").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "session_token", "refresh_token", "device_info", "ip_address", "user_agent",
			"expires_at", "last_activity", "created_at",
			"uuid", "username", "email", "full_name", "status",
		}).AddRow(
			int64(11), int64(42), "tok-session", "tok-refresh",
			[]byte(`{not json`), "", "",
			now.Add(time.Hour), now, now,
			"uuid-1", "alice", "alice@example.com", "Alice Smith", domain.UserStatusActive,
		))

	got, err := repo.GetByToken(context.Background(), "tok-session")
	require.NoError(t, err)
	assert.Nil(t, got.DeviceInfo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Expired sessions are filtered by the query predicate, so an expired token
// resolves exactly like an unknown one.
func TestSessionRepository_GetByToken_ExpiredOrUnknown(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM user_sessions s\\s+JOIN users u").
		WithArgs("tok-expired").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByToken(context.Background(), "tok-expired")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Touch(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE user_sessions\\s+SET last_activity").
		WithArgs("tok-session").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	touched, err := repo.Touch(context.Background(), "tok-session")
	require.NoError(t, err)
	assert.True(t, touched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Touch_Expired(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE user_sessions\\s+SET last_activity").
		WithArgs("tok-expired").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	touched, err := repo.Touch(context.Background(), "tok-expired")
	require.NoError(t, err)
	assert.False(t, touched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Rotate_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	expires := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectQuery("UPDATE user_sessions\\s+SET session_token").
		WithArgs("new-session", "new-refresh", expires, "old-refresh").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id"}).AddRow(int64(11), int64(42)))

	s, err := repo.Rotate(context.Background(), "old-refresh", "new-session", "new-refresh", expires)
	require.NoError(t, err)
	assert.Equal(t, int64(11), s.ID)
	assert.Equal(t, int64(42), s.UserID)
	assert.Equal(t, "new-session", s.SessionToken)
	assert.Equal(t, "new-refresh", s.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A refresh token that was already rotated away, or whose session expired,
// matches zero rows and resolves to not found.
func TestSessionRepository_Rotate_UnknownToken(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	expires := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectQuery("UPDATE user_sessions\\s+SET session_token").
		WithArgs("new-session", "new-refresh", expires, "stale-refresh").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Rotate(context.Background(), "stale-refresh", "new-session", "new-refresh", expires)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Delete_Idempotent(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM user_sessions WHERE session_token").
		WithArgs("tok-session").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM user_sessions WHERE session_token").
		WithArgs("tok-session").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := repo.Delete(context.Background(), "tok-session")
	require.NoError(t, err)
	assert.True(t, deleted)

	// Second delete of the same token is not an error.
	deleted, err = repo.Delete(context.Background(), "tok-session")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteAllForUser(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM user_sessions WHERE user_id").
		WithArgs(int64(42)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	count, err := repo.DeleteAllForUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteAllForUserExcept(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM user_sessions WHERE user_id = \\$1 AND session_token <> \\$2").
		WithArgs(int64(42), "tok-keep").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	count, err := repo.DeleteAllForUserExcept(context.Background(), 42, "tok-keep")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM user_sessions WHERE expires_at").
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	count, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ListActiveForUser(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "user_id", "session_token", "refresh_token", "device_info",
		"ip_address", "user_agent", "expires_at", "last_activity", "created_at",
	}).
		AddRow(int64(2), int64(42), "tok-b", "ref-b", []byte(nil), "", "", now.Add(time.Hour), now, now).
		AddRow(int64(1), int64(42), "tok-a", "ref-a", []byte(`{"platform":"iOS"}`), "", "", now.Add(time.Hour), now.Add(-time.Minute), now)

	mock.ExpectQuery("SELECT .+ FROM user_sessions\\s+WHERE user_id").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	sessions, err := repo.ListActiveForUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, int64(2), sessions[0].ID)
	assert.Nil(t, sessions[0].DeviceInfo)
	require.NotNil(t, sessions[1].DeviceInfo)
	assert.Equal(t, "iOS", sessions[1].DeviceInfo.Platform)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ListActiveForUser_Empty(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM user_sessions\\s+WHERE user_id").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "session_token", "refresh_token", "device_info",
			"ip_address", "user_agent", "expires_at", "last_activity", "created_at",
		}))

	sessions, err := repo.ListActiveForUser(context.Background(), 42)
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}
