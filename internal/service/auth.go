package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/anonymousminati/finly-backend/internal/domain"
	"github.com/anonymousminati/finly-backend/internal/event"
	"github.com/anonymousminati/finly-backend/internal/repository"
	apperrors "github.com/anonymousminati/finly-backend/pkg/errors"
)

// SecurityNotifier delivers out-of-band alerts for security-relevant account
// events. Implementations must not block or fail the triggering request.
type SecurityNotifier interface {
	NotifyPasswordChanged(ctx context.Context, userUUID string)
	NotifyNewLogin(ctx context.Context, userUUID, ipAddress, userAgent string)
}

// AuthService implements registration, login, session lifecycle and password
// management.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	policy     *PasswordPolicy
	hasher     *PasswordHasher
	tokens     *TokenIssuer
	producer   *event.Producer
	notifier   SecurityNotifier
	logger     *slog.Logger
	sessionTTL time.Duration
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher *PasswordHasher,
	producer *event.Producer,
	logger *slog.Logger,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		policy:     NewPasswordPolicy(),
		hasher:     hasher,
		tokens:     NewTokenIssuer(),
		producer:   producer,
		logger:     logger,
		sessionTTL: sessionTTL,
	}
}

// WithNotifier enables security alerts for logins and password changes.
func (s *AuthService) WithNotifier(notifier SecurityNotifier) *AuthService {
	s.notifier = notifier
	return s
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
	Phone           string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email      string
	Password   string
	DeviceInfo *domain.DeviceInfo
	IPAddress  string
	UserAgent  string
}

// Register creates a new user account. The email and username are checked for
// availability before the insert; a concurrent duplicate still surfaces as a
// conflict from the unique constraint.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := s.policy.ValidateWithConfirm(input.Password, input.ConfirmPassword); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, apperrors.Dependency(err)
	}
	if taken {
		return nil, apperrors.Conflict("user", "email", input.Email)
	}

	taken, err = s.users.UsernameExists(ctx, input.Username)
	if err != nil {
		return nil, apperrors.Dependency(err)
	}
	if taken {
		return nil, apperrors.Conflict("user", "username", input.Username)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.Dependency(err)
	}

	user := &domain.User{
		UUID:         uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Phone:        input.Phone,
		Status:       domain.UserStatusActive,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.UUID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.UUID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates the credentials and opens a session. Unknown email and
// wrong password produce the same error so callers cannot probe for accounts.
// A credential failure after a successful password check is reported as the
// distinct session-creation failure: the caller must know authentication
// itself succeeded.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthenticated("invalid email or password")
		}
		return nil, nil, apperrors.Dependency(err)
	}

	if !s.hasher.Compare(user.PasswordHash, input.Password) {
		return nil, nil, apperrors.Unauthenticated("invalid email or password")
	}

	if !user.IsActive() {
		return nil, nil, apperrors.Forbidden("account is not active")
	}

	pair, err := s.openSession(ctx, user, input)
	if err != nil {
		s.logger.ErrorContext(ctx, "session creation failed after successful login",
			slog.String("user_id", user.UUID),
			slog.String("error", err.Error()),
		)
		return nil, nil, apperrors.SessionCreation(err)
	}

	if s.notifier != nil {
		s.notifier.NotifyNewLogin(ctx, user.UUID, input.IPAddress, input.UserAgent)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.UUID),
		slog.String("email", user.Email),
	)

	return user, pair, nil
}

// openSession issues a token pair and persists the session row.
func (s *AuthService) openSession(ctx context.Context, user *domain.User, input LoginInput) (*domain.TokenPair, error) {
	sessionToken, refreshToken, err := s.tokens.IssuePair()
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		UserID:       user.ID,
		SessionToken: sessionToken,
		RefreshToken: refreshToken,
		DeviceInfo:   input.DeviceInfo,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
		ExpiresAt:    time.Now().UTC().Add(s.sessionTTL),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		SessionToken: sessionToken,
		RefreshToken: refreshToken,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// Authenticate resolves a session token to the owning identity. Missing,
// unknown and expired tokens all produce the same 401; a resolved session
// whose owner is not active produces a 403.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.AuthenticatedSession, error) {
	if token == "" {
		return nil, apperrors.Unauthenticated("authentication required")
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthenticated("authentication required")
		}
		return nil, apperrors.Dependency(err)
	}

	if session.UserStatus != domain.UserStatusActive {
		return nil, apperrors.Forbidden("account is not active")
	}

	return session, nil
}

// TouchSession records activity on the session. Failures are logged, never
// surfaced; activity tracking must not break an authenticated request.
func (s *AuthService) TouchSession(ctx context.Context, token string) {
	if _, err := s.sessions.Touch(ctx, token); err != nil {
		s.logger.WarnContext(ctx, "failed to update session activity",
			slog.String("error", err.Error()),
		)
	}
}

// Refresh rotates the token pair of the session holding the refresh token.
// The old pair stops working the instant the new one is issued; a stale or
// expired refresh token is indistinguishable from an unknown one.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.Unauthenticated("invalid or expired refresh token")
	}

	newSession, newRefresh, err := s.tokens.IssuePair()
	if err != nil {
		return nil, apperrors.Dependency(err)
	}

	expiresAt := time.Now().UTC().Add(s.sessionTTL)
	session, err := s.sessions.Rotate(ctx, refreshToken, newSession, newRefresh, expiresAt)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthenticated("invalid or expired refresh token")
		}
		return nil, apperrors.Dependency(err)
	}

	s.logger.InfoContext(ctx, "session refreshed",
		slog.Int64("session_id", session.ID),
	)

	return &domain.TokenPair{
		SessionToken: newSession,
		RefreshToken: newRefresh,
		ExpiresAt:    expiresAt,
	}, nil
}

// Logout invalidates the session holding the token. Logging out an already
// invalidated session succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.Validation("logout failed", "no session token provided")
	}

	deleted, err := s.sessions.Delete(ctx, token)
	if err != nil {
		return apperrors.Dependency(err)
	}

	if !deleted {
		return apperrors.NotFound("session", "for the presented token")
	}

	s.logger.InfoContext(ctx, "user logged out")
	return nil
}

// LogoutEverywhere invalidates every session of the user and returns the
// number revoked.
func (s *AuthService) LogoutEverywhere(ctx context.Context, user *domain.AuthenticatedSession) (int64, error) {
	count, err := s.sessions.DeleteAllForUser(ctx, user.UserID)
	if err != nil {
		return 0, apperrors.Dependency(err)
	}

	if err := s.producer.PublishLoggedOutEverywhere(ctx, user.UserUUID, count); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.logged_out_everywhere event",
			slog.String("user_id", user.UserUUID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged out everywhere",
		slog.String("user_id", user.UserUUID),
		slog.Int64("sessions_revoked", count),
	)

	return count, nil
}

// ActiveSessions lists the user's live sessions, most recently active first.
func (s *AuthService) ActiveSessions(ctx context.Context, userID int64) ([]domain.Session, error) {
	sessions, err := s.sessions.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Dependency(err)
	}
	return sessions, nil
}

// ChangePassword verifies the current password, validates the replacement and
// stores the new hash. Every other session of the user is revoked so stolen
// tokens die with the old password.
func (s *AuthService) ChangePassword(ctx context.Context, auth *domain.AuthenticatedSession, currentPassword, newPassword, confirmPassword string) error {
	user, err := s.users.GetByID(ctx, auth.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return apperrors.Dependency(err)
	}

	if !s.hasher.Compare(user.PasswordHash, currentPassword) {
		return apperrors.Unauthenticated("current password is incorrect")
	}

	if err := s.policy.ValidateWithConfirm(newPassword, confirmPassword); err != nil {
		return err
	}

	if newPassword == currentPassword {
		return apperrors.Validation("password does not meet requirements",
			"new password must be different from current password")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Dependency(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Revoke every other session; the one making this request stays live.
	if _, err := s.sessions.DeleteAllForUserExcept(ctx, user.ID, auth.SessionToken); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke sessions after password change",
			slog.String("user_id", user.UUID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishPasswordChanged(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_changed event",
			slog.String("user_id", user.UUID),
			slog.String("error", err.Error()),
		)
	}

	if s.notifier != nil {
		s.notifier.NotifyPasswordChanged(ctx, user.UUID)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.UUID),
	)

	return nil
}

// SweepExpiredSessions removes sessions past their expiry and returns the
// number removed.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	count, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep expired sessions: %w", err)
	}

	if count > 0 {
		s.logger.InfoContext(ctx, "expired sessions swept",
			slog.Int64("count", count),
		)
	}

	return count, nil
}

// GetProfile returns the user owning the authenticated session.
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}
