package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anonymousminati/finly-backend/internal/domain"
	"github.com/anonymousminati/finly-backend/internal/service"
	"github.com/anonymousminati/finly-backend/pkg/httputil"
	"github.com/anonymousminati/finly-backend/pkg/logger"
)

type contextKey string

const sessionContextKey contextKey = "authenticated_session"

// SessionFromContext returns the authenticated session stored by the auth
// middleware, or nil when the request is anonymous.
func SessionFromContext(ctx context.Context) *domain.AuthenticatedSession {
	s, _ := ctx.Value(sessionContextKey).(*domain.AuthenticatedSession)
	return s
}

// ContentTypeJSON rejects unparseable content types on mutating requests.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// extractSessionToken pulls the session token from the Authorization header,
// falling back to a sessionToken field in a JSON body. The body is restored
// so downstream handlers can decode it again.
func extractSessionToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	if err != nil {
		return ""
	}

	var probe struct {
		SessionToken string `json:"sessionToken"`
	}
	if json.Unmarshal(bodyBytes, &probe) != nil {
		return ""
	}
	return probe.SessionToken
}

// RequireSession authenticates the request via its session token. Missing,
// malformed, unknown and expired tokens all yield the same 401; a session
// owned by a non-active account yields 403. Session activity is updated
// best-effort after authentication succeeds.
func RequireSession(auth *service.AuthService, fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractSessionToken(r)

			session, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, r, err, fallback)
				return
			}

			auth.TouchSession(r.Context(), token)

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			ctx = logger.WithUserID(ctx, session.UserUUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession resolves the session when a token is presented but lets
// anonymous requests through. An invalid token is treated as anonymous rather
// than rejected.
func OptionalSession(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractSessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			auth.TouchSession(r.Context(), token)

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			ctx = logger.WithUserID(ctx, session.UserUUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
