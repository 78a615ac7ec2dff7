package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-booking/internal/auth"
	"github.com/clinicore/clinic-booking/internal/clinic"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	identityKey  contextKey = "identity"
)

// Identity is the per-request caller, resolved from the bearer token. It
// replaces any notion of shared session state; every operation receives it
// through the request context.
type Identity struct {
	UserID    uuid.UUID
	Role      clinic.Role
	TokenID   string
	ExpiresAt time.Time
}

// IdentityFrom retrieves the authenticated caller from the context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// RequestIDMiddleware adds a unique request ID to each request context
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggingMiddleware logs each request and stashes a request-scoped logger in
// the context so handlers can report failures with the same request id.
func LoggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger.With().Str("request_id", GetRequestID(r.Context())).Logger()
			r = r.WithContext(reqLogger.WithContext(r.Context()))

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			reqLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// AuthGate gates routes by authenticated role.
type AuthGate struct {
	secret  string
	revoker auth.Revoker
}

func NewAuthGate(secret string, revoker auth.Revoker) *AuthGate {
	return &AuthGate{secret: secret, revoker: revoker}
}

// Require returns middleware that rejects unauthenticated callers with 401
// and callers outside the role set with 403. An empty role set admits any
// authenticated identity.
func (g *AuthGate) Require(roles ...clinic.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := g.authenticate(r)
			if err != nil {
				if errors.Is(err, errUnauthenticated) {
					writeError(w, http.StatusUnauthorized, "unauthenticated", "a valid bearer token is required")
					return
				}
				writeInternalError(w, r, err)
				return
			}

			if len(roles) > 0 && !roleAllowed(identity.Role, roles) {
				writeError(w, http.StatusForbidden, "forbidden", "you do not have access to this resource")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var errUnauthenticated = errors.New("unauthenticated")

func (g *AuthGate) authenticate(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Identity{}, errUnauthenticated
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return Identity{}, errUnauthenticated
	}

	claims, err := auth.ParseToken(parts[1], g.secret)
	if err != nil {
		return Identity{}, errUnauthenticated
	}

	revoked, err := g.revoker.IsRevoked(r.Context(), claims.ID)
	if err != nil {
		return Identity{}, err
	}
	if revoked {
		return Identity{}, errUnauthenticated
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, errUnauthenticated
	}

	identity := Identity{UserID: userID, Role: clinic.Role(claims.Role), TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

func roleAllowed(role clinic.Role, allowed []clinic.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
