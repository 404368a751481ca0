package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kafelog/kafelog-web/internal/domain"
)

// SessionCookie holds the Supabase access token for server-rendered pages.
const SessionCookie = "kafelog_session"

type ctxKeySession struct{}

// SupabaseClaims is the subset of a Supabase access token this service reads.
type SupabaseClaims struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Session resolves the caller's session from a bearer header or the session cookie.
// Missing, malformed or expired tokens leave the request anonymous; it never rejects.
func Session(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			s, err := ParseSessionToken(token, secret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// ParseSessionToken verifies an HS256 Supabase access token and maps it to a Session.
func ParseSessionToken(token, secret string) (*domain.Session, error) {
	claims := &SupabaseClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &domain.Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		FullName:    claims.UserMetadata.FullName,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

func bearerFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func WithSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession{}, s)
}

// GetSession returns the session for the request, or nil when anonymous.
func GetSession(ctx context.Context) *domain.Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(ctxKeySession{}).(*domain.Session)
	return s
}

// GetUserID returns the session user id, or "" when anonymous.
func GetUserID(ctx context.Context) string {
	if s := GetSession(ctx); s != nil {
		return s.UserID
	}
	return ""
}
