package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kafelog/kafelog-web/internal/domain"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	claims := SupabaseClaims{
		Email: "ayse@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "9b2f7c1e-5d7a-4c2e-8f3b-0a1b2c3d4e5f",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	claims.UserMetadata.FullName = "Ayşe Yılmaz"
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func captureSession(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) *domain.Session {
	t.Helper()
	var got *domain.Session
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	return got
}

func TestSession_BearerHeader(t *testing.T) {
	tok := signToken(t, testSecret, time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	s := captureSession(t, Session(testSecret), req)
	require.NotNil(t, s)
	assert.Equal(t, "9b2f7c1e-5d7a-4c2e-8f3b-0a1b2c3d4e5f", s.UserID)
	assert.Equal(t, "ayse@example.com", s.Email)
	assert.Equal(t, "Ayşe Yılmaz", s.FullName)
	assert.Equal(t, tok, s.AccessToken)
}

func TestSession_Cookie(t *testing.T) {
	tok := signToken(t, testSecret, time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})

	s := captureSession(t, Session(testSecret), req)
	require.NotNil(t, s)
	assert.Equal(t, "ayse@example.com", s.Email)
}

func TestSession_AnonymousOnBadTokens(t *testing.T) {
	cases := map[string]string{
		"expired":      "Bearer " + signToken(t, testSecret, time.Now().Add(-time.Minute)),
		"wrong secret": "Bearer " + signToken(t, "another-secret-another-secret-1234", time.Now().Add(time.Hour)),
		"garbage":      "Bearer not.a.jwt",
		"basic scheme": "Basic dXNlcjpwYXNz",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			assert.Nil(t, captureSession(t, Session(testSecret), req))
		})
	}
}

func TestSession_NoSecretConfigured(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Now().Add(time.Hour)))
	assert.Nil(t, captureSession(t, Session(""), req))
}

func TestGetUserID_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", GetUserID(req.Context()))
}
