package middleware

import (
	"context"

	"github.com/kafelog/kafelog-web/internal/domain"
)

// SetRequestIDForTest injects a request ID into the context without running the middleware.
func SetRequestIDForTest(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

// SetSessionForTest injects a session into the context without verifying a token.
func SetSessionForTest(ctx context.Context, s *domain.Session) context.Context {
	return WithSession(ctx, s)
}
