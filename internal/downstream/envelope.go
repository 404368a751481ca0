package downstream

import (
	"context"
	"net/url"

	"github.com/kafelog/kafelog-web/internal/domain"
)

// getData fetches path and unwraps the response envelope. A success=false
// envelope is an error even on HTTP 200.
func getData[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var env domain.Envelope[T]
	if err := c.GetJSON(ctx, path, query, &env); err != nil {
		var zero T
		return zero, err
	}
	if !env.Success {
		var zero T
		msg := env.FailureMessage()
		if msg == "" {
			msg = "request was not successful"
		}
		return zero, &EnvelopeError{Path: path, Message: msg}
	}
	return env.Data, nil
}

func resourcePath(prefix string, segments ...string) string {
	p := prefix
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}
