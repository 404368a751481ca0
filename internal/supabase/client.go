// Package supabase is a minimal GoTrue client for email/password and OAuth
// (PKCE) sign-in.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/middleware"
)

var ErrNotConfigured = errors.New("supabase is not configured")

// AuthError is a GoTrue error response.
type AuthError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("supabase auth [%d] %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func New(baseURL, anonKey string, transport http.RoundTripper) *Client {
	if transport == nil {
		transport = &middleware.TracingTransport{Base: http.DefaultTransport}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 10 * time.Second, Transport: transport},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.anonKey != ""
}

type user struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         user   `json:"user"`
}

func (t *tokenResponse) session() *domain.Session {
	var exp time.Time
	switch {
	case t.ExpiresAt > 0:
		exp = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		exp = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return &domain.Session{
		UserID:      t.User.ID,
		Email:       t.User.Email,
		FullName:    t.User.UserMetadata.FullName,
		AccessToken: t.AccessToken,
		ExpiresAt:   exp,
	}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	var out tokenResponse
	err := c.post(ctx, "/auth/v1/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.session(), nil
}

// SignUp registers a user. The session is nil when the project requires email
// confirmation before the first sign-in.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*domain.Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}
	var raw json.RawMessage
	if err := c.post(ctx, "/auth/v1/signup", "", body, &raw); err != nil {
		return nil, err
	}

	var out tokenResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode signup: %w", err)
	}
	if out.AccessToken == "" {
		return nil, nil
	}
	return out.session(), nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/auth/v1/logout", accessToken, nil, nil)
}

// AuthorizeURL is where the browser goes to start an OAuth sign-in.
func (c *Client) AuthorizeURL(provider, redirectTo, codeChallenge string) string {
	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", redirectTo)
	q.Set("code_challenge", codeChallenge)
	q.Set("code_challenge_method", "s256")
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*domain.Session, error) {
	var out tokenResponse
	err := c.post(ctx, "/auth/v1/token?grant_type=pkce", "", map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.session(), nil
}

// NewPKCE returns a verifier and its S256 challenge.
func NewPKCE() (verifier, challenge string) {
	verifier = oauth2.GenerateVerifier()
	return verifier, oauth2.S256ChallengeFromVerifier(verifier)
}

func (c *Client) post(ctx context.Context, path, bearer string, in, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("path", req.URL.Path).Msg("supabase_network_error")
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ae := decodeAuthError(resp)
		logger.Ctx(ctx).Warn().
			Int("status", ae.StatusCode).
			Str("code", ae.Code).
			Str("path", req.URL.Path).
			Msg("supabase_auth_error")
		return ae
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func decodeAuthError(resp *http.Response) *AuthError {
	ae := &AuthError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error_code"`
		Code             any    `json:"code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil {
		return ae
	}

	for _, m := range []string{body.ErrorDescription, body.Msg, body.Message, body.Error} {
		if m != "" {
			ae.Message = m
			break
		}
	}
	switch {
	case body.ErrorCode != "":
		ae.Code = body.ErrorCode
	case body.Error != "":
		ae.Code = body.Error
	}
	return ae
}
