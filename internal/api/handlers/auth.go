package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/internal/mail"
	"github.com/kafelog/kafelog-web/internal/supabase"
	"github.com/kafelog/kafelog-web/internal/web"
	"github.com/kafelog/kafelog-web/middleware"
)

const (
	pkceCookie      = "kafelog_pkce"
	pkceCookieTTL   = 10 * time.Minute
	googleProvider  = "google"
	oauthLoginPath  = "/auth/oauth/" + googleProvider
	callbackPath    = "/auth/callback"
	defaultLoginTTL = time.Hour
)

// AuthProvider is the hosted identity service behind the auth pages.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	AuthorizeURL(provider, redirectTo, codeChallenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*domain.Session, error)
}

type AuthHandler struct {
	pageRenderer
	auth         AuthProvider
	secureCookie bool
	validate     *validator.Validate
}

func NewAuthHandler(views *web.Renderer, auth AuthProvider, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		pageRenderer: pageRenderer{views: views},
		auth:         auth,
		secureCookie: secureCookie,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerForm struct {
	FullName        string `validate:"required,max=100"`
	Email           string `validate:"required,email,max=254"`
	Password        string `validate:"required,min=6,max=72"`
	ConfirmPassword string `validate:"required"`
	AcceptTerms     bool
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	view := web.AuthView{OAuthPath: oauthLoginPath}
	if r.URL.Query().Get("error") == "oauth" {
		view.Error = "Google ile giriş yapılırken bir hata oluştu"
	}
	h.render(w, r, http.StatusOK, "login", "Giriş Yap", "", view)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Geçersiz istek", "Form okunamadı.")
		return
	}

	in := loginForm{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	view := web.AuthView{Email: in.Email, OAuthPath: oauthLoginPath}

	if err := h.validate.Struct(in); err != nil {
		view.Error = "Lütfen geçerli bir e-posta ve şifre girin"
		h.render(w, r, http.StatusBadRequest, "login", "Giriş Yap", "", view)
		return
	}

	s, err := h.auth.SignInWithPassword(r.Context(), in.Email, in.Password)
	if err != nil {
		status, msg := authFailure(err, "Giriş yapılırken bir hata oluştu")
		logger.Ctx(r.Context()).Warn().Err(err).Str("email", mail.MaskAddress(in.Email)).Msg("login_failed")
		view.Error = msg
		h.render(w, r, status, "login", "Giriş Yap", "", view)
		return
	}

	h.setSessionCookie(w, s)
	logger.Ctx(r.Context()).Info().Str("user_id", s.UserID).Msg("login_succeeded")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", "Kayıt Ol", "", web.AuthView{OAuthPath: oauthLoginPath})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Geçersiz istek", "Form okunamadı.")
		return
	}

	in := registerForm{
		FullName:        strings.TrimSpace(r.PostForm.Get("name")),
		Email:           strings.TrimSpace(r.PostForm.Get("email")),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirmPassword"),
		AcceptTerms:     r.PostForm.Get("acceptTerms") != "",
	}
	view := web.AuthView{Email: in.Email, FullName: in.FullName, OAuthPath: oauthLoginPath}

	if msg := h.checkRegistration(in); msg != "" {
		view.Error = msg
		h.render(w, r, http.StatusBadRequest, "register", "Kayıt Ol", "", view)
		return
	}

	s, err := h.auth.SignUp(r.Context(), in.Email, in.Password, in.FullName)
	if err != nil {
		status, msg := authFailure(err, "Kayıt olurken bir hata oluştu")
		logger.Ctx(r.Context()).Warn().Err(err).Str("email", mail.MaskAddress(in.Email)).Msg("register_failed")
		view.Error = msg
		h.render(w, r, status, "register", "Kayıt Ol", "", view)
		return
	}

	// Projects without email confirmation sign the user in right away.
	if s != nil {
		h.setSessionCookie(w, s)
	}
	view.Success = true
	h.render(w, r, http.StatusOK, "register", "Kayıt Ol", "", view)
}

func (h *AuthHandler) checkRegistration(in registerForm) string {
	if in.Password != in.ConfirmPassword {
		return "Şifreler eşleşmiyor"
	}
	if !in.AcceptTerms {
		return "Lütfen kullanım koşullarını kabul edin"
	}
	if err := h.validate.Struct(in); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && ve[0].Field() == "Password" {
			return "Şifre en az 6 karakter olmalıdır"
		}
		return "Lütfen tüm alanları doğru doldurun"
	}
	return ""
}

// authFailure maps a provider error to a status and a message safe to show.
func authFailure(err error, fallback string) (int, string) {
	var ae *supabase.AuthError
	if errors.As(err, &ae) && ae.StatusCode >= 400 && ae.StatusCode < 500 {
		msg := ae.Message
		if msg == "" {
			msg = fallback
		}
		return http.StatusUnauthorized, msg
	}
	return http.StatusBadGateway, fallback
}

// OAuthStart redirects to the provider with a PKCE challenge. The verifier
// waits in a short-lived cookie for the callback.
func (h *AuthHandler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "provider") != googleProvider {
		h.renderError(w, r, http.StatusNotFound, "Sayfa bulunamadı", "Bu giriş yöntemi desteklenmiyor.")
		return
	}

	verifier, challenge := supabase.NewPKCE()
	http.SetCookie(w, &http.Cookie{
		Name:     pkceCookie,
		Value:    verifier,
		Path:     callbackPath,
		MaxAge:   int(pkceCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	redirectTo := requestOrigin(r) + callbackPath
	http.Redirect(w, r, h.auth.AuthorizeURL(googleProvider, redirectTo, challenge), http.StatusFound)
}

func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	c, err := r.Cookie(pkceCookie)
	if code == "" || err != nil || c.Value == "" {
		logger.Ctx(r.Context()).Warn().Bool("has_code", code != "").Msg("oauth_callback_incomplete")
		http.Redirect(w, r, "/login?error=oauth", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: pkceCookie, Value: "", Path: callbackPath, MaxAge: -1})

	s, err := h.auth.ExchangeCode(r.Context(), code, c.Value)
	if err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("oauth_exchange_failed")
		http.Redirect(w, r, "/login?error=oauth", http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, s)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout revokes the session upstream when possible and always clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if s := middleware.GetSession(r.Context()); s != nil {
		if err := h.auth.SignOut(r.Context(), s.AccessToken); err != nil {
			logger.Ctx(r.Context()).Warn().Err(err).Msg("sign_out_failed")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, s *domain.Session) {
	expires := s.ExpiresAt
	if expires.IsZero() {
		expires = time.Now().Add(defaultLoginTTL)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    s.AccessToken,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}
