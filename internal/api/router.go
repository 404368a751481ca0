package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/kafelog/kafelog-web/internal/api/handlers"
	"github.com/kafelog/kafelog-web/internal/config"
	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/internal/proxy"
	"github.com/kafelog/kafelog-web/internal/tracing"
	"github.com/kafelog/kafelog-web/middleware"
)

// Deps are the handlers and shared clients the router mounts.
type Deps struct {
	Pages     *handlers.PageHandler
	Auth      *handlers.AuthHandler
	Cafes     *handlers.CafeHandler
	Waitlist  *handlers.WaitlistHandler
	Readiness *handlers.ReadinessHandler

	// Redis backs the waitlist rate limit when set; otherwise it is in process.
	Redis redis.Scripter
	// APITransport carries proxied requests; nil means a tracing transport.
	APITransport http.RoundTripper
}

func NewRouter(cfg *config.Config, d Deps) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing(tracing.ServiceName))
	r.Use(middleware.Session(cfg.SupabaseJWTSecret))

	limitWaitlist := waitlistLimiter(cfg.Waitlist, d.Redis)

	// Pages
	r.Get("/", d.Pages.Home)
	r.With(limitWaitlist).Post("/waitlist", d.Pages.JoinWaitlist)
	r.Get("/about", d.Pages.About)
	r.Get("/contact", d.Pages.Contact)
	r.Get("/cafes", d.Pages.Cafes)
	r.Get("/cafes/{id}", d.Pages.Cafe)
	r.Get("/campaigns", d.Pages.Campaigns)
	r.Get("/events", d.Pages.Events)
	r.Get("/map", d.Pages.Map)
	r.Group(func(r chi.Router) {
		r.Use(handlers.RequireSession)
		r.Get("/profile", d.Pages.Profile)
		r.Get("/settings", d.Pages.Settings)
	})

	// Auth
	r.Get("/login", d.Auth.LoginPage)
	r.Post("/login", d.Auth.Login)
	r.Get("/register", d.Auth.RegisterPage)
	r.Post("/register", d.Auth.Register)
	r.Get("/auth/oauth/{provider}", d.Auth.OAuthStart)
	r.Get("/auth/callback", d.Auth.OAuthCallback)
	r.Post("/logout", d.Auth.Logout)

	r.Handle("/metrics", promhttp.Handler())

	apiProxy, err := proxy.New(cfg.APIBaseURL, d.APITransport)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderXRequestID},
			ExposedHeaders:   []string{middleware.HeaderXRequestID},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/healthz", d.Readiness.Healthz)
		r.Get("/readyz", d.Readiness.Readyz)

		r.With(limitWaitlist).Post("/waitlist", d.Waitlist.Join)
		r.Get("/cafes/{id}/view", d.Cafes.GetCafeView)

		r.Mount("/businesses", apiProxy)
		r.Mount("/campaigns", apiProxy)
		r.Mount("/events", apiProxy)

		r.NotFound(handlers.APINotFound)
	})

	r.NotFound(d.Pages.NotFound)

	logger.Log.Info().
		Str("api", cfg.APIBaseURL).
		Strs("proxied", []string{"/api/businesses", "/api/campaigns", "/api/events"}).
		Msg("routes mounted")

	return r, nil
}

// waitlistLimiter returns one limiter shared by the form and JSON endpoints.
func waitlistLimiter(cfg config.WaitlistConfig, rdb redis.Scripter) func(http.Handler) http.Handler {
	if rdb != nil {
		return middleware.NewRedisRateLimiter(rdb).Middleware(middleware.RateLimitConfig{
			Scope:  "waitlist",
			Limit:  cfg.RateLimit,
			Window: cfg.RateLimitWindow,
			KeyFn:  middleware.KeyByIP,
		})
	}
	return httprate.Limit(cfg.RateLimit, cfg.RateLimitWindow,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return middleware.KeyByIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, map[string]string{"error": "Too many requests"})
		}),
	)
}
