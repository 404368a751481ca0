package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/middleware"
)

// New creates a reverse proxy to the KafeLog API that keeps the request path
// and propagates the request ID and the caller's session token.
// targetHost: "http://localhost:4000"
func New(targetHost string, transport http.RoundTripper) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(strings.TrimRight(targetHost, "/"))
	if err != nil {
		return nil, err
	}
	if transport == nil {
		transport = &middleware.TracingTransport{Base: http.DefaultTransport}
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = transport
	originalDirector := proxy.Director

	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = target.Host

		// The site's own session cookie never leaves this service.
		req.Header.Del("Cookie")

		if reqID := middleware.GetRequestID(req.Context()); reqID != "" {
			req.Header.Set(middleware.HeaderXRequestID, reqID)
		}
		if s := middleware.GetSession(req.Context()); s != nil && s.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+s.AccessToken)
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		reqID := middleware.GetRequestID(r.Context())

		logger.Log.Error().
			Err(err).
			Str("target", targetHost).
			Str("path", r.URL.Path).
			Str("request_id", reqID).
			Msg("upstream_proxy_error")

		resp := domain.APIError{}
		resp.Error.Code = "upstream_unavailable"
		resp.Error.Message = "upstream service unreachable"
		resp.Error.RequestID = reqID

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(resp)
	}

	return proxy, nil
}
