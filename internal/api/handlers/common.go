package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/kafelog/kafelog-web/internal/domain"
	"github.com/kafelog/kafelog-web/internal/downstream"
	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/middleware"
)

func sendError(w http.ResponseWriter, r *http.Request, code string, message string, status int) {
	resp := domain.APIError{}
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.RequestID = middleware.GetRequestID(r.Context())

	render.Status(r, status)
	render.JSON(w, r, resp)
}

func handleDownstreamError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	var se *downstream.StatusError
	if errors.As(err, &se) {
		sendError(w, r, se.Code, se.Message, se.StatusCode)
		return
	}
	switch {
	case errors.Is(err, downstream.ErrTimeout):
		sendError(w, r, "upstream_timeout", defaultMsg, http.StatusGatewayTimeout)
	case errors.Is(err, downstream.ErrUnavailable):
		sendError(w, r, "upstream_unavailable", defaultMsg, http.StatusBadGateway)
	default:
		logger.Ctx(r.Context()).Error().Err(err).Msg("unhandled downstream error")
		sendError(w, r, "internal_error", defaultMsg, http.StatusBadGateway)
	}
}

// sendMessageError writes the flat {"error": "..."} body some endpoints use.
func sendMessageError(w http.ResponseWriter, r *http.Request, message string, status int) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": message})
}

// APINotFound answers unknown /api routes in the JSON error format.
func APINotFound(w http.ResponseWriter, r *http.Request) {
	sendError(w, r, "not_found", "route not found", http.StatusNotFound)
}
