package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/internal/waitlist"
)

type WaitlistJoiner interface {
	Join(ctx context.Context, email string) error
}

type WaitlistHandler struct {
	service WaitlistJoiner
}

func NewWaitlistHandler(s WaitlistJoiner) *WaitlistHandler {
	return &WaitlistHandler{service: s}
}

type joinRequest struct {
	Email string `json:"email"`
}

// Join accepts {"email": "..."} and relays it to the team inbox.
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)

	var req joinRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		sendMessageError(w, r, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Join(r.Context(), req.Email); err != nil {
		if errors.Is(err, waitlist.ErrInvalidEmail) {
			sendMessageError(w, r, "Invalid email address", http.StatusBadRequest)
			return
		}
		logger.Ctx(r.Context()).Error().Err(err).Msg("waitlist_send_failed")
		sendMessageError(w, r, "Failed to send email", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, map[string]bool{"success": true})
}
