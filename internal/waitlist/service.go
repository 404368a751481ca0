// Package waitlist relays pre-launch sign-ups to the team inbox.
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kafelog/kafelog-web/internal/config"
	"github.com/kafelog/kafelog-web/internal/logger"
	"github.com/kafelog/kafelog-web/internal/mail"
)

const (
	DefaultFrom = "KafeLog <onboarding@resend.dev>"
	Subject     = "New KafeLog Waitlist Signup"
)

var ErrInvalidEmail = errors.New("invalid email address")

type Notifier interface {
	Send(ctx context.Context, msg *mail.Message) error
}

type signup struct {
	Email string `validate:"required,email,max=254"`
}

// Service sends one notification per sign-up. Nothing is stored or de-duplicated.
type Service struct {
	notifier  Notifier
	from      string
	recipient string
	validate  *validator.Validate
}

func NewService(n Notifier, cfg config.WaitlistConfig) *Service {
	from := cfg.From
	if from == "" {
		from = DefaultFrom
	}
	return &Service{
		notifier:  n,
		from:      from,
		recipient: cfg.Recipient,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) Join(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := s.validate.Struct(signup{Email: email}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	err := s.notifier.Send(ctx, &mail.Message{
		From:    s.from,
		To:      []string{s.recipient},
		Subject: Subject,
		Text:    "New signup for KafeLog waitlist:\nEmail: " + email,
	})
	if err != nil {
		return fmt.Errorf("notify waitlist signup: %w", err)
	}

	logger.Ctx(ctx).Info().Str("email", mail.MaskAddress(email)).Msg("waitlist_signup")
	return nil
}
