package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kafelog/kafelog-web/internal/circuitbreaker"
	"github.com/kafelog/kafelog-web/internal/config"
	"github.com/kafelog/kafelog-web/internal/logger"
)

// Sender delivers messages through one provider behind a circuit breaker.
type Sender struct {
	provider       Provider
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewSender builds the provider named by cfg.Provider.
func NewSender(cfg config.MailConfig) (*Sender, error) {
	var provider Provider
	var err error

	switch cfg.Provider {
	case "resend":
		provider, err = NewResendProvider(cfg.ResendAPIKey, cfg.ResendEndpoint)
	case "smtp":
		provider, err = NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	case "amqp":
		provider, err = NewAMQPProvider(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	case "log", "":
		provider = LogProvider{}
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mail provider: %w", err)
	}

	return NewSenderWithProvider(provider), nil
}

// NewSenderWithProvider opens after 5 failures, waits 30s, then allows 2 probes.
func NewSenderWithProvider(p Provider) *Sender {
	return &Sender{
		provider:       p,
		circuitBreaker: circuitbreaker.New(5, 30*time.Second, 2),
	}
}

func (s *Sender) Send(ctx context.Context, msg *Message) error {
	if msg == nil || len(msg.To) == 0 || msg.From == "" || msg.Subject == "" {
		return newError(CodeInvalidInput, "message needs from, to and subject", nil)
	}

	log := logger.Ctx(ctx).With().
		Str("provider", s.provider.Name()).
		Strs("to", maskAll(msg.To)).
		Logger()

	start := time.Now()
	err := s.circuitBreaker.Call(ctx, func() error {
		return s.provider.Send(ctx, msg)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) || errors.Is(err, circuitbreaker.ErrHalfOpenLimit) {
			log.Warn().Err(err).Msg("mail_circuit_open")
			return newError(CodeCircuitOpen, "mail provider temporarily unavailable", err)
		}
		log.Error().Err(err).Int64("duration_ms", time.Since(start).Milliseconds()).Msg("mail_send_failed")
		return newError(CodeEmailProvider, "failed to send email", err)
	}

	log.Info().Int64("duration_ms", time.Since(start).Milliseconds()).Msg("mail_sent")
	return nil
}

func (s *Sender) ProviderName() string {
	if s.provider == nil {
		return "unknown"
	}
	return s.provider.Name()
}

// CheckHealth fails while the breaker is open or when the provider reports itself down.
func (s *Sender) CheckHealth(ctx context.Context) error {
	if s.provider == nil {
		return fmt.Errorf("mail provider not initialized")
	}
	if st := s.circuitBreaker.State(); st == circuitbreaker.StateOpen {
		return fmt.Errorf("mail circuit %s", st)
	}
	if p, ok := s.provider.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Sender) Close() error {
	if c, ok := s.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
