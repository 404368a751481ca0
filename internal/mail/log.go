package mail

import (
	"context"

	"github.com/kafelog/kafelog-web/internal/logger"
)

// LogProvider writes messages to the log instead of delivering them.
type LogProvider struct{}

func (LogProvider) Send(ctx context.Context, msg *Message) error {
	logger.Ctx(ctx).Info().
		Strs("to", maskAll(msg.To)).
		Str("subject", msg.Subject).
		Int("text_bytes", len(msg.Text)).
		Msg("mail_logged")
	return nil
}

func (LogProvider) Name() string {
	return "log"
}
