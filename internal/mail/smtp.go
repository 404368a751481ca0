package mail

import (
	"context"
	"fmt"
	netmail "net/mail"
	"net/smtp"
	"strings"
)

type smtpSendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPProvider sends plain-text mail through an SMTP relay.
type SMTPProvider struct {
	host     string
	port     int
	username string
	password string
	send     smtpSendFunc
}

func NewSMTPProvider(host string, port int, username, password string) (*SMTPProvider, error) {
	if host == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}
	if port == 0 {
		port = 587
	}
	return &SMTPProvider{
		host:     host,
		port:     port,
		username: username,
		password: password,
		send:     smtp.SendMail,
	}, nil
}

func (p *SMTPProvider) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from, err := netmail.ParseAddress(msg.From)
	if err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}

	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	contentType := "text/plain; charset=UTF-8"
	body := msg.Text
	if msg.HTML != "" {
		contentType = "text/html; charset=UTF-8"
		body = msg.HTML
	}

	raw := []byte("From: " + from.String() + "\r\n" +
		"To: " + strings.Join(msg.To, ", ") + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: " + contentType + "\r\n" +
		"\r\n" +
		strings.ReplaceAll(body, "\n", "\r\n") + "\r\n")

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	if err := p.send(addr, auth, from.Address, msg.To, raw); err != nil {
		return fmt.Errorf("failed to send email via SMTP: %w", err)
	}
	return nil
}

func (p *SMTPProvider) Name() string {
	return "smtp"
}
