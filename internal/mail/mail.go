package mail

import (
	"context"
	"fmt"
	"strings"
)

// Message is a plain-text transactional email. HTML is optional.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html,omitempty"`
}

// Provider delivers messages.
type Provider interface {
	Send(ctx context.Context, msg *Message) error
	Name() string
}

type ErrorCode string

const (
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeEmailProvider ErrorCode = "EMAIL_PROVIDER_ERROR"
	CodeCircuitOpen   ErrorCode = "CIRCUIT_OPEN"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// MaskAddress hides most of an address for logs: "officialcihan@gmail.com"
// becomes "of***@gm***.com".
func MaskAddress(addr string) string {
	if addr == "" {
		return ""
	}
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || strings.Contains(domain, "@") {
		if len(addr) > 3 {
			return addr[:2] + "***@***"
		}
		return "***"
	}

	maskedLocal := "***"
	if len(local) > 2 {
		maskedLocal = local[:2] + "***"
	}

	parts := strings.Split(domain, ".")
	first, rest := parts[0], strings.Join(parts[1:], ".")
	maskedDomain := "***"
	if len(first) > 2 {
		maskedDomain = first[:2] + "***"
	}
	if rest != "" {
		maskedDomain += "." + rest
	}
	return maskedLocal + "@" + maskedDomain
}

func maskAll(addrs []string) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = MaskAddress(a)
	}
	return out
}
