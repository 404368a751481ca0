package waitlist

import (
	"context"
	"errors"
	"sync"
	"time"
)

type FormStatus string

const (
	StatusIdle       FormStatus = "idle"
	StatusSubmitting FormStatus = "submitting"
	StatusSuccess    FormStatus = "success"
	StatusError      FormStatus = "error"
)

// CloseDelay is how long the success state is shown before the dialog closes.
const CloseDelay = 1500 * time.Millisecond

var ErrFormBusy = errors.New("waitlist form is not accepting submissions")

type Submitter interface {
	Submit(ctx context.Context, email string) error
}

type SubmitFunc func(ctx context.Context, email string) error

func (f SubmitFunc) Submit(ctx context.Context, email string) error { return f(ctx, email) }

// Form is the sign-up dialog state: idle, submitting, then success or error.
type Form struct {
	mu         sync.Mutex
	email      string
	status     FormStatus
	closeAfter time.Duration
	submitter  Submitter
}

func NewForm(s Submitter) *Form {
	return &Form{status: StatusIdle, submitter: s}
}

func (f *Form) SetEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = email
}

// Submit sends the current email once. It is rejected while a submission is in
// flight or after one succeeded.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.status == StatusSubmitting || f.status == StatusSuccess {
		f.mu.Unlock()
		return ErrFormBusy
	}
	f.status = StatusSubmitting
	f.closeAfter = 0
	email := f.email
	f.mu.Unlock()

	err := f.submitter.Submit(ctx, email)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.status = StatusError
		return err
	}
	f.status = StatusSuccess
	f.email = ""
	f.closeAfter = CloseDelay
	return nil
}

// Reset returns the form to idle, as when the dialog closes.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = StatusIdle
	f.closeAfter = 0
}

type FormView struct {
	Email      string
	Status     FormStatus
	CloseAfter time.Duration
}

func (v FormView) Disabled() bool {
	return v.Status == StatusSubmitting || v.Status == StatusSuccess
}

func (v FormView) ButtonLabel() string {
	if v.Status == StatusSuccess {
		return "Kaydolundu!"
	}
	return "Kaydol"
}

func (v FormView) ErrorMessage() string {
	if v.Status == StatusError {
		return "Bir hata oluştu. Lütfen tekrar deneyin."
	}
	return ""
}

func (v FormView) CloseAfterMillis() int64 {
	return v.CloseAfter.Milliseconds()
}

func (f *Form) View() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormView{Email: f.email, Status: f.status, CloseAfter: f.closeAfter}
}
