// Package otpflow drives the collection of a six-digit code from a user: one
// cell per digit, focus movement, submission and the redirects that follow.
// It holds no I/O of its own; callers render Cells and Focus and feed keys in.
package otpflow

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tendant/krishi-auth/internal/client/api"
)

// CodeLength is the number of cells.
const CodeLength = 6

// Routes the flow navigates to.
const (
	RouteHome  = "/"
	RouteLogin = "/login"
)

// RedirectDelay is how long the success message stays up before going home.
const RedirectDelay = time.Second

const (
	msgVerified     = "Verification Successful! Welcome to Krishi Rakshak!"
	msgVerifyFailed = "Invalid verification code. Please try again."
	msgResent       = "Verification code sent successfully to your email"
	msgResendFailed = "Error sending verification code"
)

var (
	// ErrIncompleteCode is returned by Submit before all cells are filled.
	ErrIncompleteCode = errors.New("Please enter the complete 6-digit verification code")
	// ErrNoEmail means there is no address to verify; the flow has sent the user to login.
	ErrNoEmail = errors.New("no email to verify")
	// ErrBusy is returned while a request is in flight or after success.
	ErrBusy = errors.New("verification in progress")
)

var digitsOnly = regexp.MustCompile(`^\d*$`)

// State is where the flow stands.
type State int

const (
	Collecting State = iota
	Submitting
	Verified
	Failed
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case Submitting:
		return "submitting"
	case Verified:
		return "verified"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Verifier is the part of the account API the flow calls.
type Verifier interface {
	VerifyOTP(ctx context.Context, email, code string) (*api.VerifyResponse, error)
	ResendOTP(ctx context.Context, email string) (string, error)
}

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Option configures a Flow.
type Option func(*Flow)

// WithAfterFunc replaces time.AfterFunc for the post-success redirect.
func WithAfterFunc(after func(time.Duration, func())) Option {
	return func(f *Flow) { f.after = after }
}

// Flow is the state of one code-entry screen. It is safe for concurrent use.
type Flow struct {
	verifier Verifier
	hints    HintStore
	nav      Navigator
	after    func(time.Duration, func())

	mu      sync.Mutex
	email   string
	cells   [CodeLength]string
	focus   int
	state   State
	message string
	session *api.VerifyResponse
}

// New starts a flow for email. An empty email falls back to the stored hint;
// a non-empty one replaces it. With neither, the user is sent to RouteLogin.
func New(email string, verifier Verifier, hints HintStore, nav Navigator, opts ...Option) *Flow {
	f := &Flow{
		verifier: verifier,
		hints:    hints,
		nav:      nav,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	for _, opt := range opts {
		opt(f)
	}

	email = strings.TrimSpace(email)
	if email != "" {
		_ = hints.Save(email)
	} else if saved, err := hints.Load(); err == nil {
		email = saved
	}
	f.email = email

	if f.email == "" {
		nav.Navigate(RouteLogin)
	}
	return f
}

// Input sets cell i to v. v must be empty or a single digit; anything else is
// ignored and Input returns false. A digit moves focus to the next cell.
func (f *Flow) Input(i int, v string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 || i >= CodeLength || len(v) > 1 || !digitsOnly.MatchString(v) {
		return false
	}
	if f.state == Submitting || f.state == Verified {
		return false
	}

	f.cells[i] = v
	f.focus = i
	if v != "" && i < CodeLength-1 {
		f.focus = i + 1
	}
	if f.state == Failed {
		f.state = Collecting
	}
	return true
}

// Backspace on cell i clears it, or moves focus back when it is already empty.
func (f *Flow) Backspace(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 || i >= CodeLength || f.state == Submitting || f.state == Verified {
		return
	}
	if f.cells[i] != "" {
		f.cells[i] = ""
		f.focus = i
		return
	}
	if i > 0 {
		f.focus = i - 1
	}
}

// Submit sends the entered code. An incomplete code fails locally with
// ErrIncompleteCode. On success the email hint is cleared and the user is
// sent home after RedirectDelay.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.state == Submitting || f.state == Verified {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.email == "" {
		f.mu.Unlock()
		return ErrNoEmail
	}

	f.message = ""
	code := strings.Join(f.cells[:], "")
	if len(code) < CodeLength {
		f.state = Failed
		f.message = ErrIncompleteCode.Error()
		f.mu.Unlock()
		return ErrIncompleteCode
	}

	f.state = Submitting
	email := f.email
	f.mu.Unlock()

	resp, err := f.verifier.VerifyOTP(ctx, email, code)

	f.mu.Lock()
	if err != nil {
		f.state = Failed
		f.message = serverMessage(err, msgVerifyFailed)
		f.mu.Unlock()
		return err
	}

	f.state = Verified
	f.session = resp
	f.message = msgVerified
	if resp != nil && resp.Message != "" {
		f.message = resp.Message
	}
	f.mu.Unlock()

	_ = f.hints.Clear()
	f.after(RedirectDelay, func() { f.nav.Navigate(RouteHome) })
	return nil
}

// Resend asks for a fresh code. The entered digits are kept.
func (f *Flow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.state == Submitting || f.state == Verified {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.email == "" {
		f.mu.Unlock()
		return ErrNoEmail
	}
	email := f.email
	f.message = ""
	f.mu.Unlock()

	msg, err := f.verifier.ResendOTP(ctx, email)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.message = serverMessage(err, msgResendFailed)
		return err
	}
	f.message = msgResent
	if msg != "" {
		f.message = msg
	}
	return nil
}

// Email is the address being verified.
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// Cells returns a copy of the digit cells.
func (f *Flow) Cells() [CodeLength]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cells
}

// Code is the digits entered so far.
func (f *Flow) Code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.cells[:], "")
}

// Focus is the index of the focused cell.
func (f *Flow) Focus() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focus
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message is the latest status line for the user.
func (f *Flow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Session is the verify-otp answer once the flow is Verified.
func (f *Flow) Session() *api.VerifyResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func serverMessage(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
