// Package cli is a terminal client for the account API: register or log in,
// type the mailed code, then use the session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tendant/krishi-auth/internal/client/api"
	"github.com/tendant/krishi-auth/internal/client/otpflow"
)

// Config is what the client needs to start.
type Config struct {
	APIURL   string
	StateDir string
}

type App struct {
	client    *api.Client
	hints     otpflow.HintStore
	tokenPath string
	reader    *bufio.Reader
	out       io.Writer
}

// NewApp builds an App. A session token saved by an earlier run is reused.
func NewApp(cfg Config, in io.Reader, out io.Writer, opts ...api.Option) (*App, error) {
	if cfg.APIURL == "" {
		return nil, errors.New("api url is required")
	}
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	a := &App{
		hints:     otpflow.NewFileHints(cfg.StateDir),
		tokenPath: filepath.Join(cfg.StateDir, "session"),
		reader:    bufio.NewReader(in),
		out:       out,
	}

	token, err := a.loadToken()
	if err != nil {
		return nil, err
	}
	if token != "" {
		opts = append(opts, api.WithToken(token))
	}
	a.client = api.New(cfg.APIURL, opts...)
	return a, nil
}

// Run executes a single command when args are given, otherwise it starts
// the interactive loop.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		runREPL(ctx, a, a.status, a.reader, a.out)
		return nil
	}
	err := dispatch(ctx, a, args[0], a.out)
	var unknown ErrUnknownCommand
	if errors.As(err, &unknown) {
		fmt.Fprintln(a.out, err)
	}
	return err
}

func (a *App) isLoggedIn() bool {
	return a.client.Token() != ""
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return "signed in"
	}
	if email, _ := a.hints.Load(); email != "" {
		return "awaiting code for " + email
	}
	return "signed out"
}

func (a *App) Register(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter your email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	resp, err := a.client.Register(ctx, name, email, string(password))
	if err != nil {
		a.println(errorText(err))
		return err
	}
	a.println(resp.Message)
	return a.awaitCode(ctx, resp.User.Email)
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter your email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	resp, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		a.println(errorText(err))
		return err
	}
	a.println(resp.Message)
	return a.awaitCode(ctx, resp.User.Email)
}

// Verify collects the code for the email saved by the last register or login.
func (a *App) Verify(ctx context.Context) error {
	return a.awaitCode(ctx, "")
}

// Resend asks for a new code for the pending email.
func (a *App) Resend(ctx context.Context) error {
	flow := a.newFlow("")
	if flow.Email() == "" {
		return otpflow.ErrNoEmail
	}
	err := flow.Resend(ctx)
	a.println(flow.Message())
	return err
}

func (a *App) Me(ctx context.Context) error {
	user, err := a.client.Me(ctx)
	if err != nil {
		a.println(errorText(err))
		return err
	}
	a.printAccount(user)
	return nil
}

func (a *App) Check(ctx context.Context) error {
	resp, err := a.client.Check(ctx)
	if err != nil {
		a.println(errorText(err))
		return err
	}
	if !resp.LoggedIn || resp.User == nil {
		a.println("Not signed in")
		return nil
	}
	a.println("Signed in as " + resp.User.Email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		a.println(errorText(err))
		return err
	}
	if err := a.clearToken(); err != nil {
		return err
	}
	a.println("Logged out")
	return nil
}

func (a *App) newFlow(email string) *otpflow.Flow {
	nav := otpflow.NavigatorFunc(func(route string) {
		switch route {
		case otpflow.RouteLogin:
			a.println("No email is waiting for a code. Run register or login first.")
		case otpflow.RouteHome:
			a.println("You are signed in.")
		}
	})
	// The terminal has nothing to show during the redirect delay.
	now := func(_ time.Duration, fn func()) { fn() }
	return otpflow.New(email, a.client, a.hints, nav, otpflow.WithAfterFunc(now))
}

// awaitCode prompts until the code is accepted or input ends. Typing
// "resend" requests a fresh code.
func (a *App) awaitCode(ctx context.Context, email string) error {
	flow := a.newFlow(email)
	if flow.Email() == "" {
		return otpflow.ErrNoEmail
	}

	for {
		line, err := GetSimpleText(a.reader, fmt.Sprintf("Enter the %d-digit code sent to %s (or \"resend\")", otpflow.CodeLength, flow.Email()), a.out)
		if err != nil {
			return err
		}

		if strings.EqualFold(line, "resend") {
			_ = flow.Resend(ctx)
			a.println(flow.Message())
			continue
		}

		if !fillCode(flow, line) {
			a.println("Only digits are allowed")
			continue
		}

		err = flow.Submit(ctx)
		a.println(flow.Message())
		if err == nil {
			return a.saveToken(a.client.Token())
		}
		if errors.Is(err, otpflow.ErrBusy) {
			return err
		}
	}
}

// fillCode replaces the flow's cells with line, one character per cell.
func fillCode(flow *otpflow.Flow, line string) bool {
	for i := otpflow.CodeLength - 1; i >= 0; i-- {
		flow.Input(i, "")
	}
	if len(line) > otpflow.CodeLength {
		return false
	}
	for i, ch := range line {
		if !flow.Input(i, string(ch)) {
			return false
		}
	}
	return true
}

func (a *App) printAccount(user *api.Account) {
	fmt.Fprintf(a.out, "Name:     %s\n", user.Name)
	fmt.Fprintf(a.out, "Email:    %s\n", user.Email)
	fmt.Fprintf(a.out, "Verified: %t\n", user.IsVerified)
	if !user.CreatedAt.IsZero() {
		fmt.Fprintf(a.out, "Joined:   %s\n", user.CreatedAt.Format(time.DateOnly))
	}
}

func (a *App) println(msg string) {
	if msg != "" {
		fmt.Fprintln(a.out, msg)
	}
}

func (a *App) loadToken() (string, error) {
	data, err := os.ReadFile(a.tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *App) saveToken(token string) error {
	if token == "" {
		return a.clearToken()
	}
	return os.WriteFile(a.tokenPath, []byte(token+"\n"), 0o600)
}

func (a *App) clearToken() error {
	err := os.Remove(a.tokenPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func errorText(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
