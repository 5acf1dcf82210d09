package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI answers like the account server for a single user whose code is 482913.
type fakeAPI struct {
	mu       sync.Mutex
	resends  int
	lastAuth string
}

func (f *fakeAPI) handler() http.Handler {
	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	user := map[string]any{"id": "1", "name": "Asha", "email": "asha@example.com", "isVerified": true}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusCreated, map[string]any{
			"message": "Registration successful. Please verify your email with the OTP sent.",
			"step":    "verify-otp",
			"user":    map[string]any{"id": "1", "name": "Asha", "email": "asha@example.com"},
		})
	})
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "kheti-2024" {
			write(w, http.StatusBadRequest, map[string]string{"message": "Invalid credentials"})
			return
		}
		write(w, http.StatusOK, map[string]any{"message": "OTP sent to your email", "step": "verify-otp", "user": user})
	})
	mux.HandleFunc("POST /api/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["otp"] != "482913" {
			write(w, http.StatusBadRequest, map[string]string{"message": "Invalid OTP"})
			return
		}
		write(w, http.StatusOK, map[string]any{"message": "OTP verified successfully", "token": "session-token", "user": user})
	})
	mux.HandleFunc("POST /api/otp/resend", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.resends++
		f.mu.Unlock()
		write(w, http.StatusOK, map[string]string{"message": "OTP resent"})
	})
	mux.HandleFunc("GET /api/getme", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer session-token" {
			write(w, http.StatusUnauthorized, map[string]string{"message": "Access denied. No token provided."})
			return
		}
		write(w, http.StatusOK, map[string]any{"success": true, "user": user})
	})
	mux.HandleFunc("GET /api/check", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer session-token" {
			write(w, http.StatusOK, map[string]any{"loggedIn": false})
			return
		}
		write(w, http.StatusOK, map[string]any{"loggedIn": true, "user": user})
	})
	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
	})
	return mux
}

func (f *fakeAPI) snapshot() (resends int, lastAuth string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resends, f.lastAuth
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = old })
}

func newTestApp(t *testing.T, api *fakeAPI, stateDir, input string) (*App, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	app, err := NewApp(Config{APIURL: srv.URL + "/api", StateDir: stateDir}, strings.NewReader(input), &out)
	require.NoError(t, err)
	return app, &out
}

func TestApp_RegisterThenVerify(t *testing.T) {
	stubPassword(t, "kheti-2024")
	api := &fakeAPI{}
	dir := t.TempDir()

	app, out := newTestApp(t, api, dir, strings.Join([]string{
		"Asha",
		"asha@example.com",
		"12ab56",
		"000000",
		"resend",
		"482913",
	}, "\n")+"\n")

	require.NoError(t, app.Run(context.Background(), []string{"register"}))

	text := out.String()
	assert.Contains(t, text, "Please verify your email")
	assert.Contains(t, text, "Only digits are allowed")
	assert.Contains(t, text, "Invalid OTP")
	assert.Contains(t, text, "OTP resent")
	assert.Contains(t, text, "OTP verified successfully")
	assert.Contains(t, text, "You are signed in.")
	resends, _ := api.snapshot()
	assert.Equal(t, 1, resends)

	token, err := os.ReadFile(filepath.Join(dir, "session"))
	require.NoError(t, err)
	assert.Equal(t, "session-token\n", string(token))

	_, err = os.Stat(filepath.Join(dir, "otp-email"))
	assert.True(t, os.IsNotExist(err))
}

func TestApp_ShortCodeIsRejectedLocally(t *testing.T) {
	stubPassword(t, "kheti-2024")
	app, out := newTestApp(t, &fakeAPI{}, t.TempDir(), "asha@example.com\n123\n482913\n")

	require.NoError(t, app.Run(context.Background(), []string{"login"}))
	assert.Contains(t, out.String(), "Please enter the complete 6-digit verification code")
	assert.Contains(t, out.String(), "OTP verified successfully")
}

func TestApp_LoginWrongPassword(t *testing.T) {
	stubPassword(t, "wrong")
	app, out := newTestApp(t, &fakeAPI{}, t.TempDir(), "asha@example.com\n")

	require.Error(t, app.Run(context.Background(), []string{"login"}))
	assert.Contains(t, out.String(), "Invalid credentials")
}

func TestApp_VerifyWithoutPendingEmail(t *testing.T) {
	app, out := newTestApp(t, &fakeAPI{}, t.TempDir(), "")

	require.Error(t, app.Run(context.Background(), []string{"verify"}))
	assert.Contains(t, out.String(), "Run register or login first")
}

func TestApp_SavedSessionIsReused(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session"), []byte("session-token\n"), 0o600))
	api := &fakeAPI{}

	app, out := newTestApp(t, api, dir, "")
	require.NoError(t, app.Run(context.Background(), []string{"me"}))
	_, lastAuth := api.snapshot()
	assert.Equal(t, "Bearer session-token", lastAuth)
	assert.Contains(t, out.String(), "Email:    asha@example.com")

	require.NoError(t, app.Run(context.Background(), []string{"check"}))
	assert.Contains(t, out.String(), "Signed in as asha@example.com")

	require.NoError(t, app.Run(context.Background(), []string{"logout"}))
	_, err := os.Stat(filepath.Join(dir, "session"))
	assert.True(t, os.IsNotExist(err))

	require.Error(t, app.Run(context.Background(), []string{"me"}))
	assert.Contains(t, out.String(), "Access denied. No token provided.")
}

func TestApp_UnknownCommand(t *testing.T) {
	app, _ := newTestApp(t, &fakeAPI{}, t.TempDir(), "")
	err := app.Run(context.Background(), []string{"plant"})
	assert.EqualError(t, err, "unknown command: plant")
}

func TestNewApp_RequiresURL(t *testing.T) {
	_, err := NewApp(Config{StateDir: t.TempDir()}, strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}
