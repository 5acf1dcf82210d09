package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, func() []recorded) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
		_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_VerifyKeepsToken(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/verify-otp":
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "Authentication successful",
				"token":   "jwt-token",
				"user":    map[string]any{"id": "1", "name": "Asha", "email": "asha@example.com", "isVerified": true},
			})
		case "/api/getme":
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"user":    map[string]any{"id": "1", "name": "Asha", "email": "asha@example.com", "isVerified": true},
			})
		}
	})

	c := New(srv.URL + "/api/")
	resp, err := c.VerifyOTP(context.Background(), "asha@example.com", "482913")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", resp.Token)
	assert.True(t, resp.User.IsVerified)
	assert.Equal(t, "jwt-token", c.Token())

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Asha", me.Name)

	require.Len(t, calls(), 2)
	assert.Equal(t, "482913", calls()[0].Body["otp"])
	assert.Empty(t, calls()[0].Auth)
	assert.Equal(t, "Bearer jwt-token", calls()[1].Auth)
}

func TestClient_APIError(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid OTP"})
	})

	c := New(srv.URL)
	_, err := c.VerifyOTP(context.Background(), "asha@example.com", "000000")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid OTP", apiErr.Message)
	assert.Equal(t, "Invalid OTP", err.Error())
	assert.Empty(t, c.Token())
}

func TestClient_APIError_NonJSON(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := New(srv.URL).Check(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "api: status 502", err.Error())
}

func TestClient_RegisterLoginResend(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/register":
			writeJSON(w, http.StatusCreated, map[string]any{"message": "User created. OTP sent for verification", "step": "verifyOtp", "user": map[string]any{"id": "1", "name": "Asha", "email": "asha@example.com"}})
		case "/login":
			writeJSON(w, http.StatusOK, map[string]any{"message": "OTP sent for login verification", "step": "verifyOtp", "user": map[string]any{"id": "1"}})
		case "/otp/resend":
			writeJSON(w, http.StatusOK, map[string]string{"message": "Verification code sent successfully to your email"})
		}
	})

	c := New(srv.URL)
	ctx := context.Background()

	reg, err := c.Register(ctx, "Asha", "asha@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "verifyOtp", reg.Step)

	login, err := c.Login(ctx, "asha@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "OTP sent for login verification", login.Message)

	msg, err := c.ResendOTP(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Verification code sent successfully to your email", msg)

	require.Len(t, calls(), 3)
	assert.Equal(t, map[string]any{"name": "Asha", "email": "asha@example.com", "password": "s3cret"}, calls()[0].Body)
}

func TestClient_LogoutForgetsToken(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logout":
			writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
		case "/check":
			writeJSON(w, http.StatusOK, map[string]any{"loggedIn": false})
		}
	})

	c := New(srv.URL, WithToken("old"))
	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, c.Token())

	check, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, check.LoggedIn)
	assert.Nil(t, check.User)

	assert.Equal(t, "Bearer old", calls()[0].Auth)
	assert.Empty(t, calls()[1].Auth)
}
