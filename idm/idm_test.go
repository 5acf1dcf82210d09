package idm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/krishi-auth/pkg/domain"
	"github.com/tendant/krishi-auth/pkg/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type captureSender struct {
	mu   sync.Mutex
	last string
}

func (c *captureSender) SendCode(_ context.Context, _, code string, _ domain.CodePurpose) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = code
	return nil
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"no store", Config{JWTSecret: testSecret}, "DB or Store is required"},
		{"no secret", Config{Store: repository.NewMemoryAccounts()}, "JWTSecret is required"},
		{"short secret", Config{Store: repository.NewMemoryAccounts(), JWTSecret: "short"}, "at least 32 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_SchemaCheck(t *testing.T) {
	t.Run("missing table", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT table_name").WithArgs("accounts").WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

		_, err = New(Config{DB: db, JWTSecret: testSecret})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing table 'accounts'")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("table present", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT table_name").WithArgs("accounts").WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("accounts"))

		_, err = New(Config{DB: db, JWTSecret: testSecret})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIDM_MountedRouter(t *testing.T) {
	sender := &captureSender{}
	accounts, err := New(Config{
		Store:     repository.NewMemoryAccounts(),
		JWTSecret: testSecret,
		Sender:    sender,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/api", accounts.Router())
	r.With(accounts.AuthMiddleware()).Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		account, ok := GetAccount(r)
		require.True(t, ok)
		io.WriteString(w, "hello "+account.Name)
	})

	post := func(path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		return rec
	}

	rec := post("/api/register", `{"name":"Asha","email":"asha@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = post("/api/verify-otp", `{"email":"asha@example.com","otp":"`+sender.last+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var verified struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&verified))

	// Unauthenticated.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+verified.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello Asha", rec.Body.String())
}

func TestGetAccount_Anonymous(t *testing.T) {
	_, ok := GetAccount(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}
