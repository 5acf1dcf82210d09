package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/krishi-auth/pkg/domain"
)

const accountColumns = `id, name, email, password_hash, otp_code, otp_purpose, otp_expires_at,
		       is_verified, created_at, updated_at`

// AccountsRepository handles account persistence in Postgres.
type AccountsRepository struct {
	db *sql.DB
}

// NewAccountsRepository creates a new accounts repository.
func NewAccountsRepository(db *sql.DB) *AccountsRepository {
	return &AccountsRepository{db: db}
}

// Create inserts a new account. A duplicate email yields domain.ErrAccountExists.
func (r *AccountsRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, email, password_hash, otp_code, otp_purpose, otp_expires_at,
		                      is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	code, purpose, expiresAt := codeColumns(account.Code)
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash,
		code, purpose, expiresAt,
		account.Verified, account.CreatedAt, account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrAccountExists
	}
	return err
}

// GetByID retrieves an account by ID.
func (r *AccountsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves an account by exact email.
func (r *AccountsRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1
	`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// Update persists every mutable field of an account and bumps updated_at.
func (r *AccountsRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, email = $3, password_hash = $4, otp_code = $5, otp_purpose = $6,
		    otp_expires_at = $7, is_verified = $8, updated_at = $9
		WHERE id = $1
	`
	code, purpose, expiresAt := codeColumns(account.Code)
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash,
		code, purpose, expiresAt, account.Verified, now,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}
	account.UpdatedAt = now
	return nil
}

func codeColumns(code *domain.PendingCode) (sql.NullString, sql.NullString, sql.NullTime) {
	if code == nil {
		return sql.NullString{}, sql.NullString{}, sql.NullTime{}
	}
	return sql.NullString{String: code.Value, Valid: true},
		sql.NullString{String: string(code.Purpose), Valid: code.Purpose != ""},
		sql.NullTime{Time: code.ExpiresAt, Valid: !code.ExpiresAt.IsZero()}
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var (
		code      sql.NullString
		purpose   sql.NullString
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&account.ID, &account.Name, &account.Email, &account.PasswordHash,
		&code, &purpose, &expiresAt,
		&account.Verified, &account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if code.Valid && code.String != "" {
		account.Code = &domain.PendingCode{
			Value:     code.String,
			Purpose:   domain.CodePurpose(purpose.String),
			ExpiresAt: expiresAt.Time,
		}
	}
	return account, nil
}
