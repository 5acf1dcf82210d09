package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/krishi-auth/pkg/domain"
)

// AccountStore persists accounts. Implementations return domain.ErrAccountNotFound
// for missing rows and domain.ErrAccountExists for duplicate emails on Create.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
}

// CodeSender delivers one-time codes out of band.
type CodeSender interface {
	SendCode(ctx context.Context, to, code string, purpose domain.CodePurpose) error
}
