package services

import (
	"context"
	"time"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/mkbook/bookkeeping_backend/internal/dto"
)

// AccountSvcFacade defines the engine operations on accounts exposed to the
// API surface.
type AccountSvcFacade interface {
	// CreateAccount validates the request, assigns an id and stores the account.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error)

	// GetAccountByID returns the account or apperrors.ErrNotFound.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts returns all accounts.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// UpdateAccount changes name/extern. Balance is never client-settable.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error)

	// DeleteAccount removes the account, rebooking its transaction shares
	// onto replacementID when given, or rescaling them away otherwise.
	DeleteAccount(ctx context.Context, accountID string, replacementID string) error

	// GetAccountHistory replays the account's transactions inside the
	// optional [from, to] range (zero time = unbounded) and returns the
	// running balance after each one.
	GetAccountHistory(ctx context.Context, accountID string, from, to time.Time) ([]dto.HistoryPoint, error)
}
