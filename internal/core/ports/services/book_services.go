package services

import (
	"context"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
)

// BookSvcFacade exposes the aggregate read-only view of the ledger.
type BookSvcFacade interface {
	// GetBook returns all accounts and budgets, the transactions too when
	// full is true, and the sum of non-extern account balances. It reflects
	// the latest committed state and never observes a half-applied mutation.
	GetBook(ctx context.Context, full bool) (*domain.Book, error)
}
