package services

import (
	"context"
	"io"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/mkbook/bookkeeping_backend/internal/dto"
)

// TransactionSvcFacade defines the engine operations on transactions exposed
// to the API surface.
type TransactionSvcFacade interface {
	// CreateTransaction validates and applies the transaction: value split
	// evenly across each side, every referenced entity's balance updated,
	// all-or-nothing.
	CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest) (*domain.Transaction, error)

	// GetTransactionByID returns the transaction or apperrors.ErrNotFound.
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions returns all transactions ordered by date.
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)

	// DeleteTransaction reverses the transaction's balance effects and
	// removes it. Exact inverse of CreateTransaction.
	DeleteTransaction(ctx context.Context, transactionID string) error

	// ImportStatement parses a bank CSV export and books one transaction
	// per row between the configured account and counterparty.
	ImportStatement(ctx context.Context, r io.Reader, opts dto.ImportStatementOptions) ([]domain.Transaction, error)
}
