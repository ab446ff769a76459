package repositories

import (
	"context"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
)

// TransactionReader defines read operations for transaction data.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction with its entries.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves all transactions ordered by date, then
	// creation time.
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)

	// FindTransactionsByEntity retrieves all transactions referencing the
	// entity on either side, ordered by date, then creation time.
	FindTransactionsByEntity(ctx context.Context, entityID string) ([]domain.Transaction, error)
}

// TransactionWriter defines the mutating operations of the ledger. Each call
// is atomic: the transaction rows and every affected balance change together
// or not at all.
type TransactionWriter interface {
	// SaveTransaction inserts the transaction and applies the balance
	// changes of all referenced entities.
	SaveTransaction(ctx context.Context, txn domain.Transaction, changes map[string]domain.BalanceChange) error

	// DeleteTransaction removes the transaction and applies the inverse
	// balance changes.
	DeleteTransaction(ctx context.Context, transactionID string, changes map[string]domain.BalanceChange) error

	// ApplyRebook executes a rebooking plan: rewrites the listed
	// transactions, removes the emptied ones, adjusts the remaining
	// entities' balances and deletes the rebooked entity's record.
	ApplyRebook(ctx context.Context, plan domain.RebookPlan) error
}

// TransactionRepositoryFacade combines all transaction repository capabilities.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
