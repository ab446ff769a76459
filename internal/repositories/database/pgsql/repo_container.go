package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/mkbook/bookkeeping_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the Postgres-backed repositories. The
// transaction repository gets the entity repositories so bookings can update
// balances inside the same database transaction.
func NewRepositoryProvider(dbPool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	budgetRepo := newPgxBudgetRepository(dbPool)
	transactionRepo := newPgxTransactionRepository(dbPool, accountRepo, budgetRepo)

	return &portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		BudgetRepo:      budgetRepo,
		TransactionRepo: transactionRepo,
	}
}
