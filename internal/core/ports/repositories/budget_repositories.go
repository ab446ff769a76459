package repositories

import (
	"context"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
)

// BudgetReader defines read operations for budget data.
type BudgetReader interface {
	// FindBudgetByID retrieves a specific budget by its unique identifier.
	FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error)

	// FindBudgetsByIDs retrieves multiple budgets by their IDs. Missing ids
	// are simply absent from the returned map.
	FindBudgetsByIDs(ctx context.Context, budgetIDs []string) (map[string]domain.Budget, error)

	// ListBudgets retrieves all budgets ordered by creation time.
	ListBudgets(ctx context.Context) ([]domain.Budget, error)
}

// BudgetWriter defines write operations for budget data. The balance column
// only moves here when the budget target changes; transaction effects are
// applied by the transaction repository's atomic operations.
type BudgetWriter interface {
	// SaveBudget inserts a new budget.
	SaveBudget(ctx context.Context, budget domain.Budget) error

	// UpdateBudget persists name/target/balance changes of an existing budget.
	UpdateBudget(ctx context.Context, budget domain.Budget) error
}

// BudgetRepositoryFacade combines all budget repository capabilities.
type BudgetRepositoryFacade interface {
	BudgetReader
	BudgetWriter
}
