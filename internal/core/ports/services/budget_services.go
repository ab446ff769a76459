package services

import (
	"context"
	"time"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/mkbook/bookkeeping_backend/internal/dto"
)

// BudgetSvcFacade defines the engine operations on budgets exposed to the
// API surface.
type BudgetSvcFacade interface {
	// CreateBudget validates the request, assigns an id and stores the
	// budget with its balance set to the allotted amount.
	CreateBudget(ctx context.Context, req dto.CreateBudgetRequest) (*domain.Budget, error)

	// GetBudgetByID returns the budget or apperrors.ErrNotFound.
	GetBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error)

	// ListBudgets returns all budgets.
	ListBudgets(ctx context.Context) ([]domain.Budget, error)

	// UpdateBudget changes name/target. A target change shifts the balance
	// by the same delta so the spent amount is preserved.
	UpdateBudget(ctx context.Context, budgetID string, req dto.UpdateBudgetRequest) (*domain.Budget, error)

	// DeleteBudget removes the budget, rebooking its transaction shares
	// onto replacementID when given, or rescaling them away otherwise.
	DeleteBudget(ctx context.Context, budgetID string, replacementID string) error

	// GetBudgetHistory replays the budget's transactions inside the
	// optional [from, to] range (zero time = unbounded) and returns the
	// remaining allowance after each one.
	GetBudgetHistory(ctx context.Context, budgetID string, from, to time.Time) ([]dto.HistoryPoint, error)
}
