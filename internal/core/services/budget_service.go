package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	portsrepo "github.com/mkbook/bookkeeping_backend/internal/core/ports/repositories"
	portssvc "github.com/mkbook/bookkeeping_backend/internal/core/ports/services"
	"github.com/mkbook/bookkeeping_backend/internal/dto"
)

type budgetService struct {
	baseService
}

// NewBudgetService creates a new BudgetService sharing the book's lock.
func NewBudgetService(repos *portsrepo.RepositoryProvider, mu *sync.RWMutex) portssvc.BudgetSvcFacade {
	return &budgetService{baseService{repos: repos, mu: mu}}
}

var _ portssvc.BudgetSvcFacade = (*budgetService)(nil)

// CreateBudget implements portssvc.BudgetSvcFacade. The balance starts at the
// allotted amount and spending draws it down.
func (s *budgetService) CreateBudget(ctx context.Context, req dto.CreateBudgetRequest) (*domain.Budget, error) {
	logger := s.GetLogger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	budget := domain.Budget{
		BudgetID: uuid.NewString(),
		Name:     req.Name,
		Budget:   req.Budget,
		Balance:  req.Budget,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := s.repos.BudgetRepo.SaveBudget(ctx, budget); err != nil {
		logger.Error("Failed to save budget", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save budget: %w", err)
	}

	logger.Info("Budget created", slog.String("budget_id", budget.BudgetID), slog.String("budget", budget.Budget.String()))
	return &budget, nil
}

// GetBudgetByID implements portssvc.BudgetSvcFacade.
func (s *budgetService) GetBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	budget, err := s.repos.BudgetRepo.FindBudgetByID(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}
	return budget, nil
}

// ListBudgets implements portssvc.BudgetSvcFacade.
func (s *budgetService) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	budgets, err := s.repos.BudgetRepo.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return budgets, nil
}

// UpdateBudget implements portssvc.BudgetSvcFacade. Changing the allotted
// amount shifts the balance by the same delta, so what was already spent
// stays spent.
func (s *budgetService) UpdateBudget(ctx context.Context, budgetID string, req dto.UpdateBudgetRequest) (*domain.Budget, error) {
	logger := s.GetLogger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	budget, err := s.repos.BudgetRepo.FindBudgetByID(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}

	if req.Name != nil {
		budget.Name = *req.Name
	}
	if req.Budget != nil {
		delta := req.Budget.Sub(budget.Budget)
		budget.Budget = *req.Budget
		budget.Balance = budget.Balance.Add(delta)
	}
	budget.LastUpdatedAt = time.Now().UTC()

	if err := s.repos.BudgetRepo.UpdateBudget(ctx, *budget); err != nil {
		logger.Error("Failed to update budget", slog.String("budget_id", budgetID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update budget %s: %w", budgetID, err)
	}

	logger.Info("Budget updated", slog.String("budget_id", budgetID))
	return budget, nil
}

// DeleteBudget implements portssvc.BudgetSvcFacade.
func (s *budgetService) DeleteBudget(ctx context.Context, budgetID string, replacementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	budget, err := s.repos.BudgetRepo.FindBudgetByID(ctx, budgetID)
	if err != nil {
		return fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}

	return s.rebookEntity(ctx, budget.Ref(), replacementID)
}

// GetBudgetHistory implements portssvc.BudgetSvcFacade. The replay starts at
// the allotted amount, mirroring how the live balance is maintained.
func (s *budgetService) GetBudgetHistory(ctx context.Context, budgetID string, from, to time.Time) ([]dto.HistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	budget, err := s.repos.BudgetRepo.FindBudgetByID(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}

	txns, err := s.repos.TransactionRepo.FindTransactionsByEntity(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions of budget %s: %w", budgetID, err)
	}

	return replayHistory(txns, budgetID, budget.Budget, from, to), nil
}
