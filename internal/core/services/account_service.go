package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	portsrepo "github.com/mkbook/bookkeeping_backend/internal/core/ports/repositories"
	portssvc "github.com/mkbook/bookkeeping_backend/internal/core/ports/services"
	"github.com/mkbook/bookkeeping_backend/internal/dto"
	"github.com/mkbook/bookkeeping_backend/internal/utils/accounting"
)

type accountService struct {
	baseService
}

// NewAccountService creates a new AccountService sharing the book's lock.
func NewAccountService(repos *portsrepo.RepositoryProvider, mu *sync.RWMutex) portssvc.AccountSvcFacade {
	return &accountService{baseService{repos: repos, mu: mu}}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount implements portssvc.AccountSvcFacade. New accounts start at
// balance zero; only booked transactions move it.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	logger := s.GetLogger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	account := domain.Account{
		AccountID: uuid.NewString(),
		Name:      req.Name,
		Extern:    req.Extern,
		Balance:   decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := s.repos.AccountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.Bool("extern", account.Extern))
	return &account, nil
}

// GetAccountByID implements portssvc.AccountSvcFacade.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, err := s.repos.AccountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return account, nil
}

// ListAccounts implements portssvc.AccountSvcFacade.
func (s *accountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.repos.AccountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount implements portssvc.AccountSvcFacade.
func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error) {
	logger := s.GetLogger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.repos.AccountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Extern != nil {
		account.Extern = *req.Extern
	}
	account.LastUpdatedAt = time.Now().UTC()

	if err := s.repos.AccountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update account %s: %w", accountID, err)
	}

	logger.Info("Account updated", slog.String("account_id", accountID))
	return account, nil
}

// DeleteAccount implements portssvc.AccountSvcFacade.
func (s *accountService) DeleteAccount(ctx context.Context, accountID string, replacementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.repos.AccountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	return s.rebookEntity(ctx, account.Ref(), replacementID)
}

// GetAccountHistory implements portssvc.AccountSvcFacade.
func (s *accountService) GetAccountHistory(ctx context.Context, accountID string, from, to time.Time) ([]dto.HistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.repos.AccountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	txns, err := s.repos.TransactionRepo.FindTransactionsByEntity(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions of account %s: %w", accountID, err)
	}

	return replayHistory(txns, accountID, decimal.Zero, from, to), nil
}

// replayHistory walks the entity's transactions in book order, keeping a
// running balance from the given starting point, and emits one point per
// transaction whose date falls inside the optional [from, to] range.
func replayHistory(txns []domain.Transaction, entityID string, start decimal.Decimal, from, to time.Time) []dto.HistoryPoint {
	points := make([]dto.HistoryPoint, 0, len(txns))
	balance := start
	for _, txn := range txns {
		balance = balance.Add(accounting.NetChange(txn, entityID))
		if !from.IsZero() && txn.Date.Before(from) {
			continue
		}
		if !to.IsZero() && txn.Date.After(to) {
			continue
		}
		points = append(points, dto.HistoryPoint{
			Date:    txn.Date.Format(dto.DateLayout),
			Balance: balance,
		})
	}
	return points
}
