package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	portsrepo "github.com/mkbook/bookkeeping_backend/internal/core/ports/repositories"
	portssvc "github.com/mkbook/bookkeeping_backend/internal/core/ports/services"
)

type bookService struct {
	baseService
}

// NewBookService creates a new BookService sharing the book's lock.
func NewBookService(repos *portsrepo.RepositoryProvider, mu *sync.RWMutex) portssvc.BookSvcFacade {
	return &bookService{baseService{repos: repos, mu: mu}}
}

var _ portssvc.BookSvcFacade = (*bookService)(nil)

// GetBook implements portssvc.BookSvcFacade. The whole aggregate is read
// under one read lock, so it always reflects a consistent ledger state.
func (s *bookService) GetBook(ctx context.Context, full bool) (*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.repos.AccountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	budgets, err := s.repos.BudgetRepo.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	// Extern accounts model the outside world; they do not count towards
	// the money actually owned.
	balance := decimal.Zero
	for _, account := range accounts {
		if account.Extern {
			continue
		}
		balance = balance.Add(account.Balance)
	}

	book := &domain.Book{
		Accounts: accounts,
		Budgets:  budgets,
		Balance:  balance,
	}
	if full {
		txns, err := s.repos.TransactionRepo.ListTransactions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}
		book.Transactions = txns
	}
	return book, nil
}
