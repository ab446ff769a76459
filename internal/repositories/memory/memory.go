// Package memory holds an in-process implementation of the repository ports.
// It backs tests and the DATA_BACKEND=memory mode, where the ledger lives only
// for the lifetime of the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mkbook/bookkeeping_backend/internal/apperrors"
	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	portsrepo "github.com/mkbook/bookkeeping_backend/internal/core/ports/repositories"
)

// Store keeps the whole ledger in maps plus insertion-order id slices. One
// Store implements all three repository facades; NewRepositoryProvider hands
// it out under each port.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]domain.Account
	accountOrder []string

	budgets     map[string]domain.Budget
	budgetOrder []string

	transactions map[string]domain.Transaction
	txnOrder     []string
}

// NewStore creates an empty in-memory ledger store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		budgets:      make(map[string]domain.Budget),
		transactions: make(map[string]domain.Transaction),
	}
}

// NewRepositoryProvider wraps a fresh Store in the provider the service
// container expects.
func NewRepositoryProvider() *portsrepo.RepositoryProvider {
	s := NewStore()
	return &portsrepo.RepositoryProvider{
		AccountRepo:     s,
		BudgetRepo:      s,
		TransactionRepo: s,
	}
}

var (
	_ portsrepo.AccountRepositoryFacade     = (*Store)(nil)
	_ portsrepo.BudgetRepositoryFacade      = (*Store)(nil)
	_ portsrepo.TransactionRepositoryFacade = (*Store)(nil)
)

// FindAccountByID implements portsrepo.AccountReader.
func (s *Store) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

// FindAccountsByIDs implements portsrepo.AccountReader.
func (s *Store) FindAccountsByIDs(_ context.Context, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := s.accounts[id]; ok {
			found[id] = account
		}
	}
	return found, nil
}

// ListAccounts implements portsrepo.AccountReader.
func (s *Store) ListAccounts(_ context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accountOrder))
	for _, id := range s.accountOrder {
		accounts = append(accounts, s.accounts[id])
	}
	return accounts, nil
}

// SaveAccount implements portsrepo.AccountWriter.
func (s *Store) SaveAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.AccountID]; ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}
	s.accounts[account.AccountID] = account
	s.accountOrder = append(s.accountOrder, account.AccountID)
	return nil
}

// UpdateAccount implements portsrepo.AccountWriter.
func (s *Store) UpdateAccount(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.AccountID]; !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, account.AccountID)
	}
	s.accounts[account.AccountID] = account
	return nil
}

// FindBudgetByID implements portsrepo.BudgetReader.
func (s *Store) FindBudgetByID(_ context.Context, budgetID string) (*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	budget, ok := s.budgets[budgetID]
	if !ok {
		return nil, fmt.Errorf("%w: budget %s", apperrors.ErrNotFound, budgetID)
	}
	return &budget, nil
}

// FindBudgetsByIDs implements portsrepo.BudgetReader.
func (s *Store) FindBudgetsByIDs(_ context.Context, budgetIDs []string) (map[string]domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]domain.Budget, len(budgetIDs))
	for _, id := range budgetIDs {
		if budget, ok := s.budgets[id]; ok {
			found[id] = budget
		}
	}
	return found, nil
}

// ListBudgets implements portsrepo.BudgetReader.
func (s *Store) ListBudgets(_ context.Context) ([]domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	budgets := make([]domain.Budget, 0, len(s.budgetOrder))
	for _, id := range s.budgetOrder {
		budgets = append(budgets, s.budgets[id])
	}
	return budgets, nil
}

// SaveBudget implements portsrepo.BudgetWriter.
func (s *Store) SaveBudget(_ context.Context, budget domain.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[budget.BudgetID]; ok {
		return fmt.Errorf("%w: budget %s", apperrors.ErrDuplicate, budget.BudgetID)
	}
	s.budgets[budget.BudgetID] = budget
	s.budgetOrder = append(s.budgetOrder, budget.BudgetID)
	return nil
}

// UpdateBudget implements portsrepo.BudgetWriter.
func (s *Store) UpdateBudget(_ context.Context, budget domain.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[budget.BudgetID]; !ok {
		return fmt.Errorf("%w: budget %s", apperrors.ErrNotFound, budget.BudgetID)
	}
	s.budgets[budget.BudgetID] = budget
	return nil
}

// FindTransactionByID implements portsrepo.TransactionReader.
func (s *Store) FindTransactionByID(_ context.Context, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}
	clone := txn.Clone()
	return &clone, nil
}

// ListTransactions implements portsrepo.TransactionReader.
func (s *Store) ListTransactions(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedTransactions(func(domain.Transaction) bool { return true }), nil
}

// FindTransactionsByEntity implements portsrepo.TransactionReader.
func (s *Store) FindTransactionsByEntity(_ context.Context, entityID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedTransactions(func(t domain.Transaction) bool { return t.References(entityID) }), nil
}

// sortedTransactions returns clones of the matching transactions ordered by
// date, then creation time, then insertion order as the final tiebreaker.
// Callers must hold at least the read lock.
func (s *Store) sortedTransactions(match func(domain.Transaction) bool) []domain.Transaction {
	position := make(map[string]int, len(s.txnOrder))
	txns := make([]domain.Transaction, 0, len(s.txnOrder))
	for i, id := range s.txnOrder {
		position[id] = i
		if txn := s.transactions[id]; match(txn) {
			txns = append(txns, txn.Clone())
		}
	}
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		if !txns[i].CreatedAt.Equal(txns[j].CreatedAt) {
			return txns[i].CreatedAt.Before(txns[j].CreatedAt)
		}
		return position[txns[i].TransactionID] < position[txns[j].TransactionID]
	})
	return txns
}

// SaveTransaction implements portsrepo.TransactionWriter.
func (s *Store) SaveTransaction(_ context.Context, txn domain.Transaction, changes map[string]domain.BalanceChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[txn.TransactionID]; ok {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, txn.TransactionID)
	}
	if err := s.checkBalanceChanges(changes); err != nil {
		return err
	}

	s.transactions[txn.TransactionID] = txn.Clone()
	s.txnOrder = append(s.txnOrder, txn.TransactionID)
	s.applyBalanceChanges(changes)
	return nil
}

// DeleteTransaction implements portsrepo.TransactionWriter.
func (s *Store) DeleteTransaction(_ context.Context, transactionID string, changes map[string]domain.BalanceChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[transactionID]; !ok {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}
	if err := s.checkBalanceChanges(changes); err != nil {
		return err
	}

	s.removeTransaction(transactionID)
	s.applyBalanceChanges(changes)
	return nil
}

// ApplyRebook implements portsrepo.TransactionWriter. The in-memory store is
// mutated only after every referenced record was verified, which keeps the
// all-or-nothing contract without a real transaction.
func (s *Store) ApplyRebook(_ context.Context, plan domain.RebookPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch plan.Entity.Kind {
	case domain.KindAccount:
		if _, ok := s.accounts[plan.Entity.EntityID]; !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, plan.Entity.EntityID)
		}
	case domain.KindBudget:
		if _, ok := s.budgets[plan.Entity.EntityID]; !ok {
			return fmt.Errorf("%w: budget %s", apperrors.ErrNotFound, plan.Entity.EntityID)
		}
	default:
		return fmt.Errorf("%w: unknown entity kind %q", apperrors.ErrValidation, plan.Entity.Kind)
	}
	for _, txn := range plan.Rewritten {
		if _, ok := s.transactions[txn.TransactionID]; !ok {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, txn.TransactionID)
		}
	}
	for _, id := range plan.Removed {
		if _, ok := s.transactions[id]; !ok {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, id)
		}
	}
	if err := s.checkBalanceChanges(plan.Changes); err != nil {
		return err
	}

	for _, txn := range plan.Rewritten {
		s.transactions[txn.TransactionID] = txn.Clone()
	}
	for _, id := range plan.Removed {
		s.removeTransaction(id)
	}
	s.applyBalanceChanges(plan.Changes)

	if plan.Entity.Kind == domain.KindAccount {
		delete(s.accounts, plan.Entity.EntityID)
		s.accountOrder = removeID(s.accountOrder, plan.Entity.EntityID)
	} else {
		delete(s.budgets, plan.Entity.EntityID)
		s.budgetOrder = removeID(s.budgetOrder, plan.Entity.EntityID)
	}
	return nil
}

// checkBalanceChanges verifies every referenced entity exists. Callers must
// hold the write lock and call this before mutating anything.
func (s *Store) checkBalanceChanges(changes map[string]domain.BalanceChange) error {
	for id, change := range changes {
		switch change.Kind {
		case domain.KindAccount:
			if _, ok := s.accounts[id]; !ok {
				return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
			}
		case domain.KindBudget:
			if _, ok := s.budgets[id]; !ok {
				return fmt.Errorf("%w: budget %s", apperrors.ErrNotFound, id)
			}
		default:
			return fmt.Errorf("%w: unknown entity kind %q for %s", apperrors.ErrValidation, change.Kind, id)
		}
	}
	return nil
}

func (s *Store) applyBalanceChanges(changes map[string]domain.BalanceChange) {
	for id, change := range changes {
		if change.Kind == domain.KindAccount {
			account := s.accounts[id]
			account.Balance = account.Balance.Add(change.Delta)
			s.accounts[id] = account
		} else {
			budget := s.budgets[id]
			budget.Balance = budget.Balance.Add(change.Delta)
			s.budgets[id] = budget
		}
	}
}

func (s *Store) removeTransaction(transactionID string) {
	delete(s.transactions, transactionID)
	s.txnOrder = removeID(s.txnOrder, transactionID)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
