package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkbook/bookkeeping_backend/internal/apperrors"
	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	portsrepo "github.com/mkbook/bookkeeping_backend/internal/core/ports/repositories"
	portssvc "github.com/mkbook/bookkeeping_backend/internal/core/ports/services"
	"github.com/mkbook/bookkeeping_backend/internal/dto"
	"github.com/mkbook/bookkeeping_backend/internal/utils/accounting"
	"github.com/mkbook/bookkeeping_backend/internal/utils/csvimport"
)

// transactionService applies and removes transactions. It owns the split
// policy: the value is divided evenly across each side with the rounding
// remainder assigned to the first entity, so debits and credits each sum
// exactly to the value.
type transactionService struct {
	baseService
}

// NewTransactionService creates a new TransactionService sharing the book's lock.
func NewTransactionService(repos *portsrepo.RepositoryProvider, mu *sync.RWMutex) portssvc.TransactionSvcFacade {
	return &transactionService{baseService{repos: repos, mu: mu}}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// CreateTransaction implements portssvc.TransactionSvcFacade.
func (s *transactionService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	logger := s.GetLogger(ctx)

	if !req.Value.IsPositive() {
		return nil, fmt.Errorf("%w: transaction value must be positive", apperrors.ErrValidation)
	}
	if len(req.Sources) == 0 || len(req.Receivers) == 0 {
		return nil, fmt.Errorf("%w: sources and receivers must not be empty", apperrors.ErrValidation)
	}
	date, err := req.ParsedDate()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, req.Date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kinds, err := s.resolveEntityKinds(ctx, append(append([]string{}, req.Sources...), req.Receivers...))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		Date:          date,
		Description:   req.Description,
		Value:         req.Value,
		Sources:       buildEntries(req.Sources, kinds, req.Value),
		Receivers:     buildEntries(req.Receivers, kinds, req.Value),
		Tags:          uniqueStrings(req.Tags),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := accounting.ValidateConservation(txn); err != nil {
		// The split policy guarantees this; a failure here is a bug.
		return nil, fmt.Errorf("internal error building transaction shares: %w", err)
	}

	if err := s.repos.TransactionRepo.SaveTransaction(ctx, txn, balanceChangesFor(txn)); err != nil {
		logger.Error("Failed to save transaction", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	logger.Info("Transaction booked",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("value", txn.Value.String()),
		slog.Int("sources", len(txn.Sources)),
		slog.Int("receivers", len(txn.Receivers)),
	)
	return &txn, nil
}

// GetTransactionByID implements portssvc.TransactionSvcFacade.
func (s *transactionService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, err := s.repos.TransactionRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

// ListTransactions implements portssvc.TransactionSvcFacade.
func (s *transactionService) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns, err := s.repos.TransactionRepo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// DeleteTransaction implements portssvc.TransactionSvcFacade.
func (s *transactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	logger := s.GetLogger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	txn, err := s.repos.TransactionRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	changes := balanceChangesFor(*txn)
	for id, change := range changes {
		change.Delta = change.Delta.Neg()
		changes[id] = change
	}

	if err := s.repos.TransactionRepo.DeleteTransaction(ctx, transactionID, changes); err != nil {
		logger.Error("Failed to delete transaction", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}

	logger.Info("Transaction deleted", slog.String("transaction_id", transactionID))
	return nil
}

// ImportStatement implements portssvc.TransactionSvcFacade. Every row becomes
// one transaction between the account and the counterparty; the sign of the
// row value picks the direction. Rows are validated before any booking.
func (s *transactionService) ImportStatement(ctx context.Context, r io.Reader, opts dto.ImportStatementOptions) ([]domain.Transaction, error) {
	logger := s.GetLogger(ctx)

	rows, err := csvimport.Parse(r, csvimport.Options{
		SkipRows:    opts.SkipRows,
		Delimiter:   opts.Delimiter,
		Thousands:   opts.Thousands,
		DecimalSep:  opts.DecimalSep,
		DateLayout:  opts.DateLayout,
		ValueColumn: opts.ValueColumn,
		DateColumn:  opts.DateColumn,
		DescColumn:  opts.DescColumn,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	for i, row := range rows {
		if row.Value.IsZero() {
			return nil, fmt.Errorf("%w: row %d has zero value", apperrors.ErrValidation, i+opts.SkipRows+1)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kinds, err := s.resolveEntityKinds(ctx, []string{opts.AccountID, opts.CounterpartyID})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booked := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		sourceID, receiverID := opts.AccountID, opts.CounterpartyID
		if row.Value.IsPositive() {
			sourceID, receiverID = opts.CounterpartyID, opts.AccountID
		}

		txn := domain.Transaction{
			TransactionID: uuid.NewString(),
			Date:          row.Date,
			Description:   row.Description,
			Value:         row.Value.Abs(),
			Sources:       buildEntries([]string{sourceID}, kinds, row.Value.Abs()),
			Receivers:     buildEntries([]string{receiverID}, kinds, row.Value.Abs()),
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				LastUpdatedAt: now,
			},
		}

		if err := s.repos.TransactionRepo.SaveTransaction(ctx, txn, balanceChangesFor(txn)); err != nil {
			logger.Error("Statement import aborted",
				slog.Int("booked", len(booked)),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("failed to book imported transaction after %d rows: %w", len(booked), err)
		}
		booked = append(booked, txn)
	}

	logger.Info("Statement imported",
		slog.String("account_id", opts.AccountID),
		slog.String("counterparty_id", opts.CounterpartyID),
		slog.Int("transactions", len(booked)),
	)
	return booked, nil
}

// buildEntries splits total evenly across the ordered ids of one side.
func buildEntries(ids []string, kinds map[string]domain.EntityKind, total decimal.Decimal) []domain.Entry {
	shares := accounting.SplitEvenly(total, len(ids))
	entries := make([]domain.Entry, len(ids))
	for i, id := range ids {
		entries[i] = domain.Entry{
			EntityID: id,
			Kind:     kinds[id],
			Amount:   shares[i],
		}
	}
	return entries
}

// balanceChangesFor returns the net balance delta of every entity the
// transaction references: credits as a receiver minus debits as a source.
func balanceChangesFor(txn domain.Transaction) map[string]domain.BalanceChange {
	changes := make(map[string]domain.BalanceChange)
	add := func(e domain.Entry, delta decimal.Decimal) {
		change, ok := changes[e.EntityID]
		if !ok {
			change = domain.BalanceChange{Kind: e.Kind, Delta: decimal.Zero}
		}
		change.Delta = change.Delta.Add(delta)
		changes[e.EntityID] = change
	}
	for _, e := range txn.Sources {
		add(e, e.Amount.Neg())
	}
	for _, e := range txn.Receivers {
		add(e, e.Amount)
	}
	return changes
}
