package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mkbook/bookkeeping_backend/internal/apperrors"
	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	portsrepo "github.com/mkbook/bookkeeping_backend/internal/core/ports/repositories"
	"github.com/mkbook/bookkeeping_backend/internal/models"
	"github.com/mkbook/bookkeeping_backend/internal/utils/mapping"
)

const transactionColumns = "transaction_id, date, description, value, tags, created_at, last_updated_at"

// PgxTransactionRepository persists transaction headers and their entry rows.
// The mutating operations run in a single database transaction together with
// the balance updates of every referenced entity.
type PgxTransactionRepository struct {
	BaseRepository
	accounts *PgxAccountRepository
	budgets  *PgxBudgetRepository
}

// newPgxTransactionRepository creates a new repository for transaction data.
func newPgxTransactionRepository(pool *pgxpool.Pool, accounts *PgxAccountRepository, budgets *PgxBudgetRepository) *PgxTransactionRepository {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accounts:       accounts,
		budgets:        budgets,
	}
}

// Ensure PgxTransactionRepository implements portsrepo.TransactionRepositoryFacade
var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.Date,
		&m.Description,
		&m.Value,
		&m.Tags,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	return m, err
}

// FindTransactionByID retrieves a transaction with its entries.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}

	entriesByTxn, err := r.findEntries(ctx, []string{transactionID})
	if err != nil {
		return nil, err
	}

	d := mapping.ToDomainTransaction(m, entriesByTxn[transactionID])
	return &d, nil
}

// ListTransactions retrieves all transactions ordered by date, then creation time.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date, created_at, transaction_id;`
	return r.queryTransactions(ctx, query)
}

// FindTransactionsByEntity retrieves all transactions referencing the entity
// on either side, ordered by date, then creation time.
func (r *PgxTransactionRepository) FindTransactionsByEntity(ctx context.Context, entityID string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_id IN (SELECT transaction_id FROM entries WHERE entity_id = $1)
		ORDER BY date, created_at, transaction_id;
	`
	return r.queryTransactions(ctx, query, entityID)
}

func (r *PgxTransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	headers := []models.Transaction{}
	ids := []string{}
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		headers = append(headers, m)
		ids = append(ids, m.TransactionID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	entriesByTxn, err := r.findEntries(ctx, ids)
	if err != nil {
		return nil, err
	}

	txns := make([]domain.Transaction, len(headers))
	for i, m := range headers {
		txns[i] = mapping.ToDomainTransaction(m, entriesByTxn[m.TransactionID])
	}
	return txns, nil
}

// findEntries loads the entry rows of the given transactions, ordered so the
// side slices rebuild in their original position order.
func (r *PgxTransactionRepository) findEntries(ctx context.Context, transactionIDs []string) (map[string][]models.Entry, error) {
	if len(transactionIDs) == 0 {
		return map[string][]models.Entry{}, nil
	}

	query := `
		SELECT transaction_id, side, position, entity_id, entity_kind, amount
		FROM entries
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, side, position;
	`
	rows, err := r.Pool.Query(ctx, query, transactionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entriesByTxn := make(map[string][]models.Entry, len(transactionIDs))
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.TransactionID, &e.Side, &e.Position, &e.EntityID, &e.EntityKind, &e.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entriesByTxn[e.TransactionID] = append(entriesByTxn[e.TransactionID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entriesByTxn, nil
}

// SaveTransaction inserts the transaction and applies the balance changes of
// all referenced entities atomically.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, changes map[string]domain.BalanceChange) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck // no-op after commit

	if err := r.insertTransactionInTx(ctx, tx, txn); err != nil {
		return err
	}
	if err := r.applyBalanceChangesInTx(ctx, tx, changes); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// DeleteTransaction removes the transaction and applies the inverse balance
// changes atomically.
func (r *PgxTransactionRepository) DeleteTransaction(ctx context.Context, transactionID string, changes map[string]domain.BalanceChange) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	if err := r.deleteTransactionInTx(ctx, tx, transactionID); err != nil {
		return err
	}
	if err := r.applyBalanceChangesInTx(ctx, tx, changes); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// ApplyRebook executes a rebooking plan in one database transaction: rewrite
// the listed transactions, remove the emptied ones, adjust the remaining
// entities' balances and delete the rebooked entity's record.
func (r *PgxTransactionRepository) ApplyRebook(ctx context.Context, plan domain.RebookPlan) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) //nolint:errcheck

	for _, txn := range plan.Rewritten {
		if err := r.rewriteTransactionInTx(ctx, tx, txn); err != nil {
			return err
		}
	}
	for _, id := range plan.Removed {
		if err := r.deleteTransactionInTx(ctx, tx, id); err != nil {
			return err
		}
	}
	if err := r.applyBalanceChangesInTx(ctx, tx, plan.Changes); err != nil {
		return err
	}

	switch plan.Entity.Kind {
	case domain.KindAccount:
		if err := r.accounts.deleteAccountInTx(ctx, tx, plan.Entity.EntityID); err != nil {
			return err
		}
	case domain.KindBudget:
		if err := r.budgets.deleteBudgetInTx(ctx, tx, plan.Entity.EntityID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown entity kind %q", apperrors.ErrValidation, plan.Entity.Kind)
	}

	return r.Commit(ctx, tx)
}

func (r *PgxTransactionRepository) insertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	header, entries := mapping.ToModelTransaction(txn)

	query := `
		INSERT INTO transactions (transaction_id, date, description, value, tags, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := tx.Exec(ctx, query,
		header.TransactionID,
		header.Date,
		header.Description,
		header.Value,
		header.Tags,
		header.CreatedAt,
		header.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: transaction with ID %s already exists", apperrors.ErrDuplicate, header.TransactionID)
		}
		return fmt.Errorf("failed to insert transaction %s: %w", header.TransactionID, err)
	}

	return r.insertEntriesInTx(ctx, tx, entries)
}

func (r *PgxTransactionRepository) insertEntriesInTx(ctx context.Context, tx pgx.Tx, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO entries (transaction_id, side, position, entity_id, entity_kind, amount)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, e.TransactionID, e.Side, e.Position, e.EntityID, e.EntityKind, e.Amount)
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			batchErr = fmt.Errorf("failed to insert entry for transaction %s: %w", entries[i].TransactionID, err)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close entry insert batch: %w", err)
	}
	return batchErr
}

// rewriteTransactionInTx replaces the header value and the full entry set of
// a transaction touched by a rebooking.
func (r *PgxTransactionRepository) rewriteTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	header, entries := mapping.ToModelTransaction(txn)

	query := `
		UPDATE transactions
		SET value = $2, last_updated_at = $3
		WHERE transaction_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, header.TransactionID, header.Value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to rewrite transaction %s: %w", header.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, header.TransactionID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM entries WHERE transaction_id = $1;`, header.TransactionID); err != nil {
		return fmt.Errorf("failed to clear entries of transaction %s: %w", header.TransactionID, err)
	}
	return r.insertEntriesInTx(ctx, tx, entries)
}

func (r *PgxTransactionRepository) deleteTransactionInTx(ctx context.Context, tx pgx.Tx, transactionID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM entries WHERE transaction_id = $1;`, transactionID); err != nil {
		return fmt.Errorf("failed to delete entries of transaction %s: %w", transactionID, err)
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = $1;`, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
	}
	return nil
}

// applyBalanceChangesInTx locks the affected rows in a deterministic order
// and applies the deltas through the entity repositories.
func (r *PgxTransactionRepository) applyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]domain.BalanceChange) error {
	if len(changes) == 0 {
		return nil
	}

	accountDeltas := make(map[string]decimal.Decimal)
	budgetDeltas := make(map[string]decimal.Decimal)
	for id, change := range changes {
		switch change.Kind {
		case domain.KindAccount:
			accountDeltas[id] = change.Delta
		case domain.KindBudget:
			budgetDeltas[id] = change.Delta
		default:
			return fmt.Errorf("%w: unknown entity kind %q for %s", apperrors.ErrValidation, change.Kind, id)
		}
	}

	now := time.Now().UTC()

	if err := r.accounts.lockAccountsForUpdate(ctx, tx, sortedKeys(accountDeltas)); err != nil {
		return err
	}
	if err := r.budgets.lockBudgetsForUpdate(ctx, tx, sortedKeys(budgetDeltas)); err != nil {
		return err
	}
	if err := r.accounts.updateAccountBalancesInTx(ctx, tx, accountDeltas, now); err != nil {
		return err
	}
	return r.budgets.updateBudgetBalancesInTx(ctx, tx, budgetDeltas, now)
}

// sortedKeys keeps the lock acquisition order stable across concurrent bookings.
func sortedKeys(m map[string]decimal.Decimal) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
