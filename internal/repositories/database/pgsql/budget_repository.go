package pgsql

import (
	"context"
	"errors"
	"fmt"
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

const budgetColumns = "budget_id, name, budget, balance, created_at, last_updated_at"

type PgxBudgetRepository struct {
	pool *pgxpool.Pool
}

// newPgxBudgetRepository creates a new repository for budget data.
func newPgxBudgetRepository(pool *pgxpool.Pool) *PgxBudgetRepository {
	return &PgxBudgetRepository{pool: pool}
}

// Ensure PgxBudgetRepository implements portsrepo.BudgetRepositoryFacade
var _ portsrepo.BudgetRepositoryFacade = (*PgxBudgetRepository)(nil)

func scanBudget(row pgx.Row) (models.Budget, error) {
	var m models.Budget
	err := row.Scan(
		&m.BudgetID,
		&m.Name,
		&m.Budget,
		&m.Balance,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	return m, err
}

// SaveBudget inserts a new budget.
func (r *PgxBudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	m := mapping.ToModelBudget(budget)

	query := `
		INSERT INTO budgets (budget_id, name, budget, balance, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.pool.Exec(ctx, query,
		m.BudgetID,
		m.Name,
		m.Budget,
		m.Balance,
		m.CreatedAt,
		m.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: budget with ID %s already exists", apperrors.ErrDuplicate, m.BudgetID)
		}
		return fmt.Errorf("failed to save budget %s: %w", m.BudgetID, err)
	}
	return nil
}

// FindBudgetByID retrieves a budget by its ID.
func (r *PgxBudgetRepository) FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE budget_id = $1;`

	m, err := scanBudget(r.pool.QueryRow(ctx, query, budgetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: budget %s", apperrors.ErrNotFound, budgetID)
		}
		return nil, fmt.Errorf("failed to find budget by ID %s: %w", budgetID, err)
	}

	d := mapping.ToDomainBudget(m)
	return &d, nil
}

// FindBudgetsByIDs retrieves multiple budgets by their IDs.
func (r *PgxBudgetRepository) FindBudgetsByIDs(ctx context.Context, budgetIDs []string) (map[string]domain.Budget, error) {
	if len(budgetIDs) == 0 {
		return map[string]domain.Budget{}, nil
	}

	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE budget_id = ANY($1);`

	rows, err := r.pool.Query(ctx, query, budgetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets by IDs: %w", err)
	}
	defer rows.Close()

	budgetsMap := make(map[string]domain.Budget)
	for rows.Next() {
		m, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget row during batch fetch: %w", err)
		}
		budgetsMap[m.BudgetID] = mapping.ToDomainBudget(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget rows during batch fetch: %w", err)
	}
	return budgetsMap, nil
}

// ListBudgets retrieves all budgets ordered by creation time.
func (r *PgxBudgetRepository) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets ORDER BY created_at, budget_id;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	budgets := []domain.Budget{}
	for rows.Next() {
		m, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget row: %w", err)
		}
		budgets = append(budgets, mapping.ToDomainBudget(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget rows: %w", err)
	}
	return budgets, nil
}

// UpdateBudget updates name/target/balance of an existing budget. The balance
// is included because a target change shifts it by the same delta.
func (r *PgxBudgetRepository) UpdateBudget(ctx context.Context, budget domain.Budget) error {
	m := mapping.ToModelBudget(budget)

	query := `
		UPDATE budgets
		SET name = $2, budget = $3, balance = $4, last_updated_at = $5
		WHERE budget_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query, m.BudgetID, m.Name, m.Budget, m.Balance, m.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute update budget %s: %w", m.BudgetID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: budget %s", apperrors.ErrNotFound, m.BudgetID)
	}
	return nil
}

// lockBudgetsForUpdate locks the budget rows referenced by the balance
// changes. Must be called within a transaction, before any balance update.
func (r *PgxBudgetRepository) lockBudgetsForUpdate(ctx context.Context, tx pgx.Tx, budgetIDs []string) error {
	if len(budgetIDs) == 0 {
		return nil
	}

	query := `SELECT budget_id FROM budgets WHERE budget_id = ANY($1) FOR UPDATE;`

	rows, err := tx.Query(ctx, query, budgetIDs)
	if err != nil {
		return fmt.Errorf("failed to lock budgets for update: %w", err)
	}
	defer rows.Close()

	locked := make(map[string]bool, len(budgetIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan locked budget row: %w", err)
		}
		locked[id] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating locked budget rows: %w", err)
	}

	for _, id := range budgetIDs {
		if !locked[id] {
			return fmt.Errorf("%w: budget %s", apperrors.ErrNotFound, id)
		}
	}
	return nil
}

// updateBudgetBalancesInTx applies balance deltas within a transaction. The
// rows must already be locked via lockBudgetsForUpdate.
func (r *PgxBudgetRepository) updateBudgetBalancesInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, now time.Time) error {
	if len(deltas) == 0 {
		return nil
	}

	query := `
		UPDATE budgets
		SET balance = balance + $2, last_updated_at = $3
		WHERE budget_id = $1;
	`

	batch := &pgx.Batch{}
	budgetIDs := make([]string, 0, len(deltas))
	for budgetID, delta := range deltas {
		if delta.IsZero() {
			continue
		}
		batch.Queue(query, budgetID, delta, now)
		budgetIDs = append(budgetIDs, budgetID)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update balance for budget %s: %w", budgetIDs[i], err)
			}
		} else if ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = fmt.Errorf("%w: budget %s not found during balance update", apperrors.ErrNotFound, budgetIDs[i])
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close balance update batch: %w", err)
	}
	return batchErr
}

// deleteBudgetInTx removes the budget row as part of a rebooking.
func (r *PgxBudgetRepository) deleteBudgetInTx(ctx context.Context, tx pgx.Tx, budgetID string) error {
	cmdTag, err := tx.Exec(ctx, `DELETE FROM budgets WHERE budget_id = $1;`, budgetID)
	if err != nil {
		return fmt.Errorf("failed to delete budget %s: %w", budgetID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: budget %s", apperrors.ErrNotFound, budgetID)
	}
	return nil
}
