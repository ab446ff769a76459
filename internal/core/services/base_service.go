package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mkbook/bookkeeping_backend/internal/apperrors"
	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	portsrepo "github.com/mkbook/bookkeeping_backend/internal/core/ports/repositories"
	"github.com/mkbook/bookkeeping_backend/internal/middleware"
)

// baseService provides common functionality for all services. All services
// of one book share mu: the ledger is a single consistency domain, so
// mutations take the write lock while reads run concurrently under the read
// lock and never observe a half-applied split or rebooking.
type baseService struct {
	repos *portsrepo.RepositoryProvider
	mu    *sync.RWMutex
}

// GetLogger gets the request-scoped logger from the context or the default one.
func (s *baseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// resolveEntityKinds resolves every id to its entity kind across the shared
// account/budget id namespace. Any unknown id fails the whole resolution with
// a validation error, so a transaction can never be applied against a
// dangling reference.
func (s *baseService) resolveEntityKinds(ctx context.Context, ids []string) (map[string]domain.EntityKind, error) {
	unique := uniqueStrings(ids)

	accounts, err := s.repos.AccountRepo.FindAccountsByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve accounts: %w", err)
	}
	budgets, err := s.repos.BudgetRepo.FindBudgetsByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve budgets: %w", err)
	}

	kinds := make(map[string]domain.EntityKind, len(unique))
	for _, id := range unique {
		if _, ok := accounts[id]; ok {
			kinds[id] = domain.KindAccount
			continue
		}
		if _, ok := budgets[id]; ok {
			kinds[id] = domain.KindBudget
			continue
		}
		return nil, fmt.Errorf("%w: unknown entity id %s", apperrors.ErrValidation, id)
	}
	return kinds, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
