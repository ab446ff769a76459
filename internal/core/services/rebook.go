package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mkbook/bookkeeping_backend/internal/apperrors"
	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/mkbook/bookkeeping_backend/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// rebookEntity removes a bookable entity from the ledger while keeping every
// touched transaction conserved. With a replacement, the entity's shares move
// to the replacement unchanged (merging with shares the replacement already
// holds in the same transaction). Without one, the shares are dropped and the
// remaining parties absorb them in proportion to their existing shares; a
// transaction left without sources or receivers is removed entirely.
//
// The caller must hold the write lock and have verified that the entity exists.
func (s *baseService) rebookEntity(ctx context.Context, ref domain.EntityRef, replacementID string) error {
	logger := s.GetLogger(ctx)

	var replacementKind domain.EntityKind
	if replacementID != "" {
		if replacementID == ref.EntityID {
			return fmt.Errorf("%w: replacement must differ from the deleted entity", apperrors.ErrConflict)
		}
		kind, err := s.lookupEntityKind(ctx, replacementID)
		if err != nil {
			return err
		}
		replacementKind = kind
	}

	txns, err := s.repos.TransactionRepo.FindTransactionsByEntity(ctx, ref.EntityID)
	if err != nil {
		return fmt.Errorf("failed to load transactions of entity %s: %w", ref.EntityID, err)
	}

	plan := domain.RebookPlan{
		Entity:  ref,
		Changes: make(map[string]domain.BalanceChange),
	}

	for _, txn := range txns {
		var rewritten domain.Transaction
		keep := true
		if replacementID != "" {
			rewritten = replaceInTransaction(txn, ref.EntityID, replacementID, replacementKind)
		} else {
			rewritten, keep = dropFromTransaction(txn, ref.EntityID)
		}

		if keep {
			plan.Rewritten = append(plan.Rewritten, rewritten)
			accumulateRewriteChanges(plan.Changes, txn, rewritten, ref.EntityID)
		} else {
			plan.Removed = append(plan.Removed, txn.TransactionID)
			accumulateRemovalChanges(plan.Changes, txn, ref.EntityID)
		}
	}

	if err := s.repos.TransactionRepo.ApplyRebook(ctx, plan); err != nil {
		return fmt.Errorf("failed to apply rebooking of entity %s: %w", ref.EntityID, err)
	}

	logger.Info("Entity rebooked and removed",
		slog.String("entity_id", ref.EntityID),
		slog.String("kind", string(ref.Kind)),
		slog.String("replacement_id", replacementID),
		slog.Int("rewritten", len(plan.Rewritten)),
		slog.Int("removed", len(plan.Removed)),
	)
	return nil
}

// lookupEntityKind resolves a replacement id to its kind. An unknown id is a
// conflict, not a validation error: the request itself was well-formed.
func (s *baseService) lookupEntityKind(ctx context.Context, entityID string) (domain.EntityKind, error) {
	if _, err := s.repos.AccountRepo.FindAccountByID(ctx, entityID); err == nil {
		return domain.KindAccount, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}
	if _, err := s.repos.BudgetRepo.FindBudgetByID(ctx, entityID); err == nil {
		return domain.KindBudget, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}
	return "", fmt.Errorf("%w: replacement entity %s does not exist", apperrors.ErrConflict, entityID)
}

// replaceInTransaction rewrites every share of oldID onto newID at the same
// amount, merging with any share newID already holds on that side.
func replaceInTransaction(txn domain.Transaction, oldID, newID string, newKind domain.EntityKind) domain.Transaction {
	t := txn.Clone()
	t.Sources = replaceEntries(t.Sources, oldID, newID, newKind)
	t.Receivers = replaceEntries(t.Receivers, oldID, newID, newKind)
	return t
}

func replaceEntries(entries []domain.Entry, oldID, newID string, newKind domain.EntityKind) []domain.Entry {
	replaced := false
	for i := range entries {
		if entries[i].EntityID == oldID {
			entries[i].EntityID = newID
			entries[i].Kind = newKind
			replaced = true
		}
	}
	if !replaced {
		return entries
	}

	// Merge the duplicate shares of newID into its first slot.
	out := entries[:0]
	first := -1
	for _, e := range entries {
		if e.EntityID != newID {
			out = append(out, e)
			continue
		}
		if first == -1 {
			first = len(out)
			out = append(out, e)
			continue
		}
		out[first].Amount = out[first].Amount.Add(e.Amount)
	}
	return out
}

// dropFromTransaction removes entityID's shares and rescales the rest so the
// transaction stays conserved. The sides are processed one after the other:
// dropping a source share shrinks the value and prorates the receivers
// (including a receiver share the entity itself may hold), then the receiver
// side is handled the same way. Returns keep=false when a side would end up
// empty or the transaction would no longer move any money.
func dropFromTransaction(txn domain.Transaction, entityID string) (domain.Transaction, bool) {
	t := txn.Clone()

	kept, removedSum := splitEntries(t.Sources, entityID)
	if len(kept) != len(t.Sources) {
		if len(kept) == 0 {
			return t, false
		}
		newValue := t.Value.Sub(removedSum)
		if newValue.IsZero() {
			return t, false
		}
		t.Receivers = rescaleEntries(t.Receivers, newValue)
		t.Sources = kept
		t.Value = newValue
	}

	kept, removedSum = splitEntries(t.Receivers, entityID)
	if len(kept) != len(t.Receivers) {
		if len(kept) == 0 {
			return t, false
		}
		newValue := t.Value.Sub(removedSum)
		if newValue.IsZero() {
			return t, false
		}
		t.Sources = rescaleEntries(t.Sources, newValue)
		t.Receivers = kept
		t.Value = newValue
	}
	return t, true
}

func splitEntries(entries []domain.Entry, entityID string) ([]domain.Entry, decimal.Decimal) {
	kept := make([]domain.Entry, 0, len(entries))
	removed := decimal.Zero
	for _, e := range entries {
		if e.EntityID == entityID {
			removed = removed.Add(e.Amount)
			continue
		}
		kept = append(kept, e)
	}
	return kept, removed
}

func rescaleEntries(entries []domain.Entry, newTotal decimal.Decimal) []domain.Entry {
	weights := make([]decimal.Decimal, len(entries))
	for i, e := range entries {
		weights[i] = e.Amount
	}
	shares := accounting.Allocate(newTotal, weights)
	for i := range entries {
		entries[i].Amount = shares[i]
	}
	return entries
}

// accumulateRewriteChanges adds the balance delta of every party other than
// the deleted entity: its net under the rewritten transaction minus its net
// under the original one.
func accumulateRewriteChanges(changes map[string]domain.BalanceChange, oldTxn, newTxn domain.Transaction, deletedID string) {
	kinds := make(map[string]domain.EntityKind)
	ids := make([]string, 0, 8)
	collect := func(entries []domain.Entry) {
		for _, e := range entries {
			if e.EntityID == deletedID {
				continue
			}
			if _, ok := kinds[e.EntityID]; !ok {
				ids = append(ids, e.EntityID)
			}
			kinds[e.EntityID] = e.Kind
		}
	}
	collect(oldTxn.Sources)
	collect(oldTxn.Receivers)
	collect(newTxn.Sources)
	collect(newTxn.Receivers)

	for _, id := range ids {
		delta := accounting.NetChange(newTxn, id).Sub(accounting.NetChange(oldTxn, id))
		addBalanceChange(changes, id, kinds[id], delta)
	}
}

// accumulateRemovalChanges reverses the full old net of every remaining party
// of a transaction that rebooking removes outright.
func accumulateRemovalChanges(changes map[string]domain.BalanceChange, txn domain.Transaction, deletedID string) {
	seen := make(map[string]bool)
	reverse := func(entries []domain.Entry) {
		for _, e := range entries {
			if e.EntityID == deletedID || seen[e.EntityID] {
				continue
			}
			seen[e.EntityID] = true
			addBalanceChange(changes, e.EntityID, e.Kind, accounting.NetChange(txn, e.EntityID).Neg())
		}
	}
	reverse(txn.Sources)
	reverse(txn.Receivers)
}

func addBalanceChange(changes map[string]domain.BalanceChange, id string, kind domain.EntityKind, delta decimal.Decimal) {
	if delta.IsZero() {
		return
	}
	change, ok := changes[id]
	if !ok {
		change = domain.BalanceChange{Kind: kind, Delta: decimal.Zero}
	}
	change.Delta = change.Delta.Add(delta)
	changes[id] = change
}
