package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkbook/bookkeeping_backend/internal/apperrors"
	"github.com/mkbook/bookkeeping_backend/internal/dto"
)

func TestCreateAccount_StartsAtZero(t *testing.T) {
	svc := newTestContainer(t)

	account := mustCreateAccount(t, svc, "Checking", false)

	assert.NotEmpty(t, account.AccountID)
	assert.Equal(t, "Checking", account.Name)
	assert.False(t, account.Extern)
	assertDecimal(t, "0", account.Balance)
}

func TestUpdateAccount_ChangesOnlyProvidedFields(t *testing.T) {
	svc := newTestContainer(t)
	account := mustCreateAccount(t, svc, "Checking", false)

	extern := true
	updated, err := svc.Account.UpdateAccount(context.Background(), account.AccountID,
		dto.UpdateAccountRequest{Extern: &extern})
	require.NoError(t, err)

	assert.Equal(t, "Checking", updated.Name)
	assert.True(t, updated.Extern)
}

func TestGetAccountByID_NotFound(t *testing.T) {
	svc := newTestContainer(t)
	_, err := svc.Account.GetAccountByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteAccount_WithReplacement_MovesSharesUnchanged(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)
	b := mustCreateAccount(t, svc, "B", false)
	c := mustCreateAccount(t, svc, "C", false)
	sink := mustCreateAccount(t, svc, "Sink", true)

	// 90 across three sources: 30 each.
	txn := mustBook(t, svc, "90", "2024-05-01",
		[]string{a.AccountID, b.AccountID, c.AccountID}, []string{sink.AccountID})

	require.NoError(t, svc.Account.DeleteAccount(context.Background(), a.AccountID, b.AccountID))

	_, err := svc.Account.GetAccountByID(context.Background(), a.AccountID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// B took over A's 30 on top of its own 30; the value never changed.
	rewritten, err := svc.Transaction.GetTransactionByID(context.Background(), txn.TransactionID)
	require.NoError(t, err)
	assertDecimal(t, "90", rewritten.Value)
	require.Len(t, rewritten.Sources, 2)
	assert.Equal(t, b.AccountID, rewritten.Sources[0].EntityID)
	assertDecimal(t, "60", rewritten.Sources[0].Amount)
	assert.Equal(t, c.AccountID, rewritten.Sources[1].EntityID)
	assertDecimal(t, "30", rewritten.Sources[1].Amount)

	assertDecimal(t, "-60", accountBalance(t, svc, b.AccountID))
	assertDecimal(t, "-30", accountBalance(t, svc, c.AccountID))
	assertDecimal(t, "90", accountBalance(t, svc, sink.AccountID))
}

func TestDeleteAccount_WithReplacement_BudgetCanStandIn(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)
	groceries := mustCreateBudget(t, svc, "Groceries", "200")
	sink := mustCreateAccount(t, svc, "Sink", true)

	mustBook(t, svc, "40", "2024-05-02", []string{a.AccountID}, []string{sink.AccountID})

	require.NoError(t, svc.Account.DeleteAccount(context.Background(), a.AccountID, groceries.BudgetID))

	assertDecimal(t, "160", budgetBalance(t, svc, groceries.BudgetID))
	assertDecimal(t, "40", accountBalance(t, svc, sink.AccountID))
}

func TestDeleteAccount_WithoutReplacement_RescalesOtherSide(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)
	b := mustCreateAccount(t, svc, "B", false)
	c := mustCreateAccount(t, svc, "C", false)
	sink := mustCreateAccount(t, svc, "Sink", true)

	// 90 from [A,B]: 45 each, to [C,Sink]: 45 each.
	txn := mustBook(t, svc, "90", "2024-05-03",
		[]string{a.AccountID, b.AccountID}, []string{c.AccountID, sink.AccountID})

	require.NoError(t, svc.Account.DeleteAccount(context.Background(), a.AccountID, ""))

	// A's 45 is gone: value drops to 45 and the receivers shrink with it.
	rewritten, err := svc.Transaction.GetTransactionByID(context.Background(), txn.TransactionID)
	require.NoError(t, err)
	assertDecimal(t, "45", rewritten.Value)
	require.Len(t, rewritten.Sources, 1)
	assertDecimal(t, "45", rewritten.Sources[0].Amount)
	require.Len(t, rewritten.Receivers, 2)
	assertDecimal(t, "22.5", rewritten.Receivers[0].Amount)
	assertDecimal(t, "22.5", rewritten.Receivers[1].Amount)

	assertDecimal(t, "-45", accountBalance(t, svc, b.AccountID))
	assertDecimal(t, "22.5", accountBalance(t, svc, c.AccountID))
	assertDecimal(t, "22.5", accountBalance(t, svc, sink.AccountID))
}

func TestDeleteAccount_WithoutReplacement_EmptiedSideRemovesTransaction(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)
	b := mustCreateAccount(t, svc, "B", false)

	txn := mustBook(t, svc, "70", "2024-05-04", []string{a.AccountID}, []string{b.AccountID})

	require.NoError(t, svc.Account.DeleteAccount(context.Background(), a.AccountID, ""))

	_, err := svc.Transaction.GetTransactionByID(context.Background(), txn.TransactionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assertDecimal(t, "0", accountBalance(t, svc, b.AccountID))
}

func TestDeleteAccount_RemovedTransactionReversesAllParties(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", true)
	b := mustCreateAccount(t, svc, "B", false)
	groceries := mustCreateBudget(t, svc, "Groceries", "200")

	// A is the sole source, so deleting it removes the transaction and
	// every receiver must get its full share back.
	txn := mustBook(t, svc, "90", "2024-05-04",
		[]string{a.AccountID}, []string{b.AccountID, groceries.BudgetID})
	assertDecimal(t, "45", accountBalance(t, svc, b.AccountID))

	require.NoError(t, svc.Account.DeleteAccount(context.Background(), a.AccountID, ""))

	_, err := svc.Transaction.GetTransactionByID(context.Background(), txn.TransactionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assertDecimal(t, "0", accountBalance(t, svc, b.AccountID))
	assertDecimal(t, "200", budgetBalance(t, svc, groceries.BudgetID))
}

func TestDeleteAccount_EntityOnBothSides(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)
	b := mustCreateAccount(t, svc, "B", false)
	c := mustCreateAccount(t, svc, "C", false)

	// 60 from [A,B] to [A,C]: A holds 30 as source and 30 as receiver.
	txn := mustBook(t, svc, "60", "2024-05-05",
		[]string{a.AccountID, b.AccountID}, []string{a.AccountID, c.AccountID})

	require.NoError(t, svc.Account.DeleteAccount(context.Background(), a.AccountID, ""))

	// Dropping the source share leaves 30 from B, split over A (15) and
	// C (15); dropping A's receiver share then rescales again: 15 from B
	// to C alone.
	rewritten, err := svc.Transaction.GetTransactionByID(context.Background(), txn.TransactionID)
	require.NoError(t, err)
	assertDecimal(t, "15", rewritten.Value)
	require.Len(t, rewritten.Sources, 1)
	assert.Equal(t, b.AccountID, rewritten.Sources[0].EntityID)
	require.Len(t, rewritten.Receivers, 1)
	assert.Equal(t, c.AccountID, rewritten.Receivers[0].EntityID)

	assertDecimal(t, "-15", accountBalance(t, svc, b.AccountID))
	assertDecimal(t, "15", accountBalance(t, svc, c.AccountID))
}

func TestDeleteAccount_ReplacementErrors(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)

	err := svc.Account.DeleteAccount(context.Background(), a.AccountID, a.AccountID)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "self-replacement")

	err = svc.Account.DeleteAccount(context.Background(), a.AccountID, "missing")
	assert.ErrorIs(t, err, apperrors.ErrConflict, "unknown replacement")

	err = svc.Account.DeleteAccount(context.Background(), "missing", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetAccountHistory_RunningBalanceWithRange(t *testing.T) {
	svc := newTestContainer(t)
	checking := mustCreateAccount(t, svc, "Checking", false)
	world := mustCreateAccount(t, svc, "World", true)

	mustBook(t, svc, "1000", "2024-01-31", []string{world.AccountID}, []string{checking.AccountID})
	mustBook(t, svc, "200", "2024-02-10", []string{checking.AccountID}, []string{world.AccountID})
	mustBook(t, svc, "1000", "2024-02-29", []string{world.AccountID}, []string{checking.AccountID})

	points, err := svc.Account.GetAccountHistory(context.Background(), checking.AccountID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2024-01-31", points[0].Date)
	assertDecimal(t, "1000", points[0].Balance)
	assertDecimal(t, "800", points[1].Balance)
	assertDecimal(t, "1800", points[2].Balance)

	// A bounded range still carries the balance accrued before it.
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	points, err = svc.Account.GetAccountHistory(context.Background(), checking.AccountID, from, to)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2024-02-10", points[0].Date)
	assertDecimal(t, "800", points[0].Balance)
}

func TestGetAccountHistory_NotFound(t *testing.T) {
	svc := newTestContainer(t)
	_, err := svc.Account.GetAccountHistory(context.Background(), "missing", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
