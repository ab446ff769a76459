package services

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkbook/bookkeeping_backend/internal/apperrors"
	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	portssvc "github.com/mkbook/bookkeeping_backend/internal/core/ports/services"
	"github.com/mkbook/bookkeeping_backend/internal/dto"
	"github.com/mkbook/bookkeeping_backend/internal/repositories/memory"
)

func newTestContainer(t *testing.T) *portssvc.ServiceContainer {
	t.Helper()
	return NewContainer(memory.NewRepositoryProvider())
}

func mustCreateAccount(t *testing.T, svc *portssvc.ServiceContainer, name string, extern bool) *domain.Account {
	t.Helper()
	account, err := svc.Account.CreateAccount(context.Background(), dto.CreateAccountRequest{Name: name, Extern: extern})
	require.NoError(t, err)
	return account
}

func mustCreateBudget(t *testing.T, svc *portssvc.ServiceContainer, name, target string) *domain.Budget {
	t.Helper()
	budget, err := svc.Budget.CreateBudget(context.Background(), dto.CreateBudgetRequest{
		Name:   name,
		Budget: decimal.RequireFromString(target),
	})
	require.NoError(t, err)
	return budget
}

func mustBook(t *testing.T, svc *portssvc.ServiceContainer, value, date string, sources, receivers []string) *domain.Transaction {
	t.Helper()
	txn, err := svc.Transaction.CreateTransaction(context.Background(), dto.CreateTransactionRequest{
		Date:      date,
		Value:     decimal.RequireFromString(value),
		Sources:   sources,
		Receivers: receivers,
	})
	require.NoError(t, err)
	return txn
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func accountBalance(t *testing.T, svc *portssvc.ServiceContainer, id string) decimal.Decimal {
	t.Helper()
	account, err := svc.Account.GetAccountByID(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

func budgetBalance(t *testing.T, svc *portssvc.ServiceContainer, id string) decimal.Decimal {
	t.Helper()
	budget, err := svc.Budget.GetBudgetByID(context.Background(), id)
	require.NoError(t, err)
	return budget.Balance
}

func TestCreateTransaction_MovesValueBetweenAccounts(t *testing.T) {
	svc := newTestContainer(t)
	salary := mustCreateAccount(t, svc, "Salary", true)
	checking := mustCreateAccount(t, svc, "Checking", false)

	txn := mustBook(t, svc, "2500", "2024-01-31", []string{salary.AccountID}, []string{checking.AccountID})

	assertDecimal(t, "2500", txn.Value)
	assertDecimal(t, "-2500", accountBalance(t, svc, salary.AccountID))
	assertDecimal(t, "2500", accountBalance(t, svc, checking.AccountID))
}

func TestCreateTransaction_SplitsEvenlyWithRemainderToFirst(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)
	b := mustCreateAccount(t, svc, "B", false)
	c := mustCreateAccount(t, svc, "C", false)
	sink := mustCreateAccount(t, svc, "Sink", true)

	txn := mustBook(t, svc, "100", "2024-02-01",
		[]string{a.AccountID, b.AccountID, c.AccountID}, []string{sink.AccountID})

	require.Len(t, txn.Sources, 3)
	assertDecimal(t, "33.34", txn.Sources[0].Amount)
	assertDecimal(t, "33.33", txn.Sources[1].Amount)
	assertDecimal(t, "33.33", txn.Sources[2].Amount)

	assertDecimal(t, "-33.34", accountBalance(t, svc, a.AccountID))
	assertDecimal(t, "-33.33", accountBalance(t, svc, b.AccountID))
	assertDecimal(t, "-33.33", accountBalance(t, svc, c.AccountID))
	assertDecimal(t, "100", accountBalance(t, svc, sink.AccountID))
}

func TestCreateTransaction_DebitsBudgetAlongsideAccount(t *testing.T) {
	svc := newTestContainer(t)
	checking := mustCreateAccount(t, svc, "Checking", false)
	groceries := mustCreateBudget(t, svc, "Groceries", "300")
	shop := mustCreateAccount(t, svc, "Shop", true)

	mustBook(t, svc, "90", "2024-02-03",
		[]string{checking.AccountID, groceries.BudgetID}, []string{shop.AccountID})

	assertDecimal(t, "-45", accountBalance(t, svc, checking.AccountID))
	assertDecimal(t, "255", budgetBalance(t, svc, groceries.BudgetID))
	assertDecimal(t, "90", accountBalance(t, svc, shop.AccountID))
}

func TestCreateTransaction_EntityOnBothSidesNetsToZero(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)

	txn := mustBook(t, svc, "50", "2024-02-04", []string{a.AccountID}, []string{a.AccountID})

	assertDecimal(t, "0", accountBalance(t, svc, a.AccountID))
	assertDecimal(t, "50", txn.Sources[0].Amount)
	assertDecimal(t, "50", txn.Receivers[0].Amount)
}

func TestCreateTransaction_RejectsInvalidInput(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)

	cases := []struct {
		name string
		req  dto.CreateTransactionRequest
	}{
		{"zero value", dto.CreateTransactionRequest{
			Date: "2024-02-05", Value: decimal.Zero,
			Sources: []string{a.AccountID}, Receivers: []string{a.AccountID},
		}},
		{"negative value", dto.CreateTransactionRequest{
			Date: "2024-02-05", Value: decimal.RequireFromString("-1"),
			Sources: []string{a.AccountID}, Receivers: []string{a.AccountID},
		}},
		{"empty sources", dto.CreateTransactionRequest{
			Date: "2024-02-05", Value: decimal.RequireFromString("10"),
			Receivers: []string{a.AccountID},
		}},
		{"unknown entity", dto.CreateTransactionRequest{
			Date: "2024-02-05", Value: decimal.RequireFromString("10"),
			Sources: []string{"missing"}, Receivers: []string{a.AccountID},
		}},
		{"bad date", dto.CreateTransactionRequest{
			Date: "05.02.2024", Value: decimal.RequireFromString("10"),
			Sources: []string{a.AccountID}, Receivers: []string{a.AccountID},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Transaction.CreateTransaction(context.Background(), tc.req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	// Nothing was booked.
	txns, err := svc.Transaction.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txns)
	assertDecimal(t, "0", accountBalance(t, svc, a.AccountID))
}

func TestDeleteTransaction_RestoresBalances(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)
	b := mustCreateAccount(t, svc, "B", false)
	groceries := mustCreateBudget(t, svc, "Groceries", "300")

	txn := mustBook(t, svc, "100", "2024-02-06",
		[]string{a.AccountID, groceries.BudgetID}, []string{b.AccountID})

	require.NoError(t, svc.Transaction.DeleteTransaction(context.Background(), txn.TransactionID))

	assertDecimal(t, "0", accountBalance(t, svc, a.AccountID))
	assertDecimal(t, "0", accountBalance(t, svc, b.AccountID))
	assertDecimal(t, "300", budgetBalance(t, svc, groceries.BudgetID))

	_, err := svc.Transaction.GetTransactionByID(context.Background(), txn.TransactionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteTransaction_NotFound(t *testing.T) {
	svc := newTestContainer(t)
	err := svc.Transaction.DeleteTransaction(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListTransactions_OrderedByDateThenCreation(t *testing.T) {
	svc := newTestContainer(t)
	a := mustCreateAccount(t, svc, "A", false)
	b := mustCreateAccount(t, svc, "B", false)

	later := mustBook(t, svc, "10", "2024-03-02", []string{a.AccountID}, []string{b.AccountID})
	first := mustBook(t, svc, "20", "2024-03-01", []string{a.AccountID}, []string{b.AccountID})
	second := mustBook(t, svc, "30", "2024-03-01", []string{a.AccountID}, []string{b.AccountID})

	txns, err := svc.Transaction.ListTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, first.TransactionID, txns[0].TransactionID)
	assert.Equal(t, second.TransactionID, txns[1].TransactionID)
	assert.Equal(t, later.TransactionID, txns[2].TransactionID)
}

func TestImportStatement_BooksRowsWithSignedDirection(t *testing.T) {
	svc := newTestContainer(t)
	checking := mustCreateAccount(t, svc, "Checking", false)
	world := mustCreateAccount(t, svc, "World", true)

	statement := strings.Join([]string{
		"-12.50,2024-04-02,Coffee",
		"1000.00,2024-04-01,Salary",
	}, "\n")

	booked, err := svc.Transaction.ImportStatement(context.Background(),
		strings.NewReader(statement),
		dto.ImportStatementOptions{AccountID: checking.AccountID, CounterpartyID: world.AccountID})
	require.NoError(t, err)
	require.Len(t, booked, 2)

	// Negative row: money leaves the account.
	assert.Equal(t, []string{checking.AccountID}, booked[0].SourceIDs())
	assert.Equal(t, []string{world.AccountID}, booked[0].ReceiverIDs())
	assertDecimal(t, "12.5", booked[0].Value)
	assert.Equal(t, "Coffee", booked[0].Description)

	// Positive row: money arrives.
	assert.Equal(t, []string{world.AccountID}, booked[1].SourceIDs())
	assert.Equal(t, []string{checking.AccountID}, booked[1].ReceiverIDs())
	assertDecimal(t, "1000", booked[1].Value)

	assertDecimal(t, "987.5", accountBalance(t, svc, checking.AccountID))
	assertDecimal(t, "-987.5", accountBalance(t, svc, world.AccountID))
}

func TestImportStatement_RejectsZeroValueRowBeforeBooking(t *testing.T) {
	svc := newTestContainer(t)
	checking := mustCreateAccount(t, svc, "Checking", false)
	world := mustCreateAccount(t, svc, "World", true)

	statement := "10.00,2024-04-01,ok\n0.00,2024-04-02,broken\n"
	_, err := svc.Transaction.ImportStatement(context.Background(),
		strings.NewReader(statement),
		dto.ImportStatementOptions{AccountID: checking.AccountID, CounterpartyID: world.AccountID})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	txns, listErr := svc.Transaction.ListTransactions(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, txns, "a rejected statement must not book anything")
}
