package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/mkbook/bookkeeping_backend/internal/core/services"
	"github.com/mkbook/bookkeeping_backend/internal/dto"
	"github.com/mkbook/bookkeeping_backend/internal/handlers"
	"github.com/mkbook/bookkeeping_backend/internal/repositories/memory"
	"github.com/mkbook/bookkeeping_backend/pkg/config"
)

// HandlersTestSuite drives the full HTTP surface against the in-memory
// backend, so requests exercise binding, the services and the store together.
type HandlersTestSuite struct {
	suite.Suite
	router *gin.Engine
}

func (s *HandlersTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *HandlersTestSuite) SetupTest() {
	s.router = gin.New()
	cfg := &config.Config{IsProduction: true, DataBackend: config.BackendMemory}
	handlers.RegisterRoutes(s.router, cfg, services.NewContainer(memory.NewRepositoryProvider()))
}

func (s *HandlersTestSuite) perform(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) decode(w *httptest.ResponseRecorder, target interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), target))
}

func (s *HandlersTestSuite) createAccount(name string, extern bool) dto.AccountResponse {
	w := s.perform(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{Name: name, Extern: extern})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.AccountResponse
	s.decode(w, &resp)
	return resp
}

func (s *HandlersTestSuite) createBudget(name, target string) dto.BudgetResponse {
	req := dto.CreateBudgetRequest{Name: name, Budget: decimal.RequireFromString(target)}
	w := s.perform(http.MethodPost, "/api/v1/budgets", req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.BudgetResponse
	s.decode(w, &resp)
	return resp
}

func (s *HandlersTestSuite) bookTransaction(value, date string, sources, receivers []string) dto.TransactionResponse {
	req := dto.CreateTransactionRequest{
		Date:      date,
		Value:     decimal.RequireFromString(value),
		Sources:   sources,
		Receivers: receivers,
	}
	w := s.perform(http.MethodPost, "/api/v1/transactions", req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.TransactionResponse
	s.decode(w, &resp)
	return resp
}

func (s *HandlersTestSuite) accountBalance(id string) decimal.Decimal {
	w := s.perform(http.MethodGet, "/api/v1/accounts/"+id, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.AccountResponse
	s.decode(w, &resp)
	return resp.Balance
}

func (s *HandlersTestSuite) assertDecimal(want string, got decimal.Decimal) {
	s.True(got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func (s *HandlersTestSuite) TestHealthCheck() {
	w := s.perform(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("OK", w.Body.String())
}

func (s *HandlersTestSuite) TestCreateAndGetAccount() {
	created := s.createAccount("Checking", false)
	s.NotEmpty(created.UUID)
	s.Equal("Checking", created.Name)
	s.False(created.Extern)
	s.assertDecimal("0", created.Balance)

	w := s.perform(http.MethodGet, "/api/v1/accounts/"+created.UUID, nil)
	s.Equal(http.StatusOK, w.Code)
	var fetched dto.AccountResponse
	s.decode(w, &fetched)
	s.Equal(created.UUID, fetched.UUID)
}

func (s *HandlersTestSuite) TestCreateAccount_MissingName() {
	w := s.perform(http.MethodPost, "/api/v1/accounts", map[string]interface{}{"extern": true})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestGetAccount_NotFound() {
	w := s.perform(http.MethodGet, "/api/v1/accounts/no-such-id", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestUpdateAccount_RenameOnly() {
	created := s.createAccount("Old Name", true)

	newName := "New Name"
	w := s.perform(http.MethodPut, "/api/v1/accounts/"+created.UUID, dto.UpdateAccountRequest{Name: &newName})
	s.Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.AccountResponse
	s.decode(w, &updated)
	s.Equal("New Name", updated.Name)
	s.True(updated.Extern)
}

func (s *HandlersTestSuite) TestListAccounts() {
	s.createAccount("One", false)
	s.createAccount("Two", true)

	w := s.perform(http.MethodGet, "/api/v1/accounts", nil)
	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListAccountsResponse
	s.decode(w, &resp)
	s.Len(resp.Accounts, 2)
}

func (s *HandlersTestSuite) TestCreateTransaction_UpdatesBalances() {
	salary := s.createAccount("Salary", true)
	checking := s.createAccount("Checking", false)

	txn := s.bookTransaction("2500.00", "2026-01-31", []string{salary.UUID}, []string{checking.UUID})
	s.NotEmpty(txn.UUID)
	s.Equal([]string{salary.UUID}, txn.Sources)
	s.Equal([]string{checking.UUID}, txn.Receivers)

	s.assertDecimal("-2500", s.accountBalance(salary.UUID))
	s.assertDecimal("2500", s.accountBalance(checking.UUID))
}

func (s *HandlersTestSuite) TestCreateTransaction_RejectsBadInput() {
	checking := s.createAccount("Checking", false)
	shop := s.createAccount("Shop", true)

	cases := map[string]dto.CreateTransactionRequest{
		"zero value": {
			Date:      "2026-01-31",
			Value:     decimal.Zero,
			Sources:   []string{checking.UUID},
			Receivers: []string{shop.UUID},
		},
		"negative value": {
			Date:      "2026-01-31",
			Value:     decimal.RequireFromString("-5"),
			Sources:   []string{checking.UUID},
			Receivers: []string{shop.UUID},
		},
		"empty sources": {
			Date:      "2026-01-31",
			Value:     decimal.RequireFromString("5"),
			Sources:   []string{},
			Receivers: []string{shop.UUID},
		},
		"unknown entity": {
			Date:      "2026-01-31",
			Value:     decimal.RequireFromString("5"),
			Sources:   []string{"ghost"},
			Receivers: []string{shop.UUID},
		},
		"bad date": {
			Date:      "31.01.2026",
			Value:     decimal.RequireFromString("5"),
			Sources:   []string{checking.UUID},
			Receivers: []string{shop.UUID},
		},
	}
	for name, req := range cases {
		w := s.perform(http.MethodPost, "/api/v1/transactions", req)
		s.Equal(http.StatusBadRequest, w.Code, name)
	}

	s.assertDecimal("0", s.accountBalance(checking.UUID))
}

func (s *HandlersTestSuite) TestDeleteTransaction() {
	a := s.createAccount("A", false)
	b := s.createAccount("B", false)
	txn := s.bookTransaction("10.00", "2026-02-01", []string{a.UUID}, []string{b.UUID})

	w := s.perform(http.MethodDelete, "/api/v1/transactions/"+txn.UUID, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.perform(http.MethodGet, "/api/v1/transactions/"+txn.UUID, nil)
	s.Equal(http.StatusNotFound, w.Code)

	s.assertDecimal("0", s.accountBalance(a.UUID))
	s.assertDecimal("0", s.accountBalance(b.UUID))
}

func (s *HandlersTestSuite) TestDeleteAccount_WithReplacement() {
	a := s.createAccount("A", false)
	b := s.createAccount("B", false)
	sink := s.createAccount("Sink", true)
	s.bookTransaction("90.00", "2026-02-01", []string{a.UUID, b.UUID}, []string{sink.UUID})

	w := s.perform(http.MethodDelete, fmt.Sprintf("/api/v1/accounts/%s?replacement=%s", a.UUID, b.UUID), nil)
	s.Equal(http.StatusNoContent, w.Code, w.Body.String())

	w = s.perform(http.MethodGet, "/api/v1/accounts/"+a.UUID, nil)
	s.Equal(http.StatusNotFound, w.Code)

	// B takes over A's share, the transaction value is unchanged.
	s.assertDecimal("-90", s.accountBalance(b.UUID))
	s.assertDecimal("90", s.accountBalance(sink.UUID))
}

func (s *HandlersTestSuite) TestDeleteAccount_SelfReplacementConflicts() {
	a := s.createAccount("A", false)

	w := s.perform(http.MethodDelete, fmt.Sprintf("/api/v1/accounts/%s?replacement=%s", a.UUID, a.UUID), nil)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersTestSuite) TestDeleteAccount_NotFound() {
	w := s.perform(http.MethodDelete, "/api/v1/accounts/no-such-id", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestAccountHistory() {
	shop := s.createAccount("Shop", true)
	checking := s.createAccount("Checking", false)
	s.bookTransaction("100.00", "2026-01-10", []string{shop.UUID}, []string{checking.UUID})
	s.bookTransaction("40.00", "2026-01-20", []string{checking.UUID}, []string{shop.UUID})

	w := s.perform(http.MethodGet, "/api/v1/accounts/"+checking.UUID+"/history", nil)
	s.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.HistoryResponse
	s.decode(w, &resp)
	s.Equal(checking.UUID, resp.UUID)
	s.Require().Len(resp.Points, 2)
	s.Equal("2026-01-10", resp.Points[0].Date)
	s.assertDecimal("100", resp.Points[0].Balance)
	s.assertDecimal("60", resp.Points[1].Balance)
}

func (s *HandlersTestSuite) TestAccountHistory_BadRange() {
	checking := s.createAccount("Checking", false)

	w := s.perform(http.MethodGet, "/api/v1/accounts/"+checking.UUID+"/history?from=bogus", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestBudgetLifecycle() {
	groceries := s.createBudget("Groceries", "300.00")
	s.assertDecimal("300", groceries.Balance)
	s.assertDecimal("300", groceries.Budget)

	checking := s.createAccount("Checking", false)
	shop := s.createAccount("Shop", true)
	s.bookTransaction("120.00", "2026-02-05", []string{checking.UUID, groceries.UUID}, []string{shop.UUID})

	// Raising the target shifts the remaining balance by the same delta.
	newTarget := decimal.RequireFromString("400.00")
	w := s.perform(http.MethodPut, "/api/v1/budgets/"+groceries.UUID, dto.UpdateBudgetRequest{Budget: &newTarget})
	s.Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.BudgetResponse
	s.decode(w, &updated)
	s.assertDecimal("400", updated.Budget)
	s.assertDecimal("280", updated.Balance)
}

func (s *HandlersTestSuite) TestGetBook() {
	checking := s.createAccount("Checking", false)
	shop := s.createAccount("Shop", true)
	s.createBudget("Groceries", "100.00")
	s.bookTransaction("25.00", "2026-02-10", []string{shop.UUID}, []string{checking.UUID})

	w := s.perform(http.MethodGet, "/api/v1/book", nil)
	s.Equal(http.StatusOK, w.Code)
	var book dto.BookResponse
	s.decode(w, &book)
	s.Len(book.Accounts, 2)
	s.Len(book.Budgets, 1)
	s.Nil(book.Transactions)
	// Extern accounts do not count towards the owned balance.
	s.assertDecimal("25", book.Balance)

	w = s.perform(http.MethodGet, "/api/v1/book?full=true", nil)
	s.Equal(http.StatusOK, w.Code)
	s.decode(w, &book)
	s.Len(book.Transactions, 1)
}

func (s *HandlersTestSuite) TestImportStatement() {
	checking := s.createAccount("Checking", false)
	shop := s.createAccount("Shop", true)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	s.Require().NoError(form.WriteField("accountID", checking.UUID))
	s.Require().NoError(form.WriteField("counterpartyID", shop.UUID))
	s.Require().NoError(form.WriteField("skipRows", "1"))
	part, err := form.CreateFormFile("file", "statement.csv")
	s.Require().NoError(err)
	_, err = part.Write([]byte("value,date,description\n-12.50,2026-02-01,Coffee\n1000.00,2026-02-02,Refund\n"))
	s.Require().NoError(err)
	s.Require().NoError(form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/import", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp dto.ImportStatementResponse
	s.decode(w, &resp)
	s.Equal(2, resp.Imported)
	s.Len(resp.Transactions, 2)

	s.assertDecimal("987.5", s.accountBalance(checking.UUID))
	s.assertDecimal("-987.5", s.accountBalance(shop.UUID))
}

func (s *HandlersTestSuite) TestImportStatement_MissingFile() {
	checking := s.createAccount("Checking", false)
	shop := s.createAccount("Shop", true)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	s.Require().NoError(form.WriteField("accountID", checking.UUID))
	s.Require().NoError(form.WriteField("counterpartyID", shop.UUID))
	s.Require().NoError(form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/import", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
