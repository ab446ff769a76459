package dto

import (
	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BookResponse is the aggregate read-only view of the whole ledger.
// Transactions is present only when the full view was requested.
type BookResponse struct {
	Accounts     []AccountResponse     `json:"accounts"`
	Budgets      []BudgetResponse      `json:"budgets"`
	Transactions []TransactionResponse `json:"transactions,omitempty"`
	Balance      decimal.Decimal       `json:"balance"`
}

// GetBookParams defines query parameters for reading the book.
type GetBookParams struct {
	Full bool `form:"full,default=false"`
}

// ToBookResponse converts a domain.Book to BookResponse DTO.
func ToBookResponse(b *domain.Book) BookResponse {
	resp := BookResponse{
		Accounts: ToListAccountResponse(b.Accounts),
		Budgets:  ToListBudgetResponse(b.Budgets),
		Balance:  b.Balance,
	}
	if b.Transactions != nil {
		resp.Transactions = ToListTransactionResponse(b.Transactions)
	}
	return resp
}
