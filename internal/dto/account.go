package dto

import (
	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
// Balance is deliberately absent: it is derived from the transaction set.
type CreateAccountRequest struct {
	Name   string `json:"name" binding:"required"`
	Extern bool   `json:"extern"`
}

// UpdateAccountRequest defines the fields a client may change on an account.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateAccountRequest struct {
	Name   *string `json:"name"`
	Extern *bool   `json:"extern"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	UUID    string          `json:"uuid"`
	Name    string          `json:"name"`
	Extern  bool            `json:"extern"`
	Balance decimal.Decimal `json:"balance"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		UUID:    acc.AccountID,
		Name:    acc.Name,
		Extern:  acc.Extern,
		Balance: acc.Balance,
	}
}

// ToListAccountResponse converts a slice of domain.Account to AccountResponse DTOs.
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc)
	}
	return res
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
