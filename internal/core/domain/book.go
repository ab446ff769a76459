package domain

import (
	"github.com/shopspring/decimal"
)

// Book is the derived, read-only aggregate of the whole ledger. Transactions
// is populated only when the full view is requested. Balance is the sum of
// all non-extern account balances.
type Book struct {
	Accounts     []Account       `json:"accounts"`
	Budgets      []Budget        `json:"budgets"`
	Transactions []Transaction   `json:"transactions,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
}
