package models

import "github.com/shopspring/decimal"

// Account is the database representation of a domain.Account.
type Account struct {
	AccountID string
	Name      string
	Extern    bool
	Balance   decimal.Decimal
	AuditFields
}
