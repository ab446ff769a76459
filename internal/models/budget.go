package models

import "github.com/shopspring/decimal"

// Budget is the database representation of a domain.Budget.
type Budget struct {
	BudgetID string
	Name     string
	Budget   decimal.Decimal
	Balance  decimal.Decimal
	AuditFields
}
