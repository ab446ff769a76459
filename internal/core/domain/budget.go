package domain

import (
	"github.com/shopspring/decimal"
)

// Budget is a spending envelope. Budget is the allotted amount; Balance is
// the remaining allowance, i.e. the allotted amount plus the net of all
// transactions booked against the budget.
type Budget struct {
	BudgetID string          `json:"uuid"`
	Name     string          `json:"name"`
	Budget   decimal.Decimal `json:"budget"`
	Balance  decimal.Decimal `json:"balance"`
	AuditFields
}

// Ref returns the budget's entity reference.
func (b Budget) Ref() EntityRef {
	return EntityRef{EntityID: b.BudgetID, Kind: KindBudget}
}
