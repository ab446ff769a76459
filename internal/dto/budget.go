package dto

import (
	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBudgetRequest defines the data needed to create a new budget.
// The balance starts at the allotted amount; spending moves it down.
type CreateBudgetRequest struct {
	Name   string          `json:"name" binding:"required"`
	Budget decimal.Decimal `json:"budget"`
}

// UpdateBudgetRequest defines the fields a client may change on a budget.
type UpdateBudgetRequest struct {
	Name   *string          `json:"name"`
	Budget *decimal.Decimal `json:"budget"`
}

// BudgetResponse defines the data returned for a budget.
type BudgetResponse struct {
	UUID    string          `json:"uuid"`
	Name    string          `json:"name"`
	Budget  decimal.Decimal `json:"budget"`
	Balance decimal.Decimal `json:"balance"`
}

// ToBudgetResponse converts a domain.Budget to BudgetResponse DTO.
func ToBudgetResponse(b *domain.Budget) BudgetResponse {
	return BudgetResponse{
		UUID:    b.BudgetID,
		Name:    b.Name,
		Budget:  b.Budget,
		Balance: b.Balance,
	}
}

// ToListBudgetResponse converts a slice of domain.Budget to BudgetResponse DTOs.
func ToListBudgetResponse(budgets []domain.Budget) []BudgetResponse {
	res := make([]BudgetResponse, len(budgets))
	for i, b := range budgets {
		res[i] = ToBudgetResponse(&b)
	}
	return res
}

// ListBudgetsResponse wraps the list of budgets.
type ListBudgetsResponse struct {
	Budgets []BudgetResponse `json:"budgets"`
}
