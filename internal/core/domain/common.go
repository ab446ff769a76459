package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// EntityKind distinguishes the two bookable entity kinds sharing the id namespace.
type EntityKind string

const (
	KindAccount EntityKind = "ACCOUNT"
	KindBudget  EntityKind = "BUDGET"
)

// EntityRef identifies a bookable entity together with its kind.
type EntityRef struct {
	EntityID string
	Kind     EntityKind
}
