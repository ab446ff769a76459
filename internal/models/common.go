package models

import "time"

// AuditFields holds standard audit information as stored in the database.
type AuditFields struct {
	CreatedAt     time.Time
	LastUpdatedAt time.Time
}
