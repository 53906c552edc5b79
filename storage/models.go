package storage

import "time"

// ProcessedEvent records a webhook event id that has completed (or begun) an
// accrual cycle. Its presence short-circuits redeliveries before the
// calculator runs.
type ProcessedEvent struct {
	EventID   string `gorm:"primaryKey"`
	Shop      string `gorm:"index"`
	Topic     string
	CreatedAt time.Time
}

// ShopSettings holds the per-shop tier parameters, stored in minor currency
// units. Rows are created lazily with the documented defaults and mutated only
// through the admin surface, never by the accrual engine.
type ShopSettings struct {
	Shop           string `gorm:"primaryKey"`
	ThresholdMinor int64  `gorm:"not null"`
	CreditMinor    int64  `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AuditEntry captures one completed accrual cycle with enough context to
// manually reconcile deposits.
type AuditEntry struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	CycleID      string `gorm:"index"`
	EventID      string `gorm:"index"`
	Shop         string `gorm:"index"`
	Code         string
	ProID        string `gorm:"index"`
	OrderAmount  string
	DepositDelta string
	Outcome      string
	Detail       string
	CreatedAt    time.Time
}
