package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// auditLogRow is AuditEvent's gorm persistence shape; kept separate from
// the wire-ish AuditEvent so the pipeline's public type never depends on
// gorm tags.
type auditLogRow struct {
	TransactionID string    `gorm:"column:transaction_id;primaryKey"`
	FromWallet    string    `gorm:"column:from_wallet"`
	ToWallet      string    `gorm:"column:to_wallet"`
	Amount        int64     `gorm:"column:amount"`
	Currency      string    `gorm:"column:currency"`
	Type          string    `gorm:"column:type"`
	Description   string    `gorm:"column:description"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (auditLogRow) TableName() string { return "ledger_audit_log" }

// GormSink persists audit events to Postgres via gorm, idempotent on
// transaction_id so a retried flush after a partial failure never
// duplicates rows.
type GormSink struct {
	db *gorm.DB
}

func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

func (s *GormSink) Write(ctx context.Context, events []AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]auditLogRow, len(events))
	for i, e := range events {
		rows[i] = auditLogRow{
			TransactionID: e.TransactionID,
			FromWallet:    e.FromWallet,
			ToWallet:      e.ToWallet,
			Amount:        e.Amount,
			Currency:      e.Currency,
			Type:          e.Type,
			Description:   e.Description,
			CreatedAt:     e.CreatedAt,
		}
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "transaction_id"}}, DoNothing: true}).
		Create(&rows).Error
}

func (s *GormSink) Close() error { return nil }
