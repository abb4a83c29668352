package task

import (
	"context"
	"time"

	"github.com/darve-social/darve-go/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Donor is the TaskDonor edge (spec.md §3): at most one row per
// (user, task); re-donation replaces TransactionID after a refund+donate
// pair executed atomically by the service layer.
type Donor struct {
	UserID        string `gorm:"primaryKey;column:user_id"`
	TaskID        string `gorm:"primaryKey;column:task_id"`
	Amount        int64  `gorm:"not null"`
	TransactionID string `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Donor) TableName() string { return "task_donors" }

type DonorRepo struct {
	db *gorm.DB
}

func NewDonorRepo(db *gorm.DB) *DonorRepo {
	return &DonorRepo{db: db}
}

func (r *DonorRepo) Migrate() error {
	return r.db.AutoMigrate(&Donor{})
}

func (r *DonorRepo) Get(ctx context.Context, tx *gorm.DB, taskID, userID string) (*Donor, error) {
	db := r.dbOrDefault(tx)
	var d Donor
	err := db.WithContext(ctx).First(&d, "task_id = ? AND user_id = ?", taskID, userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &d, nil
}

func (r *DonorRepo) Upsert(ctx context.Context, tx *gorm.DB, d *Donor) error {
	db := r.dbOrDefault(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "task_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "transaction_id", "updated_at"}),
	}).Create(d).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *DonorRepo) ListForTask(ctx context.Context, taskID string) ([]Donor, error) {
	var rows []Donor
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, apperr.InternalErr(err)
	}
	return rows, nil
}

func (r *DonorRepo) SumAmount(ctx context.Context, taskID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Donor{}).Where("task_id = ?", taskID).
		Select("COALESCE(SUM(amount), 0)").Row().Scan(&total)
	if err != nil {
		return 0, apperr.InternalErr(err)
	}
	return total, nil
}

func (r *DonorRepo) dbOrDefault(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
