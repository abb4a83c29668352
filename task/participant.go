package task

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/darve-social/darve-go/apperr"
	"gorm.io/gorm"
)

// ParticipantStatus is the per-user lifecycle independent of Task.Status
// (spec.md §4.6.1).
type ParticipantStatus string

const (
	ParticipantRequested ParticipantStatus = "REQUESTED"
	ParticipantAccepted  ParticipantStatus = "ACCEPTED"
	ParticipantRejected  ParticipantStatus = "REJECTED"
	ParticipantDelivered ParticipantStatus = "DELIVERED"
)

// TimelineEntry is one append-only status transition record (spec.md §3
// TaskParticipant.timelines).
type TimelineEntry struct {
	Status ParticipantStatus `json:"status"`
	Date   time.Time         `json:"date"`
}

// Timelines is the append-only list (spec.md §3 TaskParticipant.timelines),
// persisted as a JSON array in a single column the same way
// content.StringSlice persists media links.
type Timelines []TimelineEntry

func (t Timelines) Last() *TimelineEntry {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

func (t Timelines) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]TimelineEntry(t))
	return string(b), err
}

func (t *Timelines) Scan(value interface{}) error {
	raw, err := scanBytes(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*t = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]TimelineEntry)(t))
}

// Result is set on Delivered: either a post_id (the delivery post created
// in the participant's profile discussion) or an external link.
type Result struct {
	PostID *string `json:"post_id,omitempty"`
	Link   *string `json:"link,omitempty"`
}

func (r Result) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	return string(b), err
}

func (r *Result) Scan(value interface{}) error {
	raw, err := scanBytes(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*r = Result{}
		return nil
	}
	return json.Unmarshal(raw, r)
}

func scanBytes(value interface{}) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("task: cannot scan %T into jsonb column", value)
	}
}

// Participant is the TaskParticipant edge (spec.md §3).
type Participant struct {
	ID         string `gorm:"primaryKey"`
	TaskID     string `gorm:"not null;index"`
	UserID     string `gorm:"not null;index"`
	Status     ParticipantStatus
	Timelines  Timelines `gorm:"type:text"`
	Result     Result    `gorm:"type:text"`
	RewardTxID *string   `gorm:"column:reward_tx_id"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Participant) TableName() string { return "task_participants" }

type ParticipantRepo struct {
	db *gorm.DB
}

func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

func (r *ParticipantRepo) Migrate() error {
	return r.db.AutoMigrate(&Participant{})
}

func (r *ParticipantRepo) Get(ctx context.Context, tx *gorm.DB, taskID, userID string) (*Participant, error) {
	db := r.dbOrDefault(tx)
	var p Participant
	err := db.WithContext(ctx).First(&p, "task_id = ? AND user_id = ?", taskID, userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &p, nil
}

func (r *ParticipantRepo) Create(ctx context.Context, tx *gorm.DB, p *Participant) error {
	db := r.dbOrDefault(tx)
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *ParticipantRepo) Save(ctx context.Context, tx *gorm.DB, p *Participant) error {
	db := r.dbOrDefault(tx)
	if err := db.WithContext(ctx).Save(p).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// ListForTask returns every participant row ordered by ascending id, the
// tie-break order spec.md §4.6.3 settlement requires.
func (r *ParticipantRepo) ListForTask(ctx context.Context, taskID string) ([]Participant, error) {
	var rows []Participant
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return rows, nil
}

// Unpaid returns delivered participants still missing a reward_tx_id, the
// set settlement must pay (spec.md §4.6.3 "unpaid").
func (r *ParticipantRepo) Unpaid(ctx context.Context, taskID string) ([]Participant, error) {
	var rows []Participant
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND status = ? AND reward_tx_id IS NULL", taskID, ParticipantDelivered).
		Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return rows, nil
}

// ListForUser returns every task a user is (or was) a candidate/participant
// on, newest first — the source for the "tasks received" listing
// (spec.md §6 "GET /api/tasks/received").
func (r *ParticipantRepo) ListForUser(ctx context.Context, userID string) ([]Participant, error) {
	var rows []Participant
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return rows, nil
}

func (r *ParticipantRepo) dbOrDefault(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
