package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/darve-social/darve-go/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserNotification is the persisted row (spec.md §3) so offline users see
// notifications on next login.
type UserNotification struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"not null;index"`
	Event     Kind
	Content   json.RawMessage `gorm:"type:jsonb"`
	IsRead    bool
	CreatedAt time.Time
}

func (UserNotification) TableName() string { return "user_notifications" }

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&UserNotification{})
}

// Persist writes one row per recipient of ev (spec.md §4.7 "two parallel
// outputs for every notification").
func (s *Store) Persist(ctx context.Context, ev Event) error {
	if len(ev.Receivers) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]UserNotification, 0, len(ev.Receivers))
	for userID := range ev.Receivers {
		rows = append(rows, UserNotification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Event:     ev.Kind,
			Content:   ev.Content,
			CreatedAt: now,
		})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// ListUnread returns a user's unread notifications, newest first.
func (s *Store) ListUnread(ctx context.Context, userID string) ([]UserNotification, error) {
	var rows []UserNotification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return rows, nil
}

// MarkRead flips is_read for the given notification ids owned by userID.
func (s *Store) MarkRead(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&UserNotification{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Update("is_read", true).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}
