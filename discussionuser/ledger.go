// Package discussionuser implements the per-(user,discussion) unread
// ledger (spec.md §4.4, C4): one row per private-discussion member holding
// an unread counter and a pointer to the latest post they can still see.
package discussionuser

import (
	"context"
	"strings"
	"time"

	"github.com/darve-social/darve-go/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is the persisted (user, discussion) ledger entry.
type Row struct {
	UserID       string `gorm:"primaryKey;column:user_id"`
	DiscussionID string `gorm:"primaryKey;column:discussion_id"`
	NrUnread     int64  `gorm:"not null;default:0"`
	LatestPostID *string
	Alias        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Row) TableName() string { return "discussion_users" }

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Migrate() error {
	return l.db.AutoMigrate(&Row{})
}

// Join creates the ledger row for a newly added member (spec.md §4.4
// "Member added"). Idempotent: re-adding an existing member is a no-op.
func (l *Ledger) Join(ctx context.Context, discussionID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]Row, 0, len(userIDs))
	for _, u := range userIDs {
		rows = append(rows, Row{UserID: u, DiscussionID: discussionID, NrUnread: 0, CreatedAt: now, UpdatedAt: now})
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	// Unique-violation on re-join is expected and ignored; every other
	// error is surfaced.
	if err != nil && !isUniqueViolation(err) {
		return apperr.InternalErr(err)
	}
	return nil
}

// Leave deletes the ledger row for a user removed from the discussion
// (spec.md §4.4 "User removed from discussion").
func (l *Ledger) Leave(ctx context.Context, discussionID, userID string) error {
	err := l.db.WithContext(ctx).Delete(&Row{}, "discussion_id = ? AND user_id = ?", discussionID, userID).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// PostCreated increments nr_unread for every recipient except the author,
// and updates latest_post_id for everyone including the author (spec.md
// §4.4 "Post visible to user created").
func (l *Ledger) PostCreated(ctx context.Context, discussionID, postID, authorID string) error {
	tx := l.db.WithContext(ctx).Model(&Row{}).
		Where("discussion_id = ? AND user_id <> ?", discussionID, authorID).
		Updates(map[string]interface{}{
			"nr_unread":      gorm.Expr("nr_unread + 1"),
			"latest_post_id": postID,
			"updated_at":     time.Now().UTC(),
		})
	if tx.Error != nil {
		return apperr.InternalErr(tx.Error)
	}
	err := l.db.WithContext(ctx).Model(&Row{}).
		Where("discussion_id = ? AND user_id = ?", discussionID, authorID).
		Updates(map[string]interface{}{"latest_post_id": postID, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// ReadPost zeroes nr_unread on the reading user's own row when that row
// currently points at postID (spec.md §4.4 "User reads a post"); other
// users' rows are left as they are.
func (l *Ledger) ReadPost(ctx context.Context, discussionID, userID, postID string) error {
	err := l.db.WithContext(ctx).Model(&Row{}).
		Where("discussion_id = ? AND user_id = ? AND latest_post_id = ?", discussionID, userID, postID).
		Update("nr_unread", 0).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// RecomputeLatest is called after a post is deleted or a user loses view
// access to it (spec.md §4.4 "Post deleted / user removed from private
// post"). newLatestPostID is nil when the user has no remaining visible
// post. decrementIfStillUnread is set by the caller when the removed post
// was still counted in nr_unread for this user; the counter is then
// lowered by one unless it is already 0.
func (l *Ledger) RecomputeLatest(ctx context.Context, discussionID, userID string, newLatestPostID *string, decrementIfStillUnread bool) error {
	updates := map[string]interface{}{"latest_post_id": newLatestPostID, "updated_at": time.Now().UTC()}
	q := l.db.WithContext(ctx).Model(&Row{}).Where("discussion_id = ? AND user_id = ?", discussionID, userID)
	if decrementIfStillUnread {
		q = q.Where("nr_unread > 0")
		updates["nr_unread"] = gorm.Expr("nr_unread - 1")
	}
	if err := q.Updates(updates).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// Get returns one user's ledger row for a discussion, or nil if absent
// (public discussions and non-members never have one).
func (l *Ledger) Get(ctx context.Context, discussionID, userID string) (*Row, error) {
	var row Row
	err := l.db.WithContext(ctx).First(&row, "discussion_id = ? AND user_id = ?", discussionID, userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &row, nil
}

// ForUser lists every discussion ledger row for a user — the backing query
// for an "unread discussions" badge summary.
func (l *Ledger) ForUser(ctx context.Context, userID string) ([]Row, error) {
	var rows []Row
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, apperr.InternalErr(err)
	}
	return rows, nil
}

func isUniqueViolation(err error) bool {
	// Postgres unique_violation is SQLSTATE 23505; gorm wraps the driver
	// error so we match on the code rather than a concrete pgconn type to
	// avoid importing the driver package here.
	s := err.Error()
	return strings.Contains(s, "23505") || strings.Contains(s, "duplicate key value")
}
