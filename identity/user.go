package identity

import (
	"context"
	"time"

	"github.com/darve-social/darve-go/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the canonical user catalogue row (spec.md §3 User). Credentials
// material (password hash, TOTP secret bytes) is opaque to the core —
// identity proofing itself is out of scope (spec.md §1).
type User struct {
	ID            string `gorm:"primaryKey"`
	Username      string `gorm:"uniqueIndex;not null"`
	Credits       int64  `gorm:"not null;default:0"`
	OTPSecret     string
	IsOTPEnabled  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (User) TableName() string { return "users" }

// Registry is the repository for the user catalogue.
type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

func (r *Registry) Migrate() error {
	return r.db.AutoMigrate(&User{})
}

// Create inserts a new user with zero credits.
func (r *Registry) Create(ctx context.Context, username string) (*User, error) {
	u := &User{ID: uuid.NewString(), Username: username}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, apperr.InternalErr(err)
	}
	return u, nil
}

// Get resolves a user by id.
func (r *Registry) Get(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundErr(id)
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &u, nil
}

// GetMany resolves a batch of users by id, order not guaranteed.
func (r *Registry) GetMany(ctx context.Context, ids []string) ([]*User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperr.InternalErr(err)
	}
	return users, nil
}

// AddCredits atomically increments a user's credit balance (used for the
// delivery-credit reward, SPEC_FULL.md §4.9, and the like-with-credits
// debit path, spec.md §4.3 as a negative delta).
func (r *Registry) AddCredits(ctx context.Context, userID string, delta int64) error {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ? AND credits + ? >= 0", userID, delta).
		UpdateColumn("credits", gorm.Expr("credits + ?", delta))
	if res.Error != nil {
		return apperr.InternalErr(res.Error)
	}
	if res.RowsAffected == 0 && delta < 0 {
		return apperr.New(apperr.Validation, "insufficient credits")
	}
	return nil
}
