package content

import (
	"context"
	"time"

	"github.com/darve-social/darve-go/apperr"
	"gorm.io/gorm"
)

type CommunityRepo struct {
	db *gorm.DB
}

func NewCommunityRepo(db *gorm.DB) *CommunityRepo {
	return &CommunityRepo{db: db}
}

func (r *CommunityRepo) Migrate() error {
	return r.db.AutoMigrate(&Community{})
}

// EnsureProfileCommunity returns the user's profile community, creating it
// on first use (spec.md §3 "every user has one profile community").
func (r *CommunityRepo) EnsureProfileCommunity(ctx context.Context, userID string) (*Community, error) {
	id := ProfileCommunityID(userID)
	var c Community
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err == nil {
		return &c, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperr.InternalErr(err)
	}
	c = Community{ID: id, OwnerUserID: userID, CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		// Concurrent first-use may race; re-read rather than fail.
		var existing Community
		if readErr := r.db.WithContext(ctx).First(&existing, "id = ?", id).Error; readErr == nil {
			return &existing, nil
		}
		return nil, apperr.InternalErr(err)
	}
	return &c, nil
}

func (r *CommunityRepo) Get(ctx context.Context, id string) (*Community, error) {
	var c Community
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundErr(id)
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &c, nil
}
