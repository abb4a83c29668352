package content

import (
	"context"
	"strings"

	"github.com/darve-social/darve-go/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagRepo struct {
	db *gorm.DB
}

func NewTagRepo(db *gorm.DB) *TagRepo {
	return &TagRepo{db: db}
}

func (r *TagRepo) Migrate() error {
	return r.db.AutoMigrate(&Tag{}, &PostTag{})
}

// CreateWithRelate lowercases each tag name, upserts the Tag row and links
// it to postID, ignoring names already attached to that post (spec.md §3
// Tag invariant "id is the lowercased name").
func (r *TagRepo) CreateWithRelate(ctx context.Context, postID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	tags := make([]Tag, 0, len(names))
	links := make([]PostTag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		id := strings.ToLower(strings.TrimSpace(n))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		tags = append(tags, Tag{ID: id})
		links = append(links, PostTag{PostID: postID, TagID: id})
	}
	if len(tags) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tags).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *TagRepo) ListForPost(ctx context.Context, postID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&PostTag{}).Where("post_id = ?", postID).Pluck("tag_id", &ids).Error
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return ids, nil
}
