package content

import (
	"context"

	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/apperr"
	"github.com/darve-social/darve-go/identity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeRepo struct {
	db *gorm.DB
}

func NewLikeRepo(db *gorm.DB) *LikeRepo {
	return &LikeRepo{db: db}
}

func (r *LikeRepo) Migrate() error {
	return r.db.AutoMigrate(&Like{})
}

func (r *LikeRepo) Get(ctx context.Context, userID, postID string) (*Like, error) {
	var l Like
	err := r.db.WithContext(ctx).First(&l, "user_id = ? AND post_id = ?", userID, postID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &l, nil
}

func (r *LikeRepo) upsert(ctx context.Context, userID, postID string, count int) error {
	l := Like{UserID: userID, PostID: postID, Count: count}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"count"}),
	}).Create(&l).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *LikeRepo) countForPost(ctx context.Context, postID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Like{}).Where("post_id = ?", postID).
		Select("COALESCE(SUM(count), 0)").Row().Scan(&total)
	if err != nil {
		return 0, apperr.InternalErr(err)
	}
	return total, nil
}

// LikeService implements "Like with credits" (spec.md §4.3): count ∈
// [1,10]; counts above 1 consume the liker's credits one-for-one, and
// re-liking the same post upserts the count rather than stacking it.
type LikeService struct {
	likes       *LikeRepo
	posts       *PostRepo
	discussions *DiscussionRepo
	checker     *access.Checker
	users       *identity.Registry
	maxCount    int
}

func NewLikeService(likes *LikeRepo, posts *PostRepo, discussions *DiscussionRepo, checker *access.Checker, users *identity.Registry, maxCount int) *LikeService {
	return &LikeService{likes: likes, posts: posts, discussions: discussions, checker: checker, users: users, maxCount: maxCount}
}

func (s *LikeService) Like(ctx context.Context, userID, postID string, count int) error {
	if count < 1 || count > s.maxCount {
		return apperr.ValidationErr("count", "must be between 1 and the configured maximum")
	}

	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	d, err := s.discussions.Get(ctx, p.DiscussionID)
	if err != nil {
		return err
	}
	allowed, err := s.checker.Can(ctx, userID, true, PostLineage(d, p), identity.PermLike)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.ForbiddenErr("like")
	}

	if count > 1 {
		if err := s.users.AddCredits(ctx, userID, -int64(count)); err != nil {
			return err
		}
	}

	if err := s.likes.upsert(ctx, userID, postID, count); err != nil {
		return err
	}

	total, err := s.likes.countForPost(ctx, postID)
	if err != nil {
		return err
	}
	return s.posts.setLikesNr(ctx, postID, total)
}
