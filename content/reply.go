package content

import (
	"context"
	"time"

	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/apperr"
	"github.com/darve-social/darve-go/identity"
	"gorm.io/gorm"
)

type ReplyRepo struct {
	db *gorm.DB
}

func NewReplyRepo(db *gorm.DB) *ReplyRepo {
	return &ReplyRepo{db: db}
}

func (r *ReplyRepo) Migrate() error {
	return r.db.AutoMigrate(&Reply{})
}

func (r *ReplyRepo) Get(ctx context.Context, id string) (*Reply, error) {
	var rep Reply
	err := r.db.WithContext(ctx).First(&rep, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundErr(id)
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &rep, nil
}

func (r *ReplyRepo) ListForPost(ctx context.Context, postID string) ([]Reply, error) {
	var rows []Reply
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return rows, nil
}

func (r *ReplyRepo) create(ctx context.Context, rep *Reply) error {
	if err := r.db.WithContext(ctx).Create(rep).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// ReplyService implements C3's reply operations (spec.md §4.3). A reply is
// always public-visibility at the post's own node: its access check reuses
// the parent post's lineage rather than minting a node of its own.
type ReplyService struct {
	replies *ReplyRepo
	posts   *PostRepo
	discs   *DiscussionRepo
	checker *access.Checker
}

func NewReplyService(replies *ReplyRepo, posts *PostRepo, discs *DiscussionRepo, checker *access.Checker) *ReplyService {
	return &ReplyService{replies: replies, posts: posts, discs: discs, checker: checker}
}

func (s *ReplyService) Create(ctx context.Context, authorID, postID, content string) (*Reply, error) {
	p, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	d, err := s.discs.Get(ctx, p.DiscussionID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.checker.Can(ctx, authorID, true, PostLineage(d, p), identity.PermCreateReply)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.ForbiddenErr("create_reply")
	}
	rep := &Reply{
		ID:        NewID("reply"),
		PostID:    postID,
		CreatedBy: authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.replies.create(ctx, rep); err != nil {
		return nil, err
	}
	if err := s.posts.incrRepliesNr(ctx, postID, 1); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *ReplyService) ListForPost(ctx context.Context, postID string) ([]Reply, error) {
	return s.replies.ListForPost(ctx, postID)
}
