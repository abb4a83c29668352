package content

import (
	"context"
	"time"

	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/apperr"
	"github.com/darve-social/darve-go/discussionuser"
	"github.com/darve-social/darve-go/identity"
	"gorm.io/gorm"
)

type PostRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) *PostRepo {
	return &PostRepo{db: db}
}

func (r *PostRepo) Migrate() error {
	return r.db.AutoMigrate(&Post{})
}

func (r *PostRepo) Get(ctx context.Context, id string) (*Post, error) {
	var p Post
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundErr(id)
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &p, nil
}

func (r *PostRepo) create(ctx context.Context, p *Post) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *PostRepo) update(ctx context.Context, p *Post) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *PostRepo) delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&Post{}, "id = ?", id).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// IncrTasksNr keeps Post.TasksNr in sync when a task request is attached
// (spec.md §3 Post.tasks_nr denormalized counter).
func (r *PostRepo) IncrTasksNr(ctx context.Context, id string, delta int64) error {
	err := r.db.WithContext(ctx).Model(&Post{}).Where("id = ?", id).
		Update("tasks_nr", gorm.Expr("tasks_nr + ?", delta)).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *PostRepo) incrRepliesNr(ctx context.Context, id string, delta int64) error {
	err := r.db.WithContext(ctx).Model(&Post{}).Where("id = ?", id).
		Update("replies_nr", gorm.Expr("replies_nr + ?", delta)).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *PostRepo) setLikesNr(ctx context.Context, id string, count int64) error {
	err := r.db.WithContext(ctx).Model(&Post{}).Where("id = ?", id).
		Update("likes_nr", count).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// PostService implements C3's post operations (spec.md §4.3).
type PostService struct {
	posts       *PostRepo
	discussions *DiscussionRepo
	checker     *access.Checker
	ledger      *discussionuser.Ledger
	tags        *TagRepo
}

func NewPostService(posts *PostRepo, discussions *DiscussionRepo, checker *access.Checker, ledger *discussionuser.Ledger, tags *TagRepo) *PostService {
	return &PostService{posts: posts, discussions: discussions, checker: checker, ledger: ledger, tags: tags}
}

// permissionFor resolves which CreatePost permission applies for the
// requested post type, matching identity/schema.json's per-visibility
// permission names (spec.md §4.1 GLOSSARY "Permission").
func permissionFor(t PostType) identity.Permission {
	switch t {
	case PostPrivate:
		return identity.PermCreatePrivatePost
	case PostIdea:
		return identity.PermCreateIdeaPost
	default:
		return identity.PermCreatePublicPost
	}
}

// Create posts into a discussion. Public discussions only ever hold public
// content; private discussions may additionally hold private/idea posts
// (spec.md §3 Post invariant "type PRIVATE/IDEA only valid inside a PRIVATE
// discussion").
func (s *PostService) Create(ctx context.Context, authorID, discussionID string, postType PostType, title, body string, mediaLinks []string, tagNames []string, replyToID *string) (*Post, error) {
	d, err := s.discussions.Get(ctx, discussionID)
	if err != nil {
		return nil, err
	}
	if d.Type == DiscussionPublic && postType != PostPublic {
		return nil, apperr.ValidationErr("type", "private or idea posts require a private discussion")
	}

	allowed, err := s.checker.Can(ctx, authorID, true, DiscussionLineage(d), permissionFor(postType))
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.ForbiddenErr("create_post")
	}

	now := time.Now().UTC()
	p := &Post{
		ID:           NewID("post"),
		DiscussionID: discussionID,
		CreatedBy:    authorID,
		Type:         postType,
		Title:        title,
		Content:      body,
		MediaLinks:   StringSlice(mediaLinks),
		ReplyToID:    replyToID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.posts.create(ctx, p); err != nil {
		return nil, err
	}

	// Private and idea posts get an explicit Owner edge for their author.
	// A public post gets no post-level edge, so on its POST node every user,
	// the author included, resolves to GUEST (see access.DerivePath).
	if postType != PostPublic {
		if err := s.checker.Grant(ctx, []string{authorID}, identity.EntityPost, []string{p.ID}, identity.RoleOwner); err != nil {
			return nil, err
		}
	}

	if len(tagNames) > 0 && s.tags != nil {
		if err := s.tags.CreateWithRelate(ctx, p.ID, tagNames); err != nil {
			return nil, err
		}
	}

	if err := s.ledger.PostCreated(ctx, discussionID, p.ID, authorID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*Post, error) {
	return s.posts.Get(ctx, id)
}

func (s *PostService) Update(ctx context.Context, userID, id, title, body string, mediaLinks []string) (*Post, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := s.discussions.Get(ctx, p.DiscussionID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.checker.Can(ctx, userID, true, PostLineage(d, p), identity.PermEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.ForbiddenErr("edit_post")
	}
	p.Title = title
	p.Content = body
	p.MediaLinks = StringSlice(mediaLinks)
	p.UpdatedAt = time.Now().UTC()
	if err := s.posts.update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a post (spec.md §4.3 "delete_post"). Only the post row is
// deleted; files behind its media links are not removed from storage.
func (s *PostService) Delete(ctx context.Context, userID, id string) error {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return err
	}
	d, err := s.discussions.Get(ctx, p.DiscussionID)
	if err != nil {
		return err
	}
	allowed, err := s.checker.Can(ctx, userID, true, PostLineage(d, p), identity.PermEdit)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.ForbiddenErr("delete_post")
	}
	return s.posts.delete(ctx, id)
}
