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

type DiscussionRepo struct {
	db *gorm.DB
}

func NewDiscussionRepo(db *gorm.DB) *DiscussionRepo {
	return &DiscussionRepo{db: db}
}

func (r *DiscussionRepo) Migrate() error {
	return r.db.AutoMigrate(&Discussion{})
}

func (r *DiscussionRepo) Get(ctx context.Context, id string) (*Discussion, error) {
	var d Discussion
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFoundErr(id)
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &d, nil
}

func (r *DiscussionRepo) create(ctx context.Context, d *Discussion) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *DiscussionRepo) update(ctx context.Context, d *Discussion) error {
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func (r *DiscussionRepo) delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&Discussion{}, "id = ?", id).Error; err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// DiscussionService implements C3's discussion operations. Every mutation is
// gated through access.Checker first; private-discussion creation is
// idempotent by construction (spec.md §3, §8 Property 5).
type DiscussionService struct {
	repo    *DiscussionRepo
	checker *access.Checker
	ledger  *discussionuser.Ledger
}

func NewDiscussionService(repo *DiscussionRepo, checker *access.Checker, ledger *discussionuser.Ledger) *DiscussionService {
	return &DiscussionService{repo: repo, checker: checker, ledger: ledger}
}

// CreatePublic creates a new public discussion in a community. The creator
// becomes Owner.
func (s *DiscussionService) CreatePublic(ctx context.Context, communityID, creatorID, title, imageURL string) (*Discussion, error) {
	allowed, err := s.checker.Can(ctx, creatorID, true, nil, identity.PermCreateDiscussion)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.ForbiddenErr("create_discussion")
	}
	d := &Discussion{
		ID:          NewID("discussion"),
		CommunityID: communityID,
		Type:        DiscussionPublic,
		CreatedBy:   creatorID,
		Title:       title,
		ImageURL:    imageURL,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.create(ctx, d); err != nil {
		return nil, err
	}
	if err := s.checker.Grant(ctx, []string{creatorID}, identity.EntityDiscussion, []string{d.ID}, identity.RoleOwner); err != nil {
		return nil, err
	}
	if err := s.ledger.Join(ctx, d.ID, []string{creatorID}); err != nil {
		return nil, err
	}
	return d, nil
}

// CreatePrivate derives the discussion id from the sorted member set
// (content.PrivateDiscussionID) so re-inviting the same people resolves to
// the same discussion instead of spawning a duplicate (spec.md §8 Property
// 5). Grounded on original_source/src/services/discussion_service.rs.
func (s *DiscussionService) CreatePrivate(ctx context.Context, communityID, creatorID string, memberIDs []string) (*Discussion, error) {
	allowed, err := s.checker.Can(ctx, creatorID, true, nil, identity.PermCreateDiscussion)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.ForbiddenErr("create_discussion")
	}

	members := uniqueWith(memberIDs, creatorID)
	id := PrivateDiscussionID(members)

	if existing, err := s.repo.Get(ctx, id); err == nil {
		return existing, nil
	} else if aerr, ok := apperr.As(err); !ok || aerr.Kind != apperr.NotFound {
		return nil, err
	}

	d := &Discussion{
		ID:          id,
		CommunityID: communityID,
		Type:        DiscussionPrivate,
		CreatedBy:   creatorID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.create(ctx, d); err != nil {
		// A concurrent creator may have won the race on the same derived id.
		if existing, getErr := s.repo.Get(ctx, id); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	roles := make([]string, 0, len(members))
	for _, m := range members {
		if m == creatorID {
			continue
		}
		roles = append(roles, m)
	}
	if err := s.checker.Grant(ctx, []string{creatorID}, identity.EntityDiscussion, []string{d.ID}, identity.RoleOwner); err != nil {
		return nil, err
	}
	if len(roles) > 0 {
		if err := s.checker.Grant(ctx, roles, identity.EntityDiscussion, []string{d.ID}, identity.RoleMember); err != nil {
			return nil, err
		}
	}
	if err := s.ledger.Join(ctx, d.ID, members); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DiscussionService) Get(ctx context.Context, id string) (*Discussion, error) {
	return s.repo.Get(ctx, id)
}

// EnsureProfileDiscussion returns a user's profile discussion, creating it
// on first use. Delivery posts land here (spec.md §4.6.1 Deliver: "create
// a Public post in the participant's profile discussion tagged Delivery").
func (s *DiscussionService) EnsureProfileDiscussion(ctx context.Context, communityID, userID string) (*Discussion, error) {
	id := ProfileDiscussionID(userID)
	if existing, err := s.repo.Get(ctx, id); err == nil {
		return existing, nil
	} else if aerr, ok := apperr.As(err); !ok || aerr.Kind != apperr.NotFound {
		return nil, err
	}

	d := &Discussion{
		ID:          id,
		CommunityID: communityID,
		Type:        DiscussionPublic,
		CreatedBy:   userID,
		Title:       "Profile",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.create(ctx, d); err != nil {
		if existing, getErr := s.repo.Get(ctx, id); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	if err := s.checker.Grant(ctx, []string{userID}, identity.EntityDiscussion, []string{d.ID}, identity.RoleOwner); err != nil {
		return nil, err
	}
	if err := s.ledger.Join(ctx, d.ID, []string{userID}); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DiscussionService) Update(ctx context.Context, userID, id, title, imageURL string) (*Discussion, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed, err := s.checker.Can(ctx, userID, true, DiscussionLineage(d), identity.PermEdit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.ForbiddenErr("edit_discussion")
	}
	d.Title = title
	d.ImageURL = imageURL
	d.UpdatedAt = time.Now().UTC()
	if err := s.repo.update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DiscussionService) Delete(ctx context.Context, userID, id string) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	allowed, err := s.checker.Can(ctx, userID, true, DiscussionLineage(d), identity.PermEdit)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.ForbiddenErr("delete_discussion")
	}
	return s.repo.delete(ctx, id)
}

// AddChatUsers admits new members to a private discussion (spec.md §4.3
// "add_chat_users"). Unread counters start fresh for the new members only.
func (s *DiscussionService) AddChatUsers(ctx context.Context, actorID, id string, userIDs []string) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	allowed, err := s.checker.Can(ctx, actorID, true, DiscussionLineage(d), identity.PermAddDiscussionMember)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.ForbiddenErr("add_discussion_member")
	}
	if err := s.checker.Grant(ctx, userIDs, identity.EntityDiscussion, []string{id}, identity.RoleMember); err != nil {
		return err
	}
	return s.ledger.Join(ctx, id, userIDs)
}

// RemoveChatUsers evicts members (spec.md §4.3 "remove_chat_users"), both
// their access edge and their unread ledger row.
func (s *DiscussionService) RemoveChatUsers(ctx context.Context, actorID, id string, userIDs []string) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	allowed, err := s.checker.Can(ctx, actorID, true, DiscussionLineage(d), identity.PermRemoveDiscussionMember)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.ForbiddenErr("remove_discussion_member")
	}
	if err := s.checker.RevokeByEntity(ctx, id, userIDs); err != nil {
		return err
	}
	for _, u := range userIDs {
		if err := s.ledger.Leave(ctx, id, u); err != nil {
			return err
		}
	}
	return nil
}

func uniqueWith(ids []string, extra string) []string {
	seen := map[string]struct{}{extra: {}}
	out := []string{extra}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
