package task

import (
	"context"
	"time"

	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/apperr"
	"github.com/darve-social/darve-go/content"
	"github.com/darve-social/darve-go/identity"
	"github.com/darve-social/darve-go/notify"
	"github.com/darve-social/darve-go/wallet"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service implements C6's task-request lifecycle (spec.md §4.6). It owns
// no SQL directly beyond a transaction boundary for donor/wallet
// consistency; persistence is delegated to Repo/DonorRepo/ParticipantRepo.
type Service struct {
	db           *gorm.DB
	requests     *Repo
	donors       *DonorRepo
	participants *ParticipantRepo
	checker      *access.Checker
	ledger       *wallet.Ledger
	discussions  *content.DiscussionService
	posts        *content.PostService
	communities  *content.CommunityRepo
	notify       *notify.Service
}

func NewService(
	db *gorm.DB,
	requests *Repo,
	donors *DonorRepo,
	participants *ParticipantRepo,
	checker *access.Checker,
	ledger *wallet.Ledger,
	discussions *content.DiscussionService,
	posts *content.PostService,
	communities *content.CommunityRepo,
	notifier *notify.Service,
) *Service {
	return &Service{
		db: db, requests: requests, donors: donors, participants: participants,
		checker: checker, ledger: ledger, discussions: discussions, posts: posts,
		communities: communities, notify: notifier,
	}
}

// CreateParams bundles the create-task inputs (spec.md §4.6.1 "Create task
// on Post/Disc").
type CreateParams struct {
	BelongsToKind    BelongsToKind
	BelongsToID      string
	CreatorID        string
	Visibility       Visibility
	RewardType       RewardType
	VotingPeriodMin  *int
	Currency         wallet.Currency
	RequestText      string
	AcceptancePeriod int64
	DeliveryPeriod   int64
	DonationAmount   int64
	ParticipantIDs   []string
	ParentLineage    []access.Node
}

// Create inserts a new task, opens its escrow wallet, transfers any
// upfront donation, and seeds named participants (spec.md §4.6.1).
func (s *Service) Create(ctx context.Context, p CreateParams) (*Request, error) {
	if p.Visibility == VisibilityPrivate && len(p.ParticipantIDs) == 0 {
		return nil, apperr.ValidationErr("participant_ids", "private tasks require at least one named participant")
	}
	if p.Visibility == VisibilityPublic && len(p.ParticipantIDs) > 0 {
		return nil, apperr.ValidationErr("participant_ids", "public tasks cannot name participants")
	}
	if p.AcceptancePeriod <= 0 || p.DeliveryPeriod <= 0 {
		return nil, apperr.ValidationErr("period", "acceptance_period and delivery_period must be positive")
	}

	createPerm := identity.PermCreatePublicTask
	if p.Visibility == VisibilityPrivate {
		createPerm = identity.PermCreatePrivateTask
	}
	allowed, err := s.checker.Can(ctx, p.CreatorID, true, p.ParentLineage, createPerm)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.ForbiddenErr("create_task")
	}
	if p.DonationAmount > 0 {
		donateAllowed, err := s.checker.Can(ctx, p.CreatorID, true, p.ParentLineage, identity.PermDonate)
		if err != nil {
			return nil, err
		}
		if !donateAllowed {
			return nil, apperr.ForbiddenErr("donate")
		}
	}

	for _, pid := range p.ParticipantIDs {
		viewAllowed, err := s.checker.Can(ctx, pid, true, p.ParentLineage, identity.PermView)
		if err != nil {
			return nil, err
		}
		if !viewAllowed {
			return nil, apperr.ForbiddenErr("participant_view")
		}
	}

	now := time.Now().UTC()
	req := &Request{
		ID:               "task_" + uuid.NewString(),
		BelongsToKind:    p.BelongsToKind,
		BelongsToID:      p.BelongsToID,
		CreatedBy:        p.CreatorID,
		Visibility:       p.Visibility,
		RewardType:       p.RewardType,
		VotingPeriodMin:  p.VotingPeriodMin,
		Currency:         p.Currency,
		Status:           StatusInit,
		DeliverableType:  "PublicPost",
		RequestText:      p.RequestText,
		AcceptancePeriod: p.AcceptancePeriod,
		DeliveryPeriod:   p.DeliveryPeriod,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	req.WalletID = wallet.TaskWalletID(req.ID)

	if err := s.requests.create(ctx, req); err != nil {
		return nil, err
	}
	if err := s.checker.Grant(ctx, []string{p.CreatorID}, identity.EntityTask, []string{req.ID}, identity.RoleOwner); err != nil {
		return nil, err
	}

	if p.DonationAmount > 0 {
		donorWallet := wallet.UserWalletID(p.CreatorID)
		tx, err := s.ledger.Transfer(ctx, donorWallet, req.WalletID, p.Currency, p.DonationAmount, wallet.TxDonate, req.ID)
		if err != nil {
			return nil, err
		}
		if err := s.donors.Upsert(ctx, nil, &Donor{
			UserID: p.CreatorID, TaskID: req.ID, Amount: p.DonationAmount,
			TransactionID: tx.ID, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return nil, err
		}
		if err := s.checker.Grant(ctx, []string{p.CreatorID}, identity.EntityTask, []string{req.ID}, identity.RoleDonor); err != nil {
			return nil, err
		}
	}

	for _, pid := range p.ParticipantIDs {
		part := &Participant{
			ID:        "tp_" + uuid.NewString(),
			TaskID:    req.ID,
			UserID:    pid,
			Status:    ParticipantRequested,
			Timelines: Timelines{{Status: ParticipantRequested, Date: now}},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.participants.Create(ctx, nil, part); err != nil {
			return nil, err
		}
		if err := s.checker.Grant(ctx, []string{pid}, identity.EntityTask, []string{req.ID}, identity.RoleCandidate); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// Donate opens or replaces a donor's contribution (spec.md §4.6.1
// "Donate / Update donation").
func (s *Service) Donate(ctx context.Context, userID, taskID string, amount int64, parentLineage []access.Node) error {
	if amount <= 0 {
		return apperr.ValidationErr("amount", "must be positive")
	}
	req, err := s.requests.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if req.Status == StatusCompleted {
		return apperr.ConflictErr("task already completed")
	}
	allowed, err := s.checker.Can(ctx, userID, true, Lineage(parentLineage, req), identity.PermDonate)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.ForbiddenErr("donate")
	}

	donorWallet := wallet.UserWalletID(userID)
	now := time.Now().UTC()

	existing, err := s.donors.Get(ctx, nil, taskID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		if _, err := s.ledger.Transfer(ctx, req.WalletID, donorWallet, req.Currency, existing.Amount, wallet.TxRefund, taskID); err != nil {
			return err
		}
	}

	tx, err := s.ledger.Transfer(ctx, donorWallet, req.WalletID, req.Currency, amount, wallet.TxDonate, taskID)
	if err != nil {
		return err
	}

	if err := s.donors.Upsert(ctx, nil, &Donor{
		UserID: userID, TaskID: taskID, Amount: amount, TransactionID: tx.ID,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		return err
	}
	return s.checker.Grant(ctx, []string{userID}, identity.EntityTask, []string{taskID}, identity.RoleDonor)
}

// Accept transitions a candidate to Accepted and the task to InProgress on
// its first acceptance (spec.md §4.6.1 "Accept").
func (s *Service) Accept(ctx context.Context, userID, taskID string, parentLineage []access.Node) error {
	req, err := s.requests.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if time.Now().UTC().After(req.AcceptanceDeadline()) {
		return apperr.DeadlineExpiredErr("acceptance window closed")
	}
	if userID == req.CreatedBy {
		return apperr.ForbiddenErr("creator cannot accept own task")
	}
	if donor, err := s.donors.Get(ctx, nil, taskID, userID); err != nil {
		return err
	} else if donor != nil {
		return apperr.ForbiddenErr("donor cannot accept own donated task")
	}

	allowed, err := s.checker.Can(ctx, userID, true, Lineage(parentLineage, req), identity.PermAcceptTask)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.ForbiddenErr("accept_task")
	}

	now := time.Now().UTC()
	part, err := s.participants.Get(ctx, nil, taskID, userID)
	if err != nil {
		return err
	}
	isNew := part == nil
	if isNew {
		part = &Participant{ID: "tp_" + uuid.NewString(), TaskID: taskID, UserID: userID, CreatedAt: now}
	}
	part.Status = ParticipantAccepted
	part.Timelines = append(part.Timelines, TimelineEntry{Status: ParticipantAccepted, Date: now})
	part.UpdatedAt = now
	if isNew {
		if err := s.participants.Create(ctx, nil, part); err != nil {
			return err
		}
	} else if err := s.participants.Save(ctx, nil, part); err != nil {
		return err
	}

	if err := s.checker.Grant(ctx, []string{userID}, identity.EntityTask, []string{taskID}, identity.RoleParticipant); err != nil {
		return err
	}

	if req.Status == StatusInit {
		req.Status = StatusInProgress
		req.UpdatedAt = now
		if err := s.requests.update(ctx, req); err != nil {
			return err
		}
	}
	s.notify.OnAcceptedTask(ctx, req.CreatedBy, taskID)
	return nil
}

// Reject transitions a candidate/participant to Rejected and, on a private
// task whose participants are now all terminal, settles it (spec.md §4.6.1
// "Reject").
func (s *Service) Reject(ctx context.Context, userID, taskID string, parentLineage []access.Node) error {
	req, err := s.requests.Get(ctx, taskID)
	if err != nil {
		return err
	}
	allowed, err := s.checker.Can(ctx, userID, true, Lineage(parentLineage, req), identity.PermRejectTask)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.ForbiddenErr("reject_task")
	}
	part, err := s.participants.Get(ctx, nil, taskID, userID)
	if err != nil {
		return err
	}
	if part == nil || (part.Status != ParticipantRequested && part.Status != ParticipantAccepted) {
		return apperr.ConflictErr("not rejectable from current status")
	}

	now := time.Now().UTC()
	part.Status = ParticipantRejected
	part.Timelines = append(part.Timelines, TimelineEntry{Status: ParticipantRejected, Date: now})
	part.UpdatedAt = now
	if err := s.participants.Save(ctx, nil, part); err != nil {
		return err
	}
	if err := s.checker.RevokeByUser(ctx, userID, []string{taskID}); err != nil {
		return err
	}
	s.notify.OnRejectedTask(ctx, req.CreatedBy, taskID)

	if req.Visibility == VisibilityPrivate {
		if done, err := s.allParticipantsTerminal(ctx, taskID); err != nil {
			return err
		} else if done {
			if _, err := s.Settle(ctx, taskID); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeliverParams bundles the deliver-task inputs (spec.md §4.6.1 "Deliver").
type DeliverParams struct {
	UserID        string
	TaskID        string
	PostTitle     string
	PostBody      string
	MediaLinks    []string
	Link          *string
	ParentLineage []access.Node
}

// Deliver records a participant's delivery: either an externally-hosted
// link or a Public post created in the participant's profile discussion,
// tagged Delivery (spec.md §4.6.1 "Deliver").
func (s *Service) Deliver(ctx context.Context, p DeliverParams) error {
	req, err := s.requests.Get(ctx, p.TaskID)
	if err != nil {
		return err
	}
	part, err := s.participants.Get(ctx, nil, p.TaskID, p.UserID)
	if err != nil {
		return err
	}
	if part == nil || part.Status != ParticipantAccepted {
		return apperr.ConflictErr("deliver requires an accepted participant")
	}
	last := part.Timelines.Last()
	if last == nil || time.Now().UTC().After(last.Date.Add(time.Duration(req.DeliveryPeriod)*time.Second)) {
		return apperr.DeadlineExpiredErr("delivery window closed")
	}
	allowed, err := s.checker.Can(ctx, p.UserID, true, Lineage(p.ParentLineage, req), identity.PermDeliverTask)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.ForbiddenErr("deliver_task")
	}

	result := Result{}
	if p.Link != nil {
		result.Link = p.Link
	} else {
		community, err := s.communities.EnsureProfileCommunity(ctx, p.UserID)
		if err != nil {
			return err
		}
		profileDiscussion, err := s.discussions.EnsureProfileDiscussion(ctx, community.ID, p.UserID)
		if err != nil {
			return err
		}
		post, err := s.posts.Create(ctx, p.UserID, profileDiscussion.ID, content.PostPublic, p.PostTitle, p.PostBody, p.MediaLinks, []string{content.SystemTagDelivery}, nil)
		if err != nil {
			return err
		}
		result.PostID = &post.ID
	}

	now := time.Now().UTC()
	part.Status = ParticipantDelivered
	part.Timelines = append(part.Timelines, TimelineEntry{Status: ParticipantDelivered, Date: now})
	part.Result = result
	part.UpdatedAt = now
	if err := s.participants.Save(ctx, nil, part); err != nil {
		return err
	}
	s.notify.OnDeliverTask(ctx, req.CreatedBy, p.TaskID, result.PostID, result.Link)

	if req.Visibility == VisibilityPrivate {
		if done, err := s.allParticipantsTerminal(ctx, p.TaskID); err != nil {
			return err
		} else if done {
			if _, err := s.Settle(ctx, p.TaskID); err != nil {
				return err
			}
		}
	}
	return nil
}

// allParticipantsTerminal implements reward-on-early-completion (spec.md
// §4.6.4): every participant has reached Rejected or Delivered.
func (s *Service) allParticipantsTerminal(ctx context.Context, taskID string) (bool, error) {
	parts, err := s.participants.ListForTask(ctx, taskID)
	if err != nil {
		return false, err
	}
	if len(parts) == 0 {
		return false, nil
	}
	for _, p := range parts {
		if p.Status != ParticipantRejected && p.Status != ParticipantDelivered {
			return false, nil
		}
	}
	return true, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Request, error) {
	return s.requests.Get(ctx, id)
}
