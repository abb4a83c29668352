package notify

import "context"

// Service is the combined persist+publish entry point domain services call
// (spec.md §4.7 "two parallel outputs for every notification"). Method
// names mirror the call sites in original_source/src/services/
// task_service.rs's NotificationService (on_update_balance, on_accepted_task,
// on_rejected_task, on_deliver_task, on_task_reward).
type Service struct {
	bus   *Bus
	store *Store
}

func NewService(bus *Bus, store *Store) *Service {
	return &Service{bus: bus, store: store}
}

func (s *Service) emit(ctx context.Context, ev Event) {
	// Best-effort: notification failures never roll back the mutation that
	// triggered them (spec.md §7 propagation policy — "recover locally only
	// for best-effort cleanups ... notification publish failure").
	_ = s.store.Persist(ctx, ev)
	s.bus.Publish(ev)
}

type balancePayload struct {
	UserID string `json:"user_id"`
}

func (s *Service) OnUpdatedBalance(ctx context.Context, userID string) {
	s.emit(ctx, NewEvent(KindUpdatedUserBalance, balancePayload{UserID: userID}, userID))
}

type taskRewardPayload struct {
	TaskID    string   `json:"task_id"`
	BelongsTo string   `json:"belongs_to"`
	DonorIDs  []string `json:"donor_ids"`
}

func (s *Service) OnTaskReward(ctx context.Context, userID, taskID, belongsTo string, donorIDs []string) {
	s.emit(ctx, NewEvent(KindUserNotification, taskRewardPayload{TaskID: taskID, BelongsTo: belongsTo, DonorIDs: donorIDs}, userID))
}

type taskStatusPayload struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

func (s *Service) OnAcceptedTask(ctx context.Context, creatorID, taskID string) {
	s.emit(ctx, NewEvent(KindUserNotification, taskStatusPayload{TaskID: taskID, Status: "accepted"}, creatorID))
}

func (s *Service) OnRejectedTask(ctx context.Context, creatorID, taskID string) {
	s.emit(ctx, NewEvent(KindUserNotification, taskStatusPayload{TaskID: taskID, Status: "rejected"}, creatorID))
}

type deliverPayload struct {
	TaskID string  `json:"task_id"`
	PostID *string `json:"post_id,omitempty"`
	Link   *string `json:"link,omitempty"`
}

func (s *Service) OnDeliverTask(ctx context.Context, creatorID, taskID string, postID, link *string) {
	s.emit(ctx, NewEvent(KindUserNotification, deliverPayload{TaskID: taskID, PostID: postID, Link: link}, creatorID))
}

type discussionsUsersPayload struct {
	DiscussionID string `json:"discussion_id"`
}

// OnDiscussionUsersChanged tells clients to resync unread counts from C4
// (spec.md §4.7 "clients must resync by re-fetching unread counts").
func (s *Service) OnDiscussionUsersChanged(ctx context.Context, discussionID string, recipients []string) {
	s.emit(ctx, NewEvent(KindUpdateDiscussionsUsers, discussionsUsersPayload{DiscussionID: discussionID}, recipients...))
}

type newPostPayload struct {
	DiscussionID string `json:"discussion_id"`
	PostID       string `json:"post_id"`
}

func (s *Service) OnNewPost(ctx context.Context, discussionID, postID string, recipients []string) {
	s.emit(ctx, NewEvent(KindDiscussionNotification, newPostPayload{DiscussionID: discussionID, PostID: postID}, recipients...))
}
