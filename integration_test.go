package integration_test

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/config"
	"github.com/darve-social/darve-go/content"
	"github.com/darve-social/darve-go/db"
	"github.com/darve-social/darve-go/discussionuser"
	"github.com/darve-social/darve-go/identity"
	"github.com/darve-social/darve-go/notify"
	"github.com/darve-social/darve-go/task"
	"github.com/darve-social/darve-go/wallet"
)

// These scenarios exercise the full wired stack against a real Postgres
// database (spec.md §8's end-to-end Testable Properties) rather than any
// one package in isolation. They are skipped unless RUN_DB_INTEGRATION_TESTS
// is set, since package-level tests elsewhere in this repo intentionally
// avoid a database dependency (see DESIGN.md's "Test strategy" section).
type env struct {
	db           *gorm.DB
	users        *identity.Registry
	checker      *access.Checker
	communities  *content.CommunityRepo
	discussions  *content.DiscussionService
	posts        *content.PostService
	unread       *discussionuser.Ledger
	wallet       *wallet.Ledger
	tasks        *task.Service
	taskRequests *task.Repo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	if os.Getenv("RUN_DB_INTEGRATION_TESTS") != "1" {
		t.Skip("database integration tests skipped; set RUN_DB_INTEGRATION_TESTS=1 and DATABASE_URL to run")
	}

	cfg := config.Load()
	gdb, err := db.New(cfg)
	require.NoError(t, err)

	users := identity.NewRegistry(gdb)
	graph := access.NewGraph(gdb)
	schema := identity.DefaultAccessControl()
	checker := access.NewChecker(graph, schema, nil)

	communities := content.NewCommunityRepo(gdb)
	discussionRepo := content.NewDiscussionRepo(gdb)
	postRepo := content.NewPostRepo(gdb)
	replyRepo := content.NewReplyRepo(gdb)
	likeRepo := content.NewLikeRepo(gdb)
	tags := content.NewTagRepo(gdb)
	unread := discussionuser.NewLedger(gdb)

	discussions := content.NewDiscussionService(discussionRepo, checker, unread)
	posts := content.NewPostService(postRepo, discussionRepo, checker, unread, tags)

	walletLedger := wallet.NewLedger(gdb, wallet.NewKeyedMutex())

	bus := notify.NewBus(zerolog.New(io.Discard))
	notifyStore := notify.NewStore(gdb)
	notifySvc := notify.NewService(bus, notifyStore)

	taskRequests := task.NewRepo(gdb)
	taskDonors := task.NewDonorRepo(gdb)
	taskParticipants := task.NewParticipantRepo(gdb)
	tasks := task.NewService(gdb, taskRequests, taskDonors, taskParticipants, checker, walletLedger, discussions, posts, communities, notifySvc)

	for _, m := range []interface{ Migrate() error }{
		users, graph, communities, discussionRepo, postRepo, replyRepo, likeRepo, tags,
		unread, walletLedger, notifyStore, taskRequests, taskDonors, taskParticipants,
	} {
		require.NoError(t, m.Migrate())
	}

	return &env{
		db: gdb, users: users, checker: checker, communities: communities,
		discussions: discussions, posts: posts, unread: unread, wallet: walletLedger,
		tasks: tasks, taskRequests: taskRequests,
	}
}

func (e *env) newUser(t *testing.T, username string) *identity.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), username)
	require.NoError(t, err)
	return u
}

// TestPrivateDiscussionCreationIsIdempotent covers spec.md §8 Property 5:
// re-creating a private discussion for the same member set must resolve
// to the same row, not a duplicate.
func TestPrivateDiscussionCreationIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.newUser(t, "owner-"+content.NewID("u"))
	member := e.newUser(t, "member-"+content.NewID("u"))
	community, err := e.communities.EnsureProfileCommunity(ctx, owner.ID)
	require.NoError(t, err)

	first, err := e.discussions.CreatePrivate(ctx, community.ID, owner.ID, []string{member.ID})
	require.NoError(t, err)

	second, err := e.discussions.CreatePrivate(ctx, community.ID, owner.ID, []string{member.ID})
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
}

// TestSingleDonorAcceptDeliverSettles covers the single-donor, single-
// participant accept->deliver->settle path (spec.md §8): the participant's
// wallet receives the full donated amount once delivery is accepted.
func TestSingleDonorAcceptDeliverSettles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	creator := e.newUser(t, "creator-"+content.NewID("u"))
	participant := e.newUser(t, "participant-"+content.NewID("u"))

	community, err := e.communities.EnsureProfileCommunity(ctx, creator.ID)
	require.NoError(t, err)
	discussion, err := e.discussions.CreatePrivate(ctx, community.ID, creator.ID, []string{participant.ID})
	require.NoError(t, err)

	_, err = e.wallet.Endow(ctx, wallet.UserWalletID(creator.ID), "USD", 1000, "test seed")
	require.NoError(t, err)

	parentLineage := content.DiscussionLineage(discussion)
	req, err := e.tasks.Create(ctx, task.CreateParams{
		BelongsToKind:    task.BelongsToDiscussion,
		BelongsToID:      discussion.ID,
		CreatorID:        creator.ID,
		Visibility:       task.VisibilityPrivate,
		RewardType:       task.RewardOnDelivery,
		Currency:         "USD",
		RequestText:      "design a logo",
		AcceptancePeriod: 86400,
		DeliveryPeriod:   86400,
		ParticipantIDs:   []string{participant.ID},
		ParentLineage:    parentLineage,
	})
	require.NoError(t, err)

	require.NoError(t, e.tasks.Donate(ctx, creator.ID, req.ID, 500, parentLineage))
	require.NoError(t, e.tasks.Accept(ctx, participant.ID, req.ID, parentLineage))

	require.NoError(t, e.tasks.Deliver(ctx, task.DeliverParams{
		UserID:        participant.ID,
		TaskID:        req.ID,
		PostTitle:     "done",
		PostBody:      "here's the logo",
		ParentLineage: parentLineage,
	}))

	settled, err := e.taskRequests.Get(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, task.StatusCompleted, settled.Status, "delivering the only participant on a private task settles it immediately")

	balance, err := e.wallet.GetBalance(ctx, wallet.UserWalletID(participant.ID), "USD")
	require.NoError(t, err)
	require.Equal(t, int64(500), balance)

	escrowBalance, err := e.wallet.GetBalance(ctx, req.WalletID, "USD")
	require.NoError(t, err)
	require.Equal(t, int64(0), escrowBalance)
}

// TestRejectWithNoOtherParticipantsRefundsDonor covers the no-delivery
// refund path (spec.md §8): a lone participant rejecting settles the task
// by returning the escrowed donation to its donor.
func TestRejectWithNoOtherParticipantsRefundsDonor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	creator := e.newUser(t, "creator-"+content.NewID("u"))
	participant := e.newUser(t, "participant-"+content.NewID("u"))

	community, err := e.communities.EnsureProfileCommunity(ctx, creator.ID)
	require.NoError(t, err)
	discussion, err := e.discussions.CreatePrivate(ctx, community.ID, creator.ID, []string{participant.ID})
	require.NoError(t, err)

	_, err = e.wallet.Endow(ctx, wallet.UserWalletID(creator.ID), "USD", 1000, "test seed")
	require.NoError(t, err)

	parentLineage := content.DiscussionLineage(discussion)
	req, err := e.tasks.Create(ctx, task.CreateParams{
		BelongsToKind:    task.BelongsToDiscussion,
		BelongsToID:      discussion.ID,
		CreatorID:        creator.ID,
		Visibility:       task.VisibilityPrivate,
		RewardType:       task.RewardOnDelivery,
		Currency:         "USD",
		RequestText:      "design a logo",
		AcceptancePeriod: 86400,
		DeliveryPeriod:   86400,
		ParticipantIDs:   []string{participant.ID},
		ParentLineage:    parentLineage,
	})
	require.NoError(t, err)

	require.NoError(t, e.tasks.Donate(ctx, creator.ID, req.ID, 500, parentLineage))
	require.NoError(t, e.tasks.Accept(ctx, participant.ID, req.ID, parentLineage))
	require.NoError(t, e.tasks.Reject(ctx, participant.ID, req.ID, parentLineage))

	settled, err := e.taskRequests.Get(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, task.StatusCompleted, settled.Status)

	creatorBalance, err := e.wallet.GetBalance(ctx, wallet.UserWalletID(creator.ID), "USD")
	require.NoError(t, err)
	require.Equal(t, int64(1000), creatorBalance, "the full donation refunds to its donor when nobody delivers")
}

// TestUnreadCounterTracksPostsAndReads covers spec.md §4.4's unread
// lifecycle: a new post increments every other member's counter; reading
// it zeroes that member's counter without touching anyone else's.
func TestUnreadCounterTracksPostsAndReads(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	owner := e.newUser(t, "owner-"+content.NewID("u"))
	member := e.newUser(t, "member-"+content.NewID("u"))
	community, err := e.communities.EnsureProfileCommunity(ctx, owner.ID)
	require.NoError(t, err)
	discussion, err := e.discussions.CreatePrivate(ctx, community.ID, owner.ID, []string{member.ID})
	require.NoError(t, err)

	post, err := e.posts.Create(ctx, owner.ID, discussion.ID, content.PostPrivate, "hello", "body", nil, nil, nil)
	require.NoError(t, err)

	row, err := e.unread.Get(ctx, discussion.ID, member.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Equal(t, int64(1), row.NrUnread)

	require.NoError(t, e.unread.ReadPost(ctx, discussion.ID, member.ID, post.ID))

	row, err = e.unread.Get(ctx, discussion.ID, member.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), row.NrUnread)

	ownerRow, err := e.unread.Get(ctx, discussion.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), ownerRow.NrUnread, "the author's own counter never increments for their own post")
}
