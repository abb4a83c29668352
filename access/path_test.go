package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/darve-social/darve-go/identity"
)

// fakeRoles resolves a role per entity id from a plain map, standing in
// for Graph.GetRole (worker_test.go's fakeDueFinder/fakeSettler pattern
// applied to RoleLookup).
type fakeRoles map[string]identity.Role

func (f fakeRoles) lookup(ctx context.Context, userID, entityID string) (identity.Role, error) {
	return f[entityID], nil
}

func TestDerivePathWalksLineageWithRolesAndGuestFallback(t *testing.T) {
	roles := fakeRoles{"disc-1": identity.RoleOwner, "post-1": identity.RoleOwner}
	lineage := []Node{
		{Kind: identity.EntityDiscussion, Visibility: identity.VisibilityPublic, EntityID: "disc-1"},
		{Kind: identity.EntityPost, Visibility: identity.VisibilityPublic, EntityID: "post-1"},
		{Kind: identity.EntityTask, Visibility: identity.VisibilityPublic, EntityID: "task-1"},
	}

	path, err := DerivePath(context.Background(), roles.lookup, "u1", true, lineage)

	require.NoError(t, err)
	require.Equal(t, "APP->MEMBER->DISCUSSION:PUBLIC->OWNER->POST:PUBLIC->OWNER->TASK:PUBLIC->GUEST", path)
}

func TestDerivePathUnauthenticatedIsAppGuest(t *testing.T) {
	lineage := []Node{{Kind: identity.EntityDiscussion, Visibility: identity.VisibilityPublic, EntityID: "disc-1"}}

	path, err := DerivePath(context.Background(), fakeRoles{}.lookup, "", false, lineage)

	require.NoError(t, err)
	require.Equal(t, "APP->GUEST->DISCUSSION:PUBLIC->GUEST", path)
}

func TestDecisionGrantsPublicDiscussionOwnerCreatePost(t *testing.T) {
	ac := identity.DefaultAccessControl()
	roles := fakeRoles{"disc-1": identity.RoleOwner}
	lineage := []Node{{Kind: identity.EntityDiscussion, Visibility: identity.VisibilityPublic, EntityID: "disc-1"}}

	ok, err := Decision(context.Background(), ac, roles.lookup, "u1", true, lineage, identity.PermCreatePublicPost)

	require.NoError(t, err)
	require.True(t, ok)
}

func TestDecisionDeniesGuestAcceptTask(t *testing.T) {
	ac := identity.DefaultAccessControl()
	lineage := []Node{
		{Kind: identity.EntityDiscussion, Visibility: identity.VisibilityPublic, EntityID: "disc-1"},
		{Kind: identity.EntityPost, Visibility: identity.VisibilityPublic, EntityID: "post-1"},
		{Kind: identity.EntityTask, Visibility: identity.VisibilityPublic, EntityID: "task-1"},
	}

	ok, err := Decision(context.Background(), ac, fakeRoles{}.lookup, "", false, lineage, identity.PermAcceptTask)

	require.NoError(t, err)
	require.False(t, ok)
}

func TestDecisionGrantsCandidateAcceptTaskOnPublicTask(t *testing.T) {
	ac := identity.DefaultAccessControl()
	roles := fakeRoles{"disc-1": identity.RoleOwner, "post-1": identity.RoleOwner, "task-1": identity.RoleCandidate}
	lineage := []Node{
		{Kind: identity.EntityDiscussion, Visibility: identity.VisibilityPublic, EntityID: "disc-1"},
		{Kind: identity.EntityPost, Visibility: identity.VisibilityPublic, EntityID: "post-1"},
		{Kind: identity.EntityTask, Visibility: identity.VisibilityPublic, EntityID: "task-1"},
	}

	ok, err := Decision(context.Background(), ac, roles.lookup, "u1", true, lineage, identity.PermAcceptTask)

	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Decision(context.Background(), ac, roles.lookup, "u1", true, lineage, identity.PermDeliverTask)
	require.NoError(t, err)
	require.False(t, ok, "a CANDIDATE may accept or reject but not deliver until promoted to PARTICIPANT")
}

func TestDecisionDeniesNonOwnerAddingPrivateDiscussionMember(t *testing.T) {
	ac := identity.DefaultAccessControl()
	roles := fakeRoles{"disc-1": identity.RoleMember}
	lineage := []Node{{Kind: identity.EntityDiscussion, Visibility: identity.VisibilityPrivate, EntityID: "disc-1"}}

	ok, err := Decision(context.Background(), ac, roles.lookup, "u1", true, lineage, identity.PermAddDiscussionMember)

	require.NoError(t, err)
	require.False(t, ok, "only the private discussion OWNER may add/remove members")
}

func TestDecisionPropagatesLookupError(t *testing.T) {
	ac := identity.DefaultAccessControl()
	boom := errTestLookup{}
	lineage := []Node{{Kind: identity.EntityDiscussion, Visibility: identity.VisibilityPublic, EntityID: "disc-1"}}

	_, err := Decision(context.Background(), ac, boom.lookup, "u1", true, lineage, identity.PermView)

	require.Error(t, err)
}

type errTestLookup struct{}

func (errTestLookup) lookup(ctx context.Context, userID, entityID string) (identity.Role, error) {
	return "", context.Canceled
}
