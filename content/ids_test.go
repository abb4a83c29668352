package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrivateDiscussionIDIsOrderIndependent(t *testing.T) {
	a := PrivateDiscussionID([]string{"u1", "u2", "u3"})
	b := PrivateDiscussionID([]string{"u3", "u1", "u2"})

	require.Equal(t, a, b, "re-creating a private discussion with the same members in a different order must resolve to the same id")
}

func TestPrivateDiscussionIDDiffersByMembership(t *testing.T) {
	a := PrivateDiscussionID([]string{"u1", "u2"})
	b := PrivateDiscussionID([]string{"u1", "u3"})

	require.NotEqual(t, a, b)
}

func TestPrivateDiscussionIDDoesNotMutateInput(t *testing.T) {
	ids := []string{"u3", "u1", "u2"}
	_ = PrivateDiscussionID(ids)

	require.Equal(t, []string{"u3", "u1", "u2"}, ids)
}

func TestProfileIDsAreDeterministicPerUser(t *testing.T) {
	require.Equal(t, ProfileCommunityID("u1"), ProfileCommunityID("u1"))
	require.Equal(t, "community_profile_u1", ProfileCommunityID("u1"))
	require.Equal(t, "discussion_profile_u1", ProfileDiscussionID("u1"))
	require.NotEqual(t, ProfileCommunityID("u1"), ProfileCommunityID("u2"))
}

func TestNewIDCarriesPrefixAndIsUnique(t *testing.T) {
	a := NewID("post")
	b := NewID("post")

	require.Contains(t, a, "post_")
	require.NotEqual(t, a, b)
}
