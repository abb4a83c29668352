package content

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/darve-social/darve-go/identity"
)

func TestDiscussionLineagePublic(t *testing.T) {
	d := &Discussion{ID: "d1", Type: DiscussionPublic}

	lineage := DiscussionLineage(d)

	require.Len(t, lineage, 1)
	require.Equal(t, identity.EntityDiscussion, lineage[0].Kind)
	require.Equal(t, identity.VisibilityPublic, lineage[0].Visibility)
	require.Equal(t, "d1", lineage[0].EntityID)
}

func TestDiscussionLineagePrivate(t *testing.T) {
	d := &Discussion{ID: "d1", Type: DiscussionPrivate}

	lineage := DiscussionLineage(d)

	require.Equal(t, identity.VisibilityPrivate, lineage[0].Visibility)
}

func TestPostLineageWalksThroughParentDiscussionThenPost(t *testing.T) {
	d := &Discussion{ID: "d1", Type: DiscussionPublic}
	p := &Post{ID: "p1", Type: PostIdea}

	lineage := PostLineage(d, p)

	require.Len(t, lineage, 2)
	require.Equal(t, identity.EntityDiscussion, lineage[0].Kind)
	require.Equal(t, identity.EntityPost, lineage[1].Kind)
	require.Equal(t, identity.VisibilityIdea, lineage[1].Visibility)
	require.Equal(t, "p1", lineage[1].EntityID)
}

func TestPostLineagePrivatePost(t *testing.T) {
	d := &Discussion{ID: "d1", Type: DiscussionPrivate}
	p := &Post{ID: "p1", Type: PostPrivate}

	lineage := PostLineage(d, p)

	require.Equal(t, identity.VisibilityPrivate, lineage[0].Visibility)
	require.Equal(t, identity.VisibilityPrivate, lineage[1].Visibility)
}
