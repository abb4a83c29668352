package content

import (
	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/identity"
)

func discussionVisibility(t DiscussionType) identity.Visibility {
	if t == DiscussionPrivate {
		return identity.VisibilityPrivate
	}
	return identity.VisibilityPublic
}

func postVisibility(t PostType) identity.Visibility {
	switch t {
	case PostPrivate:
		return identity.VisibilityPrivate
	case PostIdea:
		return identity.VisibilityIdea
	default:
		return identity.VisibilityPublic
	}
}

// DiscussionLineage is the access path lineage ending at a discussion.
func DiscussionLineage(d *Discussion) []access.Node {
	return []access.Node{
		{Kind: identity.EntityDiscussion, Visibility: discussionVisibility(d.Type), EntityID: d.ID},
	}
}

// PostLineage is the lineage ending at a post, walking through its parent
// discussion first (spec.md §4.2 "entity.lineage ... walking belongs_to up
// to the community root").
func PostLineage(d *Discussion, p *Post) []access.Node {
	return append(DiscussionLineage(d),
		access.Node{Kind: identity.EntityPost, Visibility: postVisibility(p.Type), EntityID: p.ID},
	)
}
