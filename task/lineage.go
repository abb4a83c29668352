package task

import (
	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/identity"
)

func visibility(v Visibility) identity.Visibility {
	if v == VisibilityPrivate {
		return identity.VisibilityPrivate
	}
	return identity.VisibilityPublic
}

// Lineage extends a content lineage (ending at the parent post or
// discussion) with the task's own node, per spec.md §4.1's example path
// "...->POST:PRIVATE->MEMBER->TASK:PUBLIC->PARTICIPANT".
func Lineage(parent []access.Node, r *Request) []access.Node {
	return append(append([]access.Node(nil), parent...),
		access.Node{Kind: identity.EntityTask, Visibility: visibility(r.Visibility), EntityID: r.ID},
	)
}
