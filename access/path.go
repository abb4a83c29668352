package access

import (
	"context"
	"strings"

	"github.com/darve-social/darve-go/identity"
)

// Node is one link in an entity's lineage, walked from the community root
// down to the entity a permission check targets (spec.md §4.2
// "entity.lineage is computed by walking belongs_to up to the community
// root"). Content package callers build the chain top-down (community's
// discussion first, the checked entity last).
type Node struct {
	Kind       identity.EntityKind
	Visibility identity.Visibility
	EntityID   string
}

func (n Node) segment() string {
	return string(n.Kind) + ":" + string(n.Visibility)
}

// RoleLookup resolves the role a user holds on one entity id. Graph.GetRole
// satisfies this signature.
type RoleLookup func(ctx context.Context, userID, entityID string) (identity.Role, error)

// DerivePath builds the access path for a user walking down lineage,
// exactly as spec.md §4.1's example:
// APP->MEMBER->DISCUSSION:PRIVATE->OWNER->POST:PRIVATE->MEMBER->TASK:PUBLIC->PARTICIPANT.
// authenticated selects the APP-level role: MEMBER for any signed-in user
// (everyone with an account may CreateDiscussion; finer-grained community
// roles are not modelled — spec.md §3 Community only distinguishes an
// owner, not tiered membership), GUEST otherwise. A missing role on any
// lineage node resolves to GUEST for that segment, which is how public
// content stays visible to non-members.
func DerivePath(ctx context.Context, lookup RoleLookup, userID string, authenticated bool, lineage []Node) (string, error) {
	segs := []string{string(identity.EntityApp)}
	if authenticated {
		segs = append(segs, string(identity.RoleMember))
	} else {
		segs = append(segs, string(identity.RoleGuest))
	}

	for _, node := range lineage {
		segs = append(segs, node.segment())
		role := identity.RoleGuest
		if authenticated && userID != "" {
			r, err := lookup(ctx, userID, node.EntityID)
			if err != nil {
				return "", err
			}
			if r != "" {
				role = r
			}
		}
		segs = append(segs, string(role))
	}

	return strings.Join(segs, "->"), nil
}

// Decision evaluates whether userID holds permission over the entity
// described by lineage (spec.md §4.2 decision() pseudocode).
func Decision(ctx context.Context, ac *identity.AccessControl, lookup RoleLookup, userID string, authenticated bool, lineage []Node, perm identity.Permission) (bool, error) {
	path, err := DerivePath(ctx, lookup, userID, authenticated, lineage)
	if err != nil {
		return false, err
	}
	return ac.Can(path, perm), nil
}
