// Package access implements the runtime role graph (spec.md §4.2, C2): the
// directed `user —role→ entity` relation for discussions, posts, tasks and
// communities, and the path-derivation + decision logic that the role
// schema in package identity is evaluated against.
package access

import (
	"time"

	"github.com/darve-social/darve-go/identity"
)

// Edge is the persisted `user —role→ entity` relation (spec.md §3
// AccessUser edge). Uniqueness: at most one role per (user, entity);
// EntityKind is stored alongside EntityID so lineage lookups and cache
// invalidation don't need to guess which table to join.
type Edge struct {
	UserID     string `gorm:"primaryKey;column:user_id"`
	EntityID   string `gorm:"primaryKey;column:entity_id"`
	EntityKind identity.EntityKind `gorm:"column:entity_kind"`
	Role       identity.Role
	CreatedAt  time.Time
}

func (Edge) TableName() string { return "access_edges" }
