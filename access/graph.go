package access

import (
	"context"
	"time"

	"github.com/darve-social/darve-go/apperr"
	"github.com/darve-social/darve-go/identity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Graph is the repository over Edge rows (spec.md §4.2 Access Graph).
type Graph struct {
	db *gorm.DB
}

func NewGraph(db *gorm.DB) *Graph {
	return &Graph{db: db}
}

func (g *Graph) Migrate() error {
	return g.db.AutoMigrate(&Edge{})
}

// Add is a bulk, idempotent insert: (user,entity) pairs that already carry
// a role are left untouched (spec.md §8 Property 4, access monotonicity —
// Add never silently demotes an existing grant; use Update for that).
func (g *Graph) Add(ctx context.Context, users []string, entityKind identity.EntityKind, entities []string, role identity.Role) error {
	if len(users) == 0 || len(entities) == 0 {
		return nil
	}
	now := time.Now().UTC()
	edges := make([]Edge, 0, len(users)*len(entities))
	for _, u := range users {
		for _, e := range entities {
			edges = append(edges, Edge{UserID: u, EntityID: e, EntityKind: entityKind, Role: role, CreatedAt: now})
		}
	}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "entity_id"}}, DoNothing: true}).
		Create(&edges).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// Update replaces the role a user holds on an entity (creates it if absent).
func (g *Graph) Update(ctx context.Context, userID, entityID string, entityKind identity.EntityKind, role identity.Role) error {
	edge := Edge{UserID: userID, EntityID: entityID, EntityKind: entityKind, Role: role, CreatedAt: time.Now().UTC()}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "entity_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).
		Create(&edge).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// RemoveByEntity revokes the given users' roles on one entity.
func (g *Graph) RemoveByEntity(ctx context.Context, entityID string, users []string) error {
	if len(users) == 0 {
		return nil
	}
	err := g.db.WithContext(ctx).Where("entity_id = ? AND user_id IN ?", entityID, users).Delete(&Edge{}).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// RemoveByUser revokes one user's role across several entities.
func (g *Graph) RemoveByUser(ctx context.Context, userID string, entities []string) error {
	if len(entities) == 0 {
		return nil
	}
	err := g.db.WithContext(ctx).Where("user_id = ? AND entity_id IN ?", userID, entities).Delete(&Edge{}).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// GetRole returns the role a user holds on entity, or "" if none.
func (g *Graph) GetRole(ctx context.Context, userID, entityID string) (identity.Role, error) {
	var edge Edge
	err := g.db.WithContext(ctx).First(&edge, "user_id = ? AND entity_id = ?", userID, entityID).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", apperr.InternalErr(err)
	}
	return edge.Role, nil
}

// RolesOnEntity returns every (user,role) edge for one entity — the "access
// view" users list embedded in discussion/post/task views (spec.md §4.2).
func (g *Graph) RolesOnEntity(ctx context.Context, entityID string) ([]Edge, error) {
	var edges []Edge
	if err := g.db.WithContext(ctx).Where("entity_id = ?", entityID).Find(&edges).Error; err != nil {
		return nil, apperr.InternalErr(err)
	}
	return edges, nil
}

// EntitiesForUser returns every entity id of a given kind the user holds
// any role on — used to list "tasks given"/"tasks received" style views.
func (g *Graph) EntitiesForUser(ctx context.Context, userID string, kind identity.EntityKind, roles ...identity.Role) ([]string, error) {
	q := g.db.WithContext(ctx).Model(&Edge{}).Where("user_id = ? AND entity_kind = ?", userID, kind)
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	var ids []string
	if err := q.Pluck("entity_id", &ids).Error; err != nil {
		return nil, apperr.InternalErr(err)
	}
	return ids, nil
}
