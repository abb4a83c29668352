package access

import (
	"context"

	"github.com/darve-social/darve-go/identity"
)

// Checker is the single entry point domain services use to gate mutations
// (spec.md §4.2 decision()). It combines the role graph, the schema and
// the decision cache so callers never touch Graph/AccessControl directly.
type Checker struct {
	graph  *Graph
	schema *identity.AccessControl
	cache  *Cache
}

func NewChecker(graph *Graph, schema *identity.AccessControl, cache *Cache) *Checker {
	return &Checker{graph: graph, schema: schema, cache: cache}
}

func (c *Checker) lookup(ctx context.Context, userID, entityID string) (identity.Role, error) {
	return c.graph.GetRole(ctx, userID, entityID)
}

// Can checks whether userID holds perm over the entity at the end of
// lineage. authenticated=false always evaluates the GUEST path.
func (c *Checker) Can(ctx context.Context, userID string, authenticated bool, lineage []Node, perm identity.Permission) (bool, error) {
	leaf := ""
	if len(lineage) > 0 {
		leaf = lineage[len(lineage)-1].EntityID
	}
	if authenticated && leaf != "" {
		if allowed, ok := c.cache.Get(ctx, userID, leaf, perm); ok {
			return allowed, nil
		}
	}

	allowed, err := Decision(ctx, c.schema, c.lookup, userID, authenticated, lineage, perm)
	if err != nil {
		return false, err
	}
	if authenticated && leaf != "" {
		c.cache.Set(ctx, userID, leaf, perm, allowed)
	}
	return allowed, nil
}

// RoleOf exposes the direct role lookup for callers that need the raw role
// rather than a permission decision (e.g. distinguishing Candidate from
// Participant in the task engine).
func (c *Checker) RoleOf(ctx context.Context, userID, entityID string) (identity.Role, error) {
	return c.graph.GetRole(ctx, userID, entityID)
}

// Grant/Revoke delegate straight to the graph and invalidate the cache so
// the monotonicity guarantee (spec.md §8 Property 4) holds immediately.
func (c *Checker) Grant(ctx context.Context, users []string, kind identity.EntityKind, entities []string, role identity.Role) error {
	if err := c.graph.Add(ctx, users, kind, entities, role); err != nil {
		return err
	}
	for _, e := range entities {
		c.cache.InvalidateEntity(ctx, e)
	}
	return nil
}

func (c *Checker) Update(ctx context.Context, userID, entityID string, kind identity.EntityKind, role identity.Role) error {
	if err := c.graph.Update(ctx, userID, entityID, kind, role); err != nil {
		return err
	}
	c.cache.InvalidateEntity(ctx, entityID)
	return nil
}

func (c *Checker) RevokeByEntity(ctx context.Context, entityID string, users []string) error {
	if err := c.graph.RemoveByEntity(ctx, entityID, users); err != nil {
		return err
	}
	c.cache.InvalidateEntity(ctx, entityID)
	return nil
}

func (c *Checker) RevokeByUser(ctx context.Context, userID string, entities []string) error {
	if err := c.graph.RemoveByUser(ctx, userID, entities); err != nil {
		return err
	}
	for _, e := range entities {
		c.cache.InvalidateEntity(ctx, e)
	}
	return nil
}

func (c *Checker) RolesOnEntity(ctx context.Context, entityID string) ([]Edge, error) {
	return c.graph.RolesOnEntity(ctx, entityID)
}

func (c *Checker) EntitiesForUser(ctx context.Context, userID string, kind identity.EntityKind, roles ...identity.Role) ([]string, error) {
	return c.graph.EntitiesForUser(ctx, userID, kind, roles...)
}
