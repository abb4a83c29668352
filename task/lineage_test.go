package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/identity"
)

func TestLineageAppendsTaskNodeWithVisibility(t *testing.T) {
	parent := []access.Node{
		{Kind: identity.EntityDiscussion, Visibility: identity.VisibilityPublic, EntityID: "disc-1"},
		{Kind: identity.EntityPost, Visibility: identity.VisibilityPublic, EntityID: "post-1"},
	}
	req := &Request{ID: "task-1", Visibility: VisibilityPrivate}

	lineage := Lineage(parent, req)

	require.Len(t, lineage, 3)
	require.Equal(t, identity.EntityTask, lineage[2].Kind)
	require.Equal(t, identity.VisibilityPrivate, lineage[2].Visibility)
	require.Equal(t, "task-1", lineage[2].EntityID)
}

func TestLineageDoesNotMutateParentSlice(t *testing.T) {
	parent := make([]access.Node, 0, 4)
	parent = append(parent, access.Node{Kind: identity.EntityDiscussion, EntityID: "disc-1"})

	_ = Lineage(parent, &Request{ID: "task-1", Visibility: VisibilityPublic})

	require.Len(t, parent, 1, "Lineage must not grow the caller's backing array in place")
}

func TestLineagePublicVisibilityDefaultsWhenNotPrivate(t *testing.T) {
	req := &Request{ID: "task-2", Visibility: VisibilityPublic}

	lineage := Lineage(nil, req)

	require.Equal(t, identity.VisibilityPublic, lineage[0].Visibility)
}

func TestRequestDueAtAddsAcceptanceAndDeliveryPeriods(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req := &Request{CreatedAt: created, AcceptancePeriod: 3600, DeliveryPeriod: 7200}

	require.Equal(t, created.Add(3*time.Hour), req.DueAt())
}

func TestRequestAcceptanceDeadlineIsCreatedPlusAcceptancePeriodOnly(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req := &Request{CreatedAt: created, AcceptancePeriod: 1800, DeliveryPeriod: 99999}

	require.Equal(t, created.Add(30*time.Minute), req.AcceptanceDeadline())
}
