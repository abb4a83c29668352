package content

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/darve-social/darve-go/identity"
)

func TestPermissionForMatchesSchemaPermissionNames(t *testing.T) {
	require.Equal(t, identity.PermCreatePublicPost, permissionFor(PostPublic))
	require.Equal(t, identity.PermCreatePrivatePost, permissionFor(PostPrivate))
	require.Equal(t, identity.PermCreateIdeaPost, permissionFor(PostIdea))
}

func TestPermissionForUnknownTypeFallsBackToPublic(t *testing.T) {
	require.Equal(t, identity.PermCreatePublicPost, permissionFor(PostType("bogus")))
}
