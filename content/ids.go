package content

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// NewID generates a random id for entities with no deterministic identity
// requirement (posts, replies, public discussions created fresh).
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// ProfileCommunityID derives the one profile community every user has
// (spec.md §3 Community invariant) without a lookup.
func ProfileCommunityID(userID string) string {
	return "community_profile_" + userID
}

// ProfileDiscussionID derives a user's own profile discussion — used as
// the target for a task participant's delivery post (spec.md §4.6.1
// Deliver transition).
func ProfileDiscussionID(userID string) string {
	return "discussion_profile_" + userID
}

// PrivateDiscussionID derives the id of a private discussion from its
// member set: sorting then hashing the ids makes creation idempotent
// (spec.md §3 Discussion invariant, §8 Property 5) — re-creating a
// discussion with the same members resolves to the same id instead of a
// duplicate row. Grounded on original_source/src/services/
// discussion_service.rs (sort ids, hash, hex-encode).
func PrivateDiscussionID(memberIDs []string) string {
	ids := append([]string(nil), memberIDs...)
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, "")))
	return "discussion_" + hex.EncodeToString(sum[:])[:32]
}
