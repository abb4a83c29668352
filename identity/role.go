package identity

// Role is a user's capability label on one entity (spec.md §3 AccessUser
// edge, GLOSSARY "Role").
type Role string

const (
	RoleOwner       Role = "OWNER"
	RoleEditor      Role = "EDITOR"
	RoleAdmin       Role = "ADMIN"
	RoleMember      Role = "MEMBER"
	RoleVisitor     Role = "VISITOR"
	RoleGuest       Role = "GUEST"
	RoleDonor       Role = "DONOR"
	RoleCandidate   Role = "CANDIDATE"
	RoleParticipant Role = "PARTICIPANT"
)

// EntityKind names the node types that appear in an access path
// (spec.md §3, §4.1). APP is the synthetic root every path starts from.
type EntityKind string

const (
	EntityApp        EntityKind = "APP"
	EntityCommunity  EntityKind = "COMMUNITY"
	EntityDiscussion EntityKind = "DISCUSSION"
	EntityPost       EntityKind = "POST"
	EntityTask       EntityKind = "TASK"
)

// Visibility qualifies an entity kind in a path segment, e.g.
// "DISCUSSION:PRIVATE". Every lineage node in a path carries its
// visibility suffix, TASK and POST nodes included (see access/path.go).
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityIdea    Visibility = "IDEA"
)
