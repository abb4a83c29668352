package identity

// Permission is a single capability a role path may grant. The vocabulary
// is fixed by spec.md §4.1 — adding a new capability is a schema-document
// change (see schema.go), never a code change.
type Permission string

const (
	PermView               Permission = "View"
	PermEdit               Permission = "Edit"
	PermCreateDiscussion    Permission = "CreateDiscussion"
	PermCreatePublicPost    Permission = "CreatePublicPost"
	PermCreatePrivatePost   Permission = "CreatePrivatePost"
	PermCreateIdeaPost      Permission = "CreateIdeaPost"
	PermCreatePublicTask    Permission = "CreatePublicTask"
	PermCreatePrivateTask   Permission = "CreatePrivateTask"
	PermAddDiscussionMember Permission = "AddDiscussionMember"
	PermRemoveDiscussionMember Permission = "RemoveDiscussionMember"
	PermAcceptTask          Permission = "AcceptTask"
	PermRejectTask          Permission = "RejectTask"
	PermDeliverTask         Permission = "DeliverTask"
	PermDonate              Permission = "Donate"
	PermLike                Permission = "Like"
	PermCreateReply         Permission = "CreateReply"
)
