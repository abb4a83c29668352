// Package notify implements the in-process broadcast bus and persisted
// notification log (spec.md §4.7, C7).
package notify

import "encoding/json"

// Kind is the event tag vocabulary from spec.md §4.7/§6.
type Kind string

const (
	KindUserNotification       Kind = "UserNotificationEvent"
	KindDiscussionNotification Kind = "DiscussionNotificationEvent"
	KindUpdatedUserBalance     Kind = "UpdatedUserBalance"
	KindUpdateDiscussionsUsers Kind = "UpdateDiscussionsUsers"
	KindUserStatus             Kind = "UserStatus"
	KindUnreadDiscussionsCount Kind = "UnreadDiscussionsCount"
)

// Event is one broadcast message. Receivers filters which open SSE streams
// see it; Content is rendered as the SSE frame's JSON payload.
type Event struct {
	Kind      Kind
	Receivers map[string]struct{}
	Content   json.RawMessage
}

// NewEvent builds an event for the given receivers, marshalling payload.
func NewEvent(kind Kind, payload interface{}, receivers ...string) Event {
	content, _ := json.Marshal(payload)
	set := make(map[string]struct{}, len(receivers))
	for _, r := range receivers {
		set[r] = struct{}{}
	}
	return Event{Kind: kind, Receivers: set, Content: content}
}

func (e Event) For(userID string) bool {
	_, ok := e.Receivers[userID]
	return ok
}
