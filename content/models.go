// Package content owns communities, discussions, posts, replies, tags and
// likes (spec.md §4.3, C3). All writes are gated by access.Checker
// decisions; this package never grants itself permissions it doesn't ask
// for.
package content

import "time"

type DiscussionType string

const (
	DiscussionPublic  DiscussionType = "PUBLIC"
	DiscussionPrivate DiscussionType = "PRIVATE"
)

type PostType string

const (
	PostPublic  PostType = "PUBLIC"
	PostPrivate PostType = "PRIVATE"
	PostIdea    PostType = "IDEA"
)

// Community is the container every discussion belongs to (spec.md §3).
type Community struct {
	ID                  string `gorm:"primaryKey"`
	OwnerUserID         string `gorm:"not null"`
	DefaultDiscussionID string
	CreatedAt           time.Time
}

func (Community) TableName() string { return "communities" }

// Discussion (spec.md §3). Private discussions carry their member set via
// access.Edge rows (role Member/Owner), not a separate column.
type Discussion struct {
	ID          string `gorm:"primaryKey"`
	CommunityID string `gorm:"not null;index"`
	Type        DiscussionType
	CreatedBy   string
	Title       string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Discussion) TableName() string { return "discussions" }

// Post (spec.md §3).
type Post struct {
	ID          string `gorm:"primaryKey"`
	DiscussionID string `gorm:"not null;index"`
	CreatedBy   string
	Type        PostType
	Title       string
	Content     string
	MediaLinks  StringSlice `gorm:"type:text"`
	RepliesNr   int64
	LikesNr     int64
	TasksNr     int64
	ReplyToID   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Post) TableName() string { return "posts" }

// Reply (spec.md §3).
type Reply struct {
	ID        string `gorm:"primaryKey"`
	PostID    string `gorm:"not null;index"`
	CreatedBy string
	Content   string
	LikesNr   int64
	CreatedAt time.Time
}

func (Reply) TableName() string { return "replies" }

// Tag (spec.md §3) — string id, lowercased, many-to-many with posts via
// PostTag.
type Tag struct {
	ID string `gorm:"primaryKey"`
}

func (Tag) TableName() string { return "tags" }

type PostTag struct {
	PostID string `gorm:"primaryKey"`
	TagID  string `gorm:"primaryKey"`
}

func (PostTag) TableName() string { return "post_tags" }

// SystemTag names are applied by the core itself rather than user input.
const SystemTagDelivery = "delivery"

// Like (spec.md §3) — edge user→post with a count.
type Like struct {
	UserID string `gorm:"primaryKey;column:user_id"`
	PostID string `gorm:"primaryKey;column:post_id"`
	Count  int
}

func (Like) TableName() string { return "likes" }
