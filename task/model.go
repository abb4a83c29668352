// Package task implements the task-request engine (spec.md §4.6, C6): the
// lifecycle, donor ledger, participant ledger and settlement algorithm
// built on top of content (C3), access (C2) and wallet (C5).
package task

import (
	"time"

	"github.com/darve-social/darve-go/wallet"
)

// BelongsToKind names whether a task attaches to a Post or a Discussion
// (spec.md §3 TaskRequest.belongs_to).
type BelongsToKind string

const (
	BelongsToPost       BelongsToKind = "POST"
	BelongsToDiscussion BelongsToKind = "DISCUSSION"
)

// Visibility mirrors spec.md §3 TaskRequest.type.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// RewardType is the payout trigger (spec.md §3). VoteWinner is modeled but
// unwired — see SPEC_FULL.md §4.10.
type RewardType string

const (
	RewardOnDelivery RewardType = "ON_DELIVERY"
	RewardVoteWinner RewardType = "VOTE_WINNER"
)

// Status is the task's own lifecycle state (spec.md §4.6.1), independent
// of any one participant's status.
type Status string

const (
	StatusInit       Status = "INIT"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Request is the persisted TaskRequest (spec.md §3).
type Request struct {
	ID               string `gorm:"primaryKey"`
	BelongsToKind    BelongsToKind
	BelongsToID      string `gorm:"not null;index"`
	CreatedBy        string `gorm:"not null"`
	Visibility       Visibility
	RewardType       RewardType
	VotingPeriodMin  *int
	Currency         wallet.Currency
	Status           Status
	DeliverableType  string
	RequestText      string
	AcceptancePeriod int64 // seconds
	DeliveryPeriod   int64 // seconds
	WalletID         string `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Request) TableName() string { return "task_requests" }

// DueAt is created_at + acceptance_period + delivery_period (spec.md §4.6.2).
func (r *Request) DueAt() time.Time {
	return r.CreatedAt.Add(time.Duration(r.AcceptancePeriod+r.DeliveryPeriod) * time.Second)
}

// AcceptanceDeadline is the last moment Accept is allowed (spec.md §4.6.1
// "Acceptance window open").
func (r *Request) AcceptanceDeadline() time.Time {
	return r.CreatedAt.Add(time.Duration(r.AcceptancePeriod) * time.Second)
}
