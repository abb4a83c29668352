// Package transport wraps the core service layer in HTTP + JSON (C9,
// spec.md §6 "EXTERNAL INTERFACES": "The core exposes typed service
// functions; the Transport layer wraps them in HTTP + JSON"). Handlers
// never touch a *gorm.DB directly — every mutation and read goes through
// the same service methods the settlement worker and tests use.
package transport

import (
	"sync"
	"time"

	"github.com/darve-social/darve-go/access"
	"github.com/darve-social/darve-go/config"
	"github.com/darve-social/darve-go/content"
	"github.com/darve-social/darve-go/discussionuser"
	"github.com/darve-social/darve-go/filestorage"
	"github.com/darve-social/darve-go/identity"
	"github.com/darve-social/darve-go/notify"
	"github.com/darve-social/darve-go/task"
	"github.com/darve-social/darve-go/wallet"
	"github.com/rs/zerolog"
)

// App bundles every core dependency a handler might need. One instance is
// built in main.go and shared read-only across all requests.
type App struct {
	Logger zerolog.Logger
	Cfg    *config.Config

	Users            *identity.Registry
	Checker          *access.Checker
	Communities      *content.CommunityRepo
	Discussions      *content.DiscussionService
	Posts            *content.PostService
	Replies          *content.ReplyService
	Likes            *content.LikeService
	Tags             *content.TagRepo
	Unread           *discussionuser.Ledger
	Tasks            *task.Service
	TaskRequests     *task.Repo
	TaskParticipants *task.ParticipantRepo
	TaskDonors       *task.DonorRepo
	Wallet           *wallet.Ledger
	Notify           *notify.Service
	Bus              *notify.Bus
	Notes            *notify.Store
	Storage          *filestorage.Registry

	// OnInsufficientFundsSpike is called when InsufficientFunds rejections
	// cross insufficientFundsSpikeThreshold within insufficientFundsWindow
	// (spec.md §7's error table distinguishes an ordinary per-request
	// rejection from a burst worth paging on). Optional; nil disables the
	// check.
	OnInsufficientFundsSpike func(count int, window string)

	fundsMu      sync.Mutex
	fundsWindow  []time.Time
	fundsAlerted bool
}

const (
	insufficientFundsWindow         = 5 * time.Minute
	insufficientFundsSpikeThreshold = 20
)

// noteInsufficientFundsRejection records one InsufficientFunds rejection
// and fires OnInsufficientFundsSpike once the rolling count crosses
// threshold, resetting once the window empties out again.
func (a *App) noteInsufficientFundsRejection() {
	a.fundsMu.Lock()
	defer a.fundsMu.Unlock()

	now := time.Now()
	cutoff := now.Add(-insufficientFundsWindow)
	kept := a.fundsWindow[:0]
	for _, t := range a.fundsWindow {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	a.fundsWindow = kept

	if len(a.fundsWindow) >= insufficientFundsSpikeThreshold {
		if !a.fundsAlerted && a.OnInsufficientFundsSpike != nil {
			a.OnInsufficientFundsSpike(len(a.fundsWindow), insufficientFundsWindow.String())
		}
		a.fundsAlerted = true
	} else {
		a.fundsAlerted = false
	}
}
