package task

import (
	"context"
	"time"

	"github.com/darve-social/darve-go/rewardcalc"
	"github.com/darve-social/darve-go/wallet"
)

// Settle implements spec.md §4.6.3 exactly: refund donors when nobody
// delivered, otherwise split the task-wallet balance among unpaid
// delivered participants, skipping anyone already paid by a prior partial
// settlement (reward_tx_id not null). It is idempotent and safe to call
// repeatedly — from Reject/Deliver on private tasks, from the early-
// completion check, and from the periodic Settlement Worker sweep.
func (s *Service) Settle(ctx context.Context, taskID string) (*Request, error) {
	req, err := s.requests.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if req.Status == StatusCompleted {
		return req, nil
	}

	balance, err := s.ledger.GetBalance(ctx, req.WalletID, req.Currency)
	if err != nil {
		return nil, err
	}
	if balance == 0 {
		return s.markCompleted(ctx, req)
	}

	parts, err := s.participants.ListForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	var delivered []Participant
	for _, p := range parts {
		if p.Status == ParticipantDelivered {
			delivered = append(delivered, p)
		}
	}

	if len(delivered) == 0 {
		return s.refundDonors(ctx, req)
	}

	var unpaid []Participant
	for _, p := range delivered {
		if p.RewardTxID == nil {
			unpaid = append(unpaid, p)
		}
	}
	if len(unpaid) == 0 {
		// Every delivered participant already paid; remaining balance is
		// settlement dust (spec.md §4.6.3) and the task can close.
		return s.markCompleted(ctx, req)
	}

	share, _ := rewardcalc.SplitShares(balance, len(unpaid))
	if share <= 0 {
		return req, nil
	}

	for _, p := range unpaid {
		userWallet := wallet.UserWalletID(p.UserID)
		tx, err := s.ledger.Transfer(ctx, req.WalletID, userWallet, req.Currency, share, wallet.TxReward, p.ID)
		if err != nil {
			// Leave the task InProgress; the next sweep retries the
			// remaining unpaid participants via reward_tx_id IS NULL.
			return req, err
		}
		p.RewardTxID = &tx.ID
		p.UpdatedAt = time.Now().UTC()
		if err := s.participants.Save(ctx, nil, &p); err != nil {
			return req, err
		}
		ids, err := s.donorIDs(ctx, req.ID)
		if err != nil {
			return req, err
		}
		s.notify.OnTaskReward(ctx, p.UserID, req.ID, req.BelongsToID, ids)
		s.notify.OnUpdatedBalance(ctx, p.UserID)
	}

	return s.markCompleted(ctx, req)
}

func (s *Service) donorIDs(ctx context.Context, taskID string) ([]string, error) {
	donors, err := s.donors.ListForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(donors))
	for _, d := range donors {
		ids = append(ids, d.UserID)
	}
	return ids, nil
}

func (s *Service) refundDonors(ctx context.Context, req *Request) (*Request, error) {
	donors, err := s.donors.ListForTask(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	for _, d := range donors {
		userWallet := wallet.UserWalletID(d.UserID)
		if _, err := s.ledger.Transfer(ctx, req.WalletID, userWallet, req.Currency, d.Amount, wallet.TxRefund, req.ID); err != nil {
			return req, err
		}
		s.notify.OnUpdatedBalance(ctx, d.UserID)
	}
	return s.markCompleted(ctx, req)
}

func (s *Service) markCompleted(ctx context.Context, req *Request) (*Request, error) {
	req.Status = StatusCompleted
	req.UpdatedAt = time.Now().UTC()
	if err := s.requests.update(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

