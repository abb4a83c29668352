// Package wallet implements the double-entry balance ledger (spec.md §3
// Wallet/BalanceTransaction, §4.5, C5). Every transfer is atomic and
// wallet balances never go negative; the running balance is cached on the
// wallet row and reconstructible from the transaction log.
package wallet

import (
	"time"
)

// Currency is one of the symbols enabled by configuration (spec.md §6).
type Currency string

// TxType is the BalanceTransaction kind vocabulary (spec.md §3).
type TxType string

const (
	TxEndow    TxType = "ENDOW"
	TxDonate   TxType = "DONATE"
	TxRefund   TxType = "REFUND"
	TxReward   TxType = "REWARD"
	TxTransfer TxType = "TRANSFER"
)

// UserWalletID derives the deterministic wallet id owned by a user.
func UserWalletID(userID string) string {
	return "wallet:" + userID
}

// TaskWalletID derives the deterministic escrow wallet id owned by a task
// (spec.md §3 TaskRequest.wallet_id).
func TaskWalletID(taskID string) string {
	return "wallet:" + taskID
}

// Head is one currency's cached balance on a wallet (spec.md §3
// transaction_head map).
type Head struct {
	WalletID  string   `gorm:"primaryKey;column:wallet_id"`
	Currency  Currency `gorm:"primaryKey"`
	Balance   int64    `gorm:"not null;default:0"`
	LastTxID  *string
	UpdatedAt time.Time
}

func (Head) TableName() string { return "wallet_heads" }

// Transaction is the double-entry BalanceTransaction record (spec.md §3).
// PrevFromTxID and PrevToTxID chain the sending and receiving
// wallet+currency's history into linked lists so History() can walk them
// without a secondary index.
type Transaction struct {
	ID           string `gorm:"primaryKey"`
	FromWallet   string `gorm:"not null;index"`
	ToWallet     string `gorm:"not null;index"`
	Amount       int64  `gorm:"not null"`
	Currency     Currency
	Type         TxType
	Description  string
	PrevFromTxID *string
	PrevToTxID   *string
	CreatedAt    time.Time
}

func (Transaction) TableName() string { return "wallet_transactions" }
