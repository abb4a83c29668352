package wallet

import (
	"context"
	"time"

	"github.com/darve-social/darve-go/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// auditRecorder is the narrow interface wallet needs (ledger.WalletRecorder
// implements it over a ledger.Pipeline), so this package never imports
// ledger's batching/retry machinery directly.
type auditRecorder interface {
	Track(event AuditRecord)
}

// AuditRecord is what Ledger hands to an auditRecorder after each commit;
// its fields line up with ledger.AuditEvent without this package depending
// on that one.
type AuditRecord struct {
	TransactionID string
	FromWallet    string
	ToWallet      string
	Amount        int64
	Currency      string
	Type          string
	Description   string
	CreatedAt     time.Time
}

// Ledger is the C5 service: atomic transfers between wallets with a cached
// per-currency balance head and a linked-list transaction history. An
// optional audit recorder gets a best-effort, non-blocking copy of every
// committed transaction for the audit trail (ledger/ package) — its
// absence or slowness never affects a transfer's outcome.
type Ledger struct {
	db    *gorm.DB
	lock  *KeyedMutex
	audit auditRecorder
}

func NewLedger(db *gorm.DB, lock *KeyedMutex) *Ledger {
	return &Ledger{db: db, lock: lock}
}

// WithAuditRecorder attaches an audit sink (typically a *ledger.WalletRecorder)
// and returns the same Ledger for chaining at wiring time.
func (l *Ledger) WithAuditRecorder(r auditRecorder) *Ledger {
	l.audit = r
	return l
}

func (l *Ledger) recordAudit(record *Transaction) {
	if l.audit == nil || record == nil {
		return
	}
	l.audit.Track(AuditRecord{
		TransactionID: record.ID,
		FromWallet:    record.FromWallet,
		ToWallet:      record.ToWallet,
		Amount:        record.Amount,
		Currency:      string(record.Currency),
		Type:          string(record.Type),
		Description:   record.Description,
		CreatedAt:     record.CreatedAt,
	})
}

func (l *Ledger) Migrate() error {
	return l.db.AutoMigrate(&Head{}, &Transaction{})
}

func (l *Ledger) getHead(tx *gorm.DB, walletID string, currency Currency) (*Head, error) {
	var h Head
	err := tx.First(&h, "wallet_id = ? AND currency = ?", walletID, currency).Error
	if err == gorm.ErrRecordNotFound {
		return &Head{WalletID: walletID, Currency: currency}, nil
	}
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	return &h, nil
}

// Endow credits a wallet from outside the system (e.g. initial top-up) —
// the only transfer with no funding source wallet to debit.
func (l *Ledger) Endow(ctx context.Context, walletID string, currency Currency, amount int64, description string) (*Transaction, error) {
	if amount <= 0 {
		return nil, apperr.ValidationErr("amount", "must be positive")
	}
	unlock := l.lock.Lock(walletID)
	defer unlock()

	var result *Transaction
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		head, err := l.getHead(tx, walletID, currency)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		record := &Transaction{
			ID:          uuid.NewString(),
			FromWallet:  "",
			ToWallet:    walletID,
			Amount:      amount,
			Currency:    currency,
			Type:        TxEndow,
			Description: description,
			PrevToTxID:  head.LastTxID,
			CreatedAt:   now,
		}
		if err := tx.Create(record).Error; err != nil {
			return apperr.InternalErr(err)
		}
		if err := upsertHead(tx, walletID, currency, head.Balance+amount, record.ID); err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.recordAudit(result)
	return result, nil
}

// Transfer atomically moves amount of currency from one wallet to another,
// appending one Transaction and advancing both wallets' heads. It returns
// apperr.InsufficientFundsErr when the debit would take the source
// negative (spec.md §3 BalanceTransaction invariant).
func (l *Ledger) Transfer(ctx context.Context, from, to string, currency Currency, amount int64, txType TxType, description string) (*Transaction, error) {
	if amount <= 0 {
		return nil, apperr.ValidationErr("amount", "must be positive")
	}
	unlock := l.lock.LockPair(from, to)
	defer unlock()

	var result *Transaction
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fromHead, err := l.getHead(tx, from, currency)
		if err != nil {
			return err
		}
		if fromHead.Balance < amount {
			return apperr.InsufficientFundsErr()
		}
		toHead, err := l.getHead(tx, to, currency)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		record := &Transaction{
			ID:           uuid.NewString(),
			FromWallet:   from,
			ToWallet:     to,
			Amount:       amount,
			Currency:     currency,
			Type:         txType,
			Description:  description,
			PrevFromTxID: fromHead.LastTxID,
			PrevToTxID:   toHead.LastTxID,
			CreatedAt:    now,
		}
		if err := tx.Create(record).Error; err != nil {
			return apperr.InternalErr(err)
		}
		if err := upsertHead(tx, from, currency, fromHead.Balance-amount, record.ID); err != nil {
			return err
		}
		if err := upsertHead(tx, to, currency, toHead.Balance+amount, record.ID); err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.recordAudit(result)
	return result, nil
}

func upsertHead(tx *gorm.DB, walletID string, currency Currency, balance int64, lastTxID string) error {
	h := Head{WalletID: walletID, Currency: currency, Balance: balance, LastTxID: &lastTxID, UpdatedAt: time.Now().UTC()}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_id"}, {Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "last_tx_id", "updated_at"}),
	}).Create(&h).Error
	if err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

// GetBalance reads a wallet's cached balance for currency; zero for a
// wallet that has never received a transaction.
func (l *Ledger) GetBalance(ctx context.Context, walletID string, currency Currency) (int64, error) {
	head, err := l.getHead(l.db.WithContext(ctx), walletID, currency)
	if err != nil {
		return 0, err
	}
	return head.Balance, nil
}

// History returns a wallet's transactions for a currency, newest first,
// by walking the linked list from the cached head rather than scanning
// the whole transaction table.
func (l *Ledger) History(ctx context.Context, walletID string, currency Currency, limit int) ([]Transaction, error) {
	head, err := l.getHead(l.db.WithContext(ctx), walletID, currency)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, limit)
	nextID := head.LastTxID
	for nextID != nil && (limit <= 0 || len(out) < limit) {
		var t Transaction
		if err := l.db.WithContext(ctx).First(&t, "id = ?", *nextID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				break
			}
			return nil, apperr.InternalErr(err)
		}
		out = append(out, t)
		if t.FromWallet == walletID {
			nextID = t.PrevFromTxID
		} else {
			nextID = t.PrevToTxID
		}
	}
	return out, nil
}
