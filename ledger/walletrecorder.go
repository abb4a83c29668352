package ledger

import "github.com/darve-social/darve-go/wallet"

// WalletRecorder adapts Pipeline to wallet.Ledger's audit-recorder
// interface, converting a wallet.AuditRecord into this package's
// AuditEvent. Kept here (not in wallet) so wallet never depends on
// ledger's batching machinery, only on the narrow method it calls.
type WalletRecorder struct {
	pipeline *Pipeline
}

func NewWalletRecorder(p *Pipeline) *WalletRecorder {
	return &WalletRecorder{pipeline: p}
}

func (w *WalletRecorder) Track(record wallet.AuditRecord) {
	w.pipeline.Track(AuditEvent{
		TransactionID: record.TransactionID,
		FromWallet:    record.FromWallet,
		ToWallet:      record.ToWallet,
		Amount:        record.Amount,
		Currency:      record.Currency,
		Type:          record.Type,
		Description:   record.Description,
		CreatedAt:     record.CreatedAt,
	})
}
