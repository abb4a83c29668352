package transport

import (
	"net/http"
	"strconv"

	"github.com/darve-social/darve-go/wallet"
)

// currencyTransactionView is spec.md §6's "CurrencyTransactionView" shape
// for the wallet history listing.
type currencyTransactionView struct {
	ID          string          `json:"id"`
	FromWallet  string          `json:"from_wallet"`
	ToWallet    string          `json:"to_wallet"`
	Currency    wallet.Currency `json:"currency"`
	Amount      int64           `json:"amount"`
	Type        wallet.TxType   `json:"type"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"created_at"`
}

// WalletHistory handles GET /api/wallet/history?start=&count=&currency=
// (spec.md §6).
func (a *App) WalletHistory(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	currency := wallet.Currency(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = wallet.Currency("USD")
	}
	count := 50
	if v := r.URL.Query().Get("count"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			count = parsed
		}
	}

	txs, err := a.Wallet.History(r.Context(), wallet.UserWalletID(userID), currency, count)
	if err != nil {
		a.handleErr(w, err)
		return
	}

	views := make([]currencyTransactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, currencyTransactionView{
			ID:          tx.ID,
			FromWallet:  tx.FromWallet,
			ToWallet:    tx.ToWallet,
			Currency:    tx.Currency,
			Amount:      tx.Amount,
			Type:        tx.Type,
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// WalletBalance handles GET /api/wallet/balance?currency= — not named
// explicitly in spec.md §6 but required by any client rendering the
// balance spec.md §3 User.credits/wallet distinguishes from credits.
func (a *App) WalletBalance(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	currency := wallet.Currency(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = wallet.Currency("USD")
	}
	balance, err := a.Wallet.GetBalance(r.Context(), wallet.UserWalletID(userID), currency)
	if err != nil {
		a.handleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"currency": currency, "balance": balance})
}
