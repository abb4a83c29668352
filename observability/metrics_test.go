package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestTrackHTTPRequestExposesCounterAndHistogram(t *testing.T) {
	m := NewMetrics(zerolog.New(io.Discard))
	m.TrackHTTPRequest("POST", "/tasks", 200, 42)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rw := httptest.NewRecorder()
	m.Handler()(rw, req)

	body := rw.Body.String()
	require.Contains(t, body, "darve_http_requests_total")
	require.Contains(t, body, "darve_http_request_duration_ms_bucket")
}

func TestTrackWalletTransferAccumulates(t *testing.T) {
	m := NewMetrics(zerolog.New(io.Discard))
	m.TrackWalletTransfer("reward", "USD", 100)
	m.TrackWalletTransfer("reward", "USD", 50)

	c := m.getCounter("darve_wallet_transfer_amount_total", map[string]string{"type": "reward", "currency": "USD"})
	require.Equal(t, int64(150), c.Value())
}

func TestTrackInsufficientFundsIncrementsPerCurrency(t *testing.T) {
	m := NewMetrics(zerolog.New(io.Discard))
	m.TrackInsufficientFunds("USD")
	m.TrackInsufficientFunds("USD")
	m.TrackInsufficientFunds("ETH")

	require.Equal(t, int64(2), m.getCounter("darve_wallet_insufficient_funds_total", map[string]string{"currency": "USD"}).Value())
	require.Equal(t, int64(1), m.getCounter("darve_wallet_insufficient_funds_total", map[string]string{"currency": "ETH"}).Value())
}

func TestTrackStorageHealthSetsGauge(t *testing.T) {
	m := NewMetrics(zerolog.New(io.Discard))
	m.TrackStorageHealth("local", true)
	require.Equal(t, 1.0, m.getGauge("darve_filestorage_backend_healthy", map[string]string{"backend": "local"}).Value())

	m.TrackStorageHealth("local", false)
	require.Equal(t, 0.0, m.getGauge("darve_filestorage_backend_healthy", map[string]string{"backend": "local"}).Value())
}

func TestHistogramObserveBucketsCorrectly(t *testing.T) {
	h := NewHistogram([]float64{10, 50, 100})
	h.Observe(5)
	h.Observe(30)
	h.Observe(500)

	require.Equal(t, int64(1), h.counts[0])
	require.Equal(t, int64(1), h.counts[1])
	require.Equal(t, int64(1), h.counts[3])
	require.Equal(t, int64(3), h.count)
}
