package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// PagerDutyConfig holds configuration for PagerDuty Events API v2.
type PagerDutyConfig struct {
	// RoutingKey is the PagerDuty Events API v2 integration key.
	RoutingKey string
	// Enabled controls whether alerts are sent.
	Enabled bool
	// SourceName identifies this service instance (e.g., "darve-go-prod-01").
	SourceName string
	// HTTPTimeout for the PagerDuty API call.
	HTTPTimeout time.Duration
}

// DefaultPagerDutyConfig returns defaults.
func DefaultPagerDutyConfig() PagerDutyConfig {
	return PagerDutyConfig{
		RoutingKey:  "",
		Enabled:     false,
		SourceName:  "darve-go",
		HTTPTimeout: 10 * time.Second,
	}
}

// PagerDutySeverity maps to PagerDuty alert severity.
type PagerDutySeverity string

const (
	PDSeverityCritical PagerDutySeverity = "critical"
	PDSeverityError    PagerDutySeverity = "error"
	PDSeverityWarning  PagerDutySeverity = "warning"
	PDSeverityInfo     PagerDutySeverity = "info"
)

// PagerDutyClient sends incidents to PagerDuty Events API v2.
type PagerDutyClient struct {
	cfg    PagerDutyConfig
	client *http.Client
	logger zerolog.Logger
}

const pagerDutyEventsURL = "https://events.pagerduty.com/v2/enqueue"

// NewPagerDutyClient creates a PagerDuty alerting client.
func NewPagerDutyClient(cfg PagerDutyConfig, logger zerolog.Logger) *PagerDutyClient {
	return &PagerDutyClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger.With().Str("component", "pagerduty").Logger(),
	}
}

// TriggerAlert fires a PagerDuty alert.
func (pd *PagerDutyClient) TriggerAlert(
	severity PagerDutySeverity,
	summary string,
	dedupKey string,
	details map[string]interface{},
) error {
	if !pd.cfg.Enabled || pd.cfg.RoutingKey == "" {
		pd.logger.Debug().Str("summary", summary).Msg("PagerDuty disabled — alert suppressed")
		return nil
	}

	payload := map[string]interface{}{
		"routing_key":  pd.cfg.RoutingKey,
		"event_action": "trigger",
		"dedup_key":    dedupKey,
		"payload": map[string]interface{}{
			"summary":   summary,
			"severity":  string(severity),
			"source":    pd.cfg.SourceName,
			"component": "darve-go",
			"group":     "social-platform",
			"class":     "infrastructure",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"custom_details": details,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pagerduty: marshal failed: %w", err)
	}

	resp, err := pd.client.Post(pagerDutyEventsURL, "application/json", bytes.NewReader(body))
	if err != nil {
		pd.logger.Error().Err(err).Str("dedup_key", dedupKey).Msg("PagerDuty API call failed")
		return fmt.Errorf("pagerduty: API call failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		pd.logger.Error().Int("status", resp.StatusCode).Str("dedup_key", dedupKey).Msg("PagerDuty API error")
		return fmt.Errorf("pagerduty: HTTP %d", resp.StatusCode)
	}

	pd.logger.Info().Str("dedup_key", dedupKey).Str("severity", string(severity)).Msg("PagerDuty alert triggered")
	return nil
}

// ResolveAlert resolves a previously triggered alert.
func (pd *PagerDutyClient) ResolveAlert(dedupKey string) error {
	if !pd.cfg.Enabled || pd.cfg.RoutingKey == "" {
		return nil
	}

	payload := map[string]interface{}{
		"routing_key":  pd.cfg.RoutingKey,
		"event_action": "resolve",
		"dedup_key":    dedupKey,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pagerduty: marshal failed: %w", err)
	}

	resp, err := pd.client.Post(pagerDutyEventsURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("pagerduty: resolve call failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	pd.logger.Info().Str("dedup_key", dedupKey).Msg("PagerDuty alert resolved")
	return nil
}

// ─── Convenience Wrappers for Common Alerts ─────────────────

// AlertStorageBackendDown fires a critical alert when a filestorage backend
// fails its health check.
func (pd *PagerDutyClient) AlertStorageBackendDown(backend string, errorMsg string) error {
	return pd.TriggerAlert(
		PDSeverityCritical,
		fmt.Sprintf("darve-go: storage backend %s is DOWN", backend),
		fmt.Sprintf("darve-storage-down-%s", backend),
		map[string]interface{}{
			"backend": backend,
			"error":   errorMsg,
		},
	)
}

// AlertStorageBackendRecovered resolves a storage-backend-down alert.
func (pd *PagerDutyClient) AlertStorageBackendRecovered(backend string) error {
	return pd.ResolveAlert(fmt.Sprintf("darve-storage-down-%s", backend))
}

// AlertSettlementFailures fires when a run of consecutive settlement-sweep
// failures crosses threshold — the Settlement Worker calling Settle on the
// same task and getting an error repeatedly (spec.md §4.8, §7).
func (pd *PagerDutyClient) AlertSettlementFailures(taskID string, consecutiveFailures int, lastErr string) error {
	return pd.TriggerAlert(
		PDSeverityError,
		fmt.Sprintf("darve-go: task %s failed settlement %d times in a row", taskID, consecutiveFailures),
		fmt.Sprintf("darve-settlement-failing-%s", taskID),
		map[string]interface{}{
			"task_id":              taskID,
			"consecutive_failures": consecutiveFailures,
			"last_error":           lastErr,
		},
	)
}

// AlertSettlementRecovered resolves a settlement-failing alert once a sweep
// succeeds for the task again.
func (pd *PagerDutyClient) AlertSettlementRecovered(taskID string) error {
	return pd.ResolveAlert(fmt.Sprintf("darve-settlement-failing-%s", taskID))
}

// AlertInsufficientFundsSpike fires when rejected transfers
// (apperr.InsufficientFunds) cross a rate threshold in a rolling window —
// a signal of either a pricing bug or an attempted overdraft, not a normal
// user-facing rejection on its own.
func (pd *PagerDutyClient) AlertInsufficientFundsSpike(count int, window string) error {
	return pd.TriggerAlert(
		PDSeverityWarning,
		fmt.Sprintf("darve-go: %d insufficient-funds rejections over %s", count, window),
		fmt.Sprintf("darve-insufficient-funds-spike-%d", time.Now().Unix()/300),
		map[string]interface{}{
			"count":  count,
			"window": window,
		},
	)
}
