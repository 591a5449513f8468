// Package metrics provides counters, Prometheus collectors, and HTTP
// handlers for exporting poller runtime metrics.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll outcomes used as label values.
const (
	OutcomeStatus        = "status"
	OutcomeMarkerMissing = "marker_missing"
	OutcomeEmptyBody     = "empty_body"
	OutcomeHTTPError     = "http_error"
	OutcomeFailure       = "failure"
)

// 1. Internal State (Source of Truth)
var (
	polls             int64
	pollFailures      int64
	statusChanges     int64
	notificationsSent int64
	notificationsFail int64
	backoffSeconds    int64
	playerCount       int64
	lastPoll          int64
)

const counterInc int64 = 1

// 2. Prometheus Collectors
var (
	promPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countdown_polls_total",
			Help: "Total status page polls by outcome",
		},
		[]string{"outcome"},
	)
	promStatusChanges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "countdown_status_changes_total",
			Help: "Total committed status changes",
		},
	)
	promNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countdown_notifications_total",
			Help: "Total notification attempts",
		},
		[]string{"notifier", "result"},
	)
	promBackoff = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "countdown_backoff_seconds",
			Help: "Wait applied after the most recent failure, 0 when healthy",
		},
	)
	promPlayerCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "countdown_player_count",
			Help: "Player count from the last announced status",
		},
	)
	promLastPoll = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "countdown_last_poll_timestamp_seconds",
			Help: "Unix timestamp of last poll",
		},
	)
)

func init() {
	prometheus.MustRegister(
		promPolls,
		promStatusChanges,
		promNotifications,
		promBackoff,
		promPlayerCount,
		promLastPoll,
	)
}

// 3. Public API (Updates both Atomic and Prometheus)

// IncPoll counts a finished poll cycle with the given outcome.
func IncPoll(outcome string) {
	atomic.AddInt64(&polls, counterInc)
	if outcome == OutcomeFailure {
		atomic.AddInt64(&pollFailures, counterInc)
	}
	promPolls.WithLabelValues(outcome).Inc()
}

// IncStatusChange counts a committed status change.
func IncStatusChange() {
	atomic.AddInt64(&statusChanges, counterInc)
	promStatusChanges.Inc()
}

// IncNotification counts a notification attempt for the named notifier.
func IncNotification(notifier string, ok bool) {
	result := "success"
	if ok {
		atomic.AddInt64(&notificationsSent, counterInc)
	} else {
		result = "failure"
		atomic.AddInt64(&notificationsFail, counterInc)
	}
	promNotifications.WithLabelValues(notifier, result).Inc()
}

// SetBackoff records the current failure wait.
func SetBackoff(d time.Duration) {
	atomic.StoreInt64(&backoffSeconds, int64(d/time.Second))
	promBackoff.Set(d.Seconds())
}

// SetPlayerCount records the player count of the last announced status.
func SetPlayerCount(n int) {
	atomic.StoreInt64(&playerCount, int64(n))
	promPlayerCount.Set(float64(n))
}

// SetLastPoll stores the provided time as the last poll timestamp and
// updates the corresponding Prometheus gauge.
func SetLastPoll(t time.Time) {
	atomic.StoreInt64(&lastPoll, t.Unix())
	promLastPoll.Set(float64(t.Unix()))
}

// 4. JSON Snapshot Struct

// StatsSnapshot is a snapshot of metrics for JSON encoding.
type StatsSnapshot struct {
	Polls             int64  `json:"polls"`
	PollFailures      int64  `json:"poll_failures"`
	StatusChanges     int64  `json:"status_changes"`
	NotificationsSent int64  `json:"notifications_sent"`
	NotificationsFail int64  `json:"notifications_failed"`
	BackoffSeconds    int64  `json:"backoff_seconds"`
	PlayerCount       int64  `json:"player_count"`
	LastPoll          int64  `json:"last_poll_timestamp"`
	LastPollHuman     string `json:"last_poll_human"`
}

// GetSnapshot returns a StatsSnapshot with the current values of all
// internal counters and timestamps.
func GetSnapshot() StatsSnapshot {
	ts := atomic.LoadInt64(&lastPoll)
	return StatsSnapshot{
		Polls:             atomic.LoadInt64(&polls),
		PollFailures:      atomic.LoadInt64(&pollFailures),
		StatusChanges:     atomic.LoadInt64(&statusChanges),
		NotificationsSent: atomic.LoadInt64(&notificationsSent),
		NotificationsFail: atomic.LoadInt64(&notificationsFail),
		BackoffSeconds:    atomic.LoadInt64(&backoffSeconds),
		PlayerCount:       atomic.LoadInt64(&playerCount),
		LastPoll:          ts,
		LastPollHuman:     time.Unix(ts, 0).Format(time.RFC3339),
	}
}

// 5. Handlers

// PromHandler returns an HTTP handler that exposes Prometheus metrics.
func PromHandler() http.Handler { return promhttp.Handler() }

// JSONHandler returns an HTTP handler that serves the current metrics as
// a JSON-encoded StatsSnapshot.
func JSONHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GetSnapshot())
	})
}

// NewMux returns a mux serving /metrics and /status.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", PromHandler())
	mux.Handle("/status", JSONHandler())
	return mux
}
