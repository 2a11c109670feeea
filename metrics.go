package authcore

import "sync/atomic"

// MetricID identifies a counter in the in-process metrics system.
type MetricID uint8

const (
	MetricSignUpSuccess MetricID = iota
	MetricSignUpDuplicate
	MetricSignInSuccess
	MetricSignInFailure
	MetricSignInRateLimited
	MetricMFARequired
	MetricMFASuccess
	MetricMFAFailure
	MetricMFARateLimited
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricSignOut
	MetricSessionCreated
	MetricSessionInvalidated
	MetricOTPIssued
	MetricOTPRateLimited
	MetricOTPVerifyFailure
	MetricEmailVerified
	MetricPasswordResetSuccess
	MetricPasswordChangeSuccess
	MetricMailSendFailure
	MetricMFASetupGenerated
	MetricMFAEnabled
	MetricMFADisabled

	metricIDCount
)

// Metrics holds atomic counters. A nil or disabled Metrics is a no-op on
// every method.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a Metrics instance. When cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
