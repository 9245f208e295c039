package observability

import (
	"context"
	"log/slog"
	"runtime"
	"superchat/contract"
	"superchat/domain/event"
	"sync"
	"sync/atomic"
	"time"
)

var (
	_ contract.FailureReporter = (*MonitoringManager)(nil)
	_ contract.EventSink       = (*MonitoringManager)(nil)
	_ contract.Worker          = (*MonitoringManager)(nil)
)

// MonitoringStats is the aggregated view of chat activity.
type MonitoringStats struct {
	MessagesAppended       uint64    `json:"messages_appended"`
	AuthenticationFailures uint64    `json:"authentication_failures"`
	SignOutFailures        uint64    `json:"sign_out_failures"`
	SendFailures           uint64    `json:"send_failures"`
	SubscriptionFailures   uint64    `json:"subscription_failures"`
	LastFailure            string    `json:"last_failure"`
	LastFailureAt          time.Time `json:"last_failure_at"`
	AllocMemMb             uint64    `json:"alloc_mem_mb"`
	NumGC                  uint32    `json:"num_gc"`
}

// MonitoringManager counts appended messages and recovered failures.
// It is the failure reporter of the client and a permanent sink of the backend.
type MonitoringManager struct {
	log      *slog.Logger
	interval time.Duration

	messagesAppended atomic.Uint64
	failures         map[event.FailureKind]*atomic.Uint64

	mu            sync.RWMutex
	lastFailure   string
	lastFailureAt time.Time
}

func NewMonitoringManager(log *slog.Logger, interval time.Duration) *MonitoringManager {
	return &MonitoringManager{
		log:      log,
		interval: interval,
		failures: map[event.FailureKind]*atomic.Uint64{
			event.AuthenticationFailure: {},
			event.SignOutFailure:        {},
			event.SendFailure:           {},
			event.SubscriptionFailure:   {},
		},
	}
}

// Report logs the failure and increments its counter. It never changes chat state.
func (mm *MonitoringManager) Report(_ context.Context, failure event.Failure) {
	if counter, ok := mm.failures[failure.Kind]; ok {
		counter.Add(1)
	}
	at := failure.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	mm.mu.Lock()
	mm.lastFailure = string(failure.Kind)
	mm.lastFailureAt = at
	mm.mu.Unlock()

	mm.log.Warn("Recovered failure", "kind", failure.Kind, "error", failure.Err, "at", at)
}

func (mm *MonitoringManager) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAppended:
		mm.messagesAppended.Add(1)
		mm.log.Debug("Message appended", "id", evt.Message.ID, "author", evt.Message.Author.UID)
	case event.Failure:
		mm.Report(context.Background(), evt)
	}
	return nil
}

// Run logs the stats every interval until ctx is done.
func (mm *MonitoringManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(mm.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			mm.log.Info("Monitoring manager stopped")
			return nil
		case <-ticker.C:
			stats := mm.GetLatest()
			mm.log.Info("Chat stats",
				"messages_appended", stats.MessagesAppended,
				"send_failures", stats.SendFailures,
				"subscription_failures", stats.SubscriptionFailures,
				"mem_mb", stats.AllocMemMb)
		}
	}
}

func (mm *MonitoringManager) FailureCount(kind event.FailureKind) uint64 {
	if counter, ok := mm.failures[kind]; ok {
		return counter.Load()
	}
	return 0
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return MonitoringStats{
		MessagesAppended:       mm.messagesAppended.Load(),
		AuthenticationFailures: mm.FailureCount(event.AuthenticationFailure),
		SignOutFailures:        mm.FailureCount(event.SignOutFailure),
		SendFailures:           mm.FailureCount(event.SendFailure),
		SubscriptionFailures:   mm.FailureCount(event.SubscriptionFailure),
		LastFailure:            mm.lastFailure,
		LastFailureAt:          mm.lastFailureAt,
		AllocMemMb:             m.Alloc / 1024 / 1024,
		NumGC:                  m.NumGC,
	}
}
