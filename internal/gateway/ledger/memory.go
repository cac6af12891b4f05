package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the background sweep evicts expired
// entries. Eviction is time-based housekeeping, not correctness: TryAdmit
// also ignores entries older than the retention window.
const DefaultSweepInterval = 10 * time.Minute

type entry struct {
	firstSeenAt time.Time
	meta        Metadata
}

// Memory is a process-local Ledger. Single-instance deployments only; it
// holds no state across restarts and is invisible to sibling processes.
type Memory struct {
	mu        sync.Mutex
	entries   map[string]entry
	retention time.Duration

	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewMemory creates a memory ledger. Zero or negative retention/interval fall
// back to the defaults.
func NewMemory(retention, sweepInterval time.Duration, logger *slog.Logger) *Memory {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		entries:   make(map[string]entry),
		retention: retention,
		logger:    logger,
		interval:  sweepInterval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// TryAdmit implements Ledger. The check and the insert happen under one lock
// so two concurrent callers with the same nonce can never both pass.
func (m *Memory) TryAdmit(_ context.Context, nonce string, meta Metadata, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[nonce]; ok && now.Sub(e.firstSeenAt) <= m.retention {
		return false, nil
	}
	m.entries[nonce] = entry{firstSeenAt: now, meta: meta}
	return true, nil
}

// Sweep removes entries older than the retention window. It holds the lock
// for a single pass only and races harmlessly with admissions.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int
	for nonce, e := range m.entries {
		if now.Sub(e.firstSeenAt) > m.retention {
			delete(m.entries, nonce)
			removed++
		}
	}
	return removed
}

// Stats implements StatsProvider.
func (m *Memory) Stats(now time.Time) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{Size: len(m.entries)}
	for _, e := range m.entries {
		age := now.Sub(e.firstSeenAt)
		if s.OldestEntryAge == 0 || age > s.OldestEntryAge {
			s.OldestEntryAge = age
		}
		if s.NewestEntryAge == 0 || age < s.NewestEntryAge {
			s.NewestEntryAge = age
		}
	}
	return s
}

// Start launches the background sweep worker. Call Stop to shut it down.
func (m *Memory) Start() {
	go m.run()
	m.logger.Info("nonce ledger sweep started", "interval", m.interval, "retention", m.retention)
}

// Stop shuts down the sweep worker, blocking until it has finished.
func (m *Memory) Stop() {
	close(m.stopCh)
	<-m.doneCh
	m.logger.Info("nonce ledger sweep stopped")
}

func (m *Memory) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := m.Sweep(time.Now())
			m.logger.Debug("nonce ledger sweep completed", "removed", removed)
		case <-m.stopCh:
			return
		}
	}
}
