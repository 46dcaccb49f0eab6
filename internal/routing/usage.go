package routing

import (
	"context"
	"sync"
	"time"
)

// Usage holds the mutable per-agent assignment counters. A zero Usage
// means "never assigned, reset today", which is also the fallback for
// agents the table has no entry for.
type Usage struct {
	AssignedToday  int       `json:"assignedToday"`
	LastAssignedAt time.Time `json:"lastAssignedAt"`
	ResetDate      time.Time `json:"resetDate"`
}

// UsageTable is the shared counter store consulted and mutated by the
// assignment engine. Implementations return best-effort zero usage for
// unknown agents rather than erroring. The engine serializes
// Snapshot+Commit pairs under its own lock; implementations only need
// to be individually safe for concurrent use.
type UsageTable interface {
	// Snapshot returns the current usage for each agent with the daily
	// rollover already applied relative to today.
	Snapshot(ctx context.Context, agentIDs []string, today time.Time) (map[string]Usage, error)
	// Commit applies the daily rollover and then records one assignment
	// for the agent at the given instant.
	Commit(ctx context.Context, agentID string, at time.Time) error
}

// rolloverIfStale zeroes the daily counter when its reset date is
// earlier than today. Idempotent.
func rolloverIfStale(u Usage, today time.Time) Usage {
	if dateOf(u.ResetDate).Before(dateOf(today)) {
		u.AssignedToday = 0
		u.ResetDate = dateOf(today)
	}
	return u
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MemoryUsageTable is the in-process usage store, used in tests and in
// single-instance deployments.
type MemoryUsageTable struct {
	mu      sync.Mutex
	entries map[string]Usage
}

// NewMemoryUsageTable returns an empty in-memory usage table.
func NewMemoryUsageTable() *MemoryUsageTable {
	return &MemoryUsageTable{entries: make(map[string]Usage)}
}

func (t *MemoryUsageTable) Snapshot(_ context.Context, agentIDs []string, today time.Time) (map[string]Usage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Usage, len(agentIDs))
	for _, id := range agentIDs {
		out[id] = rolloverIfStale(t.entries[id], today)
	}
	return out, nil
}

func (t *MemoryUsageTable) Commit(_ context.Context, agentID string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := rolloverIfStale(t.entries[agentID], at)
	u.AssignedToday++
	u.LastAssignedAt = at
	t.entries[agentID] = u
	return nil
}
