package routing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const usageKeyPrefix = "routing:usage:"

// RedisUsageTable keeps the per-agent counters in a Redis hash so
// multiple API instances share one capacity view. The engine's lock
// still serializes the read-rank-commit cycle within a process; across
// processes the table is best effort, which matches the counters being
// advisory load-balancing state rather than a ledger.
type RedisUsageTable struct {
	client redis.UniversalClient
}

// NewRedisUsageTable wraps a Redis client as a usage table.
func NewRedisUsageTable(client redis.UniversalClient) *RedisUsageTable {
	return &RedisUsageTable{client: client}
}

func (t *RedisUsageTable) Snapshot(ctx context.Context, agentIDs []string, today time.Time) (map[string]Usage, error) {
	out := make(map[string]Usage, len(agentIDs))
	for _, id := range agentIDs {
		fields, err := t.client.HGetAll(ctx, usageKeyPrefix+id).Result()
		if err != nil {
			return nil, fmt.Errorf("read usage for %s: %w", id, err)
		}
		out[id] = rolloverIfStale(usageFromHash(fields), today)
	}
	return out, nil
}

func (t *RedisUsageTable) Commit(ctx context.Context, agentID string, at time.Time) error {
	key := usageKeyPrefix + agentID

	fields, err := t.client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("read usage for %s: %w", agentID, err)
	}
	u := rolloverIfStale(usageFromHash(fields), at)
	u.AssignedToday++
	u.LastAssignedAt = at

	err = t.client.HSet(ctx, key,
		"assigned_today", u.AssignedToday,
		"last_assigned_at", u.LastAssignedAt.UTC().Format(time.RFC3339),
		"reset_date", dateOf(at).Format("2006-01-02"),
	).Err()
	if err != nil {
		return fmt.Errorf("write usage for %s: %w", agentID, err)
	}
	return nil
}

// usageFromHash tolerates missing or malformed fields, falling back to
// zero usage per field.
func usageFromHash(fields map[string]string) Usage {
	var u Usage
	if v, err := strconv.Atoi(fields["assigned_today"]); err == nil {
		u.AssignedToday = v
	}
	if ts, err := time.Parse(time.RFC3339, fields["last_assigned_at"]); err == nil {
		u.LastAssignedAt = ts
	}
	if d, err := time.Parse("2006-01-02", fields["reset_date"]); err == nil {
		u.ResetDate = d
	}
	return u
}
