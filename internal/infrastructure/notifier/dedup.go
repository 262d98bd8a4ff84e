package notifier

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/platform/cache"
	"github.com/riskibarqy/matchwire/internal/usecase"
)

const defaultDedupTTL = 6 * time.Hour

// Dedup drops events whose key was already delivered within the TTL. The key
// is claimed before delivery, so a failed send is not retried.
type Dedup struct {
	next usecase.EventNotifier
	seen *cache.Store[time.Time]
}

func NewDedup(next usecase.EventNotifier, ttl time.Duration) *Dedup {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &Dedup{next: next, seen: cache.NewStore[time.Time](ttl)}
}

func (d *Dedup) Notify(ctx context.Context, event match.DomainEvent) error {
	key := strconv.FormatInt(event.FixtureID, 10) + ":" + event.Key()
	if !d.seen.SetIfAbsent(ctx, key, event.OccurredAt) {
		return nil
	}
	return d.next.Notify(ctx, event)
}
