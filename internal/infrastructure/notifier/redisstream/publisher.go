package redisstream

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
)

const (
	defaultPrefix = "matchwire:events"
	defaultMaxLen = 1000
	defaultClaim  = 6 * time.Hour
)

// streamClient is the subset of *redis.Client the publisher uses.
type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

type Config struct {
	Prefix   string
	MaxLen   int64
	ClaimTTL time.Duration
}

// Publisher appends match events to a per-fixture Redis stream so downstream
// consumers can replay a match. A SETNX claim keeps several trackers of the
// same fixture from publishing an event twice.
type Publisher struct {
	client   streamClient
	prefix   string
	maxLen   int64
	claimTTL time.Duration
	logger   *logging.Logger
}

func NewPublisher(client streamClient, cfg Config, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	claimTTL := cfg.ClaimTTL
	if claimTTL <= 0 {
		claimTTL = defaultClaim
	}
	return &Publisher{
		client:   client,
		prefix:   prefix,
		maxLen:   maxLen,
		claimTTL: claimTTL,
		logger:   logger,
	}
}

func (p *Publisher) StreamKey(fixtureID int64) string {
	return p.prefix + ":" + strconv.FormatInt(fixtureID, 10)
}

func (p *Publisher) Notify(ctx context.Context, event match.DomainEvent) error {
	claimKey := p.StreamKey(event.FixtureID) + ":sent:" + event.Key()
	claimed, err := p.client.SetNX(ctx, claimKey, event.OccurredAt.Unix(), p.claimTTL).Result()
	if err != nil {
		return crerr.Wrapf(err, "claim event %s", claimKey)
	}
	if !claimed {
		p.logger.DebugContext(ctx, "event already published", "fixture_id", event.FixtureID, "kind", event.Kind)
		return nil
	}

	data, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "marshal match event")
	}

	stream := p.StreamKey(event.FixtureID)
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"data":       string(data),
			"kind":       string(event.Kind),
			"fixture_id": event.FixtureID,
		},
	}).Err(); err != nil {
		return crerr.Wrapf(err, "publish to stream %s", stream)
	}
	return nil
}
