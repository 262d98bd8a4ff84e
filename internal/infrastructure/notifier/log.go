package notifier

import (
	"context"

	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
)

// LogNotifier writes every event as a structured log entry.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event match.DomainEvent) error {
	args := []any{
		"kind", event.Kind,
		"fixture_id", event.FixtureID,
		"home", event.HomeTeam.Name,
		"away", event.AwayTeam.Name,
	}
	if event.Player != nil {
		args = append(args, "player", event.Player.Name)
	}
	if event.Minute > 0 {
		args = append(args, "minute", event.Minute)
	}
	if event.ScoreAfter != nil {
		args = append(args, "score", event.ScoreAfter.String())
	}
	if event.Reason != "" {
		args = append(args, "reason", event.Reason)
	}
	n.logger.InfoContext(ctx, "match event", args...)
	return nil
}
