package usecase

import (
	"context"

	"github.com/riskibarqy/matchwire/internal/domain/match"
)

// QuotaUnknown is returned as remaining quota when the provider did not report it.
const QuotaUnknown = -1

type SnapshotProvider interface {
	FetchSnapshot(ctx context.Context, fixtureID int64) (match.Snapshot, int, error)
}

type EventNotifier interface {
	Notify(ctx context.Context, event match.DomainEvent) error
}

type CommentaryRequest struct {
	FixtureID  int64
	HomeTeam   match.Team
	AwayTeam   match.Team
	FinalScore match.Score
	Status     string
	Events     []match.RawEvent
	Statistics []match.TeamStatistics
}

type Commentator interface {
	Comment(ctx context.Context, req CommentaryRequest) (string, error)
}

type noopCommentator struct{}

func (noopCommentator) Comment(context.Context, CommentaryRequest) (string, error) {
	return "", nil
}

func NewNoopCommentator() Commentator {
	return noopCommentator{}
}
