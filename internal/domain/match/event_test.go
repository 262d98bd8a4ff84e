package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDomainEventKey_GoalIdentity(t *testing.T) {
	t.Parallel()

	ev := DomainEvent{
		Kind:        KindGoalConfirmed,
		Player:      &Player{ID: 7, Name: "A. Striker"},
		Minute:      23,
		ScoreBefore: &Score{},
		ScoreAfter:  &Score{Home: 1},
	}
	assert.Equal(t, "GOAL_CONFIRMED:7:23:1-0", ev.Key())
}

func TestDomainEventKey_RepeatedOverturnsStayDistinct(t *testing.T) {
	t.Parallel()

	first := DomainEvent{
		Kind:        KindGoalCancelled,
		ScoreBefore: &Score{Home: 1},
		ScoreAfter:  &Score{},
		Sequence:    2,
		OccurredAt:  time.Date(2026, 8, 15, 14, 30, 0, 0, time.UTC),
	}
	second := first
	second.Sequence = 4

	assert.Equal(t, "GOAL_CANCELLED:#2:1-0:0-0", first.Key())
	assert.NotEqual(t, first.Key(), second.Key())
}
