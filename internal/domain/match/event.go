package match

import (
	"strconv"
	"time"
)

type EventKind string

const (
	KindMatchStarted         EventKind = "MATCH_STARTED"
	KindGoalConfirmed        EventKind = "GOAL_CONFIRMED"
	KindGoalDescription      EventKind = "GOAL_DESCRIPTION"
	KindGoalCorrection       EventKind = "GOAL_CORRECTION"
	KindGoalCancelled        EventKind = "GOAL_CANCELLED"
	KindMultiGoalScoreUpdate EventKind = "MULTI_GOAL_SCORE_UPDATE"
	KindRedCard              EventKind = "RED_CARD"
	KindMissedPenalty        EventKind = "MISSED_PENALTY"
	KindShootoutGoal         EventKind = "SHOOTOUT_GOAL"
	KindShootoutPaused       EventKind = "SHOOTOUT_PAUSED"
	KindMatchInterrupted     EventKind = "MATCH_INTERRUPTED"
	KindMatchFinished        EventKind = "MATCH_FINISHED"
	KindMatchAbandoned       EventKind = "MATCH_ABANDONED"
	KindQuotaExhausted       EventKind = "QUOTA_EXHAUSTED"
	KindTrackingAborted      EventKind = "TRACKING_ABORTED"
)

// DomainEvent is the single notification unit handed to sinks. Kind selects
// which payload fields are meaningful.
type DomainEvent struct {
	Kind           EventKind        `json:"kind"`
	FixtureID      int64            `json:"fixture_id"`
	LeagueName     string           `json:"league_name,omitempty"`
	HomeTeam       Team             `json:"home_team"`
	AwayTeam       Team             `json:"away_team"`
	Team           *Team            `json:"team,omitempty"`
	Player         *Player          `json:"player,omitempty"`
	Assist         *Player          `json:"assist,omitempty"`
	Detail         string           `json:"detail,omitempty"`
	Minute         int              `json:"minute,omitempty"`
	PreviousMinute int              `json:"previous_minute,omitempty"`
	ScoreBefore    *Score           `json:"score_before,omitempty"`
	ScoreAfter     *Score           `json:"score_after,omitempty"`
	CancelledGoals int              `json:"cancelled_goals,omitempty"`
	Inferred       bool             `json:"inferred,omitempty"`
	Sequence       int              `json:"sequence,omitempty"`
	ScorerStats    []Statistic      `json:"scorer_stats,omitempty"`
	Status         string           `json:"status,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	Lineups        []Lineup         `json:"lineups,omitempty"`
	Statistics     []TeamStatistics `json:"statistics,omitempty"`
	Events         []RawEvent       `json:"events,omitempty"`
	Commentary     string           `json:"commentary,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

// Key identifies an event for best-effort sink-side deduplication. Score
// notices without a player carry the per-match sequence so two overturns
// landing on the same score stay distinct.
func (e DomainEvent) Key() string {
	key := string(e.Kind)
	if e.Sequence > 0 {
		key += ":#" + strconv.Itoa(e.Sequence)
	}
	if e.ScoreBefore != nil && e.Player == nil {
		key += ":" + e.ScoreBefore.String()
	}
	if e.Player != nil {
		key += ":" + strconv.FormatInt(e.Player.ID, 10)
	}
	if e.Minute > 0 {
		key += ":" + strconv.Itoa(e.Minute)
	}
	if e.ScoreAfter != nil {
		key += ":" + e.ScoreAfter.String()
	}
	return key
}
