package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testHomeID int64 = 10
	testAwayID int64 = 20
)

func intPtr(v int) *int { return &v }

func goalEvent(minute int, playerID, teamID int64) match.RawEvent {
	return match.RawEvent{
		Type:   match.EventTypeGoal,
		Detail: "Normal Goal",
		Minute: intPtr(minute),
		Player: &match.Player{ID: playerID, Name: "Player " + string(rune('A'+playerID%26))},
		Team:   match.Team{ID: teamID},
	}
}

func redCardEvent(minute int, playerID, teamID int64) match.RawEvent {
	return match.RawEvent{
		Type:   match.EventTypeCard,
		Detail: match.DetailRedCard,
		Minute: intPtr(minute),
		Player: &match.Player{ID: playerID, Name: "Defender"},
		Team:   match.Team{ID: teamID},
	}
}

func varEvent(minute int, playerID, teamID int64) match.RawEvent {
	return match.RawEvent{
		Type:   match.EventTypeVar,
		Detail: "Goal Disallowed - offside",
		Minute: intPtr(minute),
		Player: &match.Player{ID: playerID, Name: "Striker"},
		Team:   match.Team{ID: teamID},
	}
}

func liveSnapshot(elapsed, home, away int, events ...match.RawEvent) match.Snapshot {
	return match.Snapshot{
		FixtureID: 1001,
		LeagueID:  39,
		Status:    "2H",
		Phase:     match.PhaseInPlay,
		Elapsed:   intPtr(elapsed),
		Score:     match.Score{Home: home, Away: away},
		HasScore:  true,
		HomeTeam:  match.Team{ID: testHomeID, Name: "Home FC"},
		AwayTeam:  match.Team{ID: testAwayID, Name: "Away United"},
		Events:    events,
	}
}

func kinds(events []match.DomainEvent) []match.EventKind {
	out := make([]match.EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func newTestReconciler() *Reconciler {
	return NewReconciler(EngineConfig{StaleTolerance: 10, BurstThreshold: 2}, nil)
}

func TestReconciler_SingleGoalConfirmed(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)

	out := r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(12, 1, 0, goalEvent(11, 7, testHomeID)))

	require.Len(t, out, 1)
	assert.Equal(t, match.KindGoalConfirmed, out[0].Kind)
	require.NotNil(t, out[0].ScoreBefore)
	require.NotNil(t, out[0].ScoreAfter)
	assert.Equal(t, match.Score{}, *out[0].ScoreBefore)
	assert.Equal(t, match.Score{Home: 1}, *out[0].ScoreAfter)
	assert.Equal(t, 11, out[0].Minute)
	assert.Equal(t, "Home FC", out[0].HomeTeam.Name)

	current, previous := state.Score()
	assert.Equal(t, match.Score{Home: 1}, current)
	assert.Equal(t, match.Score{}, previous)
}

func TestReconciler_IdempotentOnRepeatedSnapshot(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	snap := liveSnapshot(40, 1, 1,
		goalEvent(11, 7, testHomeID),
		redCardEvent(30, 4, testAwayID),
		goalEvent(38, 9, testAwayID),
	)

	first := r.Reconcile(context.Background(), state, match.PhaseInPlay, snap)
	require.NotEmpty(t, first)

	second := r.Reconcile(context.Background(), state, match.PhaseInPlay, snap)
	assert.Empty(t, second)
}

func TestReconciler_GoalEventsMatchScoreIncrements(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	g1 := goalEvent(11, 7, testHomeID)
	g2 := goalEvent(25, 9, testAwayID)
	g3 := goalEvent(61, 8, testHomeID)

	var all []match.DomainEvent
	all = append(all, r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(12, 1, 0, g1))...)
	all = append(all, r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(26, 1, 1, g1, g2))...)
	all = append(all, r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(62, 2, 1, g1, g2, g3))...)

	assert.Equal(t, []match.EventKind{
		match.KindGoalConfirmed,
		match.KindGoalConfirmed,
		match.KindGoalConfirmed,
	}, kinds(all))
	require.NotNil(t, all[2].ScoreAfter)
	assert.Equal(t, match.Score{Home: 2, Away: 1}, *all[2].ScoreAfter)
}

func TestReconciler_BurstCollapsesIntoOneScoreUpdate(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)

	out := r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(30, 0, 2,
		goalEvent(24, 9, testAwayID),
		goalEvent(29, 5, testAwayID),
	))

	assert.Equal(t, []match.EventKind{
		match.KindGoalDescription,
		match.KindGoalDescription,
		match.KindMultiGoalScoreUpdate,
	}, kinds(out))
	assert.Nil(t, out[0].ScoreAfter)
	require.NotNil(t, out[2].ScoreBefore)
	require.NotNil(t, out[2].ScoreAfter)
	assert.Equal(t, match.Score{}, *out[2].ScoreBefore)
	assert.Equal(t, match.Score{Away: 2}, *out[2].ScoreAfter)

	current, _ := state.Score()
	assert.Equal(t, match.Score{Away: 2}, current)
}

func TestReconciler_MinuteCorrectionEmittedOnce(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(11, 1, 0, goalEvent(10, 7, testHomeID)))
	require.Equal(t, []match.EventKind{match.KindGoalConfirmed}, kinds(out))

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(14, 1, 0, goalEvent(12, 7, testHomeID)))
	require.Equal(t, []match.EventKind{match.KindGoalCorrection}, kinds(out))
	assert.Equal(t, 10, out[0].PreviousMinute)
	assert.Equal(t, 12, out[0].Minute)

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(16, 1, 0, goalEvent(13, 7, testHomeID)))
	assert.Empty(t, out)

	records := state.Records("goal|7")
	require.Len(t, records, 1)
	assert.True(t, records[0].CorrectionSent)
	assert.Equal(t, 13, records[0].LastKnownMinute)
}

func TestReconciler_BraceIsNotACorrection(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	first := goalEvent(10, 7, testHomeID)

	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(11, 1, 0, first))
	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(51, 2, 0, first, goalEvent(50, 7, testHomeID)))

	assert.Equal(t, []match.EventKind{match.KindGoalConfirmed}, kinds(out))
}

func TestReconciler_SilentRegressionInfersCancellation(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	g1 := goalEvent(11, 7, testHomeID)
	g2 := goalEvent(25, 9, testAwayID)
	g3 := goalEvent(33, 8, testHomeID)

	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(12, 1, 0, g1))
	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(26, 1, 1, g1, g2))
	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(34, 2, 1, g1, g2, g3))

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(37, 2, 0, g1, g3))
	require.Equal(t, []match.EventKind{match.KindGoalCancelled}, kinds(out))
	assert.True(t, out[0].Inferred)
	assert.Equal(t, 1, out[0].CancelledGoals)
	assert.Equal(t, match.Score{Home: 2, Away: 1}, *out[0].ScoreBefore)
	assert.Equal(t, match.Score{Home: 2, Away: 0}, *out[0].ScoreAfter)

	again := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(38, 2, 0, g1, g3))
	assert.Empty(t, again)

	current, _ := state.Score()
	assert.Equal(t, match.Score{Home: 2}, current)
}

func TestReconciler_ExplicitVarThenDelayedRegressionNotifiesOnce(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	g1 := goalEvent(20, 7, testHomeID)

	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(21, 1, 0, g1))

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(23, 1, 0, g1, varEvent(22, 7, testHomeID)))
	require.Equal(t, []match.EventKind{match.KindGoalCancelled}, kinds(out))
	assert.False(t, out[0].Inferred)
	require.NotNil(t, out[0].Player)
	assert.Equal(t, int64(7), out[0].Player.ID)

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(25, 0, 0, varEvent(22, 7, testHomeID)))
	assert.Empty(t, out)

	current, previous := state.Score()
	assert.Equal(t, match.Score{}, current)
	assert.Equal(t, match.Score{}, previous)
}

func TestReconciler_RegressionWithStaleVarReportsScores(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	g1 := goalEvent(20, 7, testHomeID)

	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(21, 1, 0, g1))

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(60, 0, 0, varEvent(21, 7, testHomeID)))
	require.Equal(t, []match.EventKind{match.KindGoalCancelled}, kinds(out))
	assert.False(t, out[0].Inferred)
	assert.Equal(t, match.Score{Home: 1}, *out[0].ScoreBefore)
	assert.Equal(t, match.Score{}, *out[0].ScoreAfter)
}

func TestReconciler_StaleRedCardDropped(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)

	out := r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(70, 0, 0, redCardEvent(10, 4, testAwayID)))
	assert.Empty(t, out)

	out = r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(72, 0, 0, redCardEvent(10, 4, testAwayID)))
	assert.Empty(t, out)
}

func TestReconciler_RedCardInsideWindow(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)

	out := r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(66, 0, 0, redCardEvent(64, 4, testAwayID)))
	require.Equal(t, []match.EventKind{match.KindRedCard}, kinds(out))
	require.NotNil(t, out[0].Team)
	assert.Equal(t, testAwayID, out[0].Team.ID)
}

func TestReconciler_GoalBeforeScoreIsDeferred(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	g1 := goalEvent(20, 7, testHomeID)

	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(18, 0, 0, redCardEvent(17, 4, testAwayID)))

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(21, 0, 0, redCardEvent(17, 4, testAwayID), g1))
	assert.Empty(t, out)

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(22, 1, 0, redCardEvent(17, 4, testAwayID), g1))
	assert.Equal(t, []match.EventKind{match.KindGoalConfirmed}, kinds(out))
}

func TestReconciler_StaleGoalAbsorbsScore(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	old := goalEvent(20, 7, testHomeID)

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(70, 1, 0, old))
	assert.Empty(t, out)

	current, _ := state.Score()
	assert.Equal(t, match.Score{Home: 1}, current)

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(75, 2, 0, old, goalEvent(74, 8, testHomeID)))
	require.Equal(t, []match.EventKind{match.KindGoalConfirmed}, kinds(out))
	assert.Equal(t, match.Score{Home: 1}, *out[0].ScoreBefore)
}

func TestReconciler_MissingScoreSkipsCycle(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	snap := liveSnapshot(10, 0, 0, goalEvent(9, 7, testHomeID))
	snap.HasScore = false

	assert.Nil(t, r.Reconcile(context.Background(), state, match.PhaseInPlay, snap))
	assert.False(t, state.isSeen(dedupKey(goalEvent(9, 7, testHomeID))))
}

func TestReconciler_ShootoutGoalHasNoScoreDelta(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	kick := goalEvent(120, 7, testHomeID)
	kick.Detail = match.DetailPenalty
	kick.Comments = match.CommentShootout

	out := r.Reconcile(context.Background(), state, match.PhasePenaltyShootout, liveSnapshot(120, 0, 0, kick))
	require.Equal(t, []match.EventKind{match.KindShootoutGoal}, kinds(out))
	assert.Nil(t, out[0].ScoreAfter)

	current, _ := state.Score()
	assert.Equal(t, match.Score{}, current)
}

func TestReconciler_MissedPenaltyIsInformational(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	miss := goalEvent(55, 7, testHomeID)
	miss.Detail = match.DetailMissedPenalty

	out := r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(56, 0, 0, miss))
	require.Equal(t, []match.EventKind{match.KindMissedPenalty}, kinds(out))
}

func TestReconciler_SkipsEventWithoutPlayer(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	broken := goalEvent(15, 7, testHomeID)
	broken.Player = nil

	out := r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(16, 1, 0, broken))
	assert.Empty(t, out)

	current, _ := state.Score()
	assert.Equal(t, match.Score{}, current)
}

func TestReconciler_OwnGoalCreditedToOpponent(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	own := goalEvent(33, 4, testAwayID)
	own.Detail = match.DetailOwnGoal

	out := r.Reconcile(context.Background(), state, match.PhaseInPlay, liveSnapshot(34, 1, 0, own))
	require.Equal(t, []match.EventKind{match.KindGoalConfirmed}, kinds(out))
	assert.Equal(t, match.Score{Home: 1}, *out[0].ScoreAfter)
}

func TestMatchState_DiscardCarryOver(t *testing.T) {
	t.Parallel()

	state := NewMatchState(1001)
	ht := liveSnapshot(45, 1, 0, goalEvent(44, 7, testHomeID))
	state.lastHalfTime = &ht

	discarded := state.DiscardCarryOver()
	assert.Equal(t, 1, discarded)
	assert.True(t, state.isSeen(dedupKey(goalEvent(44, 7, testHomeID))))

	current, _ := state.Score()
	assert.Equal(t, match.Score{Home: 1}, current)
	assert.Equal(t, 0, state.DiscardCarryOver())
}

func TestReconciler_VarForUnannouncedGoalIsNeverCredited(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	disallowed := goalEvent(10, 7, testHomeID)
	overturn := varEvent(11, 7, testHomeID)
	scored := goalEvent(15, 9, testHomeID)

	assert.Empty(t, r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(5, 0, 0)))

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(12, 0, 0, disallowed, overturn))
	assert.Empty(t, out)
	assert.True(t, state.isSeen(dedupKey(disallowed)))
	assert.Zero(t, state.pendingCancellations)

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(16, 1, 0, disallowed, overturn, scored))
	require.Equal(t, []match.EventKind{match.KindGoalConfirmed}, kinds(out))
	require.NotNil(t, out[0].Player)
	assert.Equal(t, int64(9), out[0].Player.ID)
	assert.Equal(t, 15, out[0].Minute)

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(20, 0, 0, disallowed, overturn))
	require.Equal(t, []match.EventKind{match.KindGoalCancelled}, kinds(out))
	assert.True(t, out[0].Inferred)
	assert.Equal(t, match.Score{Home: 1}, *out[0].ScoreBefore)
	assert.Equal(t, match.Score{}, *out[0].ScoreAfter)
}

func TestReconciler_RepeatedVarForClosedGoalNotifiesOnce(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	g1 := goalEvent(20, 7, testHomeID)

	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(21, 1, 0, g1))

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(23, 0, 0, g1))
	require.Equal(t, []match.EventKind{match.KindGoalCancelled}, kinds(out))
	assert.True(t, out[0].Inferred)

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(24, 0, 0, g1, varEvent(22, 7, testHomeID)))
	assert.Empty(t, out)
	assert.Zero(t, state.pendingCancellations)

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(40, 1, 0, g1, varEvent(22, 7, testHomeID), goalEvent(39, 9, testHomeID)))
	require.Equal(t, []match.EventKind{match.KindGoalConfirmed}, kinds(out))

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(44, 0, 0, g1, varEvent(22, 7, testHomeID)))
	require.Equal(t, []match.EventKind{match.KindGoalCancelled}, kinds(out))
}

func TestReconciler_ExplicitVarAnnouncesScoreWithoutTheGoal(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	g1 := goalEvent(20, 7, testHomeID)
	g2 := goalEvent(30, 9, testAwayID)

	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(21, 1, 0, g1))
	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(31, 1, 1, g1, g2))

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(33, 1, 1, g1, g2, varEvent(32, 9, testAwayID)))
	require.Equal(t, []match.EventKind{match.KindGoalCancelled}, kinds(out))
	assert.Equal(t, match.Score{Home: 1, Away: 1}, *out[0].ScoreBefore)
	assert.Equal(t, match.Score{Home: 1}, *out[0].ScoreAfter)
}

func TestReconciler_ScoreMovedWithoutEventsAdoptsProviderScore(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	g9 := goalEvent(38, 9, testHomeID)

	assert.Empty(t, r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(30, 0, 0)))
	assert.Empty(t, r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(34, 1, 0)))

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(39, 2, 0, g9))
	require.Equal(t, []match.EventKind{match.KindGoalDescription, match.KindMultiGoalScoreUpdate}, kinds(out))
	assert.Equal(t, match.Score{}, *out[1].ScoreBefore)
	assert.Equal(t, match.Score{Home: 2}, *out[1].ScoreAfter)

	current, _ := state.Score()
	assert.Equal(t, match.Score{Home: 2}, current)

	late := goalEvent(33, 4, testHomeID)
	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(41, 2, 0, late, g9))
	require.Equal(t, []match.EventKind{match.KindGoalDescription}, kinds(out))
	assert.Equal(t, int64(4), out[0].Player.ID)

	out = r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(52, 3, 0, late, g9, goalEvent(51, 8, testHomeID)))
	require.Equal(t, []match.EventKind{match.KindGoalConfirmed}, kinds(out))
	assert.Equal(t, match.Score{Home: 2}, *out[0].ScoreBefore)
	assert.Equal(t, match.Score{Home: 3}, *out[0].ScoreAfter)
}

func TestReconciler_RepeatedOverturnsHaveDistinctKeys(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()

	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(11, 1, 0, goalEvent(10, 7, testHomeID)))
	first := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(13, 0, 0))
	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(31, 1, 0, goalEvent(30, 9, testHomeID)))
	second := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(33, 0, 0))

	require.Equal(t, []match.EventKind{match.KindGoalCancelled}, kinds(first))
	require.Equal(t, []match.EventKind{match.KindGoalCancelled}, kinds(second))
	assert.NotEqual(t, first[0].Key(), second[0].Key())
}

func TestReconciler_GoalCarriesScorerTotals(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	snap := liveSnapshot(12, 1, 0, goalEvent(11, 7, testHomeID))
	snap.Players = []match.PlayerStatistics{{
		Player: match.Player{ID: 7, Name: "Player H"},
		Team:   match.Team{ID: testHomeID},
		Totals: []match.Statistic{{Type: "Shots", Value: "2"}, {Type: "Goals", Value: "1"}},
	}}

	out := r.Reconcile(context.Background(), state, match.PhaseInPlay, snap)
	require.Equal(t, []match.EventKind{match.KindGoalConfirmed}, kinds(out))
	assert.Equal(t, snap.Players[0].Totals, out[0].ScorerStats)
}

func TestReconciler_VarWithRegressionInSamePollNotifiesOnce(t *testing.T) {
	t.Parallel()

	r := newTestReconciler()
	state := NewMatchState(1001)
	ctx := context.Background()
	g1 := goalEvent(20, 7, testHomeID)

	r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(21, 1, 0, g1))

	out := r.Reconcile(ctx, state, match.PhaseInPlay, liveSnapshot(23, 0, 0, g1, varEvent(22, 7, testHomeID)))
	require.Equal(t, []match.EventKind{match.KindGoalCancelled}, kinds(out))
	assert.False(t, out[0].Inferred)
	assert.Equal(t, match.Score{Home: 1}, *out[0].ScoreBefore)
	assert.Equal(t, match.Score{}, *out[0].ScoreAfter)
	assert.Zero(t, state.pendingCancellations)
}
