package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
)

const (
	DefaultStaleTolerance = 10
	DefaultBurstThreshold = 2
)

type EngineConfig struct {
	// StaleTolerance is how many match minutes an event may trail the clock
	// and still be announced.
	StaleTolerance int `validate:"gte=0"`
	// BurstThreshold is the net goal count by one side within a single poll
	// that switches goal announcements to one combined score update.
	BurstThreshold int `validate:"gte=2"`
}

// Reconciler diffs successive snapshots of one fixture into domain events.
// It performs no I/O; the caller forwards what it returns.
type Reconciler struct {
	cfg    EngineConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewReconciler(cfg EngineConfig, logger *logging.Logger) *Reconciler {
	if cfg.StaleTolerance <= 0 {
		cfg.StaleTolerance = DefaultStaleTolerance
	}
	if cfg.BurstThreshold < 2 {
		cfg.BurstThreshold = DefaultBurstThreshold
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Reconciler{cfg: cfg, logger: logger, now: time.Now}
}

type reconcileCycle struct {
	state   *MatchState
	snap    match.Snapshot
	phase   match.Phase
	at      time.Time
	base    match.Score
	staged  match.Score
	running match.Score
	// remaining counts score increments per side not yet explained by an event.
	remaining   [3]int
	burst       [3]bool
	scored      [3]bool
	burstFired  bool
	changed     bool
	out         []match.DomainEvent
	present     map[string]struct{}
	explicitVar bool
}

// Reconcile processes one snapshot against the match state and returns the
// events to emit, in emission order. Score state is committed at most once.
func (r *Reconciler) Reconcile(ctx context.Context, state *MatchState, phase match.Phase, snap match.Snapshot) []match.DomainEvent {
	state.observe(snap)
	if !snap.HasScore {
		r.logger.DebugContext(ctx, "snapshot carries no score, skipping reconciliation", "fixture_id", state.FixtureID, "status", snap.Status)
		return nil
	}

	c := r.newCycle(state, phase, snap)

	if !c.explicitVar {
		if n := regression(c.base, c.staged); n > 0 {
			r.reportCancellation(ctx, c, c.base, c.staged, n, true)
		}
	}

	for _, ev := range snap.Events {
		r.classify(ctx, c, ev)
	}

	r.adoptStaged(ctx, c)

	if c.burstFired {
		ev := state.newEvent(match.KindMultiGoalScoreUpdate, c.at)
		ev.ScoreBefore = scorePtr(c.base)
		ev.ScoreAfter = scorePtr(c.running)
		ev.Sequence = state.nextSequence()
		c.out = append(c.out, ev)
	}

	if c.running != c.base {
		state.previous = c.base
		state.current = c.running
	}

	if n := regression(state.previous, state.current); n > 0 {
		if c.explicitVar {
			r.reportCancellation(ctx, c, state.previous, state.current, n, false)
		}
		state.previous = state.current
	}

	return c.out
}

func (r *Reconciler) newCycle(state *MatchState, phase match.Phase, snap match.Snapshot) *reconcileCycle {
	c := &reconcileCycle{
		state:   state,
		snap:    snap,
		phase:   phase,
		at:      r.now().UTC(),
		base:    state.current,
		staged:  snap.Score,
		present: make(map[string]struct{}, len(snap.Events)),
	}
	c.changed = c.staged != c.base

	// Regressed columns are adopted right away; increases wait for events.
	c.running = c.base
	if c.staged.Home < c.base.Home {
		c.running.Home = c.staged.Home
	}
	if c.staged.Away < c.base.Away {
		c.running.Away = c.staged.Away
	}
	c.remaining[match.SideHome] = maxInt(c.staged.Home-c.running.Home, 0)
	c.remaining[match.SideAway] = maxInt(c.staged.Away-c.running.Away, 0)
	c.burst[match.SideHome] = c.remaining[match.SideHome] >= r.cfg.BurstThreshold
	c.burst[match.SideAway] = c.remaining[match.SideAway] >= r.cfg.BurstThreshold

	for _, ev := range snap.Events {
		key := dedupKey(ev)
		c.present[key] = struct{}{}
		if ev.IsGoalCancellation() && !state.isSeen(key) {
			c.explicitVar = true
		}
	}
	return c
}

// adoptStaged commits the provider score on every side a goal was confirmed
// for. Increments no event explained are remembered so their goal events can
// still be described when they arrive late.
func (r *Reconciler) adoptStaged(ctx context.Context, c *reconcileCycle) {
	for _, side := range []match.Side{match.SideHome, match.SideAway} {
		if !c.scored[side] || c.remaining[side] == 0 {
			continue
		}
		r.logger.DebugContext(ctx, "score moved beyond confirmed goals, adopting provider score", "fixture_id", c.state.FixtureID, "side", side, "unexplained", c.remaining[side])
		c.state.unexplained[side] += c.remaining[side]
		c.state.unexplainedUntil[side] = c.snap.ElapsedOr(0)
		c.remaining[side] = 0
		if side == match.SideHome {
			c.running.Home = c.staged.Home
		} else {
			c.running.Away = c.staged.Away
		}
	}
}

func (r *Reconciler) classify(ctx context.Context, c *reconcileCycle, ev match.RawEvent) {
	state := c.state
	key := dedupKey(ev)
	if state.isSeen(key) {
		return
	}

	if (ev.IsGoal() || ev.IsRedCard()) && !ev.Player.Valid() {
		if state.markMalformed(key) {
			r.logger.WarnContext(ctx, "skipping event without player identity", "fixture_id", state.FixtureID, "type", ev.Type, "detail", ev.Detail, "minute", minuteLabel(ev))
		}
		return
	}

	elapsed := c.snap.ElapsedOr(-1)
	minute := ev.MinuteOr(maxInt(elapsed, 0))
	side := c.snap.SideOf(ev.Team)

	// A pure minute revision never moves the score on the scorer's side.
	if side == match.SideUnknown || c.remaining[side] == 0 || !ev.IsGoal() {
		if rec := state.correctionCandidate(ev, c.present); rec != nil {
			state.markSeen(key)
			if !rec.CorrectionSent && ev.IsGoal() && !ev.IsMissedPenalty() {
				out := state.newEvent(match.KindGoalCorrection, c.at)
				out.Team = teamPtr(ev.Team)
				out.Player = ev.Player
				out.Minute = minute
				out.PreviousMinute = rec.LastKnownMinute
				out.ScorerStats = c.snap.PlayerTotals(ev.Player.ID)
				c.out = append(c.out, out)
			} else {
				r.logger.DebugContext(ctx, "absorbing repeated minute revision", "fixture_id", state.FixtureID, "correction_key", rec.CorrectionKey, "minute", minute)
			}
			rec.CorrectionSent = true
			rec.DedupKey = key
			rec.LastKnownMinute = minute
			state.processedAny = true
			return
		}
	}

	if elapsed >= 0 && ev.Minute != nil && *ev.Minute < elapsed-r.cfg.StaleTolerance {
		state.markSeen(key)
		state.processedAny = true
		if ev.IsGoal() && !ev.IsMissedPenalty() && !ev.IsShootoutKick() {
			if scoring := c.scoringSide(ev, side); scoring != match.SideUnknown && c.remaining[scoring] > 0 {
				c.remaining[scoring]--
				c.scored[scoring] = true
				bump(&c.running, scoring)
			}
		}
		r.logger.DebugContext(ctx, "dropping stale event", "fixture_id", state.FixtureID, "type", ev.Type, "minute", *ev.Minute, "elapsed", elapsed)
		return
	}

	switch {
	case ev.IsMissedPenalty():
		out := state.newEvent(match.KindMissedPenalty, c.at)
		fillEvent(&out, ev, minute)
		c.out = append(c.out, out)
		r.commitEvent(state, ev, key, minute)
	case ev.IsGoal() && (c.phase == match.PhasePenaltyShootout || ev.IsShootoutKick()):
		out := state.newEvent(match.KindShootoutGoal, c.at)
		fillEvent(&out, ev, minute)
		c.out = append(c.out, out)
		r.commitEvent(state, ev, key, minute)
	case ev.IsGoal():
		r.classifyGoal(ctx, c, ev, key, minute, side)
	case ev.IsRedCard():
		out := state.newEvent(match.KindRedCard, c.at)
		fillEvent(&out, ev, minute)
		c.out = append(c.out, out)
		r.commitEvent(state, ev, key, minute)
	case ev.IsGoalCancellation():
		state.markSeen(key)
		state.processedAny = true
		rec := state.cancelRecord(ev)
		if rec == nil {
			discarded := state.discardUnannounced(ev, c.snap.Events)
			r.logger.InfoContext(ctx, "VAR overturned a goal that was never announced", "fixture_id", state.FixtureID, "minute", minute, "discarded", discarded)
			return
		}
		// The announced score drops the goal even before the provider does.
		before := match.Score{Home: maxInt(c.running.Home, c.base.Home), Away: maxInt(c.running.Away, c.base.Away)}
		after := c.staged
		if rec.Side == match.SideHome && after.Home >= before.Home {
			after.Home = maxInt(before.Home-1, 0)
		}
		if rec.Side == match.SideAway && after.Away >= before.Away {
			after.Away = maxInt(before.Away-1, 0)
		}
		out := state.newEvent(match.KindGoalCancelled, c.at)
		fillEvent(&out, ev, minute)
		out.ScoreBefore = scorePtr(before)
		out.ScoreAfter = scorePtr(after)
		out.CancelledGoals = 1
		out.Sequence = state.nextSequence()
		c.out = append(c.out, out)
		state.pendingCancellations++
	default:
		state.markSeen(key)
		state.processedAny = true
	}
}

func (r *Reconciler) classifyGoal(ctx context.Context, c *reconcileCycle, ev match.RawEvent, key string, minute int, side match.Side) {
	state := c.state
	side = c.scoringSide(ev, side)
	confirmed := false
	switch {
	case side != match.SideUnknown && c.remaining[side] > 0:
		c.remaining[side]--
		confirmed = true
	case side == match.SideUnknown && (c.changed || !state.processedAny):
		confirmed = true
	}
	if !confirmed {
		if side != match.SideUnknown && state.unexplained[side] > 0 && ev.Minute != nil && *ev.Minute <= state.unexplainedUntil[side] {
			state.unexplained[side]--
			out := state.newEvent(match.KindGoalDescription, c.at)
			fillEvent(&out, ev, minute)
			out.ScorerStats = c.snap.PlayerTotals(ev.Player.ID)
			c.out = append(c.out, out)
			r.commitGoal(state, ev, key, minute, side)
			return
		}
		r.logger.DebugContext(ctx, "goal not reflected in score yet, deferring", "fixture_id", state.FixtureID, "minute", minute, "player_id", ev.Player.ID)
		return
	}
	if side != match.SideUnknown {
		c.scored[side] = true
	}

	if side != match.SideUnknown && c.burst[side] {
		out := state.newEvent(match.KindGoalDescription, c.at)
		fillEvent(&out, ev, minute)
		out.ScorerStats = c.snap.PlayerTotals(ev.Player.ID)
		c.out = append(c.out, out)
		bump(&c.running, side)
		c.burstFired = true
		r.commitGoal(state, ev, key, minute, side)
		return
	}

	before := c.running
	if side == match.SideUnknown {
		c.running = c.staged
	} else {
		bump(&c.running, side)
	}
	out := state.newEvent(match.KindGoalConfirmed, c.at)
	fillEvent(&out, ev, minute)
	out.ScoreBefore = scorePtr(before)
	out.ScoreAfter = scorePtr(c.running)
	out.ScorerStats = c.snap.PlayerTotals(ev.Player.ID)
	c.out = append(c.out, out)
	r.commitGoal(state, ev, key, minute, side)
}

func (r *Reconciler) commitEvent(state *MatchState, ev match.RawEvent, key string, minute int) {
	state.markSeen(key)
	state.remember(ev, minute)
	state.processedAny = true
}

func (r *Reconciler) commitGoal(state *MatchState, ev match.RawEvent, key string, minute int, side match.Side) {
	state.markSeen(key)
	state.rememberGoal(ev, minute, side)
	state.processedAny = true
}

// reportCancellation emits one cancellation notice for n goals unless earlier
// explicit VAR notices already accounted for them.
func (r *Reconciler) reportCancellation(ctx context.Context, c *reconcileCycle, before, after match.Score, n int, inferred bool) {
	state := c.state
	if state.pendingCancellations > 0 {
		covered := minInt(state.pendingCancellations, n)
		state.pendingCancellations -= covered
		n -= covered
		if n == 0 {
			r.logger.InfoContext(ctx, "score regression matches reported cancellation", "fixture_id", state.FixtureID, "before", before.String(), "after", after.String())
			return
		}
	}
	remaining := n
	for _, side := range []match.Side{match.SideHome, match.SideAway} {
		drop := before.Home - after.Home
		if side == match.SideAway {
			drop = before.Away - after.Away
		}
		if drop > 0 && remaining > 0 {
			remaining -= state.cancelLatestGoals(side, minInt(drop, remaining))
		}
	}
	out := state.newEvent(match.KindGoalCancelled, c.at)
	out.ScoreBefore = scorePtr(before)
	out.ScoreAfter = scorePtr(after)
	out.CancelledGoals = n
	out.Inferred = inferred
	out.Sequence = state.nextSequence()
	c.out = append(c.out, out)
}

// scoringSide credits an own goal to the opponent when only the opponent's
// score moved.
func (c *reconcileCycle) scoringSide(ev match.RawEvent, side match.Side) match.Side {
	if side == match.SideUnknown || !strings.EqualFold(strings.TrimSpace(ev.Detail), match.DetailOwnGoal) {
		return side
	}
	other := match.SideHome
	if side == match.SideHome {
		other = match.SideAway
	}
	if c.remaining[side] == 0 && c.remaining[other] > 0 {
		return other
	}
	return side
}

func fillEvent(out *match.DomainEvent, ev match.RawEvent, minute int) {
	out.Team = teamPtr(ev.Team)
	out.Player = ev.Player
	out.Assist = ev.Assist
	out.Detail = ev.Detail
	out.Minute = minute
}

func regression(before, after match.Score) int {
	return maxInt(before.Home-after.Home, 0) + maxInt(before.Away-after.Away, 0)
}

func bump(score *match.Score, side match.Side) {
	switch side {
	case match.SideHome:
		score.Home++
	case match.SideAway:
		score.Away++
	}
}

func scorePtr(s match.Score) *match.Score {
	return &s
}

func teamPtr(t match.Team) *match.Team {
	if t.ID == 0 && t.Name == "" {
		return nil
	}
	return &t
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}

func minInt(left, right int) int {
	if left < right {
		return left
	}
	return right
}
