package usecase

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type TrackerConfig struct {
	// MaxConsecutiveMisses bounds how many failed or empty polls in a row are
	// tolerated before tracking is aborted.
	MaxConsecutiveMisses int
	RetryInterval        time.Duration
	CommentaryTimeout    time.Duration
}

func normalizeTrackerConfig(cfg TrackerConfig) TrackerConfig {
	if cfg.MaxConsecutiveMisses <= 0 {
		cfg.MaxConsecutiveMisses = 30
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 30 * time.Second
	}
	if cfg.CommentaryTimeout <= 0 {
		cfg.CommentaryTimeout = 45 * time.Second
	}
	return cfg
}

type TrackerService struct {
	provider    SnapshotProvider
	notifier    EventNotifier
	commentator Commentator
	guard       *BudgetGuard
	reconciler  *Reconciler
	phases      *PhaseMachine
	cadence     *CadencePolicy
	cfg         TrackerConfig
	logger      *logging.Logger
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewTrackerService(
	provider SnapshotProvider,
	notifier EventNotifier,
	commentator Commentator,
	guard *BudgetGuard,
	reconciler *Reconciler,
	phases *PhaseMachine,
	cadence *CadencePolicy,
	cfg TrackerConfig,
	logger *logging.Logger,
) *TrackerService {
	if logger == nil {
		logger = logging.Default()
	}
	if commentator == nil {
		commentator = NewNoopCommentator()
	}
	if guard == nil {
		guard = NewBudgetGuard(DefaultQuotaFloor, logger)
	}
	if reconciler == nil {
		reconciler = NewReconciler(EngineConfig{}, logger)
	}
	if phases == nil {
		phases = NewPhaseMachine(DefaultPhaseConfig(), logger)
	}
	if cadence == nil {
		cadence = NewCadencePolicy(DefaultCompetitionProfiles(), DefaultFallbackProfile(), 0)
	}

	return &TrackerService{
		provider:    provider,
		notifier:    notifier,
		commentator: commentator,
		guard:       guard,
		reconciler:  reconciler,
		phases:      phases,
		cadence:     cadence,
		cfg:         normalizeTrackerConfig(cfg),
		logger:      logger,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// TrackMatch polls one fixture until it reaches a terminal phase, the quota
// floor is hit, a fatal provider error occurs, or ctx is cancelled.
func (s *TrackerService) TrackMatch(ctx context.Context, fixtureID int64) error {
	if fixtureID <= 0 {
		return fmt.Errorf("%w: fixture id must be greater than zero", ErrInvalidInput)
	}

	state := NewMatchState(fixtureID)
	s.logger.InfoContext(ctx, "match tracking started", "fixture_id", fixtureID)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, done, err := s.runCycle(ctx, state)
		if done {
			if err != nil && ctx.Err() == nil {
				s.logger.WarnContext(ctx, "match tracking stopped", "fixture_id", fixtureID, "error", err)
			} else if err == nil {
				s.logger.InfoContext(ctx, "match tracking finished", "fixture_id", fixtureID, "phase", state.Phase())
			}
			return err
		}

		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (s *TrackerService) runCycle(ctx context.Context, state *MatchState) (time.Duration, bool, error) {
	ctx, span := startCycleSpan(ctx, "usecase.TrackerService.cycle")
	defer span.End()
	span.SetAttributes(attribute.Int64("fixture.id", state.FixtureID))

	snap, remaining, err := s.provider.FetchSnapshot(ctx, state.FixtureID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch snapshot")
		return s.handleFetchError(ctx, state, err)
	}
	span.SetAttributes(
		attribute.String("fixture.status", snap.Status),
		attribute.Int("provider.quota_remaining", remaining),
	)

	if err := s.guard.Check(ctx, remaining); err != nil {
		s.emit(ctx, state.newEvent(match.KindQuotaExhausted, s.now().UTC()))
		return 0, true, err
	}

	if !snap.HasScore && snap.Status == "" {
		return s.recordMiss(ctx, state, crerr.Mark(crerr.New("snapshot has neither status nor score"), ErrDataMissing))
	}
	state.misses = 0

	decision := s.phases.Observe(ctx, state, snap, s.cadence.LiveInterval(snap.LeagueID))
	span.SetAttributes(attribute.String("fixture.phase", string(decision.Phase)))

	for _, notice := range decision.Notices {
		s.emit(ctx, notice)
	}
	if decision.DiscardCarryOver {
		discarded := state.DiscardCarryOver()
		s.logger.DebugContext(ctx, "discarded half-time carry-over events", "fixture_id", state.FixtureID, "count", discarded)
	}
	if decision.Reconcile {
		for _, ev := range s.reconciler.Reconcile(ctx, state, decision.Phase, snap) {
			s.emit(ctx, ev)
		}
	}

	if decision.Terminal {
		s.finish(ctx, state, snap, decision.Phase)
		return 0, true, nil
	}

	return decision.Wait(), false, nil
}

func (s *TrackerService) handleFetchError(ctx context.Context, state *MatchState, err error) (time.Duration, bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, true, ctxErr
	}

	switch {
	case crerr.Is(err, ErrRateLimited), crerr.Is(err, ErrQuotaExhausted):
		s.emit(ctx, state.newEvent(match.KindQuotaExhausted, s.now().UTC()))
		return 0, true, crerr.Mark(crerr.Wrapf(err, "track fixture %d", state.FixtureID), ErrQuotaExhausted)
	case crerr.Is(err, ErrNotFound), crerr.Is(err, ErrFatal):
		ev := state.newEvent(match.KindTrackingAborted, s.now().UTC())
		ev.Reason = err.Error()
		s.emit(ctx, ev)
		return 0, true, crerr.Wrapf(err, "track fixture %d", state.FixtureID)
	default:
		return s.recordMiss(ctx, state, err)
	}
}

func (s *TrackerService) recordMiss(ctx context.Context, state *MatchState, err error) (time.Duration, bool, error) {
	state.misses++
	if state.misses >= s.cfg.MaxConsecutiveMisses {
		ev := state.newEvent(match.KindTrackingAborted, s.now().UTC())
		ev.Reason = err.Error()
		s.emit(ctx, ev)
		return 0, true, crerr.Wrapf(err, "track fixture %d: %d consecutive failed polls", state.FixtureID, state.misses)
	}
	s.logger.WarnContext(ctx, "snapshot poll failed, retrying", "fixture_id", state.FixtureID, "misses", state.misses, "error", err)
	return s.cfg.RetryInterval, false, nil
}

func (s *TrackerService) finish(ctx context.Context, state *MatchState, snap match.Snapshot, phase match.Phase) {
	at := s.now().UTC()
	if phase == match.PhaseAbandoned {
		ev := state.newEvent(match.KindMatchAbandoned, at)
		ev.Reason = snap.StatusLong
		if snap.HasScore {
			ev.ScoreAfter = scorePtr(snap.Score)
		}
		s.emit(ctx, ev)
		return
	}

	final := snap.Score
	if !snap.HasScore {
		final, _ = state.Score()
	}

	commentary := s.comment(ctx, CommentaryRequest{
		FixtureID:  state.FixtureID,
		HomeTeam:   snap.HomeTeam,
		AwayTeam:   snap.AwayTeam,
		FinalScore: final,
		Status:     snap.Status,
		Events:     snap.Events,
		Statistics: snap.Statistics,
	})

	ev := state.newEvent(match.KindMatchFinished, at)
	ev.ScoreAfter = scorePtr(final)
	ev.Statistics = snap.Statistics
	ev.Events = snap.Events
	ev.Commentary = commentary
	s.emit(ctx, ev)
}

func (s *TrackerService) comment(ctx context.Context, req CommentaryRequest) string {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackerService.comment")
	defer span.End()

	commentCtx, cancel := context.WithTimeout(ctx, s.cfg.CommentaryTimeout)
	defer cancel()

	text, err := s.commentator.Comment(commentCtx, req)
	if err != nil {
		span.RecordError(err)
		s.logger.WarnContext(ctx, "match commentary unavailable", "fixture_id", req.FixtureID, "error", err)
		return ""
	}
	return text
}

// emit delivers at most once; sink failures are logged and dropped.
func (s *TrackerService) emit(ctx context.Context, ev match.DomainEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "notify domain event failed", "fixture_id", ev.FixtureID, "kind", ev.Kind, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "domain event emitted", "fixture_id", ev.FixtureID, "kind", ev.Kind, "minute", ev.Minute)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
