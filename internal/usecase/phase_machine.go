package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
)

const (
	PlanTierFree = "free"
	PlanTierPaid = "paid"
)

type PhaseConfig struct {
	PreKickoffInterval   time.Duration
	HalfTimePause        time.Duration
	HalfTimeRecheck      time.Duration
	ShootoutPauseShort   time.Duration
	ShootoutPauseLong    time.Duration
	ShootoutInterval     time.Duration
	InterruptionPause    time.Duration
	InterruptionInterval time.Duration
	// PlanTier picks the shootout floor: free plans sit the shootout out on
	// the long floor, paid plans come back sooner.
	PlanTier string
}

func DefaultPhaseConfig() PhaseConfig {
	return PhaseConfig{
		PreKickoffInterval:   60 * time.Second,
		HalfTimePause:        13 * time.Minute,
		HalfTimeRecheck:      45 * time.Second,
		ShootoutPauseShort:   2 * time.Minute,
		ShootoutPauseLong:    10 * time.Minute,
		ShootoutInterval:     2 * time.Minute,
		InterruptionPause:    10 * time.Minute,
		InterruptionInterval: 3 * time.Minute,
		PlanTier:             PlanTierFree,
	}
}

func normalizePhaseConfig(cfg PhaseConfig) PhaseConfig {
	defaults := DefaultPhaseConfig()
	if cfg.PreKickoffInterval <= 0 {
		cfg.PreKickoffInterval = defaults.PreKickoffInterval
	}
	if cfg.HalfTimePause <= 0 {
		cfg.HalfTimePause = defaults.HalfTimePause
	}
	if cfg.HalfTimeRecheck <= 0 {
		cfg.HalfTimeRecheck = defaults.HalfTimeRecheck
	}
	if cfg.ShootoutPauseShort <= 0 {
		cfg.ShootoutPauseShort = defaults.ShootoutPauseShort
	}
	if cfg.ShootoutPauseLong <= 0 {
		cfg.ShootoutPauseLong = defaults.ShootoutPauseLong
	}
	if cfg.ShootoutInterval <= 0 {
		cfg.ShootoutInterval = defaults.ShootoutInterval
	}
	if cfg.InterruptionPause <= 0 {
		cfg.InterruptionPause = defaults.InterruptionPause
	}
	if cfg.InterruptionInterval <= 0 {
		cfg.InterruptionInterval = defaults.InterruptionInterval
	}
	cfg.PlanTier = strings.ToLower(strings.TrimSpace(cfg.PlanTier))
	if cfg.PlanTier != PlanTierPaid {
		cfg.PlanTier = PlanTierFree
	}
	return cfg
}

// PhaseDecision tells the tracking loop what to do with one snapshot.
type PhaseDecision struct {
	Phase            match.Phase
	Previous         match.Phase
	Pause            time.Duration
	Interval         time.Duration
	Notices          []match.DomainEvent
	Reconcile        bool
	DiscardCarryOver bool
	Terminal         bool
}

// Wait is the time to sleep before the next poll.
func (d PhaseDecision) Wait() time.Duration {
	if d.Pause > 0 {
		return d.Pause
	}
	return d.Interval
}

type PhaseMachine struct {
	cfg    PhaseConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewPhaseMachine(cfg PhaseConfig, logger *logging.Logger) *PhaseMachine {
	if logger == nil {
		logger = logging.Default()
	}
	return &PhaseMachine{cfg: normalizePhaseConfig(cfg), logger: logger, now: time.Now}
}

// Observe classifies the snapshot, records the transition on state and
// decides cadence and one-shot notices. liveInterval is used while in play.
func (m *PhaseMachine) Observe(ctx context.Context, state *MatchState, snap match.Snapshot, liveInterval time.Duration) PhaseDecision {
	state.observe(snap)

	prev := state.phase
	phase, ok := match.ClassifyStatus(snap.Status)
	if !ok {
		phase = prev
		if phase == "" {
			phase = match.PhaseScheduled
		}
		m.logger.WarnContext(ctx, "unknown fixture status, keeping previous phase", "fixture_id", state.FixtureID, "status", snap.Status, "phase", phase)
	}
	state.phase = phase
	entered := phase != prev
	if entered {
		m.logger.InfoContext(ctx, "fixture phase changed", "fixture_id", state.FixtureID, "from", prev, "to", phase, "status", snap.Status)
	}

	d := PhaseDecision{Phase: phase, Previous: prev}
	at := m.now().UTC()

	if phase.IsLive() && !state.started {
		state.started = true
		notice := state.newEvent(match.KindMatchStarted, at)
		notice.Lineups = snap.Lineups
		d.Notices = append(d.Notices, notice)
	}

	switch phase {
	case match.PhaseScheduled:
		d.Interval = m.cfg.PreKickoffInterval
	case match.PhaseInPlay:
		d.Reconcile = true
		d.Interval = liveInterval
		if prev == match.PhaseHalfTime && state.lastHalfTime != nil {
			d.DiscardCarryOver = true
		}
	case match.PhaseHalfTime:
		d.Reconcile = true
		halfTime := snap
		state.lastHalfTime = &halfTime
		key := match.NormalizeStatus(snap.Status)
		if _, paused := state.pausedFor[key]; entered && !paused {
			state.pausedFor[key] = struct{}{}
			d.Pause = m.cfg.HalfTimePause
		} else {
			d.Interval = m.cfg.HalfTimeRecheck
		}
	case match.PhasePenaltyShootout:
		d.Reconcile = true
		if !state.shootoutNotice {
			state.shootoutNotice = true
			d.Notices = append(d.Notices, state.newEvent(match.KindShootoutPaused, at))
		}
		if entered {
			d.Pause = m.shootoutPause()
		} else {
			d.Interval = m.cfg.ShootoutInterval
		}
	case match.PhaseInterrupted:
		d.Reconcile = true
		if !state.interruptNote {
			state.interruptNote = true
			notice := state.newEvent(match.KindMatchInterrupted, at)
			notice.Reason = snap.StatusLong
			d.Notices = append(d.Notices, notice)
		}
		if entered {
			d.Pause = m.cfg.InterruptionPause
		} else {
			d.Interval = m.cfg.InterruptionInterval
		}
	case match.PhaseFinished:
		d.Reconcile = true
	}
	d.Terminal = phase.IsTerminal()

	return d
}

func (m *PhaseMachine) shootoutPause() time.Duration {
	if m.cfg.PlanTier == PlanTierPaid {
		return m.cfg.ShootoutPauseShort
	}
	return m.cfg.ShootoutPauseLong
}
