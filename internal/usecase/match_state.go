package usecase

import (
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchwire/internal/domain/match"
)

// EventRecord remembers an emitted event so later polls can recognise the
// same occurrence under a revised minute.
type EventRecord struct {
	DedupKey        string
	CorrectionKey   string
	LastKnownMinute int
	CorrectionSent  bool
	Cancelled       bool
	PlayerName      string
	TeamName        string
	// Scoring marks a goal that moved the score; Side is the side credited.
	Scoring         bool
	Side            match.Side
	order           int
}

// MatchState is owned by exactly one tracking loop and must not be shared.
type MatchState struct {
	FixtureID int64

	current  match.Score
	previous match.Score

	seen                 map[string]struct{}
	malformed            map[string]struct{}
	records              map[string][]*EventRecord
	processedAny         bool
	pendingCancellations int
	recordCount          int
	sequence             int
	// unexplained counts committed increments per side that no goal event
	// accounted for; unexplainedUntil is the elapsed minute at commit time.
	unexplained          [3]int
	unexplainedUntil     [3]int

	phase          match.Phase
	started        bool
	shootoutNotice bool
	interruptNote  bool
	pausedFor      map[string]struct{}
	lastHalfTime   *match.Snapshot

	leagueName string
	homeTeam   match.Team
	awayTeam   match.Team
	status     string
	misses     int
}

func NewMatchState(fixtureID int64) *MatchState {
	return &MatchState{
		FixtureID: fixtureID,
		seen:      make(map[string]struct{}, 64),
		malformed: make(map[string]struct{}),
		records:   make(map[string][]*EventRecord, 32),
		pausedFor: make(map[string]struct{}, 2),
	}
}

// Score returns the committed score and the score before the last commit.
func (s *MatchState) Score() (current, previous match.Score) {
	return s.current, s.previous
}

func (s *MatchState) Phase() match.Phase {
	return s.phase
}

// Records returns the emitted-event records for a correction key.
func (s *MatchState) Records(correctionKey string) []EventRecord {
	items := s.records[correctionKey]
	out := make([]EventRecord, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out
}

// DiscardCarryOver absorbs the last half-time snapshot: its events are marked
// processed and its score becomes the committed score.
func (s *MatchState) DiscardCarryOver() int {
	if s.lastHalfTime == nil {
		return 0
	}
	discarded := 0
	for _, ev := range s.lastHalfTime.Events {
		key := dedupKey(ev)
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		discarded++
	}
	if s.lastHalfTime.HasScore {
		s.previous = s.current
		s.current = s.lastHalfTime.Score
	}
	s.lastHalfTime = nil
	return discarded
}

func (s *MatchState) observe(snap match.Snapshot) {
	if snap.HomeTeam.ID > 0 || snap.HomeTeam.Name != "" {
		s.homeTeam = snap.HomeTeam
	}
	if snap.AwayTeam.ID > 0 || snap.AwayTeam.Name != "" {
		s.awayTeam = snap.AwayTeam
	}
	if snap.LeagueName != "" {
		s.leagueName = snap.LeagueName
	}
	if snap.Status != "" {
		s.status = snap.Status
	}
}

func (s *MatchState) newEvent(kind match.EventKind, at time.Time) match.DomainEvent {
	return match.DomainEvent{
		Kind:       kind,
		FixtureID:  s.FixtureID,
		LeagueName: s.leagueName,
		HomeTeam:   s.homeTeam,
		AwayTeam:   s.awayTeam,
		Status:     s.status,
		OccurredAt: at,
	}
}

func (s *MatchState) isSeen(key string) bool {
	_, ok := s.seen[key]
	return ok
}

func (s *MatchState) markSeen(key string) {
	s.seen[key] = struct{}{}
}

// markMalformed returns true the first time a key is reported.
func (s *MatchState) markMalformed(key string) bool {
	if _, ok := s.malformed[key]; ok {
		return false
	}
	s.malformed[key] = struct{}{}
	return true
}

func (s *MatchState) remember(ev match.RawEvent, minute int) *EventRecord {
	s.recordCount++
	rec := &EventRecord{
		DedupKey:        dedupKey(ev),
		CorrectionKey:   correctionKey(ev),
		LastKnownMinute: minute,
		TeamName:        ev.Team.Name,
		order:           s.recordCount,
	}
	if ev.Player != nil {
		rec.PlayerName = ev.Player.Name
	}
	s.records[rec.CorrectionKey] = append(s.records[rec.CorrectionKey], rec)
	return rec
}

func (s *MatchState) rememberGoal(ev match.RawEvent, minute int, side match.Side) {
	rec := s.remember(ev, minute)
	rec.Scoring = true
	rec.Side = side
}

// nextSequence numbers score notices that carry no player identity.
func (s *MatchState) nextSequence() int {
	s.sequence++
	return s.sequence
}

// correctionCandidate finds a record for the same occurrence whose previous
// minute vanished from the current event list.
func (s *MatchState) correctionCandidate(ev match.RawEvent, present map[string]struct{}) *EventRecord {
	key := dedupKey(ev)
	for _, rec := range s.records[correctionKey(ev)] {
		if rec.Cancelled || rec.DedupKey == key {
			continue
		}
		if _, stillThere := present[rec.DedupKey]; stillThere {
			continue
		}
		return rec
	}
	return nil
}

// cancelRecord closes the latest open scoring record of the player named by a
// VAR annotation. It returns nil when no announced goal matches.
func (s *MatchState) cancelRecord(ev match.RawEvent) *EventRecord {
	records := s.records[correctionKey(goalOf(ev))]
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Scoring && !records[i].Cancelled {
			records[i].Cancelled = true
			return records[i]
		}
	}
	return nil
}

// cancelLatestGoals closes up to n of the most recent open scoring records on
// a side and returns how many it closed.
func (s *MatchState) cancelLatestGoals(side match.Side, n int) int {
	closed := 0
	for ; closed < n; closed++ {
		var latest *EventRecord
		for _, records := range s.records {
			for _, rec := range records {
				if rec.Scoring && !rec.Cancelled && rec.Side == side && (latest == nil || rec.order > latest.order) {
					latest = rec
				}
			}
		}
		if latest == nil {
			break
		}
		latest.Cancelled = true
	}
	return closed
}

// discardUnannounced marks the goal a VAR annotation refers to as seen when
// that goal was never confirmed, so it cannot be credited later. It prefers
// the latest matching goal at or before the annotation minute.
func (s *MatchState) discardUnannounced(ev match.RawEvent, events []match.RawEvent) bool {
	want := correctionKey(goalOf(ev))
	limit := ev.MinuteOr(-1)
	pick, fallback := "", ""
	for _, candidate := range events {
		if !candidate.IsGoal() || candidate.IsMissedPenalty() || correctionKey(candidate) != want {
			continue
		}
		key := dedupKey(candidate)
		if s.isSeen(key) {
			continue
		}
		fallback = key
		if limit < 0 || candidate.MinuteOr(0) <= limit {
			pick = key
		}
	}
	if pick == "" {
		pick = fallback
	}
	if pick == "" {
		return false
	}
	s.markSeen(pick)
	return true
}

func goalOf(ev match.RawEvent) match.RawEvent {
	goal := ev
	goal.Type = match.EventTypeGoal
	goal.Detail = ""
	return goal
}

func dedupKey(ev match.RawEvent) string {
	return eventTypeKey(ev) + "|" + minuteLabel(ev) + "|" + playerKey(ev)
}

func correctionKey(ev match.RawEvent) string {
	return eventTypeKey(ev) + "|" + playerKey(ev)
}

func eventTypeKey(ev match.RawEvent) string {
	typ := strings.ToLower(strings.TrimSpace(ev.Type))
	if ev.IsMissedPenalty() {
		return typ + ":missed"
	}
	return typ
}

func playerKey(ev match.RawEvent) string {
	if ev.Player == nil {
		return "0"
	}
	return strconv.FormatInt(ev.Player.ID, 10)
}

func minuteLabel(ev match.RawEvent) string {
	if ev.Minute == nil {
		return "na"
	}
	label := strconv.Itoa(*ev.Minute)
	if ev.ExtraMinute != nil && *ev.ExtraMinute > 0 {
		label += "+" + strconv.Itoa(*ev.ExtraMinute)
	}
	return label
}
