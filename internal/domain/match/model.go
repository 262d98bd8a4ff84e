package match

import (
	"strconv"
	"strings"
	"time"
)

// Provider event types as reported in the snapshot event list.
const (
	EventTypeGoal  = "Goal"
	EventTypeCard  = "Card"
	EventTypeVar   = "Var"
	EventTypeSubst = "subst"
)

const (
	DetailMissedPenalty = "Missed Penalty"
	DetailOwnGoal       = "Own Goal"
	DetailPenalty       = "Penalty"
	DetailRedCard       = "Red Card"
	DetailSecondYellow  = "Second Yellow card"
	CommentShootout     = "Penalty Shootout"
)

type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Valid reports whether the player carries enough identity to key events on.
func (p *Player) Valid() bool {
	return p != nil && p.ID > 0 && strings.TrimSpace(p.Name) != ""
}

type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s Score) String() string {
	return strconv.Itoa(s.Home) + "-" + strconv.Itoa(s.Away)
}

// RawEvent is one entry of the provider event list. It has no stable identity:
// minute and even player may be revised between polls.
type RawEvent struct {
	Type        string  `json:"type"`
	Detail      string  `json:"detail"`
	Comments    string  `json:"comments,omitempty"`
	Minute      *int    `json:"minute,omitempty"`
	ExtraMinute *int    `json:"extra_minute,omitempty"`
	Player      *Player `json:"player,omitempty"`
	Assist      *Player `json:"assist,omitempty"`
	Team        Team    `json:"team"`
}

// MinuteOr returns the event minute or fallback when the provider omitted it.
func (e RawEvent) MinuteOr(fallback int) int {
	if e.Minute == nil {
		return fallback
	}
	return *e.Minute
}

func (e RawEvent) IsGoal() bool {
	return strings.EqualFold(e.Type, EventTypeGoal)
}

func (e RawEvent) IsMissedPenalty() bool {
	return e.IsGoal() && strings.EqualFold(strings.TrimSpace(e.Detail), DetailMissedPenalty)
}

func (e RawEvent) IsShootoutKick() bool {
	return e.IsGoal() && strings.Contains(strings.ToLower(e.Comments), strings.ToLower(CommentShootout))
}

func (e RawEvent) IsRedCard() bool {
	if !strings.EqualFold(e.Type, EventTypeCard) {
		return false
	}
	detail := strings.ToLower(e.Detail)
	return strings.Contains(detail, "red card") || strings.Contains(detail, "second yellow")
}

// IsGoalCancellation reports a VAR annotation that overturns a goal.
func (e RawEvent) IsGoalCancellation() bool {
	if !strings.EqualFold(e.Type, EventTypeVar) {
		return false
	}
	detail := strings.ToLower(e.Detail)
	if strings.Contains(detail, "penalty") && !strings.Contains(detail, "goal") {
		return false
	}
	return strings.Contains(detail, "disallow") || strings.Contains(detail, "cancel")
}

type LineupPlayer struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Number   int    `json:"number"`
	Position string `json:"position"`
}

type Lineup struct {
	Team      Team           `json:"team"`
	Formation string         `json:"formation"`
	StartXI   []LineupPlayer `json:"start_xi"`
}

type Statistic struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type TeamStatistics struct {
	Team  Team        `json:"team"`
	Items []Statistic `json:"items"`
}

// PlayerStatistics holds the match totals of one player, e.g. shots or passes.
type PlayerStatistics struct {
	Player Player      `json:"player"`
	Team   Team        `json:"team"`
	Totals []Statistic `json:"totals"`
}

// Snapshot is the full provider state of one fixture at fetch time.
type Snapshot struct {
	FixtureID  int64
	LeagueID   int64
	LeagueName string
	Round      string
	KickoffAt  time.Time
	Status     string
	StatusLong string
	Phase      Phase
	Elapsed    *int
	Score      Score
	HasScore   bool
	HomeTeam   Team
	AwayTeam   Team
	Events     []RawEvent
	Statistics []TeamStatistics
	Lineups    []Lineup
	Players    []PlayerStatistics
	FetchedAt  time.Time
}

// ElapsedOr returns elapsed minutes or fallback when absent.
func (s Snapshot) ElapsedOr(fallback int) int {
	if s.Elapsed == nil {
		return fallback
	}
	return *s.Elapsed
}

// PlayerTotals returns the match totals recorded for a player, or nil.
func (s Snapshot) PlayerTotals(playerID int64) []Statistic {
	if playerID <= 0 {
		return nil
	}
	for _, item := range s.Players {
		if item.Player.ID == playerID {
			return item.Totals
		}
	}
	return nil
}

// SideOf resolves which side a team plays on.
func (s Snapshot) SideOf(team Team) Side {
	switch {
	case team.ID > 0 && team.ID == s.HomeTeam.ID:
		return SideHome
	case team.ID > 0 && team.ID == s.AwayTeam.ID:
		return SideAway
	default:
		return SideUnknown
	}
}

type Side int

const (
	SideUnknown Side = iota
	SideHome
	SideAway
)
