package apifootball

import (
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchwire/internal/domain/match"
)

func mapSnapshot(item fixtureItem, fetchedAt time.Time) match.Snapshot {
	status := match.NormalizeStatus(item.Fixture.Status.Short)
	snap := match.Snapshot{
		FixtureID:  item.Fixture.ID,
		LeagueID:   item.League.ID,
		LeagueName: strings.TrimSpace(item.League.Name),
		Round:      strings.TrimSpace(item.League.Round),
		Status:     status,
		StatusLong: strings.TrimSpace(item.Fixture.Status.Long),
		Elapsed:    item.Fixture.Status.Elapsed,
		HomeTeam:   mapTeam(item.Teams.Home),
		AwayTeam:   mapTeam(item.Teams.Away),
		FetchedAt:  fetchedAt,
	}
	if phase, ok := match.ClassifyStatus(status); ok {
		snap.Phase = phase
	}
	if kickoff := parseProviderDateTime(item.Fixture.Date); kickoff != nil {
		snap.KickoffAt = *kickoff
	}
	if item.Goals.Home != nil && item.Goals.Away != nil {
		snap.Score = match.Score{Home: *item.Goals.Home, Away: *item.Goals.Away}
		snap.HasScore = true
	}

	snap.Events = make([]match.RawEvent, 0, len(item.Events))
	for _, ev := range item.Events {
		snap.Events = append(snap.Events, mapEvent(ev))
	}

	snap.Lineups = make([]match.Lineup, 0, len(item.Lineups))
	for _, lineup := range item.Lineups {
		out := match.Lineup{
			Team:      mapTeam(lineup.Team),
			Formation: strings.TrimSpace(lineup.Formation),
			StartXI:   make([]match.LineupPlayer, 0, len(lineup.StartXI)),
		}
		for _, slot := range lineup.StartXI {
			out.StartXI = append(out.StartXI, match.LineupPlayer{
				ID:       slot.Player.ID,
				Name:     strings.TrimSpace(slot.Player.Name),
				Number:   slot.Player.Number,
				Position: strings.TrimSpace(slot.Player.Pos),
			})
		}
		snap.Lineups = append(snap.Lineups, out)
	}

	snap.Statistics = make([]match.TeamStatistics, 0, len(item.Statistics))
	for _, stats := range item.Statistics {
		out := match.TeamStatistics{
			Team:  mapTeam(stats.Team),
			Items: make([]match.Statistic, 0, len(stats.Statistics)),
		}
		for _, stat := range stats.Statistics {
			out.Items = append(out.Items, match.Statistic{
				Type:  strings.TrimSpace(stat.Type),
				Value: formatStatValue(stat.Value),
			})
		}
		snap.Statistics = append(snap.Statistics, out)
	}

	for _, team := range item.Players {
		for _, entry := range team.Players {
			if entry.Player.ID <= 0 {
				continue
			}
			snap.Players = append(snap.Players, match.PlayerStatistics{
				Player: match.Player{ID: entry.Player.ID, Name: strings.TrimSpace(entry.Player.Name)},
				Team:   mapTeam(team.Team),
				Totals: mapPlayerTotals(entry.Statistics),
			})
		}
	}

	return snap
}

// mapPlayerTotals lists the non-null totals of the first statistics entry.
func mapPlayerTotals(stats []playerStatsDetail) []match.Statistic {
	if len(stats) == 0 {
		return nil
	}
	first := stats[0]
	categories := []struct {
		name  string
		total statTotal
	}{
		{"Shots", first.Shots},
		{"Goals", first.Goals},
		{"Passes", first.Passes},
		{"Tackles", first.Tackles},
		{"Duels", first.Duels},
	}
	out := make([]match.Statistic, 0, len(categories))
	for _, category := range categories {
		if category.total.Total == nil {
			continue
		}
		out = append(out, match.Statistic{Type: category.name, Value: strconv.Itoa(*category.total.Total)})
	}
	return out
}

func mapEvent(source eventItem) match.RawEvent {
	out := match.RawEvent{
		Type:        strings.TrimSpace(source.Type),
		Detail:      strings.TrimSpace(source.Detail),
		Minute:      source.Time.Elapsed,
		ExtraMinute: source.Time.Extra,
		Player:      mapPerson(source.Player),
		Assist:      mapPerson(source.Assist),
		Team:        mapTeam(source.Team),
	}
	if source.Comments != nil {
		out.Comments = strings.TrimSpace(*source.Comments)
	}
	return out
}

// mapPerson keeps partially identified players so the engine can log them as
// malformed instead of silently losing the event.
func mapPerson(source personRef) *match.Player {
	if source.ID == nil && source.Name == nil {
		return nil
	}
	out := &match.Player{}
	if source.ID != nil {
		out.ID = *source.ID
	}
	if source.Name != nil {
		out.Name = strings.TrimSpace(*source.Name)
	}
	return out
}

func mapTeam(source teamRef) match.Team {
	return match.Team{ID: source.ID, Name: strings.TrimSpace(source.Name)}
}

func formatStatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "0"
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func parseProviderDateTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}
