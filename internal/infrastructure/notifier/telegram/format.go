package telegram

import (
	"strconv"
	"strings"

	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/valyala/bytebufferpool"
)

// statLines lists the statistics shown in the full-time summary, in order.
var statLines = []string{
	"Ball Possession",
	"Total Shots",
	"Shots on Goal",
	"Corner Kicks",
	"Fouls",
	"Yellow Cards",
	"Red Cards",
	"expected_goals",
}

// Format renders an event as plain message text. Unknown kinds render empty.
func Format(ev match.DomainEvent) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	home, away := teamName(ev.HomeTeam, "Home"), teamName(ev.AwayTeam, "Away")
	fixture := home + " vs " + away

	switch ev.Kind {
	case match.KindMatchStarted:
		_, _ = buf.WriteString("🟢 Kick-off: " + fixture)
		if ev.LeagueName != "" {
			_, _ = buf.WriteString(" (" + ev.LeagueName + ")")
		}
		for _, lineup := range ev.Lineups {
			writeLineup(buf, lineup)
		}
	case match.KindGoalConfirmed:
		_, _ = buf.WriteString("⚽ GOAL! " + scoreLine(home, away, ev.ScoreAfter))
		_, _ = buf.WriteString("\n" + scorerLine(ev))
		writeScorerStats(buf, ev.ScorerStats)
	case match.KindGoalDescription:
		_, _ = buf.WriteString("⚽ " + scorerLine(ev))
	case match.KindMultiGoalScoreUpdate:
		_, _ = buf.WriteString("⚽ Several goals since the last update! " + scoreLine(home, away, ev.ScoreAfter))
		if ev.ScoreBefore != nil {
			_, _ = buf.WriteString(" (was " + ev.ScoreBefore.String() + ")")
		}
	case match.KindGoalCorrection:
		_, _ = buf.WriteString("✏️ Correction: " + playerName(ev.Player) + "'s goal")
		if ev.Team != nil && ev.Team.Name != "" {
			_, _ = buf.WriteString(" for " + ev.Team.Name)
		}
		_, _ = buf.WriteString(" came in minute " + strconv.Itoa(ev.Minute) + ", not " + strconv.Itoa(ev.PreviousMinute) + ".")
	case match.KindGoalCancelled:
		writeCancellation(buf, ev, home, away)
	case match.KindRedCard:
		_, _ = buf.WriteString("🟥 Red card: " + actorLine(ev))
	case match.KindMissedPenalty:
		_, _ = buf.WriteString("❌ Penalty missed: " + actorLine(ev))
	case match.KindShootoutGoal:
		_, _ = buf.WriteString("🎯 Shootout: " + playerName(ev.Player))
		if ev.Team != nil && ev.Team.Name != "" {
			_, _ = buf.WriteString(" (" + ev.Team.Name + ")")
		}
		_, _ = buf.WriteString(" scores")
	case match.KindShootoutPaused:
		_, _ = buf.WriteString("⏸ " + fixture + " goes to penalties. Updates resume after the shootout.")
	case match.KindMatchInterrupted:
		_, _ = buf.WriteString("⚠️ " + fixture + " is interrupted")
		if ev.Reason != "" {
			_, _ = buf.WriteString(": " + ev.Reason)
		}
	case match.KindMatchFinished:
		writeSummary(buf, ev, home, away)
	case match.KindMatchAbandoned:
		_, _ = buf.WriteString("🚫 " + fixture + " will not be completed")
		if ev.Reason != "" {
			_, _ = buf.WriteString(": " + ev.Reason)
		}
	case match.KindQuotaExhausted:
		_, _ = buf.WriteString("⛔ Daily data quota is used up. Live updates for " + fixture + " have stopped.")
	case match.KindTrackingAborted:
		_, _ = buf.WriteString("⛔ Live updates for " + fixture + " have stopped")
		if ev.Reason != "" {
			_, _ = buf.WriteString(": " + ev.Reason)
		}
	default:
		return ""
	}

	return buf.String()
}

func writeLineup(buf *bytebufferpool.ByteBuffer, lineup match.Lineup) {
	_, _ = buf.WriteString("\n\n" + teamName(lineup.Team, "Team"))
	if lineup.Formation != "" {
		_, _ = buf.WriteString(" (" + lineup.Formation + ")")
	}
	_, _ = buf.WriteString(":")
	names := make([]string, 0, len(lineup.StartXI))
	for _, player := range lineup.StartXI {
		names = append(names, player.Name)
	}
	if len(names) > 0 {
		_, _ = buf.WriteString(" " + strings.Join(names, ", "))
	}
}

func writeScorerStats(buf *bytebufferpool.ByteBuffer, stats []match.Statistic) {
	if len(stats) == 0 {
		_, _ = buf.WriteString("\n\nScorer stats: none available")
		return
	}
	_, _ = buf.WriteString("\n\nScorer stats:")
	for _, stat := range stats {
		_, _ = buf.WriteString("\n" + stat.Type + ": " + valueOr(stat.Value, "0"))
	}
}

func writeCancellation(buf *bytebufferpool.ByteBuffer, ev match.DomainEvent, home, away string) {
	if ev.Player != nil {
		_, _ = buf.WriteString("❌ Goal disallowed: " + actorLine(ev))
		if ev.ScoreAfter != nil {
			_, _ = buf.WriteString("\n" + scoreLine(home, away, ev.ScoreAfter))
		}
		return
	}

	lead := "A goal was cancelled"
	if ev.CancelledGoals > 1 {
		lead = strconv.Itoa(ev.CancelledGoals) + " goals were cancelled"
	}
	_, _ = buf.WriteString("❌ " + lead + ". Score is now " + scoreLine(home, away, ev.ScoreAfter))
}

func writeSummary(buf *bytebufferpool.ByteBuffer, ev match.DomainEvent, home, away string) {
	_, _ = buf.WriteString("🏁 Full time: " + scoreLine(home, away, ev.ScoreAfter))

	goals := make([]string, 0, len(ev.Events))
	for _, raw := range ev.Events {
		if !raw.IsGoal() || raw.IsMissedPenalty() || raw.IsShootoutKick() {
			continue
		}
		line := strconv.Itoa(raw.MinuteOr(0)) + "' " + playerName(raw.Player)
		if raw.Team.Name != "" {
			line += " (" + raw.Team.Name + ")"
		}
		if strings.EqualFold(raw.Detail, match.DetailOwnGoal) {
			line += " OG"
		} else if strings.EqualFold(raw.Detail, match.DetailPenalty) {
			line += " pen"
		}
		goals = append(goals, line)
	}
	if len(goals) > 0 {
		_, _ = buf.WriteString("\n\nGoals:\n" + strings.Join(goals, "\n"))
	}

	if stats := statisticsTable(ev.Statistics); stats != "" {
		_, _ = buf.WriteString("\n\nStatistics (" + home + " - " + away + "):\n" + stats)
	}

	if commentary := strings.TrimSpace(ev.Commentary); commentary != "" {
		_, _ = buf.WriteString("\n\n" + commentary)
	}
}

func statisticsTable(stats []match.TeamStatistics) string {
	if len(stats) < 2 {
		return ""
	}
	home := statIndex(stats[0])
	away := statIndex(stats[1])

	lines := make([]string, 0, len(statLines))
	for _, name := range statLines {
		h, okH := home[name]
		a, okA := away[name]
		if !okH && !okA {
			continue
		}
		label := name
		if name == "expected_goals" {
			label = "xG"
		}
		lines = append(lines, label+": "+valueOr(h, "0")+" - "+valueOr(a, "0"))
	}
	return strings.Join(lines, "\n")
}

func statIndex(stats match.TeamStatistics) map[string]string {
	out := make(map[string]string, len(stats.Items))
	for _, item := range stats.Items {
		out[item.Type] = item.Value
	}
	return out
}

func scoreLine(home, away string, score *match.Score) string {
	if score == nil {
		return home + " vs " + away
	}
	return home + " " + score.String() + " " + away
}

func scorerLine(ev match.DomainEvent) string {
	line := minuteLabel(ev.Minute) + playerName(ev.Player)
	if ev.Team != nil && ev.Team.Name != "" {
		line += " (" + ev.Team.Name + ")"
	}
	switch {
	case strings.EqualFold(ev.Detail, match.DetailOwnGoal):
		line += ", own goal"
	case strings.EqualFold(ev.Detail, match.DetailPenalty):
		line += ", penalty"
	}
	if ev.Assist.Valid() {
		line += ", assist " + ev.Assist.Name
	}
	return line
}

func actorLine(ev match.DomainEvent) string {
	line := playerName(ev.Player)
	if ev.Team != nil && ev.Team.Name != "" {
		line += " (" + ev.Team.Name + ")"
	}
	if ev.Minute > 0 {
		line += " " + strconv.Itoa(ev.Minute) + "'"
	}
	return line
}

func minuteLabel(minute int) string {
	if minute <= 0 {
		return ""
	}
	return strconv.Itoa(minute) + "' "
}

func playerName(p *match.Player) string {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return "Unknown player"
	}
	return p.Name
}

func teamName(team match.Team, fallback string) string {
	if strings.TrimSpace(team.Name) == "" {
		return fallback
	}
	return team.Name
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
