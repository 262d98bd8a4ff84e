package match

import "strings"

type Phase string

const (
	PhaseScheduled       Phase = "SCHEDULED"
	PhaseInPlay          Phase = "IN_PLAY"
	PhaseHalfTime        Phase = "HALF_TIME"
	PhasePenaltyShootout Phase = "PENALTY_SHOOTOUT"
	PhaseInterrupted     Phase = "INTERRUPTED"
	PhaseFinished        Phase = "FINISHED"
	PhaseAbandoned       Phase = "ABANDONED"
)

func NormalizeStatus(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// ClassifyStatus maps a provider status code onto a phase. ok is false for
// codes the classifier does not know, callers keep their previous phase then.
func ClassifyStatus(code string) (Phase, bool) {
	switch NormalizeStatus(code) {
	case "TBD", "NS":
		return PhaseScheduled, true
	case "1H", "2H", "ET", "LIVE":
		return PhaseInPlay, true
	case "HT", "BT":
		return PhaseHalfTime, true
	case "P":
		return PhasePenaltyShootout, true
	case "SUSP", "INT":
		return PhaseInterrupted, true
	case "FT", "AET", "PEN":
		return PhaseFinished, true
	case "PST", "CANC", "ABD", "AWD", "WO":
		return PhaseAbandoned, true
	default:
		return "", false
	}
}

func (p Phase) IsTerminal() bool {
	return p == PhaseFinished || p == PhaseAbandoned
}

// IsLive reports phases in which the match clock may still produce events.
func (p Phase) IsLive() bool {
	switch p {
	case PhaseInPlay, PhaseHalfTime, PhasePenaltyShootout, PhaseInterrupted:
		return true
	default:
		return false
	}
}
