package usecase

import "time"

const (
	defaultLeagueMinutes = 5 + 45 + 10 + 45 + 10
	defaultCupMinutes    = defaultLeagueMinutes + 30
	defaultCallsPerMatch = 90
	defaultMinInterval   = 30 * time.Second
)

// CompetitionProfile describes how long a fixture of a competition is
// expected to run and how many provider calls it may spend.
type CompetitionProfile struct {
	LeagueID        int64
	Name            string
	ExpectedMinutes int
	CallsPerMatch   int
}

// DefaultCompetitionProfiles covers the competitions that can go to extra time.
func DefaultCompetitionProfiles() []CompetitionProfile {
	return []CompetitionProfile{
		{LeagueID: 2, Name: "UEFA Champions League", ExpectedMinutes: defaultCupMinutes, CallsPerMatch: defaultCallsPerMatch},
		{LeagueID: 209, Name: "Copa del Rey", ExpectedMinutes: defaultCupMinutes, CallsPerMatch: defaultCallsPerMatch},
	}
}

func DefaultFallbackProfile() CompetitionProfile {
	return CompetitionProfile{Name: "league", ExpectedMinutes: defaultLeagueMinutes, CallsPerMatch: defaultCallsPerMatch}
}

// CadencePolicy derives the in-play polling interval from a per-match call budget.
type CadencePolicy struct {
	profiles    map[int64]CompetitionProfile
	fallback    CompetitionProfile
	minInterval time.Duration
}

func NewCadencePolicy(profiles []CompetitionProfile, fallback CompetitionProfile, minInterval time.Duration) *CadencePolicy {
	defaults := DefaultFallbackProfile()
	if fallback.ExpectedMinutes <= 0 {
		fallback.ExpectedMinutes = defaults.ExpectedMinutes
	}
	if fallback.CallsPerMatch <= 0 {
		fallback.CallsPerMatch = defaults.CallsPerMatch
	}
	if minInterval <= 0 {
		minInterval = defaultMinInterval
	}

	byID := make(map[int64]CompetitionProfile, len(profiles))
	for _, item := range profiles {
		if item.LeagueID <= 0 || item.ExpectedMinutes <= 0 || item.CallsPerMatch <= 0 {
			continue
		}
		byID[item.LeagueID] = item
	}

	return &CadencePolicy{profiles: byID, fallback: fallback, minInterval: minInterval}
}

func (p *CadencePolicy) Profile(leagueID int64) CompetitionProfile {
	if item, ok := p.profiles[leagueID]; ok {
		return item
	}
	out := p.fallback
	out.LeagueID = leagueID
	return out
}

func (p *CadencePolicy) LiveInterval(leagueID int64) time.Duration {
	profile := p.Profile(leagueID)
	interval := time.Duration(profile.ExpectedMinutes) * time.Minute / time.Duration(profile.CallsPerMatch)
	if interval < p.minInterval {
		return p.minInterval
	}
	return interval
}
