package config

import (
	"os"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// CompetitionProfile is one entry of the competition profiles file.
type CompetitionProfile struct {
	LeagueID        int64  `yaml:"league_id" validate:"gt=0"`
	Name            string `yaml:"name"`
	ExpectedMinutes int    `yaml:"expected_minutes" validate:"gt=0"`
	CallsPerMatch   int    `yaml:"calls_per_match" validate:"gt=0"`
}

// FallbackProfile applies to leagues that have no profile of their own.
type FallbackProfile struct {
	ExpectedMinutes int `yaml:"expected_minutes" validate:"omitempty,gt=0"`
	CallsPerMatch   int `yaml:"calls_per_match" validate:"omitempty,gt=0"`
}

// CompetitionProfiles is the YAML document pointed to by COMPETITION_PROFILES_FILE:
//
//	fallback:
//	  expected_minutes: 115
//	  calls_per_match: 90
//	competitions:
//	  - league_id: 2
//	    name: UEFA Champions League
//	    expected_minutes: 145
//	    calls_per_match: 90
type CompetitionProfiles struct {
	Fallback     FallbackProfile      `yaml:"fallback"`
	Competitions []CompetitionProfile `yaml:"competitions" validate:"dive"`
}

// LoadCompetitionProfiles reads the profiles file. An empty path yields an
// empty document so built-in defaults stay in effect.
func LoadCompetitionProfiles(path string) (CompetitionProfiles, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return CompetitionProfiles{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return CompetitionProfiles{}, crerr.Wrapf(err, "read competition profiles %s", path)
	}
	return ParseCompetitionProfiles(raw)
}

func ParseCompetitionProfiles(raw []byte) (CompetitionProfiles, error) {
	var out CompetitionProfiles
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return CompetitionProfiles{}, crerr.Wrap(err, "decode competition profiles")
	}
	if err := validate.Struct(out); err != nil {
		return CompetitionProfiles{}, crerr.Wrap(err, "validate competition profiles")
	}

	seen := make(map[int64]struct{}, len(out.Competitions))
	for _, item := range out.Competitions {
		if _, ok := seen[item.LeagueID]; ok {
			return CompetitionProfiles{}, crerr.Newf("duplicate competition profile for league %d", item.LeagueID)
		}
		seen[item.LeagueID] = struct{}{}
	}
	return out, nil
}
