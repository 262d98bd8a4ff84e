package apifootball

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/platform/resilience"
	"github.com/riskibarqy/matchwire/internal/usecase"
)

const fixturePayload = `{
  "get": "fixtures",
  "parameters": {"id": "1001"},
  "errors": [],
  "results": 1,
  "response": [{
    "fixture": {
      "id": 1001,
      "date": "2026-08-15T14:00:00+00:00",
      "status": {"long": "Second Half", "short": "2H", "elapsed": 67, "extra": null}
    },
    "league": {"id": 39, "name": "Premier League", "round": "Regular Season - 1", "season": 2026},
    "teams": {
      "home": {"id": 10, "name": "Home FC"},
      "away": {"id": 20, "name": "Away United"}
    },
    "goals": {"home": 1, "away": 0},
    "events": [
      {
        "time": {"elapsed": 23, "extra": null},
        "team": {"id": 10, "name": "Home FC"},
        "player": {"id": 7, "name": "A. Striker"},
        "assist": {"id": 8, "name": "B. Winger"},
        "type": "Goal",
        "detail": "Normal Goal",
        "comments": null
      },
      {
        "time": {"elapsed": 45, "extra": 2},
        "team": {"id": 20, "name": "Away United"},
        "player": {"id": null, "name": null},
        "assist": {"id": null, "name": null},
        "type": "Card",
        "detail": "Yellow Card",
        "comments": "Foul"
      }
    ],
    "lineups": [{
      "team": {"id": 10, "name": "Home FC"},
      "formation": "4-3-3",
      "startXI": [{"player": {"id": 1, "name": "Keeper", "number": 1, "pos": "G"}}]
    }],
    "statistics": [{
      "team": {"id": 10, "name": "Home FC"},
      "statistics": [
        {"type": "Ball Possession", "value": "55%"},
        {"type": "Shots on Goal", "value": 3},
        {"type": "Red Cards", "value": null}
      ]
    }],
    "players": [{
      "team": {"id": 10, "name": "Home FC"},
      "players": [
        {
          "player": {"id": 7, "name": "A. Striker"},
          "statistics": [{
            "games": {"minutes": 67, "rating": "7.4"},
            "shots": {"total": 3, "on": 2},
            "goals": {"total": 1, "conceded": 0, "assists": null},
            "passes": {"total": 21, "key": 1, "accuracy": "81"},
            "tackles": {"total": null, "blocks": null},
            "duels": {"total": 9, "won": 4}
          }]
        },
        {"player": {"id": 1, "name": "Keeper"}, "statistics": []}
      ]
    }]
  }]
}`

func newTestClient(t *testing.T, server *httptest.Server, maxRetries int, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL,
		APIKey:         "secret-key",
		MaxRetries:     maxRetries,
		RetryInterval:  time.Millisecond,
		CircuitBreaker: breaker,
	})
}

func TestFetchSnapshot_MapsFixture(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures" || r.URL.Query().Get("id") != "1001" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if r.Header.Get("x-apisports-key") != "secret-key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("x-ratelimit-requests-remaining", "57")
		_, _ = w.Write([]byte(fixturePayload))
	}))
	defer server.Close()

	snap, remaining, err := newTestClient(t, server, 0, resilience.CircuitBreakerConfig{}).FetchSnapshot(context.Background(), 1001)
	if err != nil {
		t.Fatalf("fetch snapshot: %v", err)
	}
	if remaining != 57 {
		t.Fatalf("unexpected remaining quota: %d", remaining)
	}
	if snap.Status != "2H" || snap.Phase != match.PhaseInPlay || snap.ElapsedOr(0) != 67 {
		t.Fatalf("unexpected status mapping: status=%s phase=%s elapsed=%d", snap.Status, snap.Phase, snap.ElapsedOr(0))
	}
	if !snap.HasScore || snap.Score != (match.Score{Home: 1}) {
		t.Fatalf("unexpected score: %+v has=%v", snap.Score, snap.HasScore)
	}
	if snap.LeagueID != 39 || snap.HomeTeam.Name != "Home FC" || snap.AwayTeam.ID != 20 {
		t.Fatalf("unexpected fixture metadata: %+v", snap)
	}
	if want := time.Date(2026, 8, 15, 14, 0, 0, 0, time.UTC); !snap.KickoffAt.Equal(want) {
		t.Fatalf("unexpected kickoff: %s", snap.KickoffAt)
	}

	if len(snap.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(snap.Events))
	}
	goal := snap.Events[0]
	if !goal.IsGoal() || !goal.Player.Valid() || goal.Player.ID != 7 || goal.Assist.Name != "B. Winger" || goal.MinuteOr(0) != 23 {
		t.Fatalf("unexpected goal mapping: %+v", goal)
	}
	card := snap.Events[1]
	if card.Player != nil || card.ExtraMinute == nil || *card.ExtraMinute != 2 || card.Comments != "Foul" {
		t.Fatalf("unexpected card mapping: %+v", card)
	}

	if len(snap.Lineups) != 1 || snap.Lineups[0].Formation != "4-3-3" || snap.Lineups[0].StartXI[0].Position != "G" {
		t.Fatalf("unexpected lineups: %+v", snap.Lineups)
	}
	items := snap.Statistics[0].Items
	if items[0].Value != "55%" || items[1].Value != "3" || items[2].Value != "0" {
		t.Fatalf("unexpected statistics: %+v", items)
	}

	totals := snap.PlayerTotals(7)
	want := []match.Statistic{
		{Type: "Shots", Value: "3"},
		{Type: "Goals", Value: "1"},
		{Type: "Passes", Value: "21"},
		{Type: "Duels", Value: "9"},
	}
	if len(totals) != len(want) {
		t.Fatalf("unexpected scorer totals: %+v", totals)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Fatalf("unexpected scorer total %d: %+v", i, totals[i])
		}
	}
	if got := snap.PlayerTotals(1); got != nil {
		t.Fatalf("expected no totals for player without statistics, got %+v", got)
	}
}

func TestFetchSnapshot_NullGoalsHasNoScore(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[],"response":[{"fixture":{"id":1001,"status":{"short":"NS","long":"Not Started"}},"goals":{"home":null,"away":null}}]}`))
	}))
	defer server.Close()

	snap, remaining, err := newTestClient(t, server, 0, resilience.CircuitBreakerConfig{}).FetchSnapshot(context.Background(), 1001)
	if err != nil {
		t.Fatalf("fetch snapshot: %v", err)
	}
	if snap.HasScore {
		t.Fatalf("expected no score for null goals")
	}
	if snap.Phase != match.PhaseScheduled {
		t.Fatalf("unexpected phase: %s", snap.Phase)
	}
	if remaining != usecase.QuotaUnknown {
		t.Fatalf("expected unknown quota without header, got %d", remaining)
	}
}

func TestFetchSnapshot_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		body         string
		maxRetries   int
		wantErr      error
		wantAttempts int32
	}{
		{name: "not found", status: http.StatusNotFound, body: `{}`, maxRetries: 2, wantErr: usecase.ErrNotFound, wantAttempts: 1},
		{name: "bad request", status: http.StatusBadRequest, body: `{}`, maxRetries: 2, wantErr: usecase.ErrFatal, wantAttempts: 1},
		{name: "server error exhausted", status: http.StatusBadGateway, body: `oops`, maxRetries: 2, wantErr: usecase.ErrTransient, wantAttempts: 3},
		{name: "rate limited exhausted", status: http.StatusTooManyRequests, body: `{}`, maxRetries: 1, wantErr: usecase.ErrRateLimited, wantAttempts: 2},
		{name: "empty response", status: http.StatusOK, body: `{"errors":[],"results":0,"response":[]}`, wantErr: usecase.ErrDataMissing, wantAttempts: 1},
		{name: "daily quota in body", status: http.StatusOK, body: `{"errors":{"requests":"You have reached the request limit for the day"},"response":[]}`, wantErr: usecase.ErrRateLimited, wantAttempts: 1},
		{name: "bad token in body", status: http.StatusOK, body: `{"errors":{"token":"Error/Missing application key"},"response":[]}`, wantErr: usecase.ErrFatal, wantAttempts: 1},
		{name: "undecodable body", status: http.StatusOK, body: `<html>`, wantErr: usecase.ErrFatal, wantAttempts: 1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				attempts.Add(1)
				w.Header().Set("x-ratelimit-requests-remaining", "40")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, remaining, err := newTestClient(t, server, tc.maxRetries, resilience.CircuitBreakerConfig{}).FetchSnapshot(context.Background(), 1001)
			if !crerr.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if got := attempts.Load(); got != tc.wantAttempts {
				t.Fatalf("expected %d attempts, got %d", tc.wantAttempts, got)
			}
			if remaining != 40 {
				t.Fatalf("expected quota header to be reported on failure, got %d", remaining)
			}
		})
	}
}

func TestFetchSnapshot_RetriesAfterRateLimit(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("x-ratelimit-requests-remaining", "12")
		_, _ = w.Write([]byte(fixturePayload))
	}))
	defer server.Close()

	snap, remaining, err := newTestClient(t, server, 2, resilience.CircuitBreakerConfig{}).FetchSnapshot(context.Background(), 1001)
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if attempts.Load() != 2 || remaining != 12 || snap.FixtureID != 1001 {
		t.Fatalf("unexpected result attempts=%d remaining=%d fixture=%d", attempts.Load(), remaining, snap.FixtureID)
	}
}

func TestFetchSnapshot_CircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server, 0, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	if _, _, err := client.FetchSnapshot(context.Background(), 1001); !crerr.Is(err, usecase.ErrTransient) {
		t.Fatalf("expected transient failure, got %v", err)
	}
	_, remaining, err := client.FetchSnapshot(context.Background(), 1001)
	if !crerr.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if remaining != usecase.QuotaUnknown {
		t.Fatalf("unexpected quota for rejected call: %d", remaining)
	}
	if attempts.Load() != 1 {
		t.Fatalf("expected breaker to short-circuit the second call, got %d attempts", attempts.Load())
	}
}

func TestFetchSnapshot_InvalidFixtureID(t *testing.T) {
	t.Parallel()

	_, _, err := NewClient(ClientConfig{}).FetchSnapshot(context.Background(), 0)
	if !crerr.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`dial failed x-apisports-key: abc123 for secret-key`, "secret-key")
	if strings.Contains(got, "abc123") || strings.Contains(got, "secret-key") {
		t.Fatalf("expected key material to be redacted, got %q", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	if got := parseRetryAfter("7", now); got != 7*time.Second {
		t.Fatalf("unexpected seconds parse: %s", got)
	}
	if got := parseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now); got != 30*time.Second {
		t.Fatalf("unexpected http-date parse: %s", got)
	}
	if got := parseRetryAfter("soon", now); got != 0 {
		t.Fatalf("expected unparsable value to be ignored, got %s", got)
	}
}
