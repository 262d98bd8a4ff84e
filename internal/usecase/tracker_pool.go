package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
)

// MatchTracker follows a single fixture until it is done.
type MatchTracker interface {
	TrackMatch(ctx context.Context, fixtureID int64) error
}

type TrackResult struct {
	FixtureID  int64  `json:"fixture_id"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Err        error  `json:"-"`
	Message    string `json:"message,omitempty"`
}

type TrackSummary struct {
	WorkerCount  int           `json:"worker_count"`
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	Results      []TrackResult `json:"results"`
}

const (
	trackStatusFinished = "finished"
	trackStatusFailed   = "failed"

	defaultTrackerWorkers = 4
)

// TrackerPool runs one tracking loop per fixture on a bounded worker pool.
// Each loop owns its MatchState, so fixtures never share mutable state.
type TrackerPool struct {
	tracker    MatchTracker
	maxWorkers int
	logger     *logging.Logger
}

func NewTrackerPool(tracker MatchTracker, maxWorkers int, logger *logging.Logger) *TrackerPool {
	if maxWorkers <= 0 {
		maxWorkers = defaultTrackerWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TrackerPool{tracker: tracker, maxWorkers: maxWorkers, logger: logger}
}

func (p *TrackerPool) Run(ctx context.Context, fixtureIDs []int64) (TrackSummary, error) {
	ids := uniqueFixtureIDs(fixtureIDs)
	if len(ids) == 0 {
		return TrackSummary{}, fmt.Errorf("%w: at least one fixture id is required", ErrInvalidInput)
	}

	workerCount := p.maxWorkers
	if workerCount > len(ids) {
		workerCount = len(ids)
	}
	summary := TrackSummary{WorkerCount: workerCount}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return TrackSummary{}, fmt.Errorf("create tracker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan TrackResult, len(ids))
	var successCount atomic.Int32
	var failedCount atomic.Int32

	var workers sync.WaitGroup
	for _, fixtureID := range ids {
		fixtureID := fixtureID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := TrackResult{FixtureID: fixtureID, Status: trackStatusFinished}
			if err := p.tracker.TrackMatch(ctx, fixtureID); err != nil {
				row.Status = trackStatusFailed
				row.Err = err
				row.Message = err.Error()
				failedCount.Add(1)
				p.logger.WarnContext(ctx, "fixture tracking ended with error", "fixture_id", fixtureID, "error", err)
			} else {
				successCount.Add(1)
			}
			row.DurationMs = time.Since(start).Milliseconds()
			results <- row
		}); err != nil {
			workers.Done()
			workers.Wait()
			return TrackSummary{}, fmt.Errorf("submit fixture %d to tracker pool: %w", fixtureID, err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		summary.Results = append(summary.Results, row)
	}
	sort.SliceStable(summary.Results, func(i, j int) bool {
		return summary.Results[i].FixtureID < summary.Results[j].FixtureID
	})
	summary.SuccessCount = int(successCount.Load())
	summary.FailedCount = int(failedCount.Load())

	return summary, nil
}

func uniqueFixtureIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
