package resilience

import (
	"context"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
)

func TestThrottleBackOff_StretchesThrottledWait(t *testing.T) {
	b := RetryPolicy{
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         time.Second,
		RateLimitMultiplier: 4,
		RandomizationFactor: 0,
	}.NewBackOff()

	if got := b.NextBackOff(); got != 100*time.Millisecond {
		t.Fatalf("unexpected first wait: %s", got)
	}

	b.Throttle(0)
	if got := b.NextBackOff(); got != 600*time.Millisecond {
		t.Fatalf("expected throttled wait to be multiplied, got %s", got)
	}

	b.Throttle(3 * time.Second)
	if got := b.NextBackOff(); got != 3*time.Second {
		t.Fatalf("expected retry-after to win, got %s", got)
	}

	if got := b.NextBackOff(); got <= 0 || got > time.Second {
		t.Fatalf("expected throttle flag to clear, got %s", got)
	}
}

func TestRetry_StopsAfterMaxRetries(t *testing.T) {
	attempts := 0
	notified := 0
	_, err := Retry(context.Background(), RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond},
		func(*ThrottleBackOff) (int, error) {
			attempts++
			return 0, crerr.New("upstream 503")
		},
		func(error, time.Duration) { notified++ },
	)
	if err == nil {
		t.Fatalf("expected error after retries")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if notified != 2 {
		t.Fatalf("expected 2 retry notifications, got %d", notified)
	}
}

func TestRetry_PermanentErrorIsNotRetried(t *testing.T) {
	sentinel := crerr.New("status 404")
	attempts := 0
	_, err := Retry(context.Background(), RetryPolicy{MaxRetries: 5, InitialInterval: time.Millisecond},
		func(*ThrottleBackOff) (string, error) {
			attempts++
			return "", Permanent(sentinel)
		},
		nil,
	)
	if !crerr.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestRetry_SucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	got, err := Retry(context.Background(), RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond},
		func(*ThrottleBackOff) (string, error) {
			attempts++
			if attempts == 1 {
				return "", crerr.New("connection reset")
			}
			return "payload", nil
		},
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "payload" || attempts != 2 {
		t.Fatalf("unexpected result %q after %d attempts", got, attempts)
	}
}
