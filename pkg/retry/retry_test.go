package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var errQuota = errors.New("googleapi: Error 429: quota exceeded")

func isQuota(err error) bool { return strings.Contains(err.Error(), "429") }

func recordingPolicy(p Policy, waits *[]time.Duration) Policy {
	p.Sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return p
}

func TestDoBacksOffOnRetryableErrors(t *testing.T) {
	var waits []time.Duration
	p := recordingPolicy(Text(isQuota), &waits)

	calls := 0
	got, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errQuota
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("Do = %q, %v", got, err)
	}
	if diff := cmp.Diff([]time.Duration{time.Second, 2 * time.Second}, waits); diff != "" {
		t.Fatalf("unexpected waits (-want +got):\n%s", diff)
	}
}

func TestImagePolicyWaitsThreeTimesLonger(t *testing.T) {
	p := Image(isQuota)
	if p.Backoff(0) != 3*time.Second || p.Backoff(1) != 6*time.Second || p.Backoff(2) != 12*time.Second {
		t.Fatalf("unexpected image backoff: %v %v %v", p.Backoff(0), p.Backoff(1), p.Backoff(2))
	}
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	var waits []time.Duration
	p := recordingPolicy(Text(isQuota), &waits)
	boom := errors.New("invalid argument")

	calls := 0
	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) || calls != 1 || len(waits) != 0 {
		t.Fatalf("err=%v calls=%d waits=%v", err, calls, waits)
	}
	if errors.Is(err, ErrExhausted) {
		t.Fatalf("non-retryable errors must not be marked exhausted")
	}
}

func TestDoExhausts(t *testing.T) {
	var waits []time.Duration
	p := recordingPolicy(Text(isQuota), &waits)

	calls := 0
	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, errQuota
	})
	if calls != DefaultAttempts {
		t.Fatalf("calls = %d, want %d", calls, DefaultAttempts)
	}
	if len(waits) != DefaultAttempts-1 {
		t.Fatalf("waits = %v", waits)
	}
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, errQuota) {
		t.Fatalf("expected exhausted error wrapping the quota error, got %v", err)
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Text(isQuota)
	p.Base = time.Hour

	go cancel()
	_, err := Do(ctx, p, func(context.Context) (int, error) { return 0, errQuota })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
