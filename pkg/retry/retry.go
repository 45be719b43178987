package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// ErrExhausted wraps the last error once every attempt has been used up on a
// retryable failure.
var ErrExhausted = errors.New("retries exhausted")

// Policy retries an operation with exponential backoff. The wait before
// retry n (counting from 0) is Base * 2^n.
type Policy struct {
	Name      string
	Attempts  int
	Base      time.Duration
	Retryable func(error) bool

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

const DefaultAttempts = 3

// Text is the policy for text-model calls (script and image prompt generation).
func Text(retryable func(error) bool) Policy {
	return Policy{Name: "text", Attempts: DefaultAttempts, Base: time.Second, Retryable: retryable}
}

// Image is the policy for image-model calls, which back off three times as long.
func Image(retryable func(error) bool) Policy {
	return Policy{Name: "image", Attempts: DefaultAttempts, Base: 3 * time.Second, Retryable: retryable}
}

// Backoff returns the wait before retry n.
func (p Policy) Backoff(n int) time.Duration {
	return p.Base << n
}

// Do runs op until it succeeds, fails with a non-retryable error, or runs out
// of attempts.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := max(p.Attempts, 1)
	var zero T
	var err error
	for n := range attempts {
		var v T
		v, err = op(ctx)
		if err == nil {
			return v, nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return zero, err
		}
		if n == attempts-1 {
			break
		}
		wait := p.Backoff(n)
		log.Warn("rate limited, backing off", "policy", p.Name, "attempt", n+1, "wait", wait, "error", err)
		if serr := p.sleep(ctx, wait); serr != nil {
			return zero, serr
		}
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep waits for d unless ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
