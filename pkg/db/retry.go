package db

import (
	"context"
	"time"

	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 10 * time.Millisecond
)

// RetryPolicy bounds how often an operation that lost an optimistic race is re-run.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultRetryAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultRetryBaseDelay
	}
	return p
}

// RetryOnConflict runs fn until it succeeds, returns a non-conflict error, or the
// attempts are exhausted. Conflicts are CodeConflict errors or driver errors that
// IsRetryable recognizes. Backoff doubles from BaseDelay after each failed attempt.
func RetryOnConflict(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	policy = policy.normalized()
	var lastErr error
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if attempt > 0 {
			delay := policy.BaseDelay * time.Duration(1<<(attempt-1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !isConflict(err) {
			return err
		}
		lastErr = err
	}
	if typed := pkgerrors.As(lastErr); typed != nil && typed.Code() == pkgerrors.CodeConflict {
		return lastErr
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "concurrent update detected; please retry")
}

func isConflict(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return IsRetryable(err)
	}
	switch typed.Code() {
	case pkgerrors.CodeConflict:
		return true
	case pkgerrors.CodeInternal, pkgerrors.CodeDependency:
		return IsRetryable(err)
	default:
		return false
	}
}
