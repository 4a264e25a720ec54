// Package dispatch fans out due-item triggers as individual processing
// tasks. It owns delivery semantics (at-least-once, bounded retry, per-user
// throttling); idempotency is the consumer's concern.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "drachma/internal/errors"
	"drachma/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Trigger identifies one due recurring template. The same trigger may be
// delivered more than once; handlers must be idempotent.
type Trigger struct {
	TemplateID string `json:"templateId"`
	UserID     string `json:"userId"`
}

// Handler processes a single trigger. It reports whether the template was
// actually materialized (false means the trigger was a no-op).
type Handler func(ctx context.Context, trigger Trigger) (bool, error)

// Result summarizes one dispatch run. Failed counts tasks that exhausted
// their retries; they are logged for operational follow-up, never dropped
// silently.
type Result struct {
	Materialized int
	NoOps        int
	Failed       int
}

// Options configures a Dispatcher. Zero values fall back to defaults.
type Options struct {
	Workers      int
	MaxAttempts  int
	BackoffBase  time.Duration
	PerUserLimit int
	Window       time.Duration
}

func (o *Options) defaults() {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = time.Second
	}
	if o.PerUserLimit <= 0 {
		o.PerUserLimit = 10
	}
	if o.Window <= 0 {
		o.Window = time.Minute
	}
}

// Dispatcher runs triggers through a bounded worker pool.
type Dispatcher struct {
	opts     Options
	throttle *userThrottle

	// sleep is replaceable in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	opts.defaults()
	return &Dispatcher{
		opts:     opts,
		throttle: newUserThrottle(opts.PerUserLimit, opts.Window),
		sleep:    sleepContext,
	}
}

// Run processes all triggers and blocks until every task has either
// succeeded or exhausted its retries, or the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, triggers []Trigger, handle Handler) Result {
	var (
		mu     sync.Mutex
		result Result
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	for _, trigger := range triggers {
		g.Go(func() error {
			materialized, err := d.process(ctx, trigger, handle)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed++
			case materialized:
				result.Materialized++
			default:
				result.NoOps++
			}
			return nil
		})
	}

	_ = g.Wait()
	return result
}

// process runs one trigger: throttle, then bounded attempts with exponential
// backoff.
func (d *Dispatcher) process(ctx context.Context, trigger Trigger, handle Handler) (bool, error) {
	if err := d.waitForSlot(ctx, trigger.UserID); err != nil {
		return false, err
	}

	var lastErr error
	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		materialized, err := handle(ctx, trigger)
		if err == nil {
			return materialized, nil
		}
		lastErr = err

		if !isRetryable(err) {
			logger.Get().Errorw("trigger rejected, not retrying",
				"template_id", trigger.TemplateID,
				"user_id", trigger.UserID,
				"error", err.Error(),
			)
			return false, err
		}

		if attempt < d.opts.MaxAttempts {
			backoff := d.opts.BackoffBase << (attempt - 1)
			if err := d.sleep(ctx, backoff); err != nil {
				return false, err
			}
		}
	}

	logger.Get().Errorw("trigger failed after retries",
		"template_id", trigger.TemplateID,
		"user_id", trigger.UserID,
		"attempts", d.opts.MaxAttempts,
		"error", lastErr.Error(),
	)
	return false, lastErr
}

func (d *Dispatcher) waitForSlot(ctx context.Context, userID string) error {
	for {
		wait := d.throttle.reserve(userID, time.Now())
		if wait == 0 {
			return nil
		}
		if err := d.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// isRetryable reports whether a task error is worth another attempt.
// Business rejections (validation, duplicates, missing rows) never are.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrInvalidInput.Code,
			apperrors.ErrInvalidRecurringInterval.Code,
			apperrors.ErrDuplicateTransaction.Code,
			apperrors.ErrAccountNotFound.Code,
			apperrors.ErrTransactionNotFound.Code,
			apperrors.ErrUserNotFound.Code:
			return false
		}
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
