package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
)

const (
	defaultGuestCartTTL    = 30 * 24 * time.Hour
	defaultOutboxRetention = 30 * 24 * time.Hour
)

// sweeper deletes rows last touched before cutoff and reports how many went.
type sweeper func(ctx context.Context, cutoff time.Time) (int64, error)

// sweepJob is a Job that removes everything older than a fixed age.
type sweepJob struct {
	name  string
	noun  string
	logg  *logger.Logger
	sweep sweeper
	age   time.Duration
	now   func() time.Time
}

func newSweepJob(name, noun string, logg *logger.Logger, sweep sweeper, age, fallback time.Duration) (*sweepJob, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if sweep == nil {
		return nil, fmt.Errorf("%s: store required", name)
	}
	if age <= 0 {
		age = fallback
	}
	return &sweepJob{name: name, noun: noun, logg: logg, sweep: sweep, age: age, now: time.Now}, nil
}

func (j *sweepJob) Name() string { return j.name }

func (j *sweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.age)
	removed, err := j.sweep(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"max_age": j.age.String(),
		"removed": removed,
		"kind":    j.noun,
	}), "sweep complete")
	return nil
}

type CartExpiryJobParams struct {
	Logger *logger.Logger
	Carts  interface {
		DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
	}
	TTL time.Duration
}

// NewCartExpiryJob removes guest carts idle for longer than TTL.
func NewCartExpiryJob(params CartExpiryJobParams) (Job, error) {
	var sweep sweeper
	if params.Carts != nil {
		sweep = params.Carts.DeleteExpired
	}
	return newSweepJob("cart-expiry", "guest_cart", params.Logger, sweep, params.TTL, defaultGuestCartTTL)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	Repository interface {
		PurgePublished(ctx context.Context, cutoff time.Time) (int64, error)
	}
	Retention time.Duration
}

// NewOutboxRetentionJob purges outbox rows published longer ago than Retention.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	var sweep sweeper
	if params.Repository != nil {
		sweep = params.Repository.PurgePublished
	}
	return newSweepJob("outbox-retention", "outbox_event", params.Logger, sweep, params.Retention, defaultOutboxRetention)
}
