package cron

import (
	"context"
	"fmt"
	"time"

	"bookwell/services/booking"

	"github.com/go-co-op/gocron/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const leaseKey = "remediation:lease"

// Lease grants one process at a time the right to run remediation.
type Lease interface {
	Acquire(ctx context.Context, ttl time.Duration) (release func(), ok bool, err error)
}

// releaseScript deletes the lease only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLease is a SET NX lease with a TTL so a crashed holder cannot block
// other processes for longer than one interval.
type RedisLease struct {
	Client *redis.Client
	Key    string
}

func (l *RedisLease) key() string {
	if l.Key == "" {
		return leaseKey
	}
	return l.Key
}

func (l *RedisLease) Acquire(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, l.key(), token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lease: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.Client, []string{l.key()}, token).Err()
	}
	return release, true, nil
}

// Remediation is the part of the booking engine run on a schedule.
type Remediation interface {
	AutoAssignStale(ctx context.Context) (booking.RemediationReport, error)
	AutoRescheduleStale(ctx context.Context) (booking.RemediationReport, error)
}

// Remediator periodically moves stale bookings along.
type Remediator struct {
	Service  Remediation
	Lease    Lease
	Interval time.Duration
	Logger   *zap.Logger

	scheduler gocron.Scheduler
}

// RunOnce runs both remediation passes if the lease can be taken. It reports
// whether the passes ran.
func (r *Remediator) RunOnce(ctx context.Context) (bool, error) {
	release, ok, err := r.Lease.Acquire(ctx, r.Interval)
	if err != nil {
		return false, err
	}
	if !ok {
		r.Logger.Debug("remediation lease held elsewhere, skipping tick")
		return false, nil
	}
	defer release()

	assigned, err := r.Service.AutoAssignStale(ctx)
	if err != nil {
		return true, fmt.Errorf("auto-assign: %w", err)
	}
	rescheduled, err := r.Service.AutoRescheduleStale(ctx)
	if err != nil {
		return true, fmt.Errorf("auto-reschedule: %w", err)
	}
	if assigned.Examined+rescheduled.Examined > 0 {
		r.Logger.Info("remediation tick",
			zap.Any("autoAssign", assigned),
			zap.Any("autoReschedule", rescheduled))
	}
	return true, nil
}

func (r *Remediator) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.Interval)
	defer cancel()
	if _, err := r.RunOnce(ctx); err != nil {
		r.Logger.Error("remediation tick failed", zap.Error(err))
	}
}

// Start schedules RunOnce every Interval. Overlapping ticks are skipped.
func (r *Remediator) Start() error {
	if r.Interval <= 0 {
		r.Interval = time.Minute
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(r.Interval),
		gocron.NewTask(r.tick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("booking-remediation"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule remediation: %w", err)
	}
	sched.Start()
	r.scheduler = sched
	r.Logger.Info("remediation scheduler started", zap.Duration("interval", r.Interval))
	return nil
}

// Stop waits for a running tick and stops the scheduler.
func (r *Remediator) Stop() error {
	if r.scheduler == nil {
		return nil
	}
	return r.scheduler.Shutdown()
}
