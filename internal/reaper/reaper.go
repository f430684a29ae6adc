// Package reaper reclaims expired holds on a fixed interval and hands
// each freed range to the waitlist so promotion can happen. A missed
// tick only delays reclamation: expiry is a stored timestamp, so no
// state is lost between ticks.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"reservio/internal/clock"
	"reservio/internal/reservations"
	"reservio/internal/timerange"
)

// ExpiredHoldStore is the slice of the reservation store the reaper
// needs.
type ExpiredHoldStore interface {
	ReapExpired(ctx context.Context, nowFloor time.Time) ([]reservations.Reservation, error)
}

// Promoter receives each freed range (declared locally; implemented by
// the waitlist coordinator).
type Promoter interface {
	OnCapacityFreed(ctx context.Context, resourceID uuid.UUID, freed timerange.Range)
}

// Config contains configuration for the reaper.
type Config struct {
	// Interval between reap ticks.
	Interval time.Duration
	// LockTTL bounds how long a crashed instance keeps the tick lock.
	LockTTL time.Duration
}

// DefaultConfig returns the default reaper configuration.
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Second,
		LockTTL:  30 * time.Second,
	}
}

const lockKey = "reaper:tick:lock"

// releaseLockScript deletes the lock key only while it still holds this
// instance's token, so a tick that outlives LockTTL cannot delete a
// lock another instance has since acquired.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Reaper is the background hold-expiry process.
type Reaper struct {
	store     ExpiredHoldStore
	promoter  Promoter
	clock     clock.Clock
	redis     *redis.Client
	cfg       Config
	logger    *slog.Logger
	done      chan struct{}
	lockToken string
}

// New creates a reaper. The redis client is optional: when nil the
// reaper assumes it is the only instance and skips the leader lock.
func New(store ExpiredHoldStore, promoter Promoter, clk clock.Clock, redisClient *redis.Client, cfg Config, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultConfig().LockTTL
	}
	return &Reaper{
		store:    store,
		promoter: promoter,
		clock:    clk,
		redis:    redisClient,
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs the tick loop until Stop is called or ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	go r.run(ctx)
	r.logger.Info("hold expiry reaper started", slog.Duration("interval", r.cfg.Interval))
}

// Stop stops the tick loop.
func (r *Reaper) Stop() {
	close(r.done)
	r.logger.Info("hold expiry reaper stopped")
}

func (r *Reaper) run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if reclaimed, err := r.ReapOnce(ctx); err != nil {
				// No caller to propagate to: log and retry next tick.
				r.logger.Error("reap tick failed", slog.Any("error", err))
			} else if reclaimed > 0 {
				r.logger.Info("reclaimed expired holds", slog.Int("count", reclaimed))
			}
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ReapOnce performs a single tick: reclaim every expired hold, then
// offer each freed range to the waitlist. It returns the number of
// holds reclaimed.
func (r *Reaper) ReapOnce(ctx context.Context) (int, error) {
	if !r.acquireLock(ctx) {
		return 0, nil
	}
	defer r.releaseLock(ctx)

	now := r.clock.Now()
	reclaimed, err := r.store.ReapExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, hold := range reclaimed {
		r.logger.Info("hold expired",
			slog.String("hold_id", hold.ID.String()),
			slog.String("resource_id", hold.ResourceID.String()),
		)
		if r.promoter != nil {
			r.promoter.OnCapacityFreed(ctx, hold.ResourceID, hold.Range())
		}
	}
	return len(reclaimed), nil
}

// acquireLock takes the cross-instance tick lock so concurrent reapers
// do not race each other on promotion order. Reaping itself is safe to
// run concurrently; the lock only keeps the work single-flight.
func (r *Reaper) acquireLock(ctx context.Context) bool {
	if r.redis == nil {
		return true
	}
	token := uuid.NewString()
	ok, err := r.redis.SetNX(ctx, lockKey, token, r.cfg.LockTTL).Result()
	if err != nil {
		r.logger.Error("failed to acquire reap lock", slog.Any("error", err))
		return false
	}
	if ok {
		r.lockToken = token
	}
	return ok
}

func (r *Reaper) releaseLock(ctx context.Context) {
	if r.redis == nil {
		return
	}
	if err := releaseLockScript.Run(ctx, r.redis, []string{lockKey}, r.lockToken).Err(); err != nil {
		r.logger.Error("failed to release reap lock", slog.Any("error", err))
	}
	r.lockToken = ""
}
