package waitlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reservio/internal/clock"
	"reservio/internal/reservations"
	"reservio/internal/timerange"
)

// HoldPlacer is the slice of the reservation engine a promotion needs.
type HoldPlacer interface {
	PlaceHold(ctx context.Context, resourceID uuid.UUID, rng timerange.Range, requester string, ttl time.Duration) (*reservations.Reservation, error)
	ReleaseHold(ctx context.Context, holdID uuid.UUID, actor string) error
}

// Notifier publishes a promotion so the external notification channel
// can tell the requester their hold is waiting. Delivery is not this
// engine's concern.
type Notifier interface {
	NotifyPromotion(ctx context.Context, entry Entry, hold *reservations.Reservation) error
}

// Coordinator owns waitlist ordering and promotion.
type Coordinator interface {
	Add(ctx context.Context, input AddInput) (*Entry, error)
	Remove(ctx context.Context, entryID uuid.UUID, actor string) error
	Get(ctx context.Context, entryID uuid.UUID) (*Entry, error)
	List(ctx context.Context, resourceID uuid.UUID, status EntryStatus) ([]Entry, error)

	// OnCapacityFreed offers the freed range to waiting entries in
	// (priority ASC, created_at ASC) order. The first entry whose
	// desired range intersects the freed range and whose hold placement
	// succeeds is promoted; entries that lose the race stay in place
	// and the next candidate is tried.
	OnCapacityFreed(ctx context.Context, resourceID uuid.UUID, freed timerange.Range)
}

// AddInput carries the fields for a new waitlist entry.
type AddInput struct {
	ResourceID uuid.UUID
	Range      timerange.Range
	Requester  string
	Priority   int
}

// Config tunes coordinator behavior.
type Config struct {
	// PromotionTTL is the hold TTL granted to a promoted entry: the
	// booking window the requester has to confirm.
	PromotionTTL time.Duration
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{PromotionTTL: 15 * time.Minute}
}

type coordinator struct {
	repo     Repository
	holds    HoldPlacer
	notifier Notifier
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger
}

// NewCoordinator creates the waitlist coordinator. The notifier is
// optional; a nil notifier means promotions are silent.
func NewCoordinator(repo Repository, holds HoldPlacer, notifier Notifier, clk clock.Clock, cfg Config, logger *slog.Logger) Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PromotionTTL <= 0 {
		cfg.PromotionTTL = DefaultConfig().PromotionTTL
	}
	return &coordinator{
		repo:     repo,
		holds:    holds,
		notifier: notifier,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
	}
}

func (c *coordinator) Add(ctx context.Context, input AddInput) (*Entry, error) {
	now := c.clock.Now()
	entry := &Entry{
		ID:           uuid.New(),
		ResourceID:   input.ResourceID,
		Requester:    input.Requester,
		DesiredStart: input.Range.Start,
		DesiredEnd:   input.Range.End,
		Priority:     input.Priority,
		Status:       EntryStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	c.logger.Info("waitlist entry added",
		slog.String("entry_id", entry.ID.String()),
		slog.String("resource_id", input.ResourceID.String()),
		slog.Int("priority", input.Priority),
	)
	return entry, nil
}

func (c *coordinator) Remove(ctx context.Context, entryID uuid.UUID, actor string) error {
	if err := c.repo.MarkWithdrawn(ctx, entryID, c.clock.Now()); err != nil {
		return err
	}
	c.logger.Info("waitlist entry withdrawn",
		slog.String("entry_id", entryID.String()),
		slog.String("actor", actor),
	)
	return nil
}

func (c *coordinator) Get(ctx context.Context, entryID uuid.UUID) (*Entry, error) {
	return c.repo.GetByID(ctx, entryID)
}

func (c *coordinator) List(ctx context.Context, resourceID uuid.UUID, status EntryStatus) ([]Entry, error) {
	return c.repo.ListByResource(ctx, resourceID, status)
}

func (c *coordinator) OnCapacityFreed(ctx context.Context, resourceID uuid.UUID, freed timerange.Range) {
	candidates, err := c.repo.Candidates(ctx, resourceID, freed)
	if err != nil {
		c.logger.Error("failed to list waitlist candidates",
			slog.String("resource_id", resourceID.String()),
			slog.Any("error", err),
		)
		return
	}

	for _, candidate := range candidates {
		intersection, ok := candidate.DesiredRange().Intersect(freed)
		if !ok {
			continue
		}

		hold, err := c.holds.PlaceHold(ctx, resourceID, intersection, candidate.Requester, c.cfg.PromotionTTL)
		if err != nil {
			if errors.Is(err, reservations.ErrOverlap) {
				// Another entry (or an outside caller) won this range
				// first; the candidate stays in place.
				continue
			}
			c.logger.Error("waitlist promotion failed",
				slog.String("entry_id", candidate.ID.String()),
				slog.Any("error", err),
			)
			return
		}

		if err := c.repo.MarkPromoted(ctx, candidate.ID, c.clock.Now()); err != nil {
			// Withdrawn between candidate listing and promotion: give
			// the range back and keep trying.
			if relErr := c.holds.ReleaseHold(ctx, hold.ID, "waitlist"); relErr != nil {
				c.logger.Error("failed to release orphaned promotion hold",
					slog.String("hold_id", hold.ID.String()),
					slog.Any("error", relErr),
				)
			}
			continue
		}

		c.logger.Info("waitlist entry promoted",
			slog.String("entry_id", candidate.ID.String()),
			slog.String("hold_id", hold.ID.String()),
			slog.String("range", intersection.String()),
		)
		c.notify(ctx, candidate, hold)
		return
	}
}

func (c *coordinator) notify(ctx context.Context, entry Entry, hold *reservations.Reservation) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyPromotion(ctx, entry, hold); err != nil {
		// Notification is best effort; the hold stands either way.
		c.logger.Error(fmt.Sprintf("failed to publish promotion notice: %v", err),
			slog.String("entry_id", entry.ID.String()),
		)
	}
}
