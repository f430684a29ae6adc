package waitlist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reservio/internal/timerange"
)

// ErrEntryNotFound is returned when a waitlist entry does not exist.
var ErrEntryNotFound = errors.New("waitlist entry not found")

// Repository defines the contract for waitlist data operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID, status EntryStatus) ([]Entry, error)

	// Candidates returns active entries whose desired range intersects
	// freed, in strict promotion order (priority ASC, created_at ASC).
	Candidates(ctx context.Context, resourceID uuid.UUID, freed timerange.Range) ([]Entry, error)

	// MarkPromoted flips an active entry to PROMOTED; it fails when the
	// entry was concurrently withdrawn or promoted by another tick.
	MarkPromoted(ctx context.Context, id uuid.UUID, now time.Time) error

	MarkWithdrawn(ctx context.Context, id uuid.UUID, now time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new waitlist repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, entry *Entry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	var entry Entry
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByResource(ctx context.Context, resourceID uuid.UUID, status EntryStatus) ([]Entry, error) {
	var entries []Entry
	query := r.db.WithContext(ctx).Where("resource_id = ?", resourceID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("priority ASC, created_at ASC").Find(&entries).Error
	return entries, err
}

func (r *repository) Candidates(ctx context.Context, resourceID uuid.UUID, freed timerange.Range) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND status = ?", resourceID, EntryStatusActive).
		Where("desired_start < ? AND desired_end > ?", freed.End, freed.Start).
		Order("priority ASC, created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) MarkPromoted(ctx context.Context, id uuid.UUID, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ? AND status = ?", id, EntryStatusActive).
		Updates(map[string]interface{}{
			"status":      EntryStatusPromoted,
			"promoted_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *repository) MarkWithdrawn(ctx context.Context, id uuid.UUID, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ? AND status = ?", id, EntryStatusActive).
		Updates(map[string]interface{}{"status": EntryStatusWithdrawn})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// memRepository is the in-memory Repository used by tests and embedded
// deployments, mirroring the SQL ordering semantics.
type memRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*Entry
}

// NewMemRepository creates an in-memory waitlist repository.
func NewMemRepository() Repository {
	return &memRepository{entries: make(map[uuid.UUID]*Entry)}
}

func (r *memRepository) Create(ctx context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *memRepository) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

func (r *memRepository) ListByResource(ctx context.Context, resourceID uuid.UUID, status EntryStatus) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, entry := range r.entries {
		if entry.ResourceID != resourceID {
			continue
		}
		if status != "" && entry.Status != status {
			continue
		}
		out = append(out, *entry)
	}
	sortByPromotionOrder(out)
	return out, nil
}

func (r *memRepository) Candidates(ctx context.Context, resourceID uuid.UUID, freed timerange.Range) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, entry := range r.entries {
		if entry.ResourceID != resourceID || entry.Status != EntryStatusActive {
			continue
		}
		if !entry.DesiredRange().Overlaps(freed) {
			continue
		}
		out = append(out, *entry)
	}
	sortByPromotionOrder(out)
	return out, nil
}

func (r *memRepository) MarkPromoted(ctx context.Context, id uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok || entry.Status != EntryStatusActive {
		return ErrEntryNotFound
	}
	entry.Status = EntryStatusPromoted
	promotedAt := now
	entry.PromotedAt = &promotedAt
	entry.UpdatedAt = now
	return nil
}

func (r *memRepository) MarkWithdrawn(ctx context.Context, id uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok || entry.Status != EntryStatusActive {
		return ErrEntryNotFound
	}
	entry.Status = EntryStatusWithdrawn
	entry.UpdatedAt = now
	return nil
}

func sortByPromotionOrder(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority < entries[j].Priority
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
