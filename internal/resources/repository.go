package resources

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the contract for resource data operations.
type Repository interface {
	Create(ctx context.Context, resource *Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*Resource, error)
	List(ctx context.Context, tenantID string, filters ListFilters) ([]Resource, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateWindow(ctx context.Context, window *AvailabilityWindow) error
	GetWindow(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error)
	ListWindows(ctx context.Context, resourceID uuid.UUID) ([]AvailabilityWindow, error)
	DeleteWindow(ctx context.Context, id uuid.UUID) error

	CreateException(ctx context.Context, exc *AvailabilityException) error
	GetException(ctx context.Context, id uuid.UUID) (*AvailabilityException, error)
	ListExceptions(ctx context.Context, resourceID uuid.UUID) ([]AvailabilityException, error)
	DeleteException(ctx context.Context, id uuid.UUID) error
}

// ListFilters narrows and pages resource listings.
type ListFilters struct {
	Type       string
	ActiveOnly bool
	Page       int
	Limit      int
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new resource repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, resource *Resource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Resource, error) {
	var resource Resource
	err := r.db.WithContext(ctx).First(&resource, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &resource, nil
}

func (r *repository) List(ctx context.Context, tenantID string, filters ListFilters) ([]Resource, int64, error) {
	var items []Resource
	var total int64

	query := r.db.WithContext(ctx).Model(&Resource{}).Where("tenant_id = ?", tenantID)

	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.ActiveOnly {
		query = query.Where("active = true")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit < 1 {
		limit = 20
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&Resource{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	// Unscoped: the service has already verified no reservations remain,
	// so this is the explicit hard purge.
	result := r.db.WithContext(ctx).Unscoped().Delete(&Resource{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CreateWindow(ctx context.Context, window *AvailabilityWindow) error {
	return r.db.WithContext(ctx).Create(window).Error
}

func (r *repository) GetWindow(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	var window AvailabilityWindow
	err := r.db.WithContext(ctx).First(&window, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &window, nil
}

func (r *repository) ListWindows(ctx context.Context, resourceID uuid.UUID) ([]AvailabilityWindow, error) {
	var windows []AvailabilityWindow
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("weekday ASC, start_time ASC").
		Find(&windows).Error
	return windows, err
}

func (r *repository) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&AvailabilityWindow{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CreateException(ctx context.Context, exc *AvailabilityException) error {
	return r.db.WithContext(ctx).Create(exc).Error
}

func (r *repository) GetException(ctx context.Context, id uuid.UUID) (*AvailabilityException, error) {
	var exc AvailabilityException
	err := r.db.WithContext(ctx).First(&exc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &exc, nil
}

func (r *repository) ListExceptions(ctx context.Context, resourceID uuid.UUID) ([]AvailabilityException, error) {
	var excs []AvailabilityException
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("start_time ASC").
		Find(&excs).Error
	return excs, err
}

func (r *repository) DeleteException(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&AvailabilityException{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
