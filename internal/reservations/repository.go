package reservations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reservio/internal/timerange"
)

// gormStore implements Store on PostgreSQL. Check-and-insert runs in a
// serializable transaction; the exclusion constraint added by the
// database migration backstops it, so a serialization failure or a
// constraint violation both surface as ErrOverlap.
type gormStore struct {
	db        *gorm.DB
	reclaimed CapacityListener
}

// NewGormStore creates the PostgreSQL-backed reservation store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

// activeClaimCondition matches rows that block the overlap check at the
// given instant: live holds and tentative/confirmed bookings.
func activeClaimCondition(tx *gorm.DB, now time.Time) *gorm.DB {
	return tx.Where(
		"(kind = ? AND expires_at > ?) OR (kind = ? AND status IN ?)",
		KindHold, now, KindBooking, []Status{StatusTentative, StatusConfirmed},
	)
}

// purgeExpiredHolds deletes expired holds overlapping rng inside the
// current transaction and returns the deleted rows. The exclusion
// constraint cannot reference now(), so a dead hold still blocks
// inserts at the storage level until the reaper or this purge removes
// the row. Purged rows never reach ReapExpired, so the caller signals
// their unconsumed remainder to the waitlist after commit.
func (s *gormStore) purgeExpiredHolds(tx *gorm.DB, resourceID uuid.UUID, rng timerange.Range, now time.Time) ([]Reservation, error) {
	var purged []Reservation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("resource_id = ? AND kind = ? AND expires_at <= ?", resourceID, KindHold, now).
		Where("start_time < ? AND end_time > ?", rng.End, rng.Start).
		Find(&purged).Error
	if err != nil || len(purged) == 0 {
		return purged, err
	}

	ids := make([]uuid.UUID, 0, len(purged))
	for _, hold := range purged {
		ids = append(ids, hold.ID)
	}
	return purged, tx.Unscoped().Where("id IN ?", ids).Delete(&Reservation{}).Error
}

func (s *gormStore) overlapExists(tx *gorm.DB, resourceID uuid.UUID, rng timerange.Range, now time.Time, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := tx.Model(&Reservation{}).
		Where("resource_id = ?", resourceID).
		Where("start_time < ? AND end_time > ?", rng.End, rng.Start).
		Where(activeClaimCondition(tx.Session(&gorm.Session{NewDB: true}).Model(&Reservation{}), now))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormStore) TryReserve(ctx context.Context, input ReserveInput, now time.Time) (*Reservation, error) {
	reservation := &Reservation{
		ID:         uuid.New(),
		ResourceID: input.ResourceID,
		Requester:  input.Requester,
		StartTime:  input.Range.Start,
		EndTime:    input.Range.End,
		Kind:       input.Kind,
		Title:      input.Title,
		Notes:      input.Notes,
		CreatedBy:  input.Requester,
		UpdatedBy:  input.Requester,
	}
	switch input.Kind {
	case KindHold:
		reservation.ExpiresAt = input.ExpiresAt
	case KindBooking:
		reservation.Status = StatusTentative
	}

	var purged []Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		purged, err = s.purgeExpiredHolds(tx, input.ResourceID, input.Range, now)
		if err != nil {
			return err
		}
		conflict, err := s.overlapExists(tx, input.ResourceID, input.Range, now, uuid.Nil)
		if err != nil {
			return err
		}
		if conflict {
			return ErrOverlap
		}
		return tx.Create(reservation).Error
	}, serializable)
	if err != nil {
		return nil, mapConflict(err)
	}

	notifyReclaimed(ctx, s.reclaimed, purged, input.Range)
	return reservation, nil
}

func (s *gormStore) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	var reservation Reservation
	err := s.db.WithContext(ctx).First(&reservation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reservation, nil
}

func (s *gormStore) CancelBooking(ctx context.Context, id uuid.UUID, actor string, now time.Time) (*Reservation, error) {
	var cancelled Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Reservation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&booking, "id = ? AND kind = ?", id, KindBooking).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !booking.Status.CanTransitionTo(StatusCancelled) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, StatusCancelled)
		}

		booking.Status = StatusCancelled
		booking.CancelledAt = &now
		booking.UpdatedBy = actor
		if err := tx.Model(&Reservation{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": now,
			"updated_by":   actor,
		}).Error; err != nil {
			return err
		}
		cancelled = booking
		return nil
	}, serializable)
	if err != nil {
		return nil, err
	}
	return &cancelled, nil
}

func (s *gormStore) ConvertHoldToBooking(ctx context.Context, holdID uuid.UUID, title, notes, actor string, now time.Time) (*Reservation, error) {
	var converted Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var hold Reservation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&hold, "id = ?", holdID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if hold.Kind != KindHold {
			return ErrNotAHold
		}
		if !hold.HoldActiveAt(now) {
			return ErrHoldExpired
		}

		// Conditional on the expiry so a concurrently-reaping tick and
		// this conversion cannot both win the row.
		result := tx.Model(&Reservation{}).
			Where("id = ? AND kind = ? AND expires_at > ?", holdID, KindHold, now).
			Updates(map[string]interface{}{
				"kind":       KindBooking,
				"status":     StatusConfirmed,
				"title":      title,
				"notes":      notes,
				"expires_at": nil,
				"updated_by": actor,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrHoldExpired
		}

		return tx.First(&converted, "id = ?", holdID).Error
	}, serializable)
	if err != nil {
		return nil, err
	}
	return &converted, nil
}

func (s *gormStore) ReleaseHold(ctx context.Context, holdID uuid.UUID, now time.Time) error {
	result := s.db.WithContext(ctx).Unscoped().
		Where("id = ? AND kind = ?", holdID, KindHold).
		Delete(&Reservation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, actor string, now time.Time) (*Reservation, error) {
	result := s.db.WithContext(ctx).Model(&Reservation{}).
		Where("id = ? AND kind = ? AND status = ?", id, KindBooking, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_by": actor,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Either gone or raced by another transition from `from`.
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return s.GetByID(ctx, id)
}

func (s *gormStore) Reschedule(ctx context.Context, id uuid.UUID, newRange timerange.Range, actor string, now time.Time) (*Reservation, error) {
	var updated Reservation
	var purged []Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Reservation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&booking, "id = ? AND kind = ?", id, KindBooking).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !booking.Status.Blocks() {
			return fmt.Errorf("%w: cannot reschedule a %s booking", ErrInvalidTransition, booking.Status)
		}

		purged, err = s.purgeExpiredHolds(tx, booking.ResourceID, newRange, now)
		if err != nil {
			return err
		}
		conflict, err := s.overlapExists(tx, booking.ResourceID, newRange, now, booking.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrOverlap
		}

		if err := tx.Model(&Reservation{}).Where("id = ?", id).Updates(map[string]interface{}{
			"start_time": newRange.Start,
			"end_time":   newRange.End,
			"updated_by": actor,
		}).Error; err != nil {
			return err
		}

		return tx.First(&updated, "id = ?", id).Error
	}, serializable)
	if err != nil {
		return nil, mapConflict(err)
	}

	notifyReclaimed(ctx, s.reclaimed, purged, newRange)
	return &updated, nil
}

func (s *gormStore) ListActive(ctx context.Context, resourceID uuid.UUID, span timerange.Range, now time.Time) ([]ActiveClaim, error) {
	var rows []Reservation
	err := s.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Where("start_time < ? AND end_time > ?", span.End, span.Start).
		Where(activeClaimCondition(s.db.Session(&gorm.Session{NewDB: true}).Model(&Reservation{}), now)).
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	claims := make([]ActiveClaim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, ActiveClaim{Range: row.Range(), Kind: row.Kind})
	}
	return claims, nil
}

func (s *gormStore) ReapExpired(ctx context.Context, nowFloor time.Time) ([]Reservation, error) {
	var reclaimed []Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("kind = ? AND expires_at <= ?", KindHold, nowFloor).
			Find(&reclaimed).Error
		if err != nil {
			return err
		}
		if len(reclaimed) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(reclaimed))
		for _, hold := range reclaimed {
			ids = append(ids, hold.ID)
		}
		return tx.Unscoped().
			Where("id IN ? AND kind = ? AND expires_at <= ?", ids, KindHold, nowFloor).
			Delete(&Reservation{}).Error
	}, serializable)
	if err != nil {
		return nil, err
	}
	return reclaimed, nil
}

func (s *gormStore) ListForRequester(ctx context.Context, requester string, limit int) ([]Reservation, error) {
	if limit < 1 {
		limit = 50
	}
	var rows []Reservation
	err := s.db.WithContext(ctx).
		Where("requester = ?", requester).
		Order("start_time DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (s *gormStore) CountForResource(ctx context.Context, resourceID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Reservation{}).
		Where("resource_id = ?", resourceID).
		Count(&count).Error
	return count, err
}

// mapConflict folds storage-level conflicts into ErrOverlap: the
// exclusion constraint firing or a serialization failure both mean a
// concurrent writer won the range.
func mapConflict(err error) error {
	if err == nil || errors.Is(err, ErrOverlap) {
		return err
	}
	if isExclusionViolation(err) || isSerializationFailure(err) {
		return ErrOverlap
	}
	return err
}

func isExclusionViolation(err error) bool {
	return hasPgCode(err, "23P01")
}

func isSerializationFailure(err error) bool {
	return hasPgCode(err, "40001")
}

type pgCoder interface {
	SQLState() string
}

func hasPgCode(err error, code string) bool {
	var pgErr pgCoder
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == code
	}
	return false
}
