package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// btree_gist is needed for the equality part of the exclusion constraint
	err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist;`).Error
	if err != nil {
		return err
	}

	// Last line of defense for the overlap invariant: no two active
	// claims (live holds or TENTATIVE/CONFIRMED bookings) on the same
	// resource may overlap in time, even if application-level checks race.
	// Ranges are half-open, matching tsrange's default '[)' bounds.
	err = db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'no_overlapping_claims'
			) THEN
				ALTER TABLE reservations
				ADD CONSTRAINT no_overlapping_claims
				EXCLUDE USING gist (
					resource_id WITH =,
					tsrange(start_time, end_time) WITH &&
				)
				WHERE (
					deleted_at IS NULL
					AND (
						kind = 'BOOKING' AND status IN ('TENTATIVE', 'CONFIRMED')
						OR kind = 'HOLD'
					)
				);
			END IF;
		END $$;
	`).Error
	if err != nil {
		return err
	}

	// Index for overlap and active-claim queries scoped to a resource
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservations_resource_time
		ON reservations (resource_id, start_time, end_time)
		WHERE deleted_at IS NULL;
	`).Error
	if err != nil {
		return err
	}

	// Index for the reaper's expired-hold sweep
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservations_hold_expiry
		ON reservations (expires_at)
		WHERE kind = 'HOLD' AND deleted_at IS NULL;
	`).Error
	if err != nil {
		return err
	}

	// Index matching the waitlist promotion ordering
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_waitlist_promotion_order
		ON waitlist_entries (resource_id, priority, created_at)
		WHERE status = 'ACTIVE';
	`).Error
	if err != nil {
		return err
	}

	return nil
}
