package database

import (
	"log"

	"reservio/internal/reservations"
	"reservio/internal/resources"
	"reservio/internal/waitlist"

	"gorm.io/gorm"
)

// Migrate runs auto-migrations for all models
func Migrate(db *gorm.DB) error {
	log.Println("🔄 Running database migrations...")

	err := db.AutoMigrate(
		&resources.Resource{},
		&resources.AvailabilityWindow{},
		&resources.AvailabilityException{},
		&reservations.Reservation{},
		&waitlist.Entry{},
	)
	if err != nil {
		return err
	}

	log.Println("✅ Database migrations completed")
	return nil
}
