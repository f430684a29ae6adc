package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"reservio/internal/resources"
	"reservio/internal/shared/config"
	"reservio/internal/shared/database"
	"reservio/internal/timerange"

	"github.com/google/uuid"
)

type Seeder struct {
	db        *database.DB
	resources resources.Service
}

func main() {
	fmt.Println("🌱 Starting Reservio Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{
		db:        db,
		resources: resources.NewService(resources.NewRepository(db.GetPostgreSQL())),
	}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"waitlist_entries",
		"reservations",
		"availability_exceptions",
		"availability_windows",
		"resources",
	}

	for _, table := range tables {
		if err := s.db.GetPostgreSQL().Exec("TRUNCATE TABLE " + table + " CASCADE").Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

// SeedAll creates a set of demo resources with weekly availability.
func (s *Seeder) SeedAll() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	type demoResource struct {
		name     string
		kind     string
		capacity int
		timezone string
		weekdays []int
		open     string
		close    string
	}

	demos := []demoResource{
		{"Conference Room Aurora", "meeting_room", 12, "America/New_York", []int{1, 2, 3, 4, 5}, "09:00", "17:00"},
		{"Conference Room Baltic", "meeting_room", 6, "America/New_York", []int{1, 2, 3, 4, 5}, "08:00", "20:00"},
		{"Tennis Court 1", "court", 4, "Europe/Amsterdam", []int{1, 2, 3, 4, 5, 6, 7}, "07:00", "22:00"},
		{"Dr. Patel", "practitioner", 1, "UTC", []int{1, 3, 5}, "10:00", "16:00"},
	}

	for _, demo := range demos {
		capacity := demo.capacity
		resource, err := s.resources.Create(ctx, resources.CreateResourceInput{
			TenantID: "demo",
			Name:     demo.name,
			Type:     demo.kind,
			Capacity: &capacity,
			Timezone: demo.timezone,
			Metadata: resources.JSONMap{"seeded": true},
		})
		if err != nil {
			return fmt.Errorf("failed to create resource %q: %w", demo.name, err)
		}

		for _, weekday := range demo.weekdays {
			if _, err := s.resources.AddWindow(ctx, resources.AddWindowInput{
				ResourceID: resource.ID,
				Weekday:    weekday,
				StartTime:  demo.open,
				EndTime:    demo.close,
			}); err != nil {
				return fmt.Errorf("failed to add window for %q: %w", demo.name, err)
			}
		}

		fmt.Printf("  • %s (%s) id=%s\n", demo.name, demo.kind, resource.ID)
	}

	// A maintenance exception next Monday on the first room, so slot
	// queries have something to subtract right away.
	first, err := s.firstResourceID(ctx)
	if err != nil {
		return err
	}
	nextMonday := upcomingWeekday(time.Now().UTC(), time.Monday)
	start := time.Date(nextMonday.Year(), nextMonday.Month(), nextMonday.Day(), 12, 0, 0, 0, time.UTC)
	if _, err := s.resources.AddException(ctx, resources.AddExceptionInput{
		ResourceID: first,
		Range:      timerange.MustNew(start, start.Add(time.Hour)),
		Reason:     "maintenance",
	}); err != nil {
		return fmt.Errorf("failed to add exception: %w", err)
	}

	return nil
}

func (s *Seeder) firstResourceID(ctx context.Context) (uuid.UUID, error) {
	list, _, err := s.resources.List(ctx, "demo", resources.ListFilters{Limit: 1})
	if err != nil {
		return uuid.Nil, err
	}
	if len(list) == 0 {
		return uuid.Nil, fmt.Errorf("no seeded resources found")
	}
	return list[0].ID, nil
}

func upcomingWeekday(from time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(from.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return from.AddDate(0, 0, offset)
}
