package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pms-backend/events"
	"pms-backend/models"
)

// setupTestDB opens an isolated in-memory database. Pool size is pinned to 1
// so every query sees the same :memory: instance.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.RoomType{},
		&models.Room{},
		&models.ChannelConnection{},
		&models.ChannelRoomMapping{},
		&models.Reservation{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedRoomType(t *testing.T, db *gorm.DB, name string) models.RoomType {
	t.Helper()
	rt := models.RoomType{TypeName: name, MaxGuests: 2, BasePrice: 1500}
	if err := db.Create(&rt).Error; err != nil {
		t.Fatalf("seed room type: %v", err)
	}
	return rt
}

func seedRoom(t *testing.T, db *gorm.DB, typeID uint, number, status string) models.Room {
	t.Helper()
	room := models.Room{RoomTypeID: &typeID, RoomNumber: number, Status: status, Price: 1500}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("seed room %s: %v", number, err)
	}
	return room
}

// recorderPublisher captures published events for assertions.
type recorderPublisher struct {
	mu        sync.Mutex
	published []events.Event
}

func (r *recorderPublisher) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, event)
	return nil
}

func (r *recorderPublisher) queues() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.published))
	for _, e := range r.published {
		out = append(out, e.Queue())
	}
	return out
}

// engine bundles the wired services for tests.
type engine struct {
	db           *gorm.DB
	publisher    *recorderPublisher
	availability *AvailabilityService
	dedup        *DedupService
	reservations *ReservationService
	groups       *GroupBookingService
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	db := setupTestDB(t)
	pub := &recorderPublisher{}
	availability := NewAvailabilityService(db)
	dedup := NewDedupService(db)
	return &engine{
		db:           db,
		publisher:    pub,
		availability: availability,
		dedup:        dedup,
		reservations: NewReservationService(db, availability, dedup, pub),
		groups:       NewGroupBookingService(db, availability, pub),
	}
}
