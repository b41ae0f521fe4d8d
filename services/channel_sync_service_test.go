package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"pms-backend/models"
	"pms-backend/utils"
)

func seedChannel(t *testing.T, db *gorm.DB, name string, roomTypeID uint, importURL string) models.ChannelRoomMapping {
	t.Helper()
	conn := models.ChannelConnection{Name: name, Active: true}
	if err := db.Create(&conn).Error; err != nil {
		t.Fatalf("seed channel %s: %v", name, err)
	}
	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	mapping := models.ChannelRoomMapping{
		ChannelConnectionID: conn.ID,
		RoomTypeID:          roomTypeID,
		ImportURL:           importURL,
		ExportToken:         token,
		SyncStatus:          models.SyncPending,
	}
	if err := db.Create(&mapping).Error; err != nil {
		t.Fatalf("seed mapping for %s: %v", name, err)
	}
	mapping.Connection = conn
	return mapping
}

func reloadMapping(t *testing.T, db *gorm.DB, id uint) models.ChannelRoomMapping {
	t.Helper()
	var m models.ChannelRoomMapping
	if err := db.First(&m, id).Error; err != nil {
		t.Fatalf("reload mapping %d: %v", id, err)
	}
	return m
}

func feedOf(events ...utils.CalendarEvent) string {
	return utils.BuildCalendar("ota feed", events)
}

func TestSyncMappingIsIdempotent(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Standard")
	seedRoom(t, e.db, rt.ID, "101", models.RoomAvailable)
	seedRoom(t, e.db, rt.ID, "102", models.RoomAvailable)

	feed := feedOf(
		utils.CalendarEvent{UID: "evt-1@ota", Start: date(2026, time.June, 1), End: date(2026, time.June, 4)},
		utils.CalendarEvent{UID: "evt-2@ota", Start: date(2026, time.June, 10), End: date(2026, time.June, 12)},
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer server.Close()

	mapping := seedChannel(t, e.db, "bookingcom", rt.ID, server.URL)
	sync := NewChannelSyncService(e.db)

	result, err := sync.SyncMapping(context.Background(), &mapping)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if result.Created != 2 || result.EventsFound != 2 {
		t.Errorf("first sync created=%d found=%d, want 2/2", result.Created, result.EventsFound)
	}

	var count int64
	e.db.Model(&models.Reservation{}).Where("channel_mapping_id = ?", mapping.ID).Count(&count)
	if count != 2 {
		t.Fatalf("%d holds after first sync, want 2", count)
	}
	first := reloadMapping(t, e.db, mapping.ID)
	if first.SyncStatus != models.SyncSuccess || first.LastSyncedAt == nil {
		t.Fatalf("first sync status=%q lastSyncedAt=%v", first.SyncStatus, first.LastSyncedAt)
	}

	// Unchanged feed: no net change, timestamp moves forward.
	result, err = sync.SyncMapping(context.Background(), &mapping)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Created != 0 {
		t.Errorf("second sync created %d new holds against an unchanged feed", result.Created)
	}
	e.db.Model(&models.Reservation{}).Where("channel_mapping_id = ?", mapping.ID).Count(&count)
	if count != 2 {
		t.Errorf("%d holds after second sync, want 2", count)
	}
	second := reloadMapping(t, e.db, mapping.ID)
	if second.LastSyncedAt == nil || second.LastSyncedAt.Before(*first.LastSyncedAt) {
		t.Errorf("lastSyncedAt regressed: %v -> %v", first.LastSyncedAt, second.LastSyncedAt)
	}
}

func TestSyncMappingReleasesAndRearmsHolds(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Standard")
	seedRoom(t, e.db, rt.ID, "101", models.RoomAvailable)

	event := utils.CalendarEvent{UID: "evt-1@ota", Start: date(2026, time.July, 1), End: date(2026, time.July, 3)}
	feed := feedOf(event)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer server.Close()

	mapping := seedChannel(t, e.db, "expedia", rt.ID, server.URL)
	sync := NewChannelSyncService(e.db)
	ctx := context.Background()

	if _, err := sync.SyncMapping(ctx, &mapping); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	var hold models.Reservation
	if err := e.db.Where("channel_mapping_id = ? AND external_ref = ?", mapping.ID, "evt-1@ota").First(&hold).Error; err != nil {
		t.Fatalf("load hold: %v", err)
	}
	if hold.Status != models.StatusConfirmed || !hold.IsChannelHold() {
		t.Fatalf("hold status=%q channel=%v", hold.Status, hold.IsChannelHold())
	}

	// Event disappears from the feed: the hold is released.
	feed = feedOf()
	result, err := sync.SyncMapping(ctx, &mapping)
	if err != nil {
		t.Fatalf("sync with empty feed: %v", err)
	}
	if result.Cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", result.Cancelled)
	}
	if err := e.db.First(&hold, hold.ID).Error; err != nil {
		t.Fatalf("reload hold: %v", err)
	}
	if hold.Status != models.StatusCancelled {
		t.Errorf("released hold status = %q", hold.Status)
	}

	// Same UID comes back: the existing row is re-armed, not duplicated.
	feed = feedOf(event)
	result, err = sync.SyncMapping(ctx, &mapping)
	if err != nil {
		t.Fatalf("sync with restored feed: %v", err)
	}
	if result.Created != 0 || result.Updated != 1 {
		t.Errorf("restored sync created=%d updated=%d, want 0/1", result.Created, result.Updated)
	}
	if err := e.db.First(&hold, hold.ID).Error; err != nil {
		t.Fatalf("reload hold: %v", err)
	}
	if hold.Status != models.StatusConfirmed {
		t.Errorf("re-armed hold status = %q", hold.Status)
	}
}

// A broken channel fails alone: the healthy mapping syncs, the broken one
// records its error, and neither touches the other's status or timestamp.
func TestSyncAllIsolatesFailures(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Standard")
	seedRoom(t, e.db, rt.ID, "101", models.RoomAvailable)

	goodServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feedOf(
			utils.CalendarEvent{UID: "evt-1@ota", Start: date(2026, time.August, 1), End: date(2026, time.August, 3)},
		)))
	}))
	defer goodServer.Close()
	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer badServer.Close()

	good := seedChannel(t, e.db, "bookingcom", rt.ID, goodServer.URL)
	bad := seedChannel(t, e.db, "expedia", rt.ID, badServer.URL)

	sync := NewChannelSyncService(e.db)
	summary := sync.SyncAll(context.Background())

	if summary.Synced != 1 || summary.Failed != 1 {
		t.Fatalf("synced=%d failed=%d, want 1/1", summary.Synced, summary.Failed)
	}

	goodRow := reloadMapping(t, e.db, good.ID)
	if goodRow.SyncStatus != models.SyncSuccess || goodRow.SyncError != "" || goodRow.LastSyncedAt == nil {
		t.Errorf("good mapping: status=%q error=%q syncedAt=%v", goodRow.SyncStatus, goodRow.SyncError, goodRow.LastSyncedAt)
	}
	badRow := reloadMapping(t, e.db, bad.ID)
	if badRow.SyncStatus != models.SyncError || badRow.SyncError == "" {
		t.Errorf("bad mapping: status=%q error=%q", badRow.SyncStatus, badRow.SyncError)
	}
	if badRow.LastSyncedAt != nil {
		t.Errorf("failed mapping must not record a successful sync time, got %v", badRow.LastSyncedAt)
	}
}

func TestSyncAllSkipsInactiveConnections(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Standard")
	seedRoom(t, e.db, rt.ID, "101", models.RoomAvailable)

	mapping := seedChannel(t, e.db, "paused-ota", rt.ID, "http://127.0.0.1:1/never-called")
	if err := e.db.Model(&models.ChannelConnection{}).
		Where("id = ?", mapping.ChannelConnectionID).
		Update("active", false).Error; err != nil {
		t.Fatalf("deactivate connection: %v", err)
	}

	sync := NewChannelSyncService(e.db)
	summary := sync.SyncAll(context.Background())
	if summary.Synced != 0 || summary.Failed != 0 {
		t.Errorf("inactive connection was synced: %+v", summary)
	}
}

func TestExportFeedHidesGuestsAndOwnHolds(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Standard")
	room := seedRoom(t, e.db, rt.ID, "101", models.RoomAvailable)

	mapping := seedChannel(t, e.db, "bookingcom", rt.ID, "")
	other := seedChannel(t, e.db, "expedia", rt.ID, "")

	if _, err := e.reservations.Create(context.Background(), ReservationDraft{
		RoomID:    room.ID,
		GuestName: "Arthur Dent",
		CheckIn:   date(2026, time.September, 1),
		CheckOut:  date(2026, time.September, 4),
	}); err != nil {
		t.Fatalf("create internal reservation: %v", err)
	}
	for _, hold := range []struct {
		mappingID uint
		ref       string
		in, out   time.Time
	}{
		{mapping.ID, "own-evt@ota", date(2026, time.September, 10), date(2026, time.September, 12)},
		{other.ID, "other-evt@ota", date(2026, time.September, 20), date(2026, time.September, 22)},
	} {
		mid := hold.mappingID
		res := models.Reservation{
			RoomID: room.ID, GuestName: "Channel hold", Status: models.StatusConfirmed,
			Source: models.ChannelSource("x"), CheckIn: hold.in, CheckOut: hold.out,
			ChannelMappingID: &mid, ExternalRef: hold.ref,
		}
		if err := e.db.Create(&res).Error; err != nil {
			t.Fatalf("seed hold %s: %v", hold.ref, err)
		}
	}

	sync := NewChannelSyncService(e.db)
	_, ics, err := sync.ExportFeed(mapping.ExportToken)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if !strings.Contains(ics, "SUMMARY:Unavailable") {
		t.Error("feed should mark busy intervals as Unavailable")
	}
	if strings.Contains(ics, "Arthur Dent") {
		t.Error("feed leaks guest name")
	}
	if !strings.Contains(ics, "DTSTART;VALUE=DATE:20260901") {
		t.Error("feed missing the internal reservation's interval")
	}
	if !strings.Contains(ics, "DTSTART;VALUE=DATE:20260920") {
		t.Error("feed missing the other channel's hold")
	}
	if strings.Contains(ics, "DTSTART;VALUE=DATE:20260910") {
		t.Error("feed echoes the mapping's own imported hold")
	}
}

func TestExportFeedRejectsUnknownToken(t *testing.T) {
	e := newEngine(t)
	sync := NewChannelSyncService(e.db)

	if _, _, err := sync.ExportFeed("not-a-real-token"); !errors.Is(err, ErrMappingNotFound) {
		t.Errorf("unknown token: got %v", err)
	}
	if _, _, err := sync.ExportFeed(""); !IsValidation(err) {
		t.Errorf("empty token: got %v", err)
	}
}
