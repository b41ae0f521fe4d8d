package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pms-backend/models"
	"pms-backend/utils"
)

// The scenario from the front desk: Room 101 holds a confirmed reservation
// Jan 10-15. A back-to-back stay starting on the checkout day is allowed, an
// overlapping one is rejected, and cancelling frees the range again.
func TestAvailabilityScenarioRoom101(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Standard")
	room := seedRoom(t, e.db, rt.ID, "101", models.RoomAvailable)

	existing, err := e.reservations.Create(context.Background(), ReservationDraft{
		RoomID:    room.ID,
		GuestName: "Arthur Dent",
		CheckIn:   date(2026, time.January, 10),
		CheckOut:  date(2026, time.January, 15),
		Status:    models.StatusConfirmed,
	})
	if err != nil {
		t.Fatalf("create existing reservation: %v", err)
	}

	if !e.availability.IsAvailable(room.ID, date(2026, time.January, 15), date(2026, time.January, 18), nil) {
		t.Error("boundary-touching stay Jan 15-18 should be allowed")
	}

	err = e.availability.CheckRange(room.ID, date(2026, time.January, 14), date(2026, time.January, 16), nil)
	if !errors.Is(err, ErrAvailabilityConflict) {
		t.Errorf("Jan 14-16 should be an availability conflict, got %v", err)
	}

	if _, err := e.reservations.Cancel(context.Background(), existing.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := e.availability.CheckRange(room.ID, date(2026, time.January, 14), date(2026, time.January, 16), nil); err != nil {
		t.Errorf("Jan 14-16 should be free after cancellation, got %v", err)
	}
}

func TestMaintenanceAlwaysWins(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Standard")
	room := seedRoom(t, e.db, rt.ID, "102", models.RoomMaintenance)

	err := e.availability.CheckRange(room.ID, date(2026, time.February, 1), date(2026, time.February, 3), nil)
	if !errors.Is(err, ErrAvailabilityConflict) {
		t.Errorf("maintenance room should conflict unconditionally, got %v", err)
	}
}

func TestChannelConflictIsDistinct(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Standard")
	room := seedRoom(t, e.db, rt.ID, "103", models.RoomAvailable)

	mappingID := uint(7)
	hold := models.Reservation{
		RoomID:           room.ID,
		GuestName:        "Channel hold",
		Status:           models.StatusConfirmed,
		Source:           models.ChannelSource("bookingcom"),
		CheckIn:          date(2026, time.March, 1),
		CheckOut:         date(2026, time.March, 5),
		ChannelMappingID: &mappingID,
		ExternalRef:      "evt-9@ota",
	}
	if err := e.db.Create(&hold).Error; err != nil {
		t.Fatalf("create hold: %v", err)
	}

	err := e.availability.CheckRange(room.ID, date(2026, time.March, 3), date(2026, time.March, 6), nil)
	if !errors.Is(err, ErrChannelConflict) {
		t.Errorf("overlap against channel hold should be ErrChannelConflict, got %v", err)
	}

	// With an internal reservation also overlapping, the internal conflict
	// takes precedence: it is the same-system race the operator can act on.
	if _, err := e.reservations.Create(context.Background(), ReservationDraft{
		RoomID:    room.ID,
		GuestName: "Ford Prefect",
		CheckIn:   date(2026, time.March, 6),
		CheckOut:  date(2026, time.March, 8),
	}); err != nil {
		t.Fatalf("create internal reservation: %v", err)
	}
	err = e.availability.CheckRange(room.ID, date(2026, time.March, 4), date(2026, time.March, 7), nil)
	if !errors.Is(err, ErrAvailabilityConflict) {
		t.Errorf("mixed overlap should report the internal conflict, got %v", err)
	}
}

func TestPendingCartLinesBlockDoubleSelect(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Standard")
	room := seedRoom(t, e.db, rt.ID, "104", models.RoomAvailable)

	pending := []ReservationDraft{{
		RoomID:   room.ID,
		CheckIn:  date(2026, time.April, 1),
		CheckOut: date(2026, time.April, 5),
	}}

	if e.availability.IsAvailable(room.ID, date(2026, time.April, 3), date(2026, time.April, 6), pending) {
		t.Error("room already in the uncommitted cart should read unavailable")
	}
	if !e.availability.IsAvailable(room.ID, date(2026, time.April, 5), date(2026, time.April, 8), pending) {
		t.Error("back-to-back with the cart line should stay available")
	}
}

func TestIsAvailableDegradesOnBadInput(t *testing.T) {
	e := newEngine(t)

	if e.availability.IsAvailable(0, date(2026, time.May, 1), date(2026, time.May, 2), nil) {
		t.Error("missing room must read unavailable")
	}
	if e.availability.IsAvailable(9999, date(2026, time.May, 1), date(2026, time.May, 2), nil) {
		t.Error("unknown room must read unavailable")
	}
	rt := seedRoomType(t, e.db, "Standard")
	room := seedRoom(t, e.db, rt.ID, "105", models.RoomAvailable)
	if e.availability.IsAvailable(room.ID, date(2026, time.May, 2), date(2026, time.May, 1), nil) {
		t.Error("reversed range must read unavailable")
	}
}

func TestCountAvailableWithRange(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Deluxe")
	r1 := seedRoom(t, e.db, rt.ID, "201", models.RoomAvailable)
	seedRoom(t, e.db, rt.ID, "202", models.RoomAvailable)
	seedRoom(t, e.db, rt.ID, "203", models.RoomMaintenance)

	if _, err := e.reservations.Create(context.Background(), ReservationDraft{
		RoomID:    r1.ID,
		GuestName: "Tricia McMillan",
		CheckIn:   date(2026, time.June, 10),
		CheckOut:  date(2026, time.June, 12),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	in, out := date(2026, time.June, 11), date(2026, time.June, 13)
	// 201 is booked, 203 is in maintenance: only 202 remains.
	if got := e.availability.CountAvailable(rt.ID, &in, &out); got != 1 {
		t.Errorf("CountAvailable = %d, want 1", got)
	}

	in2, out2 := date(2026, time.June, 12), date(2026, time.June, 14)
	// Back-to-back with 201's stay: 201 and 202 are both free.
	if got := e.availability.CountAvailable(rt.ID, &in2, &out2); got != 2 {
		t.Errorf("CountAvailable back-to-back = %d, want 2", got)
	}
}

// With no range the count reflects "not occupied right now": occupied means
// an active reservation with checkIn <= today < checkOut.
func TestCountAvailableDefaultsToToday(t *testing.T) {
	e := newEngine(t)
	rt := seedRoomType(t, e.db, "Deluxe")
	r1 := seedRoom(t, e.db, rt.ID, "301", models.RoomAvailable)
	r2 := seedRoom(t, e.db, rt.ID, "302", models.RoomAvailable)

	today := utils.NormalizeDate(time.Now())

	// r1 occupied today, r2 only in the future.
	for _, res := range []models.Reservation{
		{RoomID: r1.ID, GuestName: "Guest A", Status: models.StatusCheckedIn,
			CheckIn: today.AddDate(0, 0, -1), CheckOut: today.AddDate(0, 0, 2)},
		{RoomID: r2.ID, GuestName: "Guest B", Status: models.StatusConfirmed,
			CheckIn: today.AddDate(0, 0, 5), CheckOut: today.AddDate(0, 0, 8)},
	} {
		if err := e.db.Create(&res).Error; err != nil {
			t.Fatalf("seed reservation: %v", err)
		}
	}

	if got := e.availability.CountAvailable(rt.ID, nil, nil); got != 1 {
		t.Errorf("CountAvailable(now) = %d, want 1 (future stays do not occupy today)", got)
	}
}
