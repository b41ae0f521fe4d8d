package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"pms-backend/models"
	"pms-backend/utils"
)

// AvailabilityService decides whether rooms are free for a requested range
// by composing the room inventory, the reservation store and the interval
// math. It also acts as the conflict resolver: overlaps against channel
// holds are reported distinctly from internal double-bookings.
type AvailabilityService struct {
	DB *gorm.DB
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{DB: db}
}

// CheckRange validates and checks one room for [checkIn, checkOut).
// Returns nil when the room is free, a *ValidationError for malformed
// input, ErrAvailabilityConflict for internal overlaps (maintenance
// included) or ErrChannelConflict when only external channel holds overlap.
// pending carries uncommitted cart lines from the current booking session so
// one operator cannot double-select a room across two cart lines before
// commit.
func (s *AvailabilityService) CheckRange(roomID uint, checkIn, checkOut time.Time, pending []ReservationDraft) error {
	if roomID == 0 {
		return &ValidationError{Field: "room_id", Reason: "required"}
	}
	if !utils.RangeValid(checkIn, checkOut) {
		return &ValidationError{Field: "check_in", Reason: "check-in must be strictly before check-out"}
	}

	var room models.Room
	if err := s.DB.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to load room %d: %w", roomID, err)
	}

	// Maintenance always wins, regardless of reservations.
	if room.Status == models.RoomMaintenance {
		return ErrAvailabilityConflict
	}

	var existing []models.Reservation
	if err := s.DB.
		Where("room_id = ? AND suppressed = ? AND status IN ?", roomID, false, models.HoldingStatuses).
		Where("check_in < ? AND check_out > ?", utils.NormalizeDate(checkOut), utils.NormalizeDate(checkIn)).
		Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to load reservations for room %d: %w", roomID, err)
	}

	channelOverlap := false
	for i := range existing {
		if !utils.Overlaps(existing[i].CheckIn, existing[i].CheckOut, checkIn, checkOut) {
			continue
		}
		if existing[i].IsChannelHold() {
			channelOverlap = true
			continue
		}
		return ErrAvailabilityConflict
	}
	if channelOverlap {
		return ErrChannelConflict
	}

	for i := range pending {
		if pending[i].RoomID != roomID {
			continue
		}
		if utils.Overlaps(pending[i].CheckIn, pending[i].CheckOut, checkIn, checkOut) {
			return ErrAvailabilityConflict
		}
	}

	return nil
}

// IsAvailable answers the advisory read-path question. Any failure degrades
// to "unavailable": these results feed a UI and must never err toward
// overbooking.
func (s *AvailabilityService) IsAvailable(roomID uint, checkIn, checkOut time.Time, pending []ReservationDraft) bool {
	if err := s.CheckRange(roomID, checkIn, checkOut, pending); err != nil {
		if !errors.Is(err, ErrAvailabilityConflict) && !errors.Is(err, ErrChannelConflict) && !IsValidation(err) {
			log.Printf("availability check degraded to unavailable: %v", err)
		}
		return false
	}
	return true
}

// CountAvailable counts free rooms of a type. With no date range it counts
// rooms not occupied right now, i.e. rooms with no holding reservation whose
// range contains today. That today-only default is deliberate product
// behavior: the default signal is current availability, not
// available-for-all-time.
//
// Room operational status is a current-state field, so a maintenance window
// declared for a future date cannot affect counts here; it has to be entered
// as a blocking reservation instead.
func (s *AvailabilityService) CountAvailable(roomTypeID uint, checkIn, checkOut *time.Time) int {
	var rooms []models.Room
	if err := s.DB.Where("room_type_id = ?", roomTypeID).Find(&rooms).Error; err != nil {
		log.Printf("count available degraded to 0: %v", err)
		return 0
	}

	rangeStart, rangeEnd := time.Time{}, time.Time{}
	if checkIn != nil && checkOut != nil && utils.RangeValid(*checkIn, *checkOut) {
		rangeStart, rangeEnd = utils.NormalizeDate(*checkIn), utils.NormalizeDate(*checkOut)
	} else {
		// Today-only window: occupied iff checkIn <= today < checkOut.
		today := utils.NormalizeDate(time.Now())
		rangeStart, rangeEnd = today, today.AddDate(0, 0, 1)
	}

	count := 0
	for i := range rooms {
		if rooms[i].Status == models.RoomMaintenance {
			continue
		}
		var overlapping int64
		err := s.DB.Model(&models.Reservation{}).
			Where("room_id = ? AND suppressed = ? AND status IN ?", rooms[i].ID, false, models.HoldingStatuses).
			Where("check_in < ? AND check_out > ?", rangeEnd, rangeStart).
			Count(&overlapping).Error
		if err != nil {
			log.Printf("count available degraded to 0: %v", err)
			return 0
		}
		if overlapping == 0 {
			count++
		}
	}
	return count
}
