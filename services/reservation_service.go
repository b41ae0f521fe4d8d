package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"pms-backend/events"
	"pms-backend/models"
	"pms-backend/utils"
)

// ReservationDraft is one requested reservation line before it is written.
type ReservationDraft struct {
	RoomID     uint      `json:"room_id"`
	GuestName  string    `json:"guest_name"`
	GuestEmail string    `json:"guest_email,omitempty"`
	GuestPhone string    `json:"guest_phone,omitempty"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Source     string    `json:"source,omitempty"`
	Status     string    `json:"status,omitempty"`
	Subtotal   float64   `json:"subtotal,omitempty"`
}

// ReservationService is the persistence boundary for reservation records
// plus their lifecycle transitions. Business rules about which rooms are
// free live in AvailabilityService; de-duplication in DedupService.
type ReservationService struct {
	DB           *gorm.DB
	Availability *AvailabilityService
	Dedup        *DedupService
	Publisher    events.Publisher
}

func NewReservationService(db *gorm.DB, availability *AvailabilityService, dedup *DedupService, publisher events.Publisher) *ReservationService {
	return &ReservationService{DB: db, Availability: availability, Dedup: dedup, Publisher: publisher}
}

func validateDraft(d ReservationDraft) error {
	if d.RoomID == 0 {
		return &ValidationError{Field: "room_id", Reason: "required"}
	}
	if strings.TrimSpace(d.GuestName) == "" {
		return &ValidationError{Field: "guest_name", Reason: "required"}
	}
	if !utils.RangeValid(d.CheckIn, d.CheckOut) {
		return &ValidationError{Field: "check_in", Reason: "check-in must be strictly before check-out"}
	}
	if d.Status != "" && d.Status != models.StatusReserved && d.Status != models.StatusConfirmed {
		return &ValidationError{Field: "status", Reason: "new reservations start as reserved or confirmed"}
	}
	return nil
}

func buildReservation(d ReservationDraft) (models.Reservation, error) {
	ref, err := utils.GenerateReferenceCode(8)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("failed to generate reference code: %w", err)
	}

	status := d.Status
	if status == "" {
		status = models.StatusReserved
	}
	source := d.Source
	if source == "" {
		source = models.SourceReception
	}

	checkIn := utils.NormalizeDate(d.CheckIn)
	checkOut := utils.NormalizeDate(d.CheckOut)

	return models.Reservation{
		RoomID:        d.RoomID,
		GuestName:     strings.TrimSpace(d.GuestName),
		GuestEmail:    strings.TrimSpace(d.GuestEmail),
		GuestPhone:    strings.TrimSpace(d.GuestPhone),
		ReferenceCode: ref,
		Status:        status,
		Source:        source,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Nights:        utils.Nights(checkIn, checkOut),
		Subtotal:      d.Subtotal,
		FinalAmount:   d.Subtotal,
	}, nil
}

// Create validates the draft, re-checks availability and writes a single
// reservation. The duplicate resolver runs after the write so that retried
// calls racing each other converge on one visible record.
func (s *ReservationService) Create(ctx context.Context, draft ReservationDraft) (*models.Reservation, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	if err := s.Availability.CheckRange(draft.RoomID, draft.CheckIn, draft.CheckOut, nil); err != nil {
		return nil, err
	}

	res, err := buildReservation(draft)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Create(&res).Error; err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	visible, err := s.Dedup.Resolve(&res)
	if err != nil {
		log.Printf("warning: dedup pass failed for reservation %d: %v", res.ID, err)
		visible = &res
	}

	if pubErr := s.Publisher.Publish(ctx, events.ReservationCreated{
		Reservation: *visible,
		OccurredAt:  time.Now().UTC(),
	}); pubErr != nil {
		log.Printf("warning: failed to publish reservation.created: %v", pubErr)
	}

	return visible, nil
}

// GetByID loads one reservation with its room.
func (s *ReservationService) GetByID(id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := s.DB.Preload("Room").First(&res, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to load reservation %d: %w", id, err)
	}
	return &res, nil
}

// ListVisible returns all reservations that survived de-duplication, newest
// first.
func (s *ReservationService) ListVisible() ([]models.Reservation, error) {
	var list []models.Reservation
	if err := s.DB.
		Preload("Room").
		Where("suppressed = ?", false).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return list, nil
}

// transition moves one reservation to a new lifecycle status inside a
// transaction, enforcing the forward-only graph, and applies the room status
// side effect. The update is guarded on the status read so a concurrent
// transition loses cleanly instead of regressing the lifecycle.
func (s *ReservationService) transition(id uint, to string, roomStatus string) (*models.Reservation, error) {
	var res models.Reservation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&res, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if !models.CanTransition(res.Status, to) {
			return ErrInvalidTransition
		}
		result := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", id, res.Status).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		res.Status = to

		if roomStatus != "" && res.RoomID != 0 {
			if err := tx.Model(&models.Room{}).
				Where("id = ?", res.RoomID).
				Update("status", roomStatus).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CheckIn marks the reservation checked-in and the room occupied.
func (s *ReservationService) CheckIn(ctx context.Context, id uint) (*models.Reservation, error) {
	res, err := s.transition(id, models.StatusCheckedIn, models.RoomOccupied)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.CheckedIn{Reservation: *res, OccurredAt: time.Now().UTC()})
	return res, nil
}

// CheckOut marks the reservation checked-out and hands the room to
// housekeeping (status cleaning; housekeeping completion flips it back).
func (s *ReservationService) CheckOut(ctx context.Context, id uint) (*models.Reservation, error) {
	res, err := s.transition(id, models.StatusCheckedOut, models.RoomCleaning)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.CheckedOut{Reservation: *res, OccurredAt: time.Now().UTC()})
	return res, nil
}

// Cancel moves the reservation to the cancelled side-branch. Cancellation is
// a status, never a physical delete.
func (s *ReservationService) Cancel(ctx context.Context, id uint) (*models.Reservation, error) {
	res, err := s.transition(id, models.StatusCancelled, "")
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Cancelled{Reservation: *res, OccurredAt: time.Now().UTC()})
	return res, nil
}

func (s *ReservationService) publish(ctx context.Context, event events.Event) {
	if err := s.Publisher.Publish(ctx, event); err != nil {
		log.Printf("warning: failed to publish %s: %v", event.Queue(), err)
	}
}
