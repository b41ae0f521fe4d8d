package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pms-backend/events"
	"pms-backend/models"
	"pms-backend/utils"
)

// BillingContact is the single billing identity shared by all members of a
// group booking. It is stored on the primary line only.
type BillingContact struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Charge is one aggregated extra charge on a group booking.
type Charge struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// GroupResult is the committed state of a group booking.
type GroupResult struct {
	GroupID        string               `json:"groupId"`
	GroupReference string               `json:"groupReference"`
	Reservations   []models.Reservation `json:"reservations"`
}

// GroupBookingService commits multi-room reservations as one unit. The
// storage layer has no multi-row transaction primitive for this flow, so
// atomicity is application-level sequencing plus compensating cancellation:
// each line re-checks availability immediately before its write, and a
// failure at line k cancels the k-1 lines already written.
type GroupBookingService struct {
	DB           *gorm.DB
	Availability *AvailabilityService
	Publisher    events.Publisher
}

func NewGroupBookingService(db *gorm.DB, availability *AvailabilityService, publisher events.Publisher) *GroupBookingService {
	return &GroupBookingService{DB: db, Availability: availability, Publisher: publisher}
}

// CreateGroup writes all lines under one shared group id. The first line is
// the primary booking and carries the billing contact, aggregated charges
// and discount; siblings carry only their own per-room amounts.
func (s *GroupBookingService) CreateGroup(
	ctx context.Context,
	lines []ReservationDraft,
	billing BillingContact,
	charges []Charge,
	discount float64,
) (*GroupResult, error) {
	if len(lines) == 0 {
		return nil, &ValidationError{Field: "lines", Reason: "at least one room required"}
	}
	if billing.Name == "" {
		return nil, &ValidationError{Field: "billing_contact.name", Reason: "required"}
	}
	if discount < 0 {
		return nil, &ValidationError{Field: "discount", Reason: "must not be negative"}
	}
	for i := range lines {
		if err := validateDraft(lines[i]); err != nil {
			return nil, err
		}
	}
	// Catch a session double-selecting the same room across two cart lines
	// before anything is written. Availability against the store is checked
	// per line immediately before its write, not here.
	for i := range lines {
		for j := i + 1; j < len(lines); j++ {
			if lines[i].RoomID != lines[j].RoomID {
				continue
			}
			if utils.Overlaps(lines[i].CheckIn, lines[i].CheckOut, lines[j].CheckIn, lines[j].CheckOut) {
				return nil, ErrAvailabilityConflict
			}
		}
	}

	groupID := uuid.NewString()
	refSuffix, err := utils.GenerateReferenceCode(6)
	if err != nil {
		return nil, fmt.Errorf("failed to generate group reference: %w", err)
	}
	groupRef := "GRP-" + refSuffix

	billingJSON, err := json.Marshal(billing)
	if err != nil {
		return nil, fmt.Errorf("failed to encode billing contact: %w", err)
	}
	chargesJSON, err := json.Marshal(charges)
	if err != nil {
		return nil, fmt.Errorf("failed to encode charges: %w", err)
	}

	committed := make([]models.Reservation, 0, len(lines))
	for i := range lines {
		line := lines[i]

		// Re-check, not trust-the-cart: the availability gate above and the
		// write here are not mutually exclusive with other writers.
		if err := s.Availability.CheckRange(line.RoomID, line.CheckIn, line.CheckOut, nil); err != nil {
			return nil, s.compensate(groupID, committed, line.RoomID, err)
		}

		res, err := buildReservation(line)
		if err != nil {
			return nil, s.compensate(groupID, committed, line.RoomID, err)
		}
		gid := groupID
		res.GroupID = &gid
		res.GroupReference = groupRef
		if i == 0 {
			res.IsPrimaryBooking = true
			res.BillingContact = datatypes.JSON(billingJSON)
			res.AdditionalCharges = datatypes.JSON(chargesJSON)
			res.Discount = discount
		}

		if err := s.DB.Create(&res).Error; err != nil {
			return nil, s.compensate(groupID, committed, line.RoomID, fmt.Errorf("failed to create reservation: %w", err))
		}
		committed = append(committed, res)
	}

	if pubErr := s.Publisher.Publish(ctx, events.GroupBookingCreated{
		GroupID:        groupID,
		GroupReference: groupRef,
		Reservations:   committed,
		OccurredAt:     time.Now().UTC(),
	}); pubErr != nil {
		log.Printf("warning: failed to publish group_booking.created: %v", pubErr)
	}

	return &GroupResult{GroupID: groupID, GroupReference: groupRef, Reservations: committed}, nil
}

// compensate best-effort cancels the lines written before the failure and
// builds the partial-failure report. Cancellation, not deletion: the rows
// stay as audit trail.
func (s *GroupBookingService) compensate(groupID string, committed []models.Reservation, failedRoom uint, cause error) error {
	fail := &PartialGroupFailure{
		GroupID:    groupID,
		FailedRoom: failedRoom,
		Cause:      cause,
	}
	for i := range committed {
		fail.CommittedRooms = append(fail.CommittedRooms, committed[i].RoomID)
		err := s.DB.Model(&models.Reservation{}).
			Where("id = ?", committed[i].ID).
			Update("status", models.StatusCancelled).Error
		if err != nil {
			log.Printf("warning: compensation failed for reservation %d: %v", committed[i].ID, err)
			continue
		}
		fail.CompensatedRooms = append(fail.CompensatedRooms, committed[i].RoomID)
	}
	return fail
}

// GetGroup loads all non-suppressed members of a group.
func (s *GroupBookingService) GetGroup(groupID string) (*GroupResult, error) {
	var members []models.Reservation
	if err := s.DB.
		Preload("Room").
		Where("group_id = ? AND suppressed = ?", groupID, false).
		Order("is_primary_booking DESC, id ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to load group %s: %w", groupID, err)
	}
	if len(members) == 0 {
		return nil, ErrGroupNotFound
	}
	return &GroupResult{
		GroupID:        groupID,
		GroupReference: members[0].GroupReference,
		Reservations:   members,
	}, nil
}

// GroupCheckOut transitions every member of the group to checked-out. The
// operation is only offered once all members are checked in; a member that
// fails mid-sequence yields the same partial-failure report as creation
// (checked-out lines cannot regress, so there is no compensation to apply).
func (s *GroupBookingService) GroupCheckOut(ctx context.Context, groupID string) (*GroupResult, error) {
	group, err := s.GetGroup(groupID)
	if err != nil {
		return nil, err
	}

	active := make([]models.Reservation, 0, len(group.Reservations))
	for i := range group.Reservations {
		if group.Reservations[i].Status == models.StatusCancelled {
			continue
		}
		if group.Reservations[i].Status != models.StatusCheckedIn {
			return nil, ErrGroupNotReady
		}
		active = append(active, group.Reservations[i])
	}
	if len(active) == 0 {
		return nil, ErrGroupNotReady
	}

	done := make([]models.Reservation, 0, len(active))
	for i := range active {
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Reservation{}).
				Where("id = ? AND status = ?", active[i].ID, models.StatusCheckedIn).
				Update("status", models.StatusCheckedOut).Error; err != nil {
				return err
			}
			return tx.Model(&models.Room{}).
				Where("id = ?", active[i].RoomID).
				Update("status", models.RoomCleaning).Error
		})
		if err != nil {
			fail := &PartialGroupFailure{
				GroupID:    groupID,
				FailedRoom: active[i].RoomID,
				Cause:      err,
			}
			for j := range done {
				fail.CommittedRooms = append(fail.CommittedRooms, done[j].RoomID)
			}
			return nil, fail
		}
		active[i].Status = models.StatusCheckedOut
		done = append(done, active[i])
	}

	for i := range done {
		if pubErr := s.Publisher.Publish(ctx, events.CheckedOut{
			Reservation: done[i],
			OccurredAt:  time.Now().UTC(),
		}); pubErr != nil {
			log.Printf("warning: failed to publish reservation.checked_out: %v", pubErr)
		}
	}

	return &GroupResult{GroupID: groupID, GroupReference: group.GroupReference, Reservations: done}, nil
}
