// Package services holds the reservation availability and channel
// synchronization engine. The sentinel errors below let controllers
// distinguish failure scenarios that need different operator messaging:
// an internal double-booking is a same-system race, while a channel
// conflict means the external side is stale and must be blocked or
// re-synced manually.
package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRoomNotFound is returned when a referenced room does not exist.
var ErrRoomNotFound = errors.New("room_not_found")

// ErrReservationNotFound is returned when a referenced reservation does not
// exist.
var ErrReservationNotFound = errors.New("reservation_not_found")

// ErrGroupNotFound is returned when no active reservations carry the given
// group id.
var ErrGroupNotFound = errors.New("group_not_found")

// ErrAvailabilityConflict signals an internal double-booking: another
// non-cancelled reservation already holds the room for an overlapping range.
var ErrAvailabilityConflict = errors.New("availability_conflict")

// ErrChannelConflict signals that an externally imported channel hold
// overlaps the requested range. Remediation differs from an internal
// conflict, so it is surfaced separately.
var ErrChannelConflict = errors.New("channel_conflict")

// ErrInvalidTransition is returned when a lifecycle update would move a
// reservation backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid_status_transition")

// ErrGroupNotReady is returned when group checkout is requested before
// every member is checked in.
var ErrGroupNotReady = errors.New("group_not_all_checked_in")

// ErrMappingNotFound is returned when an export token or mapping id does
// not resolve to a channel room mapping.
var ErrMappingNotFound = errors.New("channel_mapping_not_found")

// ValidationError rejects malformed input before any I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PartialGroupFailure reports a group operation that committed some lines
// and failed on another. CommittedRooms lists rooms written before the
// failure, CompensatedRooms the subset the coordinator managed to cancel
// again; any difference needs manual reconciliation.
type PartialGroupFailure struct {
	GroupID          string
	CommittedRooms   []uint
	FailedRoom       uint
	CompensatedRooms []uint
	Cause            error
}

func (e *PartialGroupFailure) Error() string {
	return fmt.Sprintf(
		"group %s partially failed at room %d (committed rooms: %s, compensated: %s): %v",
		e.GroupID, e.FailedRoom,
		joinRoomIDs(e.CommittedRooms), joinRoomIDs(e.CompensatedRooms), e.Cause,
	)
}

func (e *PartialGroupFailure) Unwrap() error { return e.Cause }

func joinRoomIDs(ids []uint) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ",")
}

// SyncMappingError wraps one mapping's import/export failure. It is recorded
// on the mapping and reported in the sync summary, never escalated to abort
// sibling mappings.
type SyncMappingError struct {
	MappingID uint
	Channel   string
	Err       error
}

func (e *SyncMappingError) Error() string {
	return fmt.Sprintf("sync mapping %d (%s): %v", e.MappingID, e.Channel, e.Err)
}

func (e *SyncMappingError) Unwrap() error { return e.Err }
