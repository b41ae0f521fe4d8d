package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reservation lifecycle statuses. The lifecycle only moves forward:
// reserved -> confirmed -> checked-in -> checked-out, with cancelled as a
// side-branch reachable from any non-terminal status.
const (
	StatusReserved   = "reserved"
	StatusConfirmed  = "confirmed"
	StatusCheckedIn  = "checked-in"
	StatusCheckedOut = "checked-out"
	StatusCancelled  = "cancelled"
)

// Reservation sources. Channel holds carry "channel:<name>" so the origin
// channel is readable off the row.
const (
	SourceReception  = "reception"
	SourceOnline     = "online"
	SourceVoiceAgent = "voice-agent"

	channelSourcePrefix = "channel:"
)

// HoldingStatuses are the statuses that hold a room against other bookings.
var HoldingStatuses = []string{StatusReserved, StatusConfirmed, StatusCheckedIn}

// statusRank orders statuses by lifecycle progress. Cancelled ranks lowest:
// when de-duplication has to pick a survivor, any live record beats a
// cancelled one.
var statusRank = map[string]int{
	StatusCancelled:  0,
	StatusReserved:   1,
	StatusConfirmed:  2,
	StatusCheckedIn:  3,
	StatusCheckedOut: 4,
}

// StatusPrecedence returns the lifecycle rank used to pick the surviving
// record among duplicates.
func StatusPrecedence(status string) int {
	return statusRank[status]
}

// CanTransition reports whether a reservation may move from one status to
// another. Completed stays cannot regress or be cancelled.
func CanTransition(from, to string) bool {
	switch to {
	case StatusConfirmed:
		return from == StatusReserved
	case StatusCheckedIn:
		return from == StatusReserved || from == StatusConfirmed
	case StatusCheckedOut:
		return from == StatusCheckedIn
	case StatusCancelled:
		return from == StatusReserved || from == StatusConfirmed || from == StatusCheckedIn
	}
	return false
}

// ChannelSource builds the source value for a hold imported from the named
// channel.
func ChannelSource(channel string) string {
	return channelSourcePrefix + channel
}

// Reservation is a single room held for a guest over [CheckIn, CheckOut).
// Internal bookings and imported channel holds share this table; holds carry
// ChannelMappingID plus the channel's stable ExternalRef, and the pair is
// unique so repeated imports update rather than duplicate.
type Reservation struct {
	gorm.Model

	RoomID uint `json:"roomId" gorm:"column:room_id;index"`

	GuestName  string `json:"guestName" gorm:"column:guest_name;type:varchar(255)"`
	GuestEmail string `json:"guestEmail,omitempty" gorm:"column:guest_email;type:varchar(255)"`
	GuestPhone string `json:"guestPhone,omitempty" gorm:"column:guest_phone;type:varchar(50)"`

	ReferenceCode string `json:"referenceCode" gorm:"column:reference_code;type:varchar(32);index"`
	Status        string `json:"status" gorm:"size:32;default:reserved;index"`
	Source        string `json:"source" gorm:"size:64;default:reception"`

	CheckIn  time.Time `json:"checkIn" gorm:"column:check_in;index"`
	CheckOut time.Time `json:"checkOut" gorm:"column:check_out;index"`
	Nights   int       `json:"nights"`

	// Group booking fields. Every member shares GroupID; exactly one member
	// is the primary booking and carries the group-level billing data.
	GroupID          *string        `json:"groupId,omitempty" gorm:"column:group_id;type:varchar(64);index"`
	GroupReference   string         `json:"groupReference,omitempty" gorm:"column:group_reference;type:varchar(32)"`
	IsPrimaryBooking bool           `json:"isPrimaryBooking" gorm:"column:is_primary_booking;default:false"`
	BillingContact   datatypes.JSON `json:"billingContact,omitempty" gorm:"column:billing_contact"`

	AdditionalCharges datatypes.JSON `json:"additionalCharges,omitempty" gorm:"column:additional_charges"`
	Discount          float64        `json:"discount"`
	Subtotal          float64        `json:"subtotal"`
	FinalAmount       float64        `json:"finalAmount" gorm:"column:final_amount"`

	// Suppressed records lost a de-duplication decision. They stay on disk as
	// audit trail but are invisible to listings and availability.
	Suppressed bool `json:"suppressed" gorm:"default:false;index"`

	// Channel hold identity.
	ChannelMappingID *uint  `json:"channelMappingId,omitempty" gorm:"column:channel_mapping_id;index:idx_mapping_external_ref,unique"`
	ExternalRef      string `json:"externalRef,omitempty" gorm:"column:external_ref;type:varchar(255);index:idx_mapping_external_ref,unique"`

	Room Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// IsChannelHold reports whether the record was imported from an external
// channel rather than booked internally.
func (r *Reservation) IsChannelHold() bool {
	return r.ChannelMappingID != nil || strings.HasPrefix(r.Source, channelSourcePrefix)
}

// IsHolding reports whether the record currently holds its room.
func (r *Reservation) IsHolding() bool {
	for _, s := range HoldingStatuses {
		if r.Status == s {
			return true
		}
	}
	return false
}
