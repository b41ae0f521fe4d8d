package models

import (
	"gorm.io/gorm"
)

// Room operational statuses. Mutated by check-in/check-out and housekeeping;
// the availability engine treats maintenance as an unconditional veto.
const (
	RoomAvailable   = "available"
	RoomOccupied    = "occupied"
	RoomCleaning    = "cleaning"
	RoomMaintenance = "maintenance"
)

type Room struct {
	gorm.Model

	RoomTypeID *uint  `json:"roomTypeId,omitempty" gorm:"column:room_type_id;index"`
	RoomNumber string `json:"roomNumber" gorm:"column:room_number;uniqueIndex;type:varchar(50)"`

	Status      string  `json:"status" gorm:"size:32;default:available"`
	Floor       string  `json:"floor" gorm:"type:varchar(10)"`
	Price       float64 `json:"price"`
	Description string  `json:"description" gorm:"type:text"`

	RoomType RoomType `gorm:"foreignKey:RoomTypeID" json:"roomType,omitempty"`
}
