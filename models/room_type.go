package models

import (
	"time"

	"gorm.io/gorm"
)

type RoomType struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TypeName    string  `json:"typeName" gorm:"size:100"`
	Description string  `json:"description"`
	MaxGuests   uint    `json:"maxGuests"`
	BasePrice   float64 `json:"basePrice" gorm:"column:base_price"`

	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
