package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChannelConnection is one external distribution channel (OTA) the property
// syncs with. One row per channel; the per-room-type calendars hang off it
// as ChannelRoomMapping rows.
type ChannelConnection struct {
	gorm.Model

	Name   string `gorm:"size:100;uniqueIndex" json:"name"`
	Active bool   `gorm:"default:true" json:"active"`

	// Free-form per-channel sync settings, opaque to the engine.
	Settings datatypes.JSON `json:"settings,omitempty"`

	Mappings []ChannelRoomMapping `gorm:"foreignKey:ChannelConnectionID" json:"mappings,omitempty"`
}
