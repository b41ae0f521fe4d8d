package models

import (
	"time"

	"gorm.io/gorm"
)

// Sync statuses for a channel room mapping.
const (
	SyncPending = "pending"
	SyncSuccess = "success"
	SyncError   = "error"
)

// ChannelRoomMapping links a room type to one channel calendar. ImportURL is
// pulled for busy periods; ExportToken keys the public pull-feed URL. The
// token is a capability: rotating it means deleting and recreating the
// mapping.
type ChannelRoomMapping struct {
	gorm.Model

	ChannelConnectionID uint `gorm:"index;column:channel_connection_id" json:"channelConnectionId"`
	RoomTypeID          uint `gorm:"index;column:room_type_id" json:"roomTypeId"`

	ImportURL   string `gorm:"column:import_url;size:1024" json:"importUrl"`
	ExportToken string `gorm:"column:export_token;size:128;uniqueIndex" json:"exportToken"`

	SyncStatus   string     `gorm:"column:sync_status;size:16;default:pending" json:"syncStatus"`
	SyncError    string     `gorm:"column:sync_error;size:1024" json:"syncError,omitempty"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"lastSyncedAt,omitempty"`

	Connection ChannelConnection `gorm:"foreignKey:ChannelConnectionID;references:ID" json:"connection,omitempty"`
	RoomType   RoomType          `gorm:"foreignKey:RoomTypeID;references:ID" json:"roomType,omitempty"`
}
