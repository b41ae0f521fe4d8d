package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"pms-backend/models"
	"pms-backend/utils"
)

// ChannelService manages channel connections and their room-type mappings.
type ChannelService struct {
	DB *gorm.DB
}

func NewChannelService(db *gorm.DB) *ChannelService {
	return &ChannelService{DB: db}
}

func (s *ChannelService) CreateConnection(conn *models.ChannelConnection) error {
	conn.Name = strings.TrimSpace(conn.Name)
	if conn.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if err := s.DB.Create(conn).Error; err != nil {
		return fmt.Errorf("failed to create channel connection: %w", err)
	}
	return nil
}

func (s *ChannelService) ListConnections() ([]models.ChannelConnection, error) {
	var list []models.ChannelConnection
	if err := s.DB.Preload("Mappings").Order("name ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list channel connections: %w", err)
	}
	return list, nil
}

func (s *ChannelService) SetConnectionActive(id uint, active bool) error {
	result := s.DB.Model(&models.ChannelConnection{}).Where("id = ?", id).Update("active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update channel connection %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMappingNotFound
	}
	return nil
}

// CreateMapping links a room type to a channel calendar and mints the
// export token. There is no in-place token rotation: rotating means
// deleting the mapping and creating a new one.
func (s *ChannelService) CreateMapping(connectionID, roomTypeID uint, importURL string) (*models.ChannelRoomMapping, error) {
	if connectionID == 0 {
		return nil, &ValidationError{Field: "channel_connection_id", Reason: "required"}
	}
	if roomTypeID == 0 {
		return nil, &ValidationError{Field: "room_type_id", Reason: "required"}
	}

	var conn models.ChannelConnection
	if err := s.DB.First(&conn, connectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMappingNotFound
		}
		return nil, fmt.Errorf("failed to load channel connection %d: %w", connectionID, err)
	}
	var roomType models.RoomType
	if err := s.DB.First(&roomType, roomTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to load room type %d: %w", roomTypeID, err)
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate export token: %w", err)
	}

	mapping := models.ChannelRoomMapping{
		ChannelConnectionID: connectionID,
		RoomTypeID:          roomTypeID,
		ImportURL:           strings.TrimSpace(importURL),
		ExportToken:         token,
		SyncStatus:          models.SyncPending,
	}
	if err := s.DB.Create(&mapping).Error; err != nil {
		return nil, fmt.Errorf("failed to create channel mapping: %w", err)
	}
	mapping.Connection = conn
	mapping.RoomType = roomType
	return &mapping, nil
}

func (s *ChannelService) ListMappings() ([]models.ChannelRoomMapping, error) {
	var list []models.ChannelRoomMapping
	if err := s.DB.Preload("Connection").Preload("RoomType").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list channel mappings: %w", err)
	}
	return list, nil
}

// DeleteMapping removes a mapping and cancels the holds it imported, so the
// external channel's busy periods stop blocking rooms once the link is gone.
func (s *ChannelService) DeleteMapping(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var mapping models.ChannelRoomMapping
		if err := tx.First(&mapping, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMappingNotFound
			}
			return err
		}
		if err := tx.Model(&models.Reservation{}).
			Where("channel_mapping_id = ? AND status IN ?", id, models.HoldingStatuses).
			Update("status", models.StatusCancelled).Error; err != nil {
			return err
		}
		return tx.Delete(&mapping).Error
	})
}
