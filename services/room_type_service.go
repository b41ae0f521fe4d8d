package services

import (
	"gorm.io/gorm"

	"pms-backend/models"
)

type RoomTypeService struct {
	DB *gorm.DB
}

func NewRoomTypeService(db *gorm.DB) *RoomTypeService {
	return &RoomTypeService{DB: db}
}

func (s *RoomTypeService) Create(rt *models.RoomType) error {
	return s.DB.Create(rt).Error
}

func (s *RoomTypeService) GetAll() ([]models.RoomType, error) {
	var types []models.RoomType
	err := s.DB.Order("id ASC").Find(&types).Error
	return types, err
}

func (s *RoomTypeService) Delete(id uint) error {
	return s.DB.Delete(&models.RoomType{}, id).Error
}
