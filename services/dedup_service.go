package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"pms-backend/models"
	"pms-backend/utils"
)

// DedupService detects logically identical reservation records produced by
// retried network calls or concurrent tabs: same guest, same room, same
// normalized dates, different identifiers. The record with the most advanced
// lifecycle status stays visible; the loser is suppressed but kept as audit
// trail.
type DedupService struct {
	DB *gorm.DB
}

func NewDedupService(db *gorm.DB) *DedupService {
	return &DedupService{DB: db}
}

// normalizeGuestName lowercases and collapses whitespace so "  Ada
// Lovelace " and "ada lovelace" share a logical key.
func normalizeGuestName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Resolve runs the duplicate check for a freshly written reservation and
// returns the record that remains visible. Channel holds are external truth
// and never participate.
func (s *DedupService) Resolve(incoming *models.Reservation) (*models.Reservation, error) {
	if incoming.IsChannelHold() {
		return incoming, nil
	}

	var candidates []models.Reservation
	err := s.DB.
		Where("id <> ? AND room_id = ? AND suppressed = ?", incoming.ID, incoming.RoomID, false).
		Where("check_in = ? AND check_out = ?",
			utils.NormalizeDate(incoming.CheckIn), utils.NormalizeDate(incoming.CheckOut)).
		Find(&candidates).Error
	if err != nil {
		return incoming, fmt.Errorf("failed to load duplicate candidates: %w", err)
	}

	key := normalizeGuestName(incoming.GuestName)
	visible := incoming
	for i := range candidates {
		existing := &candidates[i]
		if existing.IsChannelHold() || normalizeGuestName(existing.GuestName) != key {
			continue
		}

		// The incoming record replaces the existing one only when it is
		// strictly further along the lifecycle; ties keep the older row.
		if models.StatusPrecedence(visible.Status) > models.StatusPrecedence(existing.Status) {
			if err := s.suppress(existing); err != nil {
				return visible, err
			}
		} else {
			if err := s.suppress(visible); err != nil {
				return visible, err
			}
			visible = existing
		}
	}
	return visible, nil
}

func (s *DedupService) suppress(res *models.Reservation) error {
	if err := s.DB.Model(&models.Reservation{}).
		Where("id = ?", res.ID).
		Update("suppressed", true).Error; err != nil {
		return fmt.Errorf("failed to suppress duplicate reservation %d: %w", res.ID, err)
	}
	res.Suppressed = true
	return nil
}
