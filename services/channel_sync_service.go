package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"gorm.io/gorm"

	"pms-backend/models"
	"pms-backend/utils"
)

const maxFeedBytes = 5 << 20

// SyncResult is one mapping's outcome for a sync run.
type SyncResult struct {
	MappingID   uint   `json:"mappingId"`
	Channel     string `json:"channel"`
	EventsFound int    `json:"eventsFound"`
	Created     int    `json:"created"`
	Updated     int    `json:"updated"`
	Cancelled   int    `json:"cancelled"`
	Error       string `json:"error,omitempty"`
}

// SyncSummary aggregates a full sync run across mappings.
type SyncSummary struct {
	Synced  int          `json:"synced"`
	Failed  int          `json:"failed"`
	Results []SyncResult `json:"results"`
}

// ChannelSyncService reconciles internal availability with external
// distribution channels. Import pulls each mapping's calendar feed and
// upserts busy periods as channel-hold reservations; export serves local
// busy intervals as a calendar feed keyed by an unguessable token.
//
// Different mappings may sync in parallel; within one mapping overlapping
// syncs are serialized by a mapping-level lock so two fetches cannot race to
// upsert the same external event.
type ChannelSyncService struct {
	DB     *gorm.DB
	Client *http.Client

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewChannelSyncService(db *gorm.DB) *ChannelSyncService {
	return &ChannelSyncService{
		DB:     db,
		Client: &http.Client{Timeout: 15 * time.Second},
		locks:  map[uint]*sync.Mutex{},
	}
}

func (s *ChannelSyncService) lockFor(mappingID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[mappingID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[mappingID] = l
	}
	return l
}

// SyncAll imports every active mapping of every active channel. One
// mapping's failure never aborts the others; each mapping's sync status and
// timestamp are updated independently.
func (s *ChannelSyncService) SyncAll(ctx context.Context) SyncSummary {
	var mappings []models.ChannelRoomMapping
	err := s.DB.
		Preload("Connection").
		Joins("JOIN channel_connections ON channel_connections.id = channel_room_mappings.channel_connection_id").
		Where("channel_connections.active = ? AND channel_connections.deleted_at IS NULL", true).
		Find(&mappings).Error
	if err != nil {
		log.Printf("channel sync: failed to load mappings: %v", err)
		return SyncSummary{}
	}

	summary := SyncSummary{Results: make([]SyncResult, 0, len(mappings))}
	for i := range mappings {
		result, err := s.SyncMapping(ctx, &mappings[i])
		if err != nil {
			summary.Failed++
		} else {
			summary.Synced++
		}
		summary.Results = append(summary.Results, result)
	}
	return summary
}

// SyncMapping imports one mapping's feed. Idempotent: re-running against an
// unchanged feed creates no new rows; last_synced_at records the latest
// successful attempt only. Errors are recorded on the mapping and retried on
// the next sync invocation, never in a tight loop.
func (s *ChannelSyncService) SyncMapping(ctx context.Context, mapping *models.ChannelRoomMapping) (SyncResult, error) {
	lock := s.lockFor(mapping.ID)
	lock.Lock()
	defer lock.Unlock()

	result := SyncResult{MappingID: mapping.ID, Channel: mapping.Connection.Name}

	err := s.importFeed(ctx, mapping, &result)
	if err != nil {
		wrapped := &SyncMappingError{MappingID: mapping.ID, Channel: mapping.Connection.Name, Err: err}
		result.Error = wrapped.Error()
		if dbErr := s.DB.Model(mapping).Updates(map[string]interface{}{
			"sync_status": models.SyncError,
			"sync_error":  err.Error(),
		}).Error; dbErr != nil {
			log.Printf("channel sync: failed to record error on mapping %d: %v", mapping.ID, dbErr)
		}
		return result, wrapped
	}

	now := time.Now().UTC()
	if dbErr := s.DB.Model(mapping).Updates(map[string]interface{}{
		"sync_status":    models.SyncSuccess,
		"sync_error":     "",
		"last_synced_at": now,
	}).Error; dbErr != nil {
		log.Printf("channel sync: failed to record success on mapping %d: %v", mapping.ID, dbErr)
	}
	return result, nil
}

func (s *ChannelSyncService) importFeed(ctx context.Context, mapping *models.ChannelRoomMapping, result *SyncResult) error {
	if mapping.ImportURL == "" {
		// Export-only mapping; nothing to pull.
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mapping.ImportURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return fmt.Errorf("read feed: %w", err)
	}
	feedEvents, err := utils.ParseCalendar(string(body))
	if err != nil {
		return fmt.Errorf("parse feed: %w", err)
	}
	result.EventsFound = len(feedEvents)

	var existing []models.Reservation
	if err := s.DB.Where("channel_mapping_id = ?", mapping.ID).Find(&existing).Error; err != nil {
		return fmt.Errorf("load existing holds: %w", err)
	}
	byRef := make(map[string]*models.Reservation, len(existing))
	for i := range existing {
		byRef[existing[i].ExternalRef] = &existing[i]
	}

	seen := make(map[string]bool, len(feedEvents))
	for _, ev := range feedEvents {
		seen[ev.UID] = true
		if hold, ok := byRef[ev.UID]; ok {
			if err := s.updateHold(hold, ev); err != nil {
				return err
			}
			result.Updated++
			continue
		}
		if err := s.createHold(mapping, ev); err != nil {
			return err
		}
		result.Created++
	}

	// External events that disappeared from the feed release their holds.
	for i := range existing {
		if seen[existing[i].ExternalRef] || existing[i].Status == models.StatusCancelled {
			continue
		}
		if err := s.DB.Model(&models.Reservation{}).
			Where("id = ?", existing[i].ID).
			Update("status", models.StatusCancelled).Error; err != nil {
			return fmt.Errorf("release stale hold %d: %w", existing[i].ID, err)
		}
		result.Cancelled++
	}
	return nil
}

// updateHold refreshes an already-imported hold in place. The stable
// external UID is what makes repeated syncs update rather than duplicate.
func (s *ChannelSyncService) updateHold(hold *models.Reservation, ev utils.CalendarEvent) error {
	checkIn := utils.NormalizeDate(ev.Start)
	checkOut := utils.NormalizeDate(ev.End)

	updates := map[string]interface{}{}
	if !hold.CheckIn.Equal(checkIn) {
		updates["check_in"] = checkIn
	}
	if !hold.CheckOut.Equal(checkOut) {
		updates["check_out"] = checkOut
	}
	if hold.Status == models.StatusCancelled {
		// The event came back after disappearing; re-arm the hold.
		updates["status"] = models.StatusConfirmed
	}
	if len(updates) == 0 {
		return nil
	}
	updates["nights"] = utils.Nights(checkIn, checkOut)
	if err := s.DB.Model(&models.Reservation{}).Where("id = ?", hold.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update hold %d: %w", hold.ID, err)
	}
	return nil
}

func (s *ChannelSyncService) createHold(mapping *models.ChannelRoomMapping, ev utils.CalendarEvent) error {
	roomID, err := s.pickRoom(mapping.RoomTypeID, ev.Start, ev.End)
	if err != nil {
		return err
	}

	ref, err := utils.GenerateReferenceCode(8)
	if err != nil {
		return fmt.Errorf("generate reference: %w", err)
	}

	checkIn := utils.NormalizeDate(ev.Start)
	checkOut := utils.NormalizeDate(ev.End)
	mappingID := mapping.ID
	hold := models.Reservation{
		RoomID:           roomID,
		GuestName:        "Channel hold",
		ReferenceCode:    "CH-" + ref,
		Status:           models.StatusConfirmed,
		Source:           models.ChannelSource(mapping.Connection.Name),
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Nights:           utils.Nights(checkIn, checkOut),
		ChannelMappingID: &mappingID,
		ExternalRef:      ev.UID,
	}
	if err := s.DB.Create(&hold).Error; err != nil {
		return fmt.Errorf("create hold for event %s: %w", ev.UID, err)
	}
	return nil
}

// pickRoom assigns an imported busy period to a concrete room of the mapped
// type: the first room (stable room-number order) free for the interval,
// falling back to the first room so the contention is visible to the
// conflict resolver rather than dropped.
func (s *ChannelSyncService) pickRoom(roomTypeID uint, start, end time.Time) (uint, error) {
	var rooms []models.Room
	if err := s.DB.
		Where("room_type_id = ?", roomTypeID).
		Order("room_number ASC").
		Find(&rooms).Error; err != nil {
		return 0, fmt.Errorf("load rooms for type %d: %w", roomTypeID, err)
	}
	if len(rooms) == 0 {
		return 0, fmt.Errorf("no rooms mapped for room type %d", roomTypeID)
	}

	for i := range rooms {
		var overlapping int64
		err := s.DB.Model(&models.Reservation{}).
			Where("room_id = ? AND suppressed = ? AND status IN ?", rooms[i].ID, false, models.HoldingStatuses).
			Where("check_in < ? AND check_out > ?", utils.NormalizeDate(end), utils.NormalizeDate(start)).
			Count(&overlapping).Error
		if err != nil {
			return 0, fmt.Errorf("check room %d: %w", rooms[i].ID, err)
		}
		if overlapping == 0 {
			return rooms[i].ID, nil
		}
	}
	return rooms[0].ID, nil
}

// ExportFeed serves the busy intervals for the room type behind an export
// token. Busy intervals only, no guest PII; holds imported through this same
// mapping are excluded so a channel never sees its own events echoed back.
func (s *ChannelSyncService) ExportFeed(token string) (string, string, error) {
	if token == "" {
		return "", "", &ValidationError{Field: "token", Reason: "required"}
	}

	var mapping models.ChannelRoomMapping
	err := s.DB.
		Preload("Connection").
		Preload("RoomType").
		Where("export_token = ?", token).
		First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrMappingNotFound
		}
		return "", "", fmt.Errorf("failed to resolve export token: %w", err)
	}

	var roomIDs []uint
	if err := s.DB.Model(&models.Room{}).
		Where("room_type_id = ?", mapping.RoomTypeID).
		Pluck("id", &roomIDs).Error; err != nil {
		return "", "", fmt.Errorf("failed to load rooms: %w", err)
	}

	var busy []models.Reservation
	if len(roomIDs) > 0 {
		err = s.DB.
			Where("room_id IN ? AND suppressed = ? AND status IN ?", roomIDs, false, models.HoldingStatuses).
			Where("channel_mapping_id IS NULL OR channel_mapping_id <> ?", mapping.ID).
			Order("check_in ASC").
			Find(&busy).Error
		if err != nil {
			return "", "", fmt.Errorf("failed to load busy intervals: %w", err)
		}
	}

	feedEvents := make([]utils.CalendarEvent, 0, len(busy))
	for i := range busy {
		feedEvents = append(feedEvents, utils.CalendarEvent{
			UID:     fmt.Sprintf("res-%d@pms-backend", busy[i].ID),
			Summary: "Unavailable",
			Start:   busy[i].CheckIn,
			End:     busy[i].CheckOut,
		})
	}

	name := mapping.Connection.Name + " / " + mapping.RoomType.TypeName
	return name, utils.BuildCalendar(name, feedEvents), nil
}
