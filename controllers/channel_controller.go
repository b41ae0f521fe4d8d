package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"pms-backend/models"
	"pms-backend/services"
	"pms-backend/utils"
)

type CreateConnectionRequest struct {
	Name     string         `json:"name" binding:"required"`
	Active   *bool          `json:"active"`
	Settings datatypes.JSON `json:"settings"`
}

type UpdateConnectionRequest struct {
	Active bool `json:"active"`
}

type CreateMappingRequest struct {
	ChannelConnectionID uint   `json:"channel_connection_id" binding:"required"`
	RoomTypeID          uint   `json:"room_type_id" binding:"required"`
	ImportURL           string `json:"import_url"`
}

type ChannelController struct {
	Channels *services.ChannelService
	Sync     *services.ChannelSyncService
}

func NewChannelController(channels *services.ChannelService, sync *services.ChannelSyncService) *ChannelController {
	return &ChannelController{Channels: channels, Sync: sync}
}

func (cc *ChannelController) CreateConnection(c *gin.Context) {
	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	conn := models.ChannelConnection{
		Name:     req.Name,
		Active:   true,
		Settings: req.Settings,
	}
	if req.Active != nil {
		conn.Active = *req.Active
	}
	if err := cc.Channels.CreateConnection(&conn); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, conn)
}

func (cc *ChannelController) GetConnections(c *gin.Context) {
	list, err := cc.Channels.ListConnections()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (cc *ChannelController) UpdateConnection(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if err := cc.Channels.SetConnectionActive(id, req.Active); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id, "active": req.Active})
}

func (cc *ChannelController) CreateMapping(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req CreateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if req.ChannelConnectionID != id {
		utils.JSONError(c, http.StatusBadRequest, "channel_connection_id does not match route")
		return
	}
	mapping, err := cc.Channels.CreateMapping(req.ChannelConnectionID, req.RoomTypeID, req.ImportURL)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, mapping)
}

func (cc *ChannelController) GetMappings(c *gin.Context) {
	list, err := cc.Channels.ListMappings()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (cc *ChannelController) DeleteMapping(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := cc.Channels.DeleteMapping(id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}

// SyncChannels handles POST /sync-channels, used by both the UI "Sync All"
// action and an external scheduler. Safe to re-run at any time.
func (cc *ChannelController) SyncChannels(c *gin.Context) {
	summary := cc.Sync.SyncAll(c.Request.Context())
	utils.JSONSuccess(c, http.StatusOK, summary)
}

// ExportFeed handles GET /export?token=<exportToken>. The token is the only
// credential; there is no session on this endpoint because channels pull it.
func (cc *ChannelController) ExportFeed(c *gin.Context) {
	_, feed, err := cc.Sync.ExportFeed(c.Query("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.String(http.StatusOK, feed)
}
