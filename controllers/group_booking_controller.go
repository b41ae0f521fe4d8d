package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pms-backend/services"
	"pms-backend/utils"
)

// CreateGroupRequest is the multi-room booking payload: one line per room,
// one billing contact and one set of aggregated charges for the group.
type CreateGroupRequest struct {
	Lines          []CreateReservationRequest `json:"lines" binding:"required"`
	BillingContact services.BillingContact    `json:"billing_contact" binding:"required"`
	Charges        []services.Charge          `json:"charges"`
	Discount       float64                    `json:"discount"`
}

type GroupBookingController struct {
	Groups *services.GroupBookingService
}

func NewGroupBookingController(svc *services.GroupBookingService) *GroupBookingController {
	return &GroupBookingController{Groups: svc}
}

func (gc *GroupBookingController) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	lines := make([]services.ReservationDraft, 0, len(req.Lines))
	for _, l := range req.Lines {
		draft, err := l.toDraft()
		if err != nil {
			respondServiceError(c, err)
			return
		}
		lines = append(lines, draft)
	}

	result, err := gc.Groups.CreateGroup(c.Request.Context(), lines, req.BillingContact, req.Charges, req.Discount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, result)
}

func (gc *GroupBookingController) GetGroup(c *gin.Context) {
	groupID := c.Param("groupId")
	if groupID == "" {
		utils.JSONError(c, http.StatusBadRequest, "groupId is required")
		return
	}
	result, err := gc.Groups.GetGroup(groupID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}

func (gc *GroupBookingController) GroupCheckOut(c *gin.Context) {
	groupID := c.Param("groupId")
	if groupID == "" {
		utils.JSONError(c, http.StatusBadRequest, "groupId is required")
		return
	}
	result, err := gc.Groups.GroupCheckOut(c.Request.Context(), groupID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}
