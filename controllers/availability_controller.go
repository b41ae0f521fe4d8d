package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pms-backend/services"
	"pms-backend/utils"
)

type AvailabilityController struct {
	Availability *services.AvailabilityService
}

func NewAvailabilityController(svc *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{Availability: svc}
}

// CheckAvailability handles GET /api/availability?room_id&check_in&check_out.
// The answer is advisory: failures read as unavailable, never as free.
func (ac *AvailabilityController) CheckAvailability(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Query("room_id"), 10, 32)
	if err != nil || roomID == 0 {
		utils.JSONError(c, http.StatusBadRequest, "room_id is required")
		return
	}
	checkIn, err := utils.ParseDate(c.Query("check_in"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid check_in date")
		return
	}
	checkOut, err := utils.ParseDate(c.Query("check_out"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid check_out date")
		return
	}

	available := ac.Availability.IsAvailable(uint(roomID), checkIn, checkOut, nil)
	utils.JSONSuccess(c, http.StatusOK, gin.H{"available": available})
}

// CountAvailable handles GET /api/availability/count?room_type_id[&check_in&check_out].
// Without a range the count reflects rooms free right now.
func (ac *AvailabilityController) CountAvailable(c *gin.Context) {
	roomTypeID, err := strconv.ParseUint(c.Query("room_type_id"), 10, 32)
	if err != nil || roomTypeID == 0 {
		utils.JSONError(c, http.StatusBadRequest, "room_type_id is required")
		return
	}

	var checkIn, checkOut *time.Time
	if ci := c.Query("check_in"); ci != "" {
		t, err := utils.ParseDate(ci)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid check_in date")
			return
		}
		checkIn = &t
	}
	if co := c.Query("check_out"); co != "" {
		t, err := utils.ParseDate(co)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid check_out date")
			return
		}
		checkOut = &t
	}

	count := ac.Availability.CountAvailable(uint(roomTypeID), checkIn, checkOut)
	utils.JSONSuccess(c, http.StatusOK, gin.H{"count": count})
}
