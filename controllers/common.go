package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pms-backend/services"
)

// respondServiceError maps engine errors onto HTTP responses. Internal
// double-bookings and channel conflicts share a status code but carry
// different error codes, because the operator remediation differs.
func respondServiceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.validation", "message": ve.Error()},
		})
		return
	}

	var pgf *services.PartialGroupFailure
	if errors.As(err, &pgf) {
		c.JSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":             "error.partialGroupFailure",
				"message":          pgf.Error(),
				"groupId":          pgf.GroupID,
				"failedRoom":       pgf.FailedRoom,
				"committedRooms":   pgf.CommittedRooms,
				"compensatedRooms": pgf.CompensatedRooms,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAvailabilityConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": gin.H{"code": "error.availabilityConflict", "message": "room is not available for the requested dates"},
		})
	case errors.Is(err, services.ErrChannelConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": gin.H{"code": "error.channelConflict", "message": "an external channel holds the room for the requested dates"},
		})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": gin.H{"code": "error.invalidTransition", "message": "reservation status cannot move that way"},
		})
	case errors.Is(err, services.ErrGroupNotReady):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": gin.H{"code": "error.groupNotReady", "message": "all group members must be checked in first"},
		})
	case errors.Is(err, services.ErrRoomNotFound),
		errors.Is(err, services.ErrReservationNotFound),
		errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrMappingNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "error.notFound", "message": err.Error()},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": "error.internal", "message": err.Error()},
		})
	}
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "error.invalidId", "message": "invalid " + name},
		})
		return 0, false
	}
	return uint(id), true
}
