package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pms-backend/services"
	"pms-backend/utils"
)

// CreateReservationRequest is the single-room booking payload.
type CreateReservationRequest struct {
	RoomID     uint    `json:"room_id" binding:"required"`
	GuestName  string  `json:"guest_name" binding:"required"`
	GuestEmail string  `json:"guest_email"`
	GuestPhone string  `json:"guest_phone"`
	CheckIn    string  `json:"check_in" binding:"required"`
	CheckOut   string  `json:"check_out" binding:"required"`
	Source     string  `json:"source"`
	Status     string  `json:"status"`
	Subtotal   float64 `json:"subtotal"`
}

func (r CreateReservationRequest) toDraft() (services.ReservationDraft, error) {
	checkIn, err := utils.ParseDate(r.CheckIn)
	if err != nil {
		return services.ReservationDraft{}, &services.ValidationError{Field: "check_in", Reason: "invalid date"}
	}
	checkOut, err := utils.ParseDate(r.CheckOut)
	if err != nil {
		return services.ReservationDraft{}, &services.ValidationError{Field: "check_out", Reason: "invalid date"}
	}
	return services.ReservationDraft{
		RoomID:     r.RoomID,
		GuestName:  r.GuestName,
		GuestEmail: r.GuestEmail,
		GuestPhone: r.GuestPhone,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Source:     r.Source,
		Status:     r.Status,
		Subtotal:   r.Subtotal,
	}, nil
}

type ReservationController struct {
	Reservations *services.ReservationService
}

func NewReservationController(svc *services.ReservationService) *ReservationController {
	return &ReservationController{Reservations: svc}
}

func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	res, err := rc.Reservations.Create(c.Request.Context(), draft)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, res)
}

func (rc *ReservationController) GetReservations(c *gin.Context) {
	list, err := rc.Reservations.ListVisible()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (rc *ReservationController) GetReservation(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	res, err := rc.Reservations.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}

func (rc *ReservationController) CheckIn(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	res, err := rc.Reservations.CheckIn(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}

func (rc *ReservationController) CheckOut(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	res, err := rc.Reservations.CheckOut(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}

func (rc *ReservationController) Cancel(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	res, err := rc.Reservations.Cancel(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}
