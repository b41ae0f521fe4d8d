package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pms-backend/models"
	"pms-backend/services"
	"pms-backend/utils"
)

type RoomTypeController struct {
	RoomTypes *services.RoomTypeService
}

func NewRoomTypeController(svc *services.RoomTypeService) *RoomTypeController {
	return &RoomTypeController{RoomTypes: svc}
}

func (tc *RoomTypeController) CreateRoomType(c *gin.Context) {
	var rt models.RoomType
	if err := c.ShouldBindJSON(&rt); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if rt.TypeName == "" {
		utils.JSONError(c, http.StatusBadRequest, "typeName is required")
		return
	}
	if err := tc.RoomTypes.Create(&rt); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, rt)
}

func (tc *RoomTypeController) GetRoomTypes(c *gin.Context) {
	types, err := tc.RoomTypes.GetAll()
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, types)
}

func (tc *RoomTypeController) DeleteRoomType(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := tc.RoomTypes.Delete(id); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}
