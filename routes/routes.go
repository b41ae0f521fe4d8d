package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pms-backend/controllers"
	"pms-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SetupRouter wires the controller instances onto the HTTP surface.
func SetupRouter(
	ac *controllers.AvailabilityController,
	rc *controllers.ReservationController,
	gc *controllers.GroupBookingController,
	cc *controllers.ChannelController,
	roomCtrl *controllers.RoomController,
	typeCtrl *controllers.RoomTypeController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public pull feed for external channels; the token is the credential.
	r.GET("/export", cc.ExportFeed)

	api := r.Group("/api")
	{
		api.POST("/sync-channels", cc.SyncChannels)

		availability := api.Group("/availability")
		{
			availability.GET("", ac.CheckAvailability)
			availability.GET("/count", ac.CountAvailable)
		}

		reservations := api.Group("/reservations")
		{
			reservations.GET("", rc.GetReservations)
			reservations.POST("", rc.CreateReservation)
			reservations.POST("/group", gc.CreateGroup)
			reservations.GET("/:id", rc.GetReservation)
			reservations.POST("/:id/checkin", rc.CheckIn)
			reservations.POST("/:id/checkout", rc.CheckOut)
			reservations.POST("/:id/cancel", rc.Cancel)
		}

		groups := api.Group("/groups")
		{
			groups.GET("/:groupId", gc.GetGroup)
			groups.POST("/:groupId/checkout", gc.GroupCheckOut)
		}

		channels := api.Group("/channels")
		{
			channels.GET("", cc.GetConnections)
			channels.POST("", cc.CreateConnection)
			// mappings listing must come before /:id routes
			channels.GET("/mappings", cc.GetMappings)
			channels.DELETE("/mappings/:id", cc.DeleteMapping)
			channels.PATCH("/:id", cc.UpdateConnection)
			channels.POST("/:id/mappings", cc.CreateMapping)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", roomCtrl.GetRooms)
			rooms.POST("", roomCtrl.CreateRoom)
			rooms.GET("/:id", roomCtrl.GetRoom)
			rooms.PATCH("/:id", roomCtrl.UpdateRoom)
			rooms.PUT("/:id", roomCtrl.UpdateRoom)
			rooms.DELETE("/:id", roomCtrl.DeleteRoom)
		}

		roomTypes := api.Group("/room-types")
		{
			roomTypes.GET("", typeCtrl.GetRoomTypes)
			roomTypes.POST("", typeCtrl.CreateRoomType)
			roomTypes.DELETE("/:id", typeCtrl.DeleteRoomType)
		}
	}

	return r
}
