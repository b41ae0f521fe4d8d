package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pms-backend/config"
	"pms-backend/controllers"
	"pms-backend/events"
	"pms-backend/routes"
	"pms-backend/services"
)

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	// Connect database (config.ConnectDatabase should set config.DB)
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	db := config.DB
	if db == nil {
		log.Fatal("❌ config.DB is nil after ConnectDatabase()")
	}
	log.Println("✅ Database connection established and migrations applied")

	publisher := events.NewPublisherFromEnv()

	// Initialize services
	availabilityService := services.NewAvailabilityService(db)
	dedupService := services.NewDedupService(db)
	reservationService := services.NewReservationService(db, availabilityService, dedupService, publisher)
	groupBookingService := services.NewGroupBookingService(db, availabilityService, publisher)
	channelService := services.NewChannelService(db)
	channelSyncService := services.NewChannelSyncService(db)
	roomService := services.NewRoomService(db)
	roomTypeService := services.NewRoomTypeService(db)

	// Initialize controllers
	availabilityController := controllers.NewAvailabilityController(availabilityService)
	reservationController := controllers.NewReservationController(reservationService)
	groupBookingController := controllers.NewGroupBookingController(groupBookingService)
	channelController := controllers.NewChannelController(channelService, channelSyncService)
	roomController := controllers.NewRoomController(roomService)
	roomTypeController := controllers.NewRoomTypeController(roomTypeService)

	// Build router
	router := routes.SetupRouter(
		availabilityController,
		reservationController,
		groupBookingController,
		channelController,
		roomController,
		roomTypeController,
	)

	// Port from env (prefer), fallback to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
		// useful timeouts
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
