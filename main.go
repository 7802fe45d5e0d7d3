package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visadesk-backend/config"
	"visadesk-backend/controllers"
	"visadesk-backend/models"
	"visadesk-backend/routes"
	"visadesk-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.InitLogger(cfg)
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)

	if err := config.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := config.DB.AutoMigrate(
		&models.Agency{},
		&models.User{},
		&models.Client{},
		&models.PriceItem{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.Appointment{},
		&models.Document{},
		&models.Case{},
		&models.ReminderTemplate{},
		&models.ReminderLog{},
	); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	var reminderService *services.ReminderService
	if cfg.TwilioEnabled() {
		reminderService = services.NewReminderService(
			config.DB,
			services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken),
			services.ReminderConfig{
				Schedule:             cfg.ReminderSchedule,
				SMSFrom:              cfg.TwilioPhoneNumber,
				WhatsAppFrom:         cfg.TwilioWhatsAppNumber,
				VisaExpiryWindowDays: cfg.VisaExpiryWindowDays,
			},
			logger.Named("reminders"),
		)
		if err := reminderService.StartScheduler(); err != nil {
			logger.Fatal("Failed to start reminder scheduler", zap.Error(err))
		}
		defer reminderService.StopScheduler()
	} else {
		logger.Warn("Twilio credentials not set, reminders are disabled")
	}

	router := routes.SetupRouter(routes.Handlers{
		Import: controllers.NewImportController(
			services.NewGormClientStore(config.DB),
			logger.Named("import"),
			int64(cfg.ImportMaxUploadMB)<<20,
		),
		Reminders: &controllers.ReminderController{Service: reminderService},
	})
	if cfg.GinMode == gin.DebugMode {
		printRoutes(router)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
