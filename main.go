package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"Attendance/Config"
	"Attendance/CronJobs"
	"Attendance/FiberConfig"
	"Attendance/Models"
	"Attendance/Notifications"
	"Attendance/Services"
	"Attendance/Slack"
	"Attendance/Sync"

	"github.com/google/uuid"
)

func main() {
	cfg, err := Config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logDir := filepath.Join(cfg.DataDir, "logs")
	if cfg.LogToFile {
		setupLogging(logDir)
	}

	db, err := Models.Open(cfg.DatabaseFile, Models.NewGormLogger(Models.ParseLogLevel(cfg.LogLevel)))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	settings := Services.NewSettingsService(db)
	attendance := Services.NewAttendanceService(db)
	leaveTypes := Services.NewLeaveTypeService(db)
	leaves := Services.NewLeaveService(db, leaveTypes, Services.WithNotifier(buildNotifier(cfg, settings)))

	var syncJob *CronJobs.SyncJob
	if cfg.SyncEndpoint != "" {
		uploader := Sync.NewHTTPUploader(cfg.SyncEndpoint, cfg.SyncToken)
		syncJob = CronJobs.NewSyncJob(attendance, leaves, uploader, cfg.SyncSchedule, true)
		if err := syncJob.Start(); err != nil {
			log.Printf("Failed to start sync job: %v", err)
			syncJob = nil
		} else {
			fmt.Println("Sync job started")
		}
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
	}

	app := FiberConfig.New(FiberConfig.Dependencies{
		Attendance:     attendance,
		LeaveTypes:     leaveTypes,
		Leaves:         leaves,
		Settings:       settings,
		Sync:           syncJob,
		JWTSecret:      secret,
		RequestLogFile: filepath.Join(logDir, "requests.log"),
		ErrorLogFile:   filepath.Join(logDir, "errors.log"),
	})

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()
	fmt.Printf("Server Up on %s...\n", cfg.ListenAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	fmt.Println("Shutting down...")

	if syncJob != nil {
		syncJob.Stop()
	}
	// closing the services ends the websocket streams
	attendance.Close()
	leaveTypes.Close()
	leaves.Close()

	if err := app.Shutdown(); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	Models.Close(db)
}

// buildNotifier fans leave updates out to every configured channel.
func buildNotifier(cfg *Config.Config, settings *Services.SettingsService) Services.Notifier {
	var notifiers Notifications.Multi

	if cfg.FirebaseCredentials != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		client, err := Notifications.InitFirebase(ctx, cfg.FirebaseCredentials)
		cancel()
		if err != nil {
			log.Printf("Push notifications disabled: %v", err)
		} else {
			notifiers = append(notifiers, Notifications.NewPushNotifier(client, Notifications.SettingsToken(settings, cfg.FCMToken)))
		}
	}
	if cfg.SlackWebhookURL != "" {
		notifiers = append(notifiers, Slack.NewSlackNotifier(cfg.SlackWebhookURL, cfg.SlackChannel))
	}
	if cfg.Email.Enabled() && len(cfg.NotifyEmails) > 0 {
		notifiers = append(notifiers, Notifications.NewEmailNotifier(cfg.Email, cfg.NotifyEmails))
	}

	if len(notifiers) == 0 {
		return Services.NopNotifier{}
	}
	return notifiers
}

func setupLogging(dir string) {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}

	logFile, err := os.OpenFile(filepath.Join(dir, "application.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	// Redirect log output to the file
	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime)
}
