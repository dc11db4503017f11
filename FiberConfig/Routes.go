package FiberConfig

import (
	"errors"
	"log"

	"Attendance/Controllers"
	"Attendance/CronJobs"
	"Attendance/Services"
	"Attendance/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Dependencies is everything the HTTP layer needs.
type Dependencies struct {
	Attendance *Services.AttendanceService
	LeaveTypes *Services.LeaveTypeService
	Leaves     *Services.LeaveService
	Settings   *Services.SettingsService
	Sync       *CronJobs.SyncJob // nil when no endpoint is configured

	JWTSecret      string
	RequestLogFile string
	ErrorLogFile   string
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	// Initialize handlers
	attendanceController := Controllers.NewAttendanceController(deps.Attendance)
	leaveTypeController := Controllers.NewLeaveTypeController(deps.LeaveTypes, deps.Leaves)
	leaveController := Controllers.NewLeaveController(deps.Leaves)
	settingsController := Controllers.NewSettingsController(deps.Settings)
	sessionController := Controllers.NewSessionController(deps.Settings, deps.JWTSecret)
	reportController := Controllers.NewReportController(deps.Attendance, deps.Leaves)
	syncController := Controllers.NewSyncController(deps.Sync)
	logsController := Controllers.NewLogsController(deps.RequestLogFile)

	verify := middleware.Verify(deps.JWTSecret)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API group
	api := app.Group("/api")
	api.Post("/session", sessionController.Login)
	api.Delete("/session", sessionController.Logout)

	// Attendance routes
	attendance := api.Group("/attendance", verify)
	attendance.Get("/", attendanceController.GetAttendance)
	attendance.Post("/", attendanceController.CreateAttendance)
	attendance.Post("/check-in", attendanceController.CheckIn)
	attendance.Post("/check-out", attendanceController.CheckOut)
	attendance.Post("/mark/:type", attendanceController.Mark)
	attendance.Get("/summary", attendanceController.GetSummary)
	attendance.Get("/:id", attendanceController.GetAttendanceByID)
	attendance.Put("/:id", attendanceController.UpdateAttendance)
	attendance.Delete("/:id", attendanceController.DeleteAttendance)

	// Leave type routes
	leaveTypes := api.Group("/leave-types", verify)
	leaveTypes.Get("/", leaveTypeController.GetLeaveTypes)
	leaveTypes.Post("/", leaveTypeController.CreateLeaveType)
	leaveTypes.Get("/:id", leaveTypeController.GetLeaveType)
	leaveTypes.Put("/:id", leaveTypeController.UpdateLeaveType)
	leaveTypes.Delete("/:id", leaveTypeController.DeleteLeaveType)
	leaveTypes.Get("/:id/remaining", leaveTypeController.GetRemaining)

	// Leave routes
	leaves := api.Group("/leaves", verify)
	leaves.Get("/", leaveController.GetLeaves)
	leaves.Post("/", leaveController.CreateLeave)
	leaves.Post("/apply", leaveController.ApplyLeave)
	leaves.Get("/:id", leaveController.GetLeave)
	leaves.Put("/:id", leaveController.UpdateLeave)
	leaves.Delete("/:id", leaveController.DeleteLeave)
	leaves.Post("/:id/approve", leaveController.ApproveLeave)

	// Settings routes
	api.Get("/settings", verify, settingsController.GetKeys)
	api.Get("/settings/:key", verify, settingsController.GetSetting)
	api.Put("/settings/:key", verify, settingsController.PutSetting)
	api.Delete("/settings/:key", verify, settingsController.DeleteSetting)
	api.Get("/profile", verify, settingsController.GetProfile)
	api.Put("/profile", verify, settingsController.PutProfile)
	api.Put("/pin", verify, settingsController.PutPIN)

	api.Get("/reports/attendance.xlsx", verify, reportController.ExportAttendance)
	api.Get("/sync", verify, syncController.GetSyncStatus)
	api.Post("/sync", verify, syncController.RunSync)

	// Logs API routes
	api.Get("/logs", verify, logsController.GetLogs)

	// WebSocket
	ws := app.Group("/ws", Controllers.UpgradeOnly, verify)
	ws.Get("/attendance", Controllers.Stream("attendance", deps.Attendance.Watch))
	ws.Get("/leaves", Controllers.Stream("leaves", deps.Leaves.Watch))
	ws.Get("/leave-types", Controllers.Stream("leave types", deps.LeaveTypes.Watch))
}

// New builds the fiber app with the middleware stack and all routes.
func New(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Attendance",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	if deps.RequestLogFile != "" {
		app.Use(middleware.RequestLogger(deps.RequestLogFile))
	}
	if deps.ErrorLogFile != "" {
		app.Use(middleware.ErrorLogger(deps.ErrorLogFile))
	}
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		MaxAge:       300, // Max age for preflight requests caching (5 minutes)
	}))

	SetupRoutes(app, deps)
	return app
}

// errorHandler answers fiber errors with the same {"error": ...} body as the
// controllers.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		log.Printf("Unhandled error on %s %s: %v\n", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
