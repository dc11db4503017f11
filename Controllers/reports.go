package Controllers

import (
	"errors"
	"fmt"
	"time"

	"Attendance/CronJobs"
	"Attendance/Models"
	"Attendance/Reports"
	"Attendance/Services"

	"github.com/gofiber/fiber/v2"
)

// ReportController serves spreadsheet exports
type ReportController struct {
	Attendance *Services.AttendanceService
	Leaves     *Services.LeaveService
	Now        func() time.Time
}

func NewReportController(attendance *Services.AttendanceService, leaves *Services.LeaveService) *ReportController {
	return &ReportController{Attendance: attendance, Leaves: leaves, Now: time.Now}
}

// ExportAttendance downloads marks, daily summary and leaves of the from/to
// range as an xlsx file.
func (c *ReportController) ExportAttendance(ctx *fiber.Ctx) error {
	now := c.Now()
	from, to, err := dateRange(ctx, now, monthStart(now))
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	recs, err := c.Attendance.ListBetween(ctx.UserContext(), from, to)
	if err != nil {
		return respondError(ctx, err)
	}
	leaves, err := c.Leaves.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err)
	}
	inRange := make([]Models.Leave, 0, len(leaves))
	for _, l := range leaves {
		if !l.AppliedAt.Before(from) && l.AppliedAt.Before(to) {
			inRange = append(inRange, l)
		}
	}

	excelBuffer, err := Reports.BuildAttendanceWorkbook(Reports.Workbook{
		Attendance: recs,
		Days:       Services.Summarize(recs, from.Location()),
		Leaves:     inRange,
		Location:   from.Location(),
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to build Excel file: %v", err),
		})
	}

	filename := fmt.Sprintf("attendance_%s_%s.xlsx", from.Format("20060102"), to.AddDate(0, 0, -1).Format("20060102"))
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(excelBuffer.Bytes())
}

// SyncController exposes the upload job
type SyncController struct {
	Job *CronJobs.SyncJob
}

func NewSyncController(job *CronJobs.SyncJob) *SyncController {
	return &SyncController{Job: job}
}

// RunSync uploads pending records now.
func (c *SyncController) RunSync(ctx *fiber.Ctx) error {
	if c.Job == nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Sync is not configured"})
	}
	result, err := c.Job.RunNow(ctx.UserContext())
	if errors.Is(err, CronJobs.ErrSyncInProgress) {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":  err.Error(),
			"result": result,
		})
	}
	return ctx.JSON(result)
}

// GetSyncStatus returns the schedule, the next run and the last result.
func (c *SyncController) GetSyncStatus(ctx *fiber.Ctx) error {
	if c.Job == nil {
		return ctx.JSON(fiber.Map{"enabled": false})
	}
	return ctx.JSON(fiber.Map{
		"enabled":  true,
		"schedule": c.Job.Schedule(),
		"next_run": c.Job.Next(),
		"last":     c.Job.LastResult(),
	})
}
