package Controllers

import (
	"time"

	"Attendance/Models"
	"Attendance/Services"
	"Attendance/middleware"

	"github.com/gofiber/fiber/v2"
)

// AttendanceController handles attendance API endpoints
type AttendanceController struct {
	Service *Services.AttendanceService
	Now     func() time.Time
}

func NewAttendanceController(service *Services.AttendanceService) *AttendanceController {
	return &AttendanceController{Service: service, Now: time.Now}
}

// GetAttendance lists all marks, newest first. With from/to only that range
// is returned, oldest first.
func (c *AttendanceController) GetAttendance(ctx *fiber.Ctx) error {
	if ctx.Query("from") == "" && ctx.Query("to") == "" {
		recs, err := c.Service.List(ctx.UserContext())
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(recs)
	}

	now := c.Now()
	from, to, err := dateRange(ctx, now, monthStart(now))
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	recs, err := c.Service.ListBetween(ctx.UserContext(), from, to)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(recs)
}

func (c *AttendanceController) GetAttendanceByID(ctx *fiber.Ctx) error {
	rec, err := c.Service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(rec)
}

// CreateAttendance stores a client-built mark as is.
func (c *AttendanceController) CreateAttendance(ctx *fiber.Ctx) error {
	var input Models.Attendance
	if err := ctx.BodyParser(&input); err != nil {
		return badRequest(ctx, err.Error())
	}
	if input.DeviceID == "" {
		input.DeviceID = middleware.DeviceID(ctx)
	}

	if err := c.Service.Create(ctx.UserContext(), &input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(input)
}

func (c *AttendanceController) UpdateAttendance(ctx *fiber.Ctx) error {
	var input Models.Attendance
	if err := ctx.BodyParser(&input); err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := c.Service.Update(ctx.UserContext(), ctx.Params("id"), &input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(input)
}

func (c *AttendanceController) DeleteAttendance(ctx *fiber.Ctx) error {
	if err := c.Service.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return respondError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *AttendanceController) CheckIn(ctx *fiber.Ctx) error {
	return c.record(ctx, Models.AttendanceCheckIn)
}

func (c *AttendanceController) CheckOut(ctx *fiber.Ctx) error {
	return c.record(ctx, Models.AttendanceCheckOut)
}

// Mark records a mark of the type in the URL, e.g. leave or work_from_home.
func (c *AttendanceController) Mark(ctx *fiber.Ctx) error {
	typ, err := Models.ParseAttendanceType(ctx.Params("type"))
	if err != nil || typ == "" {
		return badRequest(ctx, "Invalid attendance type")
	}
	return c.record(ctx, typ)
}

func (c *AttendanceController) record(ctx *fiber.Ctx, typ Models.AttendanceType) error {
	var opts Services.RecordOptions
	if err := parseBody(ctx, &opts); err != nil {
		return badRequest(ctx, err.Error())
	}
	if opts.DeviceID == "" {
		opts.DeviceID = middleware.DeviceID(ctx)
	}

	rec, err := c.Service.Record(ctx.UserContext(), typ, opts)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(rec)
}

// GetSummary returns one row per day in the from/to range.
func (c *AttendanceController) GetSummary(ctx *fiber.Ctx) error {
	now := c.Now()
	from, to, err := dateRange(ctx, now, monthStart(now))
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	days, err := c.Service.DailySummary(ctx.UserContext(), from, to)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(days)
}
