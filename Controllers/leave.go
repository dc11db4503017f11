package Controllers

import (
	"Attendance/Models"
	"Attendance/Services"
	"Attendance/middleware"

	"github.com/gofiber/fiber/v2"
)

// LeaveTypeController handles leave policy endpoints
type LeaveTypeController struct {
	Service *Services.LeaveTypeService
	Leaves  *Services.LeaveService
}

func NewLeaveTypeController(service *Services.LeaveTypeService, leaves *Services.LeaveService) *LeaveTypeController {
	return &LeaveTypeController{Service: service, Leaves: leaves}
}

func (c *LeaveTypeController) GetLeaveTypes(ctx *fiber.Ctx) error {
	types, err := c.Service.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(types)
}

func (c *LeaveTypeController) GetLeaveType(ctx *fiber.Ctx) error {
	leaveType, err := c.Service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(leaveType)
}

func (c *LeaveTypeController) CreateLeaveType(ctx *fiber.Ctx) error {
	var input Models.LeaveType
	if err := ctx.BodyParser(&input); err != nil {
		return badRequest(ctx, err.Error())
	}
	if err := c.Service.Create(ctx.UserContext(), &input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(input)
}

func (c *LeaveTypeController) UpdateLeaveType(ctx *fiber.Ctx) error {
	var input Models.LeaveType
	if err := ctx.BodyParser(&input); err != nil {
		return badRequest(ctx, err.Error())
	}
	if err := c.Service.Update(ctx.UserContext(), ctx.Params("id"), &input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(input)
}

func (c *LeaveTypeController) DeleteLeaveType(ctx *fiber.Ctx) error {
	if err := c.Service.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return respondError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// GetRemaining reports the days left of a leave type in the current period.
func (c *LeaveTypeController) GetRemaining(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	remaining, err := c.Leaves.Remaining(ctx.UserContext(), id)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"leave_type_id": id, "remaining": remaining})
}

// LeaveController handles leave request endpoints
type LeaveController struct {
	Service *Services.LeaveService
}

func NewLeaveController(service *Services.LeaveService) *LeaveController {
	return &LeaveController{Service: service}
}

func (c *LeaveController) GetLeaves(ctx *fiber.Ctx) error {
	leaves, err := c.Service.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(leaves)
}

func (c *LeaveController) GetLeave(ctx *fiber.Ctx) error {
	leave, err := c.Service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(leave)
}

// CreateLeave stores a client-built leave as is, without allowance checks.
func (c *LeaveController) CreateLeave(ctx *fiber.Ctx) error {
	var input Models.Leave
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

func (c *LeaveController) UpdateLeave(ctx *fiber.Ctx) error {
	var input Models.Leave
	if err := ctx.BodyParser(&input); err != nil {
		return badRequest(ctx, err.Error())
	}
	if err := c.Service.Update(ctx.UserContext(), ctx.Params("id"), &input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(input)
}

func (c *LeaveController) DeleteLeave(ctx *fiber.Ctx) error {
	if err := c.Service.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return respondError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// ApplyLeave files a pending leave against the type's allowance.
func (c *LeaveController) ApplyLeave(ctx *fiber.Ctx) error {
	var req Services.ApplyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return badRequest(ctx, err.Error())
	}
	if req.LeaveTypeID == "" {
		return badRequest(ctx, "leave_type_id is required")
	}
	if req.DeviceID == "" {
		req.DeviceID = middleware.DeviceID(ctx)
	}

	leave, err := c.Service.Apply(ctx.UserContext(), req)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(leave)
}

func (c *LeaveController) ApproveLeave(ctx *fiber.Ctx) error {
	var input struct {
		ApprovedBy string `json:"approved_by"`
	}
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err.Error())
	}

	leave, err := c.Service.Approve(ctx.UserContext(), ctx.Params("id"), input.ApprovedBy)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(leave)
}
