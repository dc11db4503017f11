package Controllers

import (
	"errors"
	"log"
	"time"

	"Attendance/Models"
	"Attendance/Services"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

// respondError maps service errors to HTTP statuses.
func respondError(ctx *fiber.Ctx, err error) error {
	var verr *Models.ValidationError
	switch {
	case errors.As(err, &verr):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, Services.ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Services.ErrDuplicateID),
		errors.Is(err, Services.ErrAllowanceExceeded),
		errors.Is(err, Services.ErrAlreadyApproved):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Services.ErrIDMismatch), errors.Is(err, Services.ErrEmptyID):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Services.ErrClosed):
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("Error handling %s %s: %v\n", ctx.Method(), ctx.Path(), err)
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func badRequest(ctx *fiber.Ctx, msg string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// parseBody decodes an optional JSON body into dest. An empty body leaves
// dest untouched.
func parseBody(ctx *fiber.Ctx, dest interface{}) error {
	if len(ctx.Body()) == 0 {
		return nil
	}
	return ctx.BodyParser(dest)
}

// monthStart is midnight of the first day of t's month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// dayStart is midnight of t's day.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dateRange reads the inclusive from/to dates (YYYY-MM-DD, in now's location)
// and returns the half-open interval [from, to+1 day). Without from the range
// starts at defaultFrom; without to it ends today.
func dateRange(ctx *fiber.Ctx, now, defaultFrom time.Time) (time.Time, time.Time, error) {
	loc := now.Location()
	from := defaultFrom
	to := dayStart(now).AddDate(0, 0, 1)

	if s := ctx.Query("from"); s != "" {
		parsed, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("Invalid from format. Use YYYY-MM-DD")
		}
		from = parsed
	}
	if s := ctx.Query("to"); s != "" {
		parsed, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("Invalid to format. Use YYYY-MM-DD")
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return from, to, nil
}
