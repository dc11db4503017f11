package Controllers

import (
	"encoding/json"
	"strings"
	"time"

	"Attendance/Models"
	"Attendance/Services"
	"Attendance/middleware"

	"github.com/gofiber/fiber/v2"
)

// protectedPrefix marks settings the generic endpoints may not touch.
const protectedPrefix = "security."

// SettingsController handles settings and profile endpoints
type SettingsController struct {
	Settings *Services.SettingsService
}

func NewSettingsController(settings *Services.SettingsService) *SettingsController {
	return &SettingsController{Settings: settings}
}

func (c *SettingsController) GetKeys(ctx *fiber.Ctx) error {
	keys, err := c.Settings.Keys(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(keys)
}

func (c *SettingsController) GetSetting(ctx *fiber.Ctx) error {
	key := ctx.Params("key")
	if strings.HasPrefix(key, protectedPrefix) {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Setting is not readable"})
	}
	raw, err := c.Settings.Raw(ctx.UserContext(), key)
	if err != nil {
		return respondError(ctx, err)
	}
	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Send(raw)
}

// PutSetting stores the JSON body as the value of key.
func (c *SettingsController) PutSetting(ctx *fiber.Ctx) error {
	key := ctx.Params("key")
	if strings.HasPrefix(key, protectedPrefix) {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Setting is not writable"})
	}
	body := ctx.Body()
	if !json.Valid(body) {
		return badRequest(ctx, "Body must be a JSON value")
	}
	value := json.RawMessage(append([]byte(nil), body...))
	if err := c.Settings.Set(ctx.UserContext(), key, value); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(value)
}

func (c *SettingsController) DeleteSetting(ctx *fiber.Ctx) error {
	key := ctx.Params("key")
	if strings.HasPrefix(key, protectedPrefix) {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Setting is not writable"})
	}
	if err := c.Settings.Delete(ctx.UserContext(), key); err != nil {
		return respondError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *SettingsController) GetProfile(ctx *fiber.Ctx) error {
	profile, err := c.Settings.Profile(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(profile)
}

func (c *SettingsController) PutProfile(ctx *fiber.Ctx) error {
	var input Models.Profile
	if err := ctx.BodyParser(&input); err != nil {
		return badRequest(ctx, err.Error())
	}
	if err := c.Settings.SaveProfile(ctx.UserContext(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(input)
}

// PutPIN replaces the unlock PIN. Once a PIN exists the current one must be
// given.
func (c *SettingsController) PutPIN(ctx *fiber.Ctx) error {
	var input struct {
		Current string `json:"current"`
		PIN     string `json:"pin"`
	}
	if err := ctx.BodyParser(&input); err != nil {
		return badRequest(ctx, err.Error())
	}

	has, err := c.Settings.HasPIN(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err)
	}
	if has {
		ok, err := c.Settings.VerifyPIN(ctx.UserContext(), input.Current)
		if err != nil {
			return respondError(ctx, err)
		}
		if !ok {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Current PIN is incorrect"})
		}
	}

	if err := c.Settings.SetPIN(ctx.UserContext(), input.PIN); err != nil {
		return respondError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// SessionController exchanges the unlock PIN for a session token
type SessionController struct {
	Settings *Services.SettingsService
	Secret   string
	TTL      time.Duration
	Now      func() time.Time
}

func NewSessionController(settings *Services.SettingsService, secret string) *SessionController {
	return &SessionController{Settings: settings, Secret: secret, TTL: 30 * 24 * time.Hour, Now: time.Now}
}

// Login checks the PIN and answers a token, also set as the jwt cookie.
// Before any PIN is configured every device is let in.
func (c *SessionController) Login(ctx *fiber.Ctx) error {
	var input struct {
		PIN      string `json:"pin"`
		DeviceID string `json:"device_id"`
	}
	if err := parseBody(ctx, &input); err != nil {
		return badRequest(ctx, err.Error())
	}

	has, err := c.Settings.HasPIN(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err)
	}
	if has {
		ok, err := c.Settings.VerifyPIN(ctx.UserContext(), input.PIN)
		if err != nil {
			return respondError(ctx, err)
		}
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Incorrect PIN"})
		}
	}

	token, expires, err := middleware.IssueToken(c.Secret, input.DeviceID, c.Now(), c.TTL)
	if err != nil {
		return respondError(ctx, err)
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return ctx.JSON(fiber.Map{
		"token":      token,
		"expires_at": expires,
		"pin_set":    has,
	})
}

func (c *SessionController) Logout(ctx *fiber.Ctx) error {
	ctx.ClearCookie(middleware.CookieName)
	return ctx.SendStatus(fiber.StatusNoContent)
}
