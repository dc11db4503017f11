package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", Verify(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(DeviceID(c))
	})
	return app
}

func TestVerifyAcceptsBearerAndCookie(t *testing.T) {
	token, expires, err := IssueToken(testSecret, "pixel-7", time.Now(), time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	app := protectedApp()

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := make([]byte, 16)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "pixel-7", string(body[:n]))

	req = httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderCookie, CookieName+"="+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestVerifyRejects(t *testing.T) {
	expired, _, err := IssueToken(testSecret, "d", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	wrongKey, _, err := IssueToken("other-secret", "d", time.Now(), time.Hour)
	require.NoError(t, err)
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "d",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := map[string]string{
		"missing":   "",
		"garbage":   "Bearer not-a-token",
		"expired":   "Bearer " + expired,
		"wrong key": "Bearer " + wrongKey,
		"issuer":    "Bearer " + foreign,
	}
	app := protectedApp()
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set(fiber.HeaderAuthorization, header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRequestLoggerWritesJSONLines(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "requests.log")

	app := fiber.New()
	app.Use(RequestLogger(logFile))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/attendance", func(c *fiber.Ctx) error {
		c.Locals(DeviceKey, "pixel-7")
		return c.JSON([]string{})
	})
	app.Get("/api/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	for _, path := range []string{"/health", "/api/attendance", "/api/missing"} {
		_, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
	}

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "health checks are not logged")

	var first, second LogData
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "/api/attendance", first.Path)
	assert.Equal(t, fiber.StatusOK, first.Status)
	assert.Equal(t, "pixel-7", first.DeviceID)
	assert.Equal(t, fiber.StatusNotFound, second.Status)
	assert.NotEmpty(t, second.Error)
}

func TestErrorLoggerSkipsSuccess(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "errors.log")

	app := fiber.New()
	app.Use(ErrorLogger(logFile))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Post("/bad", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid"})
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/bad", strings.NewReader(`{"id":""}`)))
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "POST /bad 422")
}
