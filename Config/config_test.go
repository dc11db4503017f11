package Config

import (
	"os"
	"path/filepath"
	"testing"

	"Attendance/CronJobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "attendance.db"), cfg.DatabaseFile)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, CronJobs.DefaultSchedule, cfg.SyncSchedule)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.False(t, cfg.LogToFile)
}

func TestLoadFromFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	file := `{
		// comments and trailing commas are fine
		database_file: "store.db",
		listen_addr: "0.0.0.0:9000",
		sync_endpoint: "https://hr.example.com/api",
		email: {smtp_server: "smtp.example.com", from_email: "noreply@example.com",},
		notify_emails: ["hr@example.com"],
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(file), 0644))

	t.Setenv("ATTENDANCE_LISTEN_ADDR", "127.0.0.1:7000")
	t.Setenv("ATTENDANCE_SMTP_PORT", "2525")
	t.Setenv("ATTENDANCE_LOG_TO_FILE", "true")
	t.Setenv("ATTENDANCE_NOTIFY_EMAILS", "a@example.com, b@example.com,")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "store.db"), cfg.DatabaseFile)
	assert.Equal(t, "127.0.0.1:7000", cfg.ListenAddr, "environment wins over the file")
	assert.Equal(t, "https://hr.example.com/api", cfg.SyncEndpoint)
	assert.Equal(t, "smtp.example.com", cfg.Email.SMTPServer)
	assert.Equal(t, 2525, cfg.Email.SMTPPort)
	assert.True(t, cfg.Email.Enabled())
	assert.True(t, cfg.LogToFile)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.NotifyEmails)
}

func TestLoadFromRejectsBadValues(t *testing.T) {
	t.Run("bad file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{listen_addr:"), 0644))
		_, err := LoadFrom(dir)
		assert.Error(t, err)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("ATTENDANCE_SMTP_PORT", "smtp")
		_, err := LoadFrom(t.TempDir())
		assert.ErrorContains(t, err, "SMTP_PORT")
	})

	t.Run("bad bool", func(t *testing.T) {
		t.Setenv("ATTENDANCE_LOG_TO_FILE", "sometimes")
		_, err := LoadFrom(t.TempDir())
		assert.ErrorContains(t, err, "LOG_TO_FILE")
	})
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ATTENDANCE_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("ATTENDANCE_TEST_VALUE", "default"))
	assert.Equal(t, "default", GetEnv("ATTENDANCE_TEST_MISSING", "default"))
	assert.Equal(t, "", GetEnv("ATTENDANCE_TEST_MISSING"))
}

func TestAppDataFolder(t *testing.T) {
	dir := AppDataFolder("Attendance")
	assert.Equal(t, "Attendance", filepath.Base(dir))
}
