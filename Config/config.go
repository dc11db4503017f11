package Config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"Attendance/CronJobs"
	"Attendance/Models"

	"github.com/joho/godotenv"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	AppName    = "Attendance"
	FileName   = "config.json5"
	envPrefix  = "ATTENDANCE_"
	dbFileName = "attendance.db"
)

// Config is the resolved runtime configuration. Values come from defaults,
// then config.json5 in the data directory, then ATTENDANCE_* variables.
type Config struct {
	DataDir      string `json:"-"`
	DatabaseFile string `json:"database_file"`
	ListenAddr   string `json:"listen_addr"`
	JWTSecret    string `json:"jwt_secret"`

	SyncEndpoint string `json:"sync_endpoint"`
	SyncToken    string `json:"sync_token"`
	SyncSchedule string `json:"sync_schedule"`

	FirebaseCredentials string `json:"firebase_credentials"`
	FCMToken            string `json:"fcm_token"`

	SlackWebhookURL string `json:"slack_webhook_url"`
	SlackChannel    string `json:"slack_channel"`

	Email        Models.EmailConfig `json:"email"`
	NotifyEmails []string           `json:"notify_emails"`

	LogToFile bool   `json:"log_to_file"`
	LogLevel  string `json:"log_level"`
}

func defaults(dataDir string) *Config {
	return &Config{
		DataDir:      dataDir,
		DatabaseFile: filepath.Join(dataDir, dbFileName),
		ListenAddr:   "127.0.0.1:8080",
		SyncSchedule: CronJobs.DefaultSchedule,
		Email:        Models.EmailConfig{SMTPPort: 587, FromName: AppName},
		LogLevel:     "warn",
	}
}

// Load reads .env when present and resolves the configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	} else {
		log.Println(".env file loaded")
	}

	dataDir := GetEnv(envPrefix+"DATA_DIR", AppDataFolder(AppName))
	if dataDir == "" {
		return nil, fmt.Errorf("could not resolve data directory")
	}
	return LoadFrom(dataDir)
}

// LoadFrom resolves the configuration rooted at dataDir.
func LoadFrom(dataDir string) (*Config, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating data directory: %v", err)
	}

	cfg := defaults(dataDir)
	if err := cfg.readFile(filepath.Join(dataDir, FileName)); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.DatabaseFile != "" && !filepath.IsAbs(cfg.DatabaseFile) {
		cfg.DatabaseFile = filepath.Join(dataDir, cfg.DatabaseFile)
	}
	if cfg.JWTSecret == "" {
		log.Println("JWT secret is not set, sessions will not survive a restart")
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading %s: %v", path, err)
	}
	if err := json5.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing %s: %v", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	str("DATABASE_FILE", &c.DatabaseFile)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("JWT_SECRET", &c.JWTSecret)
	str("SYNC_ENDPOINT", &c.SyncEndpoint)
	str("SYNC_TOKEN", &c.SyncToken)
	str("SYNC_SCHEDULE", &c.SyncSchedule)
	str("FIREBASE_CREDENTIALS", &c.FirebaseCredentials)
	str("FCM_TOKEN", &c.FCMToken)
	str("SLACK_WEBHOOK_URL", &c.SlackWebhookURL)
	str("SLACK_CHANNEL", &c.SlackChannel)
	str("LOG_LEVEL", &c.LogLevel)
	str("SMTP_SERVER", &c.Email.SMTPServer)
	str("SMTP_USERNAME", &c.Email.Username)
	str("SMTP_PASSWORD", &c.Email.Password)
	str("SMTP_FROM_EMAIL", &c.Email.FromEmail)
	str("SMTP_FROM_NAME", &c.Email.FromName)

	if v, ok := os.LookupEnv(envPrefix + "SMTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sSMTP_PORT %q: %v", envPrefix, v, err)
		}
		c.Email.SMTPPort = port
	}
	for name, dst := range map[string]*bool{
		"SMTP_TLS":            &c.Email.TLSEnabled,
		"SMTP_SKIP_TLS_CHECK": &c.Email.SkipTLSCheck,
		"LOG_TO_FILE":         &c.LogToFile,
	} {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %v", envPrefix, name, v, err)
		}
		*dst = b
	}
	if v, ok := os.LookupEnv(envPrefix + "NOTIFY_EMAILS"); ok {
		c.NotifyEmails = splitList(v)
	}
	return nil
}

// GetEnv returns the variable or the first default when it is unset.
func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// AppDataFolder is the per-OS application data directory for appName.
func AppDataFolder(appName string) string {
	var base string

	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support")
	default:
		base = os.Getenv("XDG_DATA_HOME")
		if base == "" {
			base = filepath.Join(os.Getenv("HOME"), ".local", "share")
		}
	}
	return filepath.Join(base, appName)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
