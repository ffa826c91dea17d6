package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	LogLevel     string
	DatabasePath string
	Timezone     *time.Location

	// Drop directories
	WorkDir  string
	OKDir    string
	ErrorDir string

	PollIdleInterval      time.Duration // sleep when the work dir is empty or unreadable
	SweepInterval         time.Duration // pause between two non-empty sweeps
	UnrecognizedMaxSweeps int           // 0 keeps unrecognized files in place forever

	TradingAreaIgnoredArticles []string

	// ID replacement side server
	Port               string
	ServerSecret       string
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Report hand-off
	ReportSink  string
	ReportTo    []string
	SenderEmail string
	SenderName  string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	RedisAddr      string
	RedisReportKey string
	RedisMaxItems  int64

	// Optional archive of processed files
	ArchiveS3Bucket string
	ArchiveS3Region string
	ArchiveS3Prefix string
}

func LoadConfig() (*AppConfig, error) {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	tzName := getEnv("TIMEZONE", "Europe/Rome")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Printf("WARNING: Invalid TIMEZONE '%s'. Using Local. Error: %v", tzName, err)
		loc = time.Local
	}

	workDir := getEnv("WORK_DIR", "./data/in")

	cfg := &AppConfig{
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./stationetl.db"),
		Timezone:     loc,

		WorkDir:  workDir,
		OKDir:    getEnv("OK_DIR", filepath.Join(workDir, "OK")),
		ErrorDir: getEnv("ERROR_DIR", filepath.Join(workDir, "ERROR")),

		PollIdleInterval:      getEnvAsDuration("POLL_IDLE_INTERVAL", 5*time.Minute),
		SweepInterval:         getEnvAsDuration("SWEEP_INTERVAL", 10*time.Second),
		UnrecognizedMaxSweeps: getEnvAsInt("UNRECOGNIZED_MAX_SWEEPS", 5),

		TradingAreaIgnoredArticles: getEnvAsList("TRADING_AREA_IGNORED_ARTICLES", []string{"GAS_PREST"}),

		Port:               getEnv("PORT", "3100"),
		ServerSecret:       getEnv("SERVER_SECRET", ""),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),

		ReportSink:  strings.ToLower(getEnv("REPORT_SINK", "log")),
		ReportTo:    getEnvAsList("REPORT_TO", nil),
		SenderEmail: getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:  getEnv("SENDER_NAME", "Station ETL"),

		SMTPServer:   getEnv("SMTP_SERVER", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisReportKey: getEnv("REDIS_REPORT_KEY", "stationetl:reports"),
		RedisMaxItems:  int64(getEnvAsInt("REDIS_REPORT_MAX_ITEMS", 500)),

		ArchiveS3Bucket: getEnv("ARCHIVE_S3_BUCKET", ""),
		ArchiveS3Region: getEnv("ARCHIVE_S3_REGION", "eu-south-1"),
		ArchiveS3Prefix: getEnv("ARCHIVE_S3_PREFIX", "processed/"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded: WorkDir=%s, LogLevel=%s, DBPath=%s, ReportSink=%s",
		cfg.WorkDir, cfg.LogLevel, cfg.DatabasePath, cfg.ReportSink)
	return cfg, nil
}

// Validate checks combinations that cannot be defaulted.
func (c *AppConfig) Validate() error {
	if c.WorkDir == "" {
		return fmt.Errorf("WORK_DIR must not be empty")
	}
	if c.UnrecognizedMaxSweeps < 0 {
		return fmt.Errorf("UNRECOGNIZED_MAX_SWEEPS must be >= 0, got %d", c.UnrecognizedMaxSweeps)
	}
	switch c.ReportSink {
	case "log", "smtp", "redis":
	case "mailgun":
		if c.MailgunDomain == "" || c.MailgunPrivateAPIKey == "" {
			return fmt.Errorf("MAILGUN_DOMAIN and MAILGUN_PRIVATE_API_KEY are required when REPORT_SINK is 'mailgun'")
		}
	default:
		return fmt.Errorf("unknown REPORT_SINK %q", c.ReportSink)
	}
	if c.ServerSecret == "" {
		log.Println("WARNING: SERVER_SECRET not set. The ID replacement endpoint will reject every request.")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if strings.TrimSpace(valueStr) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
