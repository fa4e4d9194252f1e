package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

const (
	defaultDSN  = "host=localhost user=postgres password=postgres dbname=pos port=5432 sslmode=disable"
	defaultCORS = "http://localhost:5173"
)

type Config struct {
	HTTPPort       string
	DatabaseDriver string // postgres | mysql
	DatabaseDSN    string
	JWTSecret      string
	CORSOrigins    string
	TimeZone       string

	MidtransServerKey  string
	MidtransProduction bool

	SMTPHost              string
	SMTPPort              int
	SMTPUser              string
	SMTPPassword          string
	WarehouseNotifyEmails []string

	SnowflakeNode int64
}

func Load() *Config {
	// .env is optional; real deployments inject the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("[WARN] .env could not be read: %v", err)
	}

	cfg := &Config{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		DatabaseDriver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseDSN:           getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		CORSOrigins:           getEnv("CORS_ALLOWED_ORIGINS", defaultCORS),
		TimeZone:              getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		MidtransServerKey:     getEnv("MIDTRANS_SERVER_KEY", ""),
		MidtransProduction:    getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:              getEnv("SMTP_USER", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		WarehouseNotifyEmails: splitList(getEnv("WAREHOUSE_NOTIFY_EMAILS", "")),
		SnowflakeNode:         int64(getEnvAsInt("SNOWFLAKE_NODE", 1)),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Warn("[WARN] DATABASE_DSN uses the local default, set a real connection string in production")
	}
	if cfg.CORSOrigins == defaultCORS {
		log.Warn("[WARN] CORS_ALLOWED_ORIGINS uses the local default")
	}
	if cfg.MidtransServerKey == "" {
		log.Warn("[WARN] MIDTRANS_SERVER_KEY is empty, gateway payments and webhooks will be rejected")
	}

	return cfg
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.DatabaseDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DatabaseDriver)
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023, got %d", c.SnowflakeNode)
	}
	return nil
}

// MailEnabled reports whether outgoing notification mail is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && len(c.WarehouseNotifyEmails) > 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("[WARN] %s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvAsBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
