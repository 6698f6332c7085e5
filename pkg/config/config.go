package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NATS       NATSConfig
	Auth       AuthConfig
	SMTP       SMTPConfig
	IMAP       IMAPConfig
	SharePoint SharePointConfig
	Email      EmailConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Path string
}

type RedisConfig struct {
	URL string
}

type NATSConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret         string
	AdminPasswordHash string
	AdminTokenTTL     time.Duration
	SessionTTL        time.Duration
}

type SMTPConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	SenderEmail string
}

type IMAPConfig struct {
	Host     string
	User     string
	Password string
	Mailbox  string
}

type SharePointConfig struct {
	Enabled      bool
	TenantID     string
	ClientID     string
	ClientSecret string
	SiteID       string
	DriveID      string
	RemotePath   string
	Interval     time.Duration
}

type EmailConfig struct {
	MailerSendKey string
	SenderName    string
	DevMode       bool // print emails to logs instead of sending
}

func Load() *Config {
	// .env values fill in anything not already exported.
	_ = godotenv.Load(getEnv("SITE_COORDINATION_ENV", ".env"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Path: getEnv("SITE_COORDINATION_DB", "database/site_coordination.sqlite"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("SITE_COORDINATION_JWT_SECRET", "dev-only-secret-change-in-prod"),
			AdminPasswordHash: getEnv("SITE_COORDINATION_ADMIN_PASSWORD_HASH", ""),
			AdminTokenTTL:     getDuration("ADMIN_TOKEN_TTL", 8*time.Hour),
			SessionTTL:        getDuration("CHECKIN_SESSION_TTL", 12*time.Hour),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SITE_COORDINATION_SMTP_HOST", ""),
			Port:        getInt("SITE_COORDINATION_SMTP_PORT", 587),
			User:        getEnv("SITE_COORDINATION_SMTP_USER", ""),
			Password:    getEnv("SITE_COORDINATION_SMTP_PASSWORD", ""),
			SenderEmail: getEnv("SITE_COORDINATION_SENDER_EMAIL", "wordpress@campus-rwth-aachen.com"),
		},
		IMAP: IMAPConfig{
			Host:     getEnv("SITE_COORDINATION_IMAP_HOST", ""),
			User:     getEnv("SITE_COORDINATION_IMAP_USER", ""),
			Password: getEnv("SITE_COORDINATION_IMAP_PASSWORD", ""),
			Mailbox:  getEnv("SITE_COORDINATION_IMAP_MAILBOX", "INBOX"),
		},
		SharePoint: SharePointConfig{
			Enabled:      getBool("SITE_COORDINATION_SHAREPOINT_ENABLED", false),
			TenantID:     getEnv("SITE_COORDINATION_SHAREPOINT_TENANT_ID", ""),
			ClientID:     getEnv("SITE_COORDINATION_SHAREPOINT_CLIENT_ID", ""),
			ClientSecret: getEnv("SITE_COORDINATION_SHAREPOINT_CLIENT_SECRET", ""),
			SiteID:       getEnv("SITE_COORDINATION_SHAREPOINT_SITE_ID", ""),
			DriveID:      getEnv("SITE_COORDINATION_SHAREPOINT_DRIVE_ID", ""),
			RemotePath:   getEnv("SITE_COORDINATION_SHAREPOINT_REMOTE_PATH", "backups/site_coordination.sqlite"),
			Interval:     getDuration("SITE_COORDINATION_SHAREPOINT_INTERVAL", 300*time.Second),
		},
		Email: EmailConfig{
			MailerSendKey: getEnv("MAILERSEND_API_KEY", ""),
			SenderName:    getEnv("SITE_COORDINATION_SENDER_NAME", "Reference Construction Site Coordination"),
			DevMode:       getBool("EMAIL_DEV_MODE", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
