package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/linesmerrill/relief-portal-api/models"
)

// Config holds the project config values
type Config struct {
	Env            string
	URL            string
	DatabaseName   string
	BaseURL        string
	Port           string
	JWTSecret      string
	SessionTTL     time.Duration
	SecureCookies  bool
	RequestTimeout time.Duration

	CloudinaryURL   string
	SendGridAPIKey  string
	MailFromName    string
	MailFromAddress string

	OfficerEmailDomain string
	HeadAdminEmail     string
	HeadAdminPassword  string

	DigestSchedule    string
	ReconcileSchedule string
}

// New sets up all config related services. Values come from the environment,
// optionally seeded from a .env file in the working directory.
func New() *Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			zap.S().Warnw("failed to load .env", "error", err)
		}
	}

	conf := Load(viper.New())

	// setup zap logger and replace default logger
	logger, err := setLogger(conf.Env)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	return conf
}

// Load reads the configuration out of v, applying defaults for anything unset
func Load(v *viper.Viper) *Config {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("ENV", "local")
	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("DB_URI", "mongodb://127.0.0.1:27017")
	v.SetDefault("DB_NAME", "relief-portal")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SESSION_TTL", 7*24*time.Hour)
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "Relief Portal")
	v.SetDefault("MAIL_FROM_ADDRESS", "noreply@relief-portal.local")
	v.SetDefault("OFFICER_EMAIL_DOMAIN", "uno.gov.bd")
	v.SetDefault("ADMIN_HEAD_EMAIL", "")
	v.SetDefault("ADMIN_HEAD_PASSWORD", "")
	v.SetDefault("DIGEST_SCHEDULE", "0 6 * * *")
	v.SetDefault("RECONCILE_SCHEDULE", "@hourly")
	v.AutomaticEnv()

	return &Config{
		Env:                strings.ToLower(v.GetString("ENV")),
		URL:                v.GetString("DB_URI"),
		DatabaseName:       v.GetString("DB_NAME"),
		BaseURL:            v.GetString("BASE_URL"),
		Port:               v.GetString("PORT"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		SessionTTL:         v.GetDuration("SESSION_TTL"),
		SecureCookies:      v.GetBool("SECURE_COOKIES"),
		RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
		CloudinaryURL:      v.GetString("CLOUDINARY_URL"),
		SendGridAPIKey:     v.GetString("SENDGRID_API_KEY"),
		MailFromName:       v.GetString("MAIL_FROM_NAME"),
		MailFromAddress:    v.GetString("MAIL_FROM_ADDRESS"),
		OfficerEmailDomain: v.GetString("OFFICER_EMAIL_DOMAIN"),
		HeadAdminEmail:     strings.ToLower(v.GetString("ADMIN_HEAD_EMAIL")),
		HeadAdminPassword:  v.GetString("ADMIN_HEAD_PASSWORD"),
		DigestSchedule:     v.GetString("DIGEST_SCHEDULE"),
		ReconcileSchedule:  v.GetString("RECONCILE_SCHEDULE"),
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	if httpStatusCode >= http.StatusInternalServerError {
		zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	} else {
		zap.S().Debugw(message, "status", httpStatusCode, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorResponse{Success: false, Error: message})
	_, _ = w.Write(b)
}
