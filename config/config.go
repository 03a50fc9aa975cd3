package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Forms         FormsConfig
	Ebook         EbookConfig
	Storage       StorageConfig
	Auth          AuthConfig
	ReCAPTCHA     ReCAPTCHAConfig
	Notifications NotificationsConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port                     string
	GinMode                  string
	AppEnv                   string
	BaseURL                  string
	AllowedOrigins           []string
	ContactConfirmationPath  string
	SubmissionTimeoutSeconds int
}

type DatabaseConfig struct {
	URL         string
	MaxConns    int32
	MinConns    int32
	WorkOffline bool
	// CACertPath is a PEM bundle trusted for sslmode=verify-* connections
	CACertPath string
}

// PhonePolicy describes how one form variant treats the phone field.
// CountryCode "" means domestic numbers only, "auto" means international with
// prefix detection, any digit string is the default DDI for international input.
type PhonePolicy struct {
	Required    bool
	CountryCode string
}

type FormsConfig struct {
	EbookPhone   PhonePolicy
	ContactPhone PhonePolicy
	// DefaultCountryCode is used to build E.164 numbers from domestic input
	DefaultCountryCode string
}

type EbookConfig struct {
	Title              string
	PublicURL          string
	ObjectKey          string
	PDFJSVersion       string
	PreviewPages       int
	DownloadURLTTLMins int
}

// StorageConfig points at an S3-compatible bucket holding gated assets
type StorageConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Region          string
}

type AuthConfig struct {
	DownloadTokenSecret  string
	DownloadTokenIssuer  string
	DownloadTokenTTLMins int
}

type ReCAPTCHAConfig struct {
	SecretKey string
	SiteKey   string
}

type NotificationsConfig struct {
	LeadWebhookURL string
	ResendAPIKey   string
	EmailFrom      string
	EmailFromName  string
	SalesInbox     []string
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
	TraceSampleRatio  float64
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "https://maestriajurisp.com.br")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "https://maestriajurisp.com.br,https://www.maestriajurisp.com.br")
	v.SetDefault("CONTACT_CONFIRMATION_PATH", "/obrigado")
	v.SetDefault("SUBMISSION_TIMEOUT_SECONDS", 10)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("EBOOK_PHONE_REQUIRED", false)
	v.SetDefault("EBOOK_PHONE_COUNTRY_CODE", "auto")
	v.SetDefault("CONTACT_PHONE_REQUIRED", true)
	v.SetDefault("CONTACT_PHONE_COUNTRY_CODE", "")
	v.SetDefault("DEFAULT_COUNTRY_CODE", "55")
	v.SetDefault("EBOOK_TITLE", "IA para Advogados: o guia prático")
	v.SetDefault("EBOOK_PUBLIC_URL", "/ebook-maestria-jurisp-pdf.pdf")
	v.SetDefault("EBOOK_OBJECT_KEY", "ebooks/ebook-maestria-jurisp-pdf.pdf")
	v.SetDefault("EBOOK_PDFJS_VERSION", "4.8.69")
	v.SetDefault("EBOOK_PREVIEW_PAGES", 3)
	v.SetDefault("EBOOK_DOWNLOAD_URL_TTL_MINUTES", 15)
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("DOWNLOAD_TOKEN_ISSUER", "leads-api")
	v.SetDefault("DOWNLOAD_TOKEN_TTL_MINUTES", 60)
	v.SetDefault("EMAIL_FROM_NAME", "Maestria Jurisp")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_BE_SERVICE_NAME", "leads-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "maestria")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_TRACE_SAMPLE_RATIO", 1.0)
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "leads-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,goroutines")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:                     v.GetString("PORT"),
			GinMode:                  v.GetString("GIN_MODE"),
			AppEnv:                   v.GetString("APP_ENV"),
			BaseURL:                  strings.TrimRight(v.GetString("BASE_URL"), "/"),
			AllowedOrigins:           splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
			ContactConfirmationPath:  v.GetString("CONTACT_CONFIRMATION_PATH"),
			SubmissionTimeoutSeconds: v.GetInt("SUBMISSION_TIMEOUT_SECONDS"),
		},
		Database: DatabaseConfig{
			URL:         v.GetString("DATABASE_URL"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			MinConns:    v.GetInt32("DB_MIN_CONNS"),
			WorkOffline: v.GetBool("DB_WORK_OFFLINE"),
			CACertPath:  v.GetString("DATABASE_CA_CERT_PATH"),
		},
		Forms: FormsConfig{
			EbookPhone: PhonePolicy{
				Required:    v.GetBool("EBOOK_PHONE_REQUIRED"),
				CountryCode: strings.TrimSpace(v.GetString("EBOOK_PHONE_COUNTRY_CODE")),
			},
			ContactPhone: PhonePolicy{
				Required:    v.GetBool("CONTACT_PHONE_REQUIRED"),
				CountryCode: strings.TrimSpace(v.GetString("CONTACT_PHONE_COUNTRY_CODE")),
			},
			DefaultCountryCode: strings.TrimSpace(v.GetString("DEFAULT_COUNTRY_CODE")),
		},
		Ebook: EbookConfig{
			Title:              v.GetString("EBOOK_TITLE"),
			PublicURL:          v.GetString("EBOOK_PUBLIC_URL"),
			ObjectKey:          v.GetString("EBOOK_OBJECT_KEY"),
			PDFJSVersion:       v.GetString("EBOOK_PDFJS_VERSION"),
			PreviewPages:       v.GetInt("EBOOK_PREVIEW_PAGES"),
			DownloadURLTTLMins: v.GetInt("EBOOK_DOWNLOAD_URL_TTL_MINUTES"),
		},
		Storage: StorageConfig{
			AccessKeyID:     v.GetString("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("STORAGE_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("STORAGE_BUCKET_NAME"),
			Endpoint:        v.GetString("STORAGE_ENDPOINT"),
			Region:          v.GetString("STORAGE_REGION"),
		},
		Auth: AuthConfig{
			DownloadTokenSecret:  v.GetString("DOWNLOAD_TOKEN_SECRET"),
			DownloadTokenIssuer:  v.GetString("DOWNLOAD_TOKEN_ISSUER"),
			DownloadTokenTTLMins: v.GetInt("DOWNLOAD_TOKEN_TTL_MINUTES"),
		},
		ReCAPTCHA: ReCAPTCHAConfig{
			SecretKey: v.GetString("RECAPTCHA_V2_SECRET_KEY"),
			SiteKey:   v.GetString("NEXT_PUBLIC_RECAPTCHA_V2_SITE_KEY"),
		},
		Notifications: NotificationsConfig{
			LeadWebhookURL: v.GetString("LEAD_WEBHOOK_URL"),
			ResendAPIKey:   v.GetString("RESEND_API_KEY"),
			EmailFrom:      v.GetString("EMAIL_FROM"),
			EmailFromName:  v.GetString("EMAIL_FROM_NAME"),
			SalesInbox:     splitList(v.GetString("SALES_INBOX")),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
			TraceSampleRatio:  v.GetFloat64("O11Y_TRACE_SAMPLE_RATIO"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList parses a comma-separated list, dropping blanks
func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	// Database configuration
	if !c.Database.WorkOffline && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when not in offline mode")
	}

	// Server configuration
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}
	if c.Server.SubmissionTimeoutSeconds <= 0 {
		return fmt.Errorf("SUBMISSION_TIMEOUT_SECONDS must be positive")
	}

	// Forms
	for name, policy := range map[string]PhonePolicy{
		"EBOOK_PHONE_COUNTRY_CODE":   c.Forms.EbookPhone,
		"CONTACT_PHONE_COUNTRY_CODE": c.Forms.ContactPhone,
	} {
		if !validCountryCode(policy.CountryCode, true) {
			return fmt.Errorf("%s must be empty, \"auto\" or 1-3 digits", name)
		}
	}
	if !validCountryCode(c.Forms.DefaultCountryCode, false) {
		return fmt.Errorf("DEFAULT_COUNTRY_CODE must be 1-3 digits")
	}

	// Gated download
	if c.Auth.DownloadTokenSecret == "" {
		return fmt.Errorf("DOWNLOAD_TOKEN_SECRET is required")
	}
	if c.Auth.DownloadTokenTTLMins <= 0 {
		return fmt.Errorf("DOWNLOAD_TOKEN_TTL_MINUTES must be positive")
	}
	if c.Ebook.PublicURL == "" && !c.HasStorage() {
		return fmt.Errorf("EBOOK_PUBLIC_URL is required when object storage is not configured")
	}

	// Notifications
	if c.Notifications.ResendAPIKey != "" {
		if c.Notifications.EmailFrom == "" {
			return fmt.Errorf("EMAIL_FROM is required when RESEND_API_KEY is set")
		}
		if len(c.Notifications.SalesInbox) == 0 {
			return fmt.Errorf("SALES_INBOX is required when RESEND_API_KEY is set")
		}
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

func validCountryCode(code string, allowEmptyOrAuto bool) bool {
	if code == "" || code == "auto" {
		return allowEmptyOrAuto
	}
	if len(code) > 3 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// HasStorage reports whether object storage credentials are configured
func (c *Config) HasStorage() bool {
	return c.Storage.AccessKeyID != "" && c.Storage.SecretAccessKey != "" && c.Storage.BucketName != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
