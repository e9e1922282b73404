package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Printer   PrinterConfig
	Fallback  FallbackConfig
	Queue     QueueConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

// JWTConfig holds the secret used to verify tokens issued by the auth service.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// PrinterConfig selects and tunes the print path.
type PrinterConfig struct {
	Strategy          string // auto, usb, serial, network or browser
	ByCategory        bool
	FallbackOnFailure bool
	BaudRate          int
	USBGrants         []string // "vvvv:pppp" pairs granted at startup
	SerialGrants      []string // port names granted at startup
	VendorIDs         []string // extra USB vendor IDs (hex) on top of the built-in list
	NetworkAddress    string
	AutoAuthorize     bool
	DeviceTimeout     time.Duration
	JobDelay          time.Duration
	FallbackDelay     time.Duration
	Timezone          string
}

// FallbackConfig configures the print dialog surface.
type FallbackConfig struct {
	Surface    string // browser or chrome
	ChromePath string
	SpoolDir   string
	TTL        time.Duration
	BaseURL    string
}

// QueueConfig configures the kitchen print queue consumer. An empty URL
// disables it.
type QueueConfig struct {
	URL             string
	Exchange        string
	Queue           string
	RoutingKey      string
	DeadLetterQueue string
	Prefetch        int
}

func Load(log *zap.Logger) *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn(".env file not found, using environment variables", zap.Error(err))
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "kitchen-pos")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "kitchen_pos")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", "")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)

	viper.SetDefault("PRINTER_STRATEGY", "auto")
	viper.SetDefault("PRINTER_BY_CATEGORY", false)
	viper.SetDefault("PRINTER_FALLBACK_ON_FAILURE", true)
	viper.SetDefault("PRINTER_BAUD_RATE", 9600)
	viper.SetDefault("PRINTER_USB_GRANTS", "")
	viper.SetDefault("PRINTER_SERIAL_GRANTS", "")
	viper.SetDefault("PRINTER_VENDOR_IDS", "")
	viper.SetDefault("PRINTER_NETWORK_ADDRESS", "")
	viper.SetDefault("PRINTER_AUTO_AUTHORIZE", false)
	viper.SetDefault("PRINTER_DEVICE_TIMEOUT", 10)
	viper.SetDefault("PRINTER_JOB_DELAY_MS", 1000)
	viper.SetDefault("PRINTER_FALLBACK_DELAY_MS", 2000)
	viper.SetDefault("RECEIPT_TIMEZONE", "Asia/Kolkata")

	viper.SetDefault("FALLBACK_SURFACE", "browser")
	viper.SetDefault("FALLBACK_CHROME_PATH", "")
	viper.SetDefault("FALLBACK_SPOOL_DIR", "./spool")
	viper.SetDefault("FALLBACK_TTL_MINUTES", 10)
	viper.SetDefault("FALLBACK_BASE_URL", "/api/v1/printer/fallback")

	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("PRINT_EXCHANGE", "kitchen.print")
	viper.SetDefault("PRINT_QUEUE", "kitchen.print.receipts")
	viper.SetDefault("PRINT_ROUTING_KEY", "receipt.print")
	viper.SetDefault("PRINT_DEAD_LETTER_QUEUE", "kitchen.print.receipts.dlq")
	viper.SetDefault("PRINT_PREFETCH", 1)

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		CORS: CORSConfig{
			AllowedOrigins: SplitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: SplitList(viper.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: SplitList(viper.GetString("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Printer: PrinterConfig{
			Strategy:          strings.ToLower(viper.GetString("PRINTER_STRATEGY")),
			ByCategory:        viper.GetBool("PRINTER_BY_CATEGORY"),
			FallbackOnFailure: viper.GetBool("PRINTER_FALLBACK_ON_FAILURE"),
			BaudRate:          viper.GetInt("PRINTER_BAUD_RATE"),
			USBGrants:         SplitList(viper.GetString("PRINTER_USB_GRANTS")),
			SerialGrants:      SplitList(viper.GetString("PRINTER_SERIAL_GRANTS")),
			VendorIDs:         SplitList(viper.GetString("PRINTER_VENDOR_IDS")),
			NetworkAddress:    viper.GetString("PRINTER_NETWORK_ADDRESS"),
			AutoAuthorize:     viper.GetBool("PRINTER_AUTO_AUTHORIZE"),
			DeviceTimeout:     time.Duration(viper.GetInt("PRINTER_DEVICE_TIMEOUT")) * time.Second,
			JobDelay:          time.Duration(viper.GetInt("PRINTER_JOB_DELAY_MS")) * time.Millisecond,
			FallbackDelay:     time.Duration(viper.GetInt("PRINTER_FALLBACK_DELAY_MS")) * time.Millisecond,
			Timezone:          viper.GetString("RECEIPT_TIMEZONE"),
		},
		Fallback: FallbackConfig{
			Surface:    strings.ToLower(viper.GetString("FALLBACK_SURFACE")),
			ChromePath: viper.GetString("FALLBACK_CHROME_PATH"),
			SpoolDir:   viper.GetString("FALLBACK_SPOOL_DIR"),
			TTL:        time.Duration(viper.GetInt("FALLBACK_TTL_MINUTES")) * time.Minute,
			BaseURL:    viper.GetString("FALLBACK_BASE_URL"),
		},
		Queue: QueueConfig{
			URL:             viper.GetString("RABBITMQ_URL"),
			Exchange:        viper.GetString("PRINT_EXCHANGE"),
			Queue:           viper.GetString("PRINT_QUEUE"),
			RoutingKey:      viper.GetString("PRINT_ROUTING_KEY"),
			DeadLetterQueue: viper.GetString("PRINT_DEAD_LETTER_QUEUE"),
			Prefetch:        viper.GetInt("PRINT_PREFETCH"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// SplitList splits a comma separated setting, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
