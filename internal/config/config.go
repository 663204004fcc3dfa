package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Auth      AuthConfig
	SMTP      SMTPConfig
	MQTT      MQTTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	Environment    string
	MaxRequestSize int64
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

type JWTConfig struct {
	Secret       string
	Expiry       time.Duration
	CookieExpiry time.Duration
	CookieSecret string
}

type AuthConfig struct {
	BcryptCost             int
	ResetTokenTTL          time.Duration
	ResetTokenCleanupEvery time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Insecure bool
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Enabled reports whether job events should be published.
func (c *MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("MAX_REQUEST_SIZE", 10<<10)

	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_AUTO_MIGRATE", true)

	viper.SetDefault("JWT_EXPIRY_DAYS", 90)
	viper.SetDefault("JWT_COOKIE_EXPIRY_DAYS", 90)

	viper.SetDefault("BCRYPT_COST", 12)
	viper.SetDefault("RESET_TOKEN_TTL_MINUTES", 10)
	viper.SetDefault("RESET_TOKEN_CLEANUP_INTERVAL", "1h")

	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM", "Job Tracker <no-reply@job-tracker.local>")

	viper.SetDefault("MQTT_CLIENT_ID", "job-tracker")
	viper.SetDefault("MQTT_TOPIC_PREFIX", "job-tracker")

	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 100.0/3600.0)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 100)

	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PATCH,DELETE,OPTIONS")
	viper.SetDefault("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Authorization,X-Request-ID")
	viper.SetDefault("CORS_EXPOSED_HEADERS", "X-Request-ID")
	viper.SetDefault("CORS_ALLOW_CREDENTIALS", false)
	viper.SetDefault("CORS_MAX_AGE", "12h")
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Host:           viper.GetString("SERVER_HOST"),
			Environment:    viper.GetString("ENVIRONMENT"),
			MaxRequestSize: viper.GetInt64("MAX_REQUEST_SIZE"),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASSWORD"),
			DBName:      viper.GetString("DB_NAME"),
			SSLMode:     viper.GetString("DB_SSLMODE"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			Expiry:       days(viper.GetInt("JWT_EXPIRY_DAYS")),
			CookieExpiry: days(viper.GetInt("JWT_COOKIE_EXPIRY_DAYS")),
			CookieSecret: viper.GetString("COOKIE_SECRET"),
		},
		Auth: AuthConfig{
			BcryptCost:             viper.GetInt("BCRYPT_COST"),
			ResetTokenTTL:          time.Duration(viper.GetInt("RESET_TOKEN_TTL_MINUTES")) * time.Minute,
			ResetTokenCleanupEvery: viper.GetDuration("RESET_TOKEN_CLEANUP_INTERVAL"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
			Insecure: viper.GetBool("SMTP_INSECURE"),
		},
		MQTT: MQTTConfig{
			Broker:      viper.GetString("MQTT_BROKER"),
			ClientID:    viper.GetString("MQTT_CLIENT_ID"),
			Username:    viper.GetString("MQTT_USERNAME"),
			Password:    viper.GetString("MQTT_PASSWORD"),
			TopicPrefix: viper.GetString("MQTT_TOPIC_PREFIX"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   stringList("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   stringList("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   stringList("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   stringList("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetDuration("CORS_MAX_AGE"),
		},
	}

	if config.JWT.CookieSecret == "" {
		config.JWT.CookieSecret = config.JWT.Secret
	}

	return config, nil
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Database.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.JWT.Secret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.JWT.Expiry <= 0 {
		return errors.New("JWT_EXPIRY_DAYS must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// stringList accepts both comma separated env values and real lists.
func stringList(key string) []string {
	var out []string
	for _, item := range viper.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
