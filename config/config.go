package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port        string
	CorsOrigins string

	DBDriver    string // postgres, mysql or sqlite
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBDSN       string // Overrides the individual DB_* values when set
	DBLogLevel  string
	AutoMigrate bool

	JWTKey          string
	SessionTTLHours int
	SaltRound       int

	TutorCapacity int

	RedisURL string

	SendGridAPIKey  string
	EmailSender     string
	EmailSenderName string

	FormRelayURL        string
	FormRelayTimeoutSec int

	MetricsEnabled bool

	// Requests per minute per IP on the public write endpoints
	PublicRateLimit int

	SeedOwnerEmail    string
	SeedOwnerPassword string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:        getEnv("PORT", "3000"),
		CorsOrigins: getEnv("CORS_ORIGINS", "*"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "tutorhub"),
		DBDSN:       getEnv("DB_DSN", ""),
		DBLogLevel:  getEnv("DB_LOG_LEVEL", "warn"),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", false),

		JWTKey:          getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 24),
		SaltRound:       getEnvInt("SALT_ROUND", 10),

		TutorCapacity: getEnvInt("TUTOR_CAPACITY", 40),

		RedisURL: getEnv("REDIS_URL", ""),

		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		EmailSender:     getEnv("EMAIL_SENDER", "no-reply@tutorhub.local"),
		EmailSenderName: getEnv("EMAIL_SENDER_NAME", "TutorHub"),

		FormRelayURL:        getEnv("FORM_RELAY_URL", ""),
		FormRelayTimeoutSec: getEnvInt("FORM_RELAY_TIMEOUT_SEC", 10),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		PublicRateLimit: getEnvInt("PUBLIC_RATE_LIMIT", 10),

		SeedOwnerEmail:    getEnv("SEED_OWNER_EMAIL", ""),
		SeedOwnerPassword: getEnv("SEED_OWNER_PASSWORD", ""),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.SendGridAPIKey == "" {
		log.Println("Warning: SENDGRID_API_KEY not set. Notification emails will only be logged.")
	}
	if AppConfig.TutorCapacity <= 0 {
		log.Printf("Warning: invalid TUTOR_CAPACITY %d, falling back to 40", AppConfig.TutorCapacity)
		AppConfig.TutorCapacity = 40
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}
