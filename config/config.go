package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTSecret    string
	JWTExpiryMin int

	RedisHost     string
	RedisPort     string
	RedisPassword string

	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	S3PublicBase string

	WhatsAppAPIURL   string
	WhatsAppToken    string
	WebhookToken     string
	VapidPublicKey   string
	VapidPrivateKey  string
	VapidSubject     string
	AdminEmail       string
	AdminPassword    string
	MaxUploadBytes   int64
	ArchiveAfterDays int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "support_chat"),
		DBPort:     getEnv("DB_PORT", "5432"),

		JWTSecret:    getEnv("JWT_SECRET", "change-me"),
		JWTExpiryMin: getEnvAsInt("JWT_EXPIRY_MIN", 480),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		S3Region:     getEnv("S3_REGION", ""),
		S3Bucket:     getEnv("S3_BUCKET", ""),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3PublicBase: getEnv("S3_PUBLIC_BASE", ""),

		WhatsAppAPIURL:   getEnv("WHATSAPP_API_URL", ""),
		WhatsAppToken:    getEnv("WHATSAPP_TOKEN", ""),
		WebhookToken:     getEnv("WEBHOOK_TOKEN", ""),
		VapidPublicKey:   getEnv("VAPID_PUBLIC_KEY", ""),
		VapidPrivateKey:  getEnv("VAPID_PRIVATE_KEY", ""),
		VapidSubject:     getEnv("VAPID_SUBJECT", "mailto:support@example.com"),
		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@support.chat"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "Admin@123!"),
		MaxUploadBytes:   int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		ArchiveAfterDays: getEnvAsInt("ARCHIVE_AFTER_DAYS", 30),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
