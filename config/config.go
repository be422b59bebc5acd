package config

import (
	"log"
	"os"
	"strconv"
	"time"

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

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	S3PublicBase string
	S3PresignTTL time.Duration

	SingleSessionTTL    time.Duration
	MultipartSessionTTL time.Duration
	MaxPartCount        int

	OutboxInterval   time.Duration
	OutboxBatchSize  int
	OutboxMaxRetries int
	OutboxRetryAfter time.Duration
	OutboxStaleAfter time.Duration

	LockWaitTimeout time.Duration
	LockLease       time.Duration

	WebhookTimeout time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "fileflow"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		S3Region:     getEnv("S3_REGION", "us-east-1"),
		S3Bucket:     getEnv("S3_BUCKET", "fileflow-uploads"),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3PublicBase: getEnv("S3_PUBLIC_BASE", ""),
		S3PresignTTL: getEnvAsDuration("S3_PRESIGN_TTL", time.Hour),

		SingleSessionTTL:    getEnvAsDuration("SINGLE_SESSION_TTL", 15*time.Minute),
		MultipartSessionTTL: getEnvAsDuration("MULTIPART_SESSION_TTL", 24*time.Hour),
		MaxPartCount:        getEnvAsInt("MAX_PART_COUNT", 10000),

		OutboxInterval:   getEnvAsDuration("OUTBOX_INTERVAL", 30*time.Second),
		OutboxBatchSize:  getEnvAsInt("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries: getEnvAsInt("OUTBOX_MAX_RETRIES", 5),
		OutboxRetryAfter: getEnvAsDuration("OUTBOX_RETRY_AFTER", time.Minute),
		OutboxStaleAfter: getEnvAsDuration("OUTBOX_STALE_AFTER", 10*time.Minute),

		LockWaitTimeout: getEnvAsDuration("LOCK_WAIT_TIMEOUT", 2*time.Second),
		LockLease:       getEnvAsDuration("LOCK_LEASE", 10*time.Second),

		WebhookTimeout: getEnvAsDuration("WEBHOOK_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
