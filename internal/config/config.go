package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string

	MongoURI         string
	MongoDBName      string
	MongoMaxPoolSize int
	MongoMinPoolSize int

	RedisAddr     string
	RedisPassword string

	PostgresHost      string
	PostgresPort      int
	PostgresUser      string
	PostgresPassword  string
	PostgresDBName    string
	MigrationsDirPath string

	TelegramBotToken string
	TelegramChatID   string

	AdminToken string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, honoring a .env file
// when one is present. Telegram values may legitimately be empty; the
// notifier degrades to a no-op in that case.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env file: %v", err)
	}

	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:      getEnv("MONGO_DB_NAME", "newshop"),
		MongoMaxPoolSize: getEnvInt("MONGO_MAX_POOL_SIZE", 50),
		MongoMinPoolSize: getEnvInt("MONGO_MIN_POOL_SIZE", 5),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		PostgresHost:      getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:      getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:  getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDBName:    getEnv("POSTGRES_DB", "newshop"),
		MigrationsDirPath: getEnv("MIGRATIONS_DIR", "./migrations"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid value for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
