package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// AutoCare API
	APIBaseURL string

	// HTTP
	HTTPTimeout time.Duration

	// Token 存储路径
	TokenFile string

	Debug bool

	// Dev server
	ServerPort string
	JWTSecret  string
	BcryptCost int

	// Token 有效期（dev server 签发用）
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func Load() (*Config, error) {
	// 尝试加载 .env 文件（可选）
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:      getEnv("AUTOCARE_API_URL", "http://localhost:3000"),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		TokenFile:       getEnv("TOKEN_FILE", "tokens.json"),
		Debug:           getEnvBool("DEBUG", false),
		ServerPort:      getEnv("PORT", "3000"),
		JWTSecret:       getEnv("JWT_SECRET", "autocare-dev-secret"),
		BcryptCost:      getEnvInt("BCRYPT_COST", 10),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
