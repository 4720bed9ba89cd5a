package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                string
	JWTSecret           string
	DBPath              string
	TokenExpiryDuration string
	TaxRate             float64
	OvertimeMultiplier  float64
}

var (
	AppConfig Config
)

func LoadConfig() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	AppConfig = Config{
		Port:                getEnvOrDefault("PORT", "3000"),
		JWTSecret:           mustGetEnv("JWT_SECRET"),
		DBPath:              getEnvOrDefault("DB_PATH", "attendance_payroll.db"),
		TokenExpiryDuration: getEnvOrDefault("TOKEN_EXPIRY", "24h"),
		TaxRate:             getEnvFloatOrDefault("TAX_RATE", 0.15),
		OvertimeMultiplier:  getEnvFloatOrDefault("OVERTIME_MULTIPLIER", 1.5),
	}
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required", key)
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Fatalf("Environment variable %s must be a number, got %q", key, value)
	}
	return f
}
