package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds everything the server reads from the environment.
// Load it once in main and pass it down - handlers never call os.Getenv.
type Config struct {
	Port         string
	BaseURL      string
	DatabaseDSN  string
	RedisAddr    string // empty = rate limiting disabled
	JWTSecret    string
	SessionTTL   int // hours
	TaxRate      decimal.Decimal
	UPIID        string
	MerchantName string
	CORSOrigins  []string

	AllowRegistration  bool
	AllowNegativeStock bool

	GeminiAPIKey string
}

func Load() Config {
	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseDSN:        os.Getenv("DB_DSN"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		JWTSecret:          getEnv("JWT_SECRET", "change_me_in_production"),
		SessionTTL:         getEnvInt("SESSION_TTL_HOURS", 24),
		UPIID:              getEnv("UPI_ID", "merchant@upi"),
		MerchantName:       getEnv("MERCHANT_NAME", "College Canteen"),
		AllowRegistration:  os.Getenv("ALLOW_REGISTRATION") == "true",
		AllowNegativeStock: os.Getenv("ALLOW_NEGATIVE_STOCK") == "true",
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
	}

	cfg.TaxRate = decimal.NewFromFloat(0.05)
	if raw := os.Getenv("TAX_RATE"); raw != "" {
		if rate, err := decimal.NewFromString(raw); err == nil && !rate.IsNegative() {
			cfg.TaxRate = rate
		}
	}

	origins := getEnv("CORS_ORIGINS", "http://localhost:5173")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
