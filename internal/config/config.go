package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "supersecretkey"

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// MigrateOnStart applies embedded migrations before the API starts serving.
	MigrateOnStart bool

	JWTSecret string

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string

	// JWTExpireHours is the token lifetime in hours (default 24). Set via JWT_EXPIRE_HOURS.
	JWTExpireHours int

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json". LogLevel is debug|info|warn|error.
	LogFormat string
	LogLevel  string

	// CORSAllowedOrigins is set via CORS_ALLOWED_ORIGINS (comma-separated). Empty means same-origin only.
	CORSAllowedOrigins []string

	// StoreTimeout bounds every transaction against the store. Past it the operation is reported as unavailable.
	StoreTimeout time.Duration

	// LoanPeriod is added to the loan time to compute the expected return (default 7 days).
	LoanPeriod time.Duration

	// RedisAddr enables the shared idempotency store. When empty an in-process store is used.
	RedisAddr     string
	RedisPassword string

	// IdempotencyTTL is how long an Idempotency-Key stays reserved.
	IdempotencyTTL time.Duration

	// QRSchemes overrides the custom URI schemes accepted in scanned payloads (QR_SCHEMES, comma-separated).
	QRSchemes []string

	// Cron expressions for the background sweeps. Empty disables the sweep.
	OverdueSweepCron     string
	ConsistencySweepCron string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "lendingdb"),
		DBUser: getEnv("DB_USER", "lending"),
		DBPass: getEnv("DB_PASS", "lending"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		Env:            getEnv("ENV", "dev"),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		CORSAllowedOrigins: parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		StoreTimeout: time.Duration(getEnvInt("STORE_TIMEOUT_SECONDS", 5)) * time.Second,
		LoanPeriod:   time.Duration(getEnvInt("LOAN_PERIOD_DAYS", 7)) * 24 * time.Hour,

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		IdempotencyTTL: time.Duration(getEnvInt("IDEMPOTENCY_TTL_SECONDS", 600)) * time.Second,

		QRSchemes: parseCSV(getEnv("QR_SCHEMES", "")),

		OverdueSweepCron:     getEnv("OVERDUE_SWEEP_CRON", "@every 15m"),
		ConsistencySweepCron: getEnv("CONSISTENCY_SWEEP_CRON", "@hourly"),
	}
}

// Validate rejects configurations that must not reach production.
func (c Config) Validate() error {
	if c.Env == "prod" && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set to a non-default value when ENV=prod")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// DatabaseURL returns the postgres URL form of the connection settings, as golang-migrate expects.
func (c Config) DatabaseURL() string {
	return "postgres://" + c.DBUser + ":" + c.DBPass + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=disable"
}

// parseCSV splits a comma-separated list and trims spaces. Empty strings are omitted.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
