// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config agrega todos os parâmetros necessários para API, worker e carga de candidatos.
type Config struct {
	HTTPAddress string
	LogLevel    slog.Level

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresMaxConns int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FilaKey           string
	ContadorKeyPrefix string

	LockBackend   string
	LockTTL       time.Duration
	LockKeyPrefix string

	RateLimitEnabled       bool
	RateLimitMaxActions    int
	RateLimitWindowSeconds int
	RateLimitKeyPrefix     string

	VoteMaxRetries   int
	StoreTimeout     time.Duration
	TallyConcurrency int

	AutoMigrate    bool
	StartupTimeout time.Duration

	WorkerMetricsAddress    string
	WorkerReconcileInterval time.Duration

	AuthJWTSecret string
	AuthJWTIssuer string
}

const (
	LockBackendRedis = "redis"
	LockBackendLocal = "local"
	LockBackendNone  = "none"
)

func Load() (Config, error) {
	// O .env é opcional; em Docker/K8s as variáveis chegam direto do ambiente.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: falha lendo .env: %w", err)
	}

	cfg := Config{
		HTTPAddress:             getEnv("HTTP_ADDRESS", ":8080"),
		PostgresHost:            getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:            getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:            getEnv("POSTGRES_USER", "votacao"),
		PostgresPassword:        getEnv("POSTGRES_PASSWORD", "votacao"),
		PostgresDB:              getEnv("POSTGRES_DB", "votacao"),
		PostgresSSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresMaxConns:        getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 25),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		FilaKey:                 getEnv("REDIS_QUEUE_KEY", "fila:votos"),
		ContadorKeyPrefix:       getEnv("REDIS_COUNTER_PREFIX", "contador"),
		LockBackend:             strings.ToLower(getEnv("LOCK_BACKEND", LockBackendLocal)),
		LockTTL:                 getEnvAsDuration("LOCK_TTL", 5*time.Second),
		LockKeyPrefix:           getEnv("LOCK_KEY_PREFIX", "lock:voto"),
		RateLimitEnabled:        getEnvAsBool("RATE_LIMIT_ENABLED", false),
		RateLimitMaxActions:     getEnvAsInt("RATE_LIMIT_MAX", 30),
		RateLimitWindowSeconds:  getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		RateLimitKeyPrefix:      getEnv("RATE_LIMIT_PREFIX", "ratelimit"),
		VoteMaxRetries:          getEnvAsInt("VOTE_MAX_RETRIES", 3),
		StoreTimeout:            getEnvAsDuration("STORE_TIMEOUT", 3*time.Second),
		TallyConcurrency:        getEnvAsInt("TALLY_CONCURRENCY", 8),
		AutoMigrate:             getEnvAsBool("DB_AUTO_MIGRATE", true),
		StartupTimeout:          getEnvAsDuration("STARTUP_TIMEOUT", 20*time.Second),
		WorkerMetricsAddress:    getEnv("WORKER_METRICS_ADDRESS", ":9090"),
		WorkerReconcileInterval: getEnvAsDuration("WORKER_RECONCILE_INTERVAL", 5*time.Minute),
		AuthJWTSecret:           os.Getenv("AUTH_JWT_SECRET"),
		AuthJWTIssuer:           os.Getenv("AUTH_JWT_ISSUER"),
	}

	dbStr := getEnv("REDIS_DB", "0")
	dbInt, err := strconv.Atoi(dbStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: REDIS_DB invalido: %w", err)
	}
	cfg.RedisDB = dbInt

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	switch cfg.LockBackend {
	case LockBackendRedis:
		if cfg.RedisAddr == "" {
			return Config{}, fmt.Errorf("config: LOCK_BACKEND=redis exige REDIS_ADDR")
		}
	case LockBackendLocal, LockBackendNone:
	default:
		return Config{}, fmt.Errorf("config: LOCK_BACKEND desconhecido %q", cfg.LockBackend)
	}

	return cfg, nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: LOG_LEVEL invalido: %w", err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
