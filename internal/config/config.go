package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/playmatatu/bouncer/internal/physics"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Database
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsDir  string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Security
	JWTSecret     string
	TokenTTLHours int

	// Verification
	VerifyWorkers     int
	VerifyPollSeconds int
	VerifyBatchSize   int
	MaxReplayTicks    int

	// Requeue sweep for pending runs missing from the queue
	RequeueIntervalSeconds int
	RequeueAfterSeconds    int

	// Spectators
	FramesPerSecond int

	// Physics tuning file (optional)
	PhysicsFile string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/bouncer?sslmode=disable"),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Security
		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTLHours: getEnvInt("TOKEN_TTL_HOURS", 24),

		// Verification
		VerifyWorkers:     getEnvInt("VERIFY_WORKERS", 4),
		VerifyPollSeconds: getEnvInt("VERIFY_POLL_SECONDS", 2),
		VerifyBatchSize:   getEnvInt("VERIFY_BATCH_SIZE", 32),
		MaxReplayTicks:    getEnvInt("MAX_REPLAY_TICKS", physics.DefaultTickRate*60*30),

		RequeueIntervalSeconds: getEnvInt("REQUEUE_INTERVAL_SECONDS", 60),
		RequeueAfterSeconds:    getEnvInt("REQUEUE_AFTER_SECONDS", 120),

		FramesPerSecond: getEnvInt("FRAMES_PER_SECOND", 30),

		PhysicsFile: getEnv("PHYSICS_FILE", ""),
	}
}

// LoadPhysics overlays a YAML tuning file on the default constants. An empty
// path returns the defaults.
func LoadPhysics(path string) (physics.Params, error) {
	params := physics.DefaultParams()
	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return params, fmt.Errorf("physics file %s not found: %w", path, err)
		}
		return params, fmt.Errorf("read physics file: %w", err)
	}

	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("parse physics file %s: %w", path, err)
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("physics file %s: %w", path, err)
	}
	return params, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
