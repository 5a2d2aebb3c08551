package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Port string `yaml:"port"`

	// Database
	DBDriver string `yaml:"db_driver"` // "sqlite" | "postgres"
	DBPath   string `yaml:"db_path"`   // SQLite path
	DBUrl    string `yaml:"db_url"`    // Postgres DSN

	// Auth
	JWTSecret        string `yaml:"jwt_secret"`
	JWTAlgorithm     string `yaml:"jwt_algorithm"`
	TokenExpiryHours int    `yaml:"token_expiry_hours"`

	// LLM provider
	ProviderEndpoint string `yaml:"provider_endpoint"`
	ProviderAPIKey   string `yaml:"provider_api_key"`
	ProviderModel    string `yaml:"provider_model"`

	// Orchestration: one deadline spans both completion phases of a chat turn.
	CompletionTimeoutSeconds int `yaml:"completion_timeout_seconds"`

	// Web search engine (JSON keyword search endpoint)
	SearchEndpoint string `yaml:"search_endpoint"`

	// Document store (session/workflow storage variant)
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Object storage (raw uploaded files)
	ObjectStoreEndpoint  string `yaml:"objstore_endpoint"`
	ObjectStoreAccessKey string `yaml:"objstore_access_key"`
	ObjectStoreSecretKey string `yaml:"objstore_secret_key"`
	ObjectStoreBucket    string `yaml:"objstore_bucket"`
	ObjectStoreUseSSL    bool   `yaml:"objstore_use_ssl"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Load builds the config from the environment. If PANTA_CONFIG_FILE points at
// a YAML file, the file is read first and env vars override its values.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                     "8080",
		DBDriver:                 "sqlite",
		DBPath:                   "./data/panta.db",
		JWTAlgorithm:             "HS256",
		TokenExpiryHours:         720,
		ProviderModel:            "gpt-4o",
		CompletionTimeoutSeconds: 120,
		ObjectStoreBucket:        "panta-uploads",
		LogLevel:                 "info",
	}

	if path := os.Getenv("PANTA_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	overlayEnv(cfg)

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("PANTA_JWT_SECRET is required")
	}
	return cfg, nil
}

func overlayEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBDriver = getEnv("PANTA_DB_DRIVER", cfg.DBDriver)
	cfg.DBPath = getEnv("PANTA_DB_PATH", cfg.DBPath)
	cfg.DBUrl = getEnv("PANTA_DATABASE_URL", cfg.DBUrl)
	cfg.JWTSecret = getEnv("PANTA_JWT_SECRET", cfg.JWTSecret)
	cfg.JWTAlgorithm = getEnv("PANTA_JWT_ALGORITHM", cfg.JWTAlgorithm)
	cfg.TokenExpiryHours = getEnvInt("PANTA_TOKEN_EXPIRY_HOURS", cfg.TokenExpiryHours)
	cfg.ProviderEndpoint = getEnv("PANTA_PROVIDER_ENDPOINT", cfg.ProviderEndpoint)
	cfg.ProviderAPIKey = getEnv("PANTA_PROVIDER_API_KEY", cfg.ProviderAPIKey)
	cfg.ProviderModel = getEnv("PANTA_PROVIDER_MODEL", cfg.ProviderModel)
	cfg.CompletionTimeoutSeconds = getEnvInt("PANTA_COMPLETION_TIMEOUT_SECONDS", cfg.CompletionTimeoutSeconds)
	cfg.SearchEndpoint = getEnv("PANTA_SEARCH_ENDPOINT", cfg.SearchEndpoint)
	cfg.RedisAddr = getEnv("PANTA_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("PANTA_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("PANTA_REDIS_DB", cfg.RedisDB)
	cfg.ObjectStoreEndpoint = getEnv("PANTA_OBJSTORE_ENDPOINT", cfg.ObjectStoreEndpoint)
	cfg.ObjectStoreAccessKey = getEnv("PANTA_OBJSTORE_ACCESS_KEY", cfg.ObjectStoreAccessKey)
	cfg.ObjectStoreSecretKey = getEnv("PANTA_OBJSTORE_SECRET_KEY", cfg.ObjectStoreSecretKey)
	cfg.ObjectStoreBucket = getEnv("PANTA_OBJSTORE_BUCKET", cfg.ObjectStoreBucket)
	cfg.ObjectStoreUseSSL = getEnvBool("PANTA_OBJSTORE_USE_SSL", cfg.ObjectStoreUseSSL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
