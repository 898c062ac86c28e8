package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration. Values come from built-in defaults,
// then the YAML file named by DYNAFORM_CONFIG, then environment variables.
type Config struct {
	MongoURI          string `yaml:"mongoUri" validate:"required"`
	MongoDatabase     string `yaml:"mongoDatabase" validate:"required"`
	MongoTransactions bool   `yaml:"mongoTransactions"` // requires a replica set
	RedisAddr         string `yaml:"redisAddr"`
	HTTPPort          string `yaml:"httpPort" validate:"required,numeric"`
	LogLevel          string `yaml:"logLevel" validate:"oneof=debug info warn error"`
	LogFormat         string `yaml:"logFormat" validate:"oneof=json text"`
	LockRulesPath     string `yaml:"lockRulesPath"`
	ObjectSchemaPath  string `yaml:"objectSchemaPath"`
	Auth              Auth   `yaml:"auth"`
	Engine            Engine `yaml:"engine"`
}

// Auth configures editor login and token signing
type Auth struct {
	EditorUsername string        `yaml:"editorUsername" validate:"required"`
	EditorPassword string        `yaml:"-" validate:"required"`
	JWTSecret      string        `yaml:"-" validate:"required,min=16"`
	RespondentTTL  time.Duration `yaml:"respondentTtl" validate:"gt=0"`
}

var validate = validator.New()

// Load builds the configuration and validates it
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("DYNAFORM_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getEnv("MONGO_DATABASE", cfg.MongoDatabase)
	cfg.MongoTransactions = getBool("MONGO_TRANSACTIONS", cfg.MongoTransactions)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LockRulesPath = getEnv("LOCK_RULES_PATH", cfg.LockRulesPath)
	cfg.ObjectSchemaPath = getEnv("OBJECT_SCHEMA_PATH", cfg.ObjectSchemaPath)
	cfg.Auth.EditorUsername = getEnv("EDITOR_USERNAME", cfg.Auth.EditorUsername)
	cfg.Auth.EditorPassword = getEnv("EDITOR_PASSWORD", cfg.Auth.EditorPassword)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.RespondentTTL = getDuration("RESPONDENT_TOKEN_TTL", cfg.Auth.RespondentTTL)
	cfg.Engine.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "dynaform",
		RedisAddr:     "localhost:6379",
		HTTPPort:      "8080",
		LogLevel:      "info",
		LogFormat:     "text",
		Auth: Auth{
			EditorUsername: "admin",
			EditorPassword: "password123",
			JWTSecret:      "super-secret-key-change-in-production",
			RespondentTTL:  24 * time.Hour,
		},
		Engine: DefaultEngine(),
	}
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}
