package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                          string
	DatabaseURL                   string
	DBMaxOpenConns                int
	DBMaxIdleConns                int
	DBConnMaxLifetimeSeconds      int
	DBConnMaxIdleTimeSeconds      int
	JWTSecret                     string
	TokenTTLHours                 int
	DefaultDurationMinutes        int
	GeneratorURLs                 []string
	GeneratorTimeoutSeconds       int
	ExpertGeneratorTimeoutSeconds int
	ArtifactPublicBaseURL         string
	AllowedOrigins                []string
	RedisURL                      string
	NATSURL                       string
	NATSSubjectPrefix             string
	LoginMaxAttempts              int
	LoginWindowSeconds            int
	AdminEmail                    string
	AdminPassword                 string
	LogLevel                      string
	LogFormat                     string
}

func Default() Config {
	return Config{
		Port:                          "8080",
		DBMaxOpenConns:                10,
		DBMaxIdleConns:                10,
		DBConnMaxLifetimeSeconds:      300,
		DBConnMaxIdleTimeSeconds:      60,
		JWTSecret:                     "change-me",
		TokenTTLHours:                 24,
		DefaultDurationMinutes:        1440,
		GeneratorURLs:                 []string{"http://ppt-service:8000"},
		GeneratorTimeoutSeconds:       60,
		ExpertGeneratorTimeoutSeconds: 180,
		AllowedOrigins:                []string{"*"},
		NATSSubjectPrefix:             "hackathon",
		LoginMaxAttempts:              10,
		LoginWindowSeconds:            300,
		LogLevel:                      "info",
		LogFormat:                     "console",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("JWT_SECRET"); raw != "" {
		cfg.JWTSecret = raw
	}
	if raw := os.Getenv("TOKEN_TTL_HOURS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TokenTTLHours = value
		}
	}
	if raw := os.Getenv("DEFAULT_DURATION_MINUTES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DefaultDurationMinutes = value
		}
	}
	if raw := os.Getenv("GENERATOR_URLS"); raw != "" {
		cfg.GeneratorURLs = splitList(raw)
	}
	// PYTHON_SERVICE_URL keeps the highest priority, ahead of the candidate list.
	if raw := strings.TrimSpace(os.Getenv("PYTHON_SERVICE_URL")); raw != "" {
		cfg.GeneratorURLs = append([]string{raw}, cfg.GeneratorURLs...)
	}
	if raw := os.Getenv("GENERATOR_TIMEOUT_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.GeneratorTimeoutSeconds = value
		}
	}
	if raw := os.Getenv("EXPERT_GENERATOR_TIMEOUT_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.ExpertGeneratorTimeoutSeconds = value
		}
	}
	if raw := os.Getenv("ARTIFACT_PUBLIC_BASE_URL"); raw != "" {
		cfg.ArtifactPublicBaseURL = strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		cfg.RedisURL = raw
	}
	if raw := os.Getenv("NATS_URL"); raw != "" {
		cfg.NATSURL = raw
	}
	if raw := os.Getenv("NATS_SUBJECT_PREFIX"); raw != "" {
		cfg.NATSSubjectPrefix = raw
	}
	if raw := os.Getenv("LOGIN_MAX_ATTEMPTS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.LoginMaxAttempts = value
		}
	}
	if raw := os.Getenv("LOGIN_WINDOW_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.LoginWindowSeconds = value
		}
	}
	if raw := os.Getenv("ADMIN_EMAIL"); raw != "" {
		cfg.AdminEmail = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw := os.Getenv("ADMIN_PASSWORD"); raw != "" {
		cfg.AdminPassword = raw
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("LOG_FORMAT"); raw != "" {
		cfg.LogFormat = raw
	}
	return cfg
}

func (c Config) GeneratorTimeout() time.Duration {
	return time.Duration(c.GeneratorTimeoutSeconds) * time.Second
}

func (c Config) ExpertGeneratorTimeout() time.Duration {
	return time.Duration(c.ExpertGeneratorTimeoutSeconds) * time.Second
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c Config) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowSeconds) * time.Second
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
