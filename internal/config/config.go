package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/filipesuhett/academic-system/internal/grading"
)

// Config holds runtime configuration values for the academic system.
type Config struct {
	AppName        string
	AppEnv         string
	AppPort        string
	DatabaseURL    string
	SQLitePath     string
	RedisURL       string
	NATSURL        string
	JWTSecret      string
	DataDir        string
	GradingPolicy  grading.Policy
	ReportCacheTTL time.Duration
	RateLimit      int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// UsePostgres reports whether a PostgreSQL DSN was configured.
func (c Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ACADEMIC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Academic System")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("sqlite.path", "academic.db")
	v.SetDefault("data.dir", "data")
	v.SetDefault("grading.policy", string(grading.PolicySum))
	v.SetDefault("report.cache_ttl", "5m")
	v.SetDefault("rate_limit", 120)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	ttlString := v.GetString("report.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid report cache ttl: %w", err)
	}

	policy, err := grading.ParsePolicy(v.GetString("grading.policy"), grading.PolicySum)
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading policy: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		DatabaseURL:    v.GetString("database.url"),
		SQLitePath:     v.GetString("sqlite.path"),
		RedisURL:       v.GetString("redis.url"),
		NATSURL:        v.GetString("nats.url"),
		JWTSecret:      v.GetString("jwt.secret"),
		DataDir:        v.GetString("data.dir"),
		GradingPolicy:  policy,
		ReportCacheTTL: ttl,
		RateLimit:      v.GetInt("rate_limit"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 120
	}

	return cfg, nil
}
