package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml
// when present, then applies environment overrides and defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders inside string values. An unset
// variable expands to "", never to the literal placeholder.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		s, ok := v.Get(key).(string)
		if !ok || !strings.Contains(s, "${") {
			continue
		}
		v.Set(key, os.ExpandEnv(s))
	}
}

// overrideFromEnv honours the short variable names used by docker-compose.
func overrideFromEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	set(&cfg.Places.APIKey, "PLACES_API_KEY")
	set(&cfg.Database.Postgres.Host, "DB_HOST")
	set(&cfg.Database.Postgres.Database, "DB_NAME")
	set(&cfg.Database.Postgres.User, "DB_USER")
	set(&cfg.Database.Postgres.Password, "DB_PASS")
	set(&cfg.Database.Redis.Address, "REDIS_ADDR")
	set(&cfg.Server.Port, "PORT")
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "cafe-service"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.Places.BaseURL == "" {
		cfg.Places.BaseURL = "https://maps.googleapis.com/maps/api/place"
	}
	if cfg.Places.GeocodeBaseURL == "" {
		cfg.Places.GeocodeBaseURL = strings.TrimSuffix(cfg.Places.BaseURL, "/place")
	}
	if cfg.Places.Timeout == 0 {
		cfg.Places.Timeout = 10000
	}

	if cfg.Region.City == "" {
		cfg.Region.City = "Atlanta"
	}
	if cfg.Region.State == "" {
		cfg.Region.State = "GA"
	}
	if cfg.Region.PostalCode == "" {
		cfg.Region.PostalCode = "30301"
	}

	if cfg.Seed.Query == "" {
		cfg.Seed.Query = "coffee shops in " + cfg.Region.City
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 900
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if cfg.Places.Timeout < 0 || cfg.Places.RateLimit < 0 {
		return fmt.Errorf("places.timeout and places.rate_limit must not be negative")
	}
	if len(cfg.Region.State) != 2 {
		return fmt.Errorf("region.state must be a 2-letter code, got %q", cfg.Region.State)
	}
	return nil
}
