package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Places   PlacesConfig   `mapstructure:"places"`
	Region   RegionConfig   `mapstructure:"region"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PlacesConfig configures the place-search provider client.
type PlacesConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	GeocodeBaseURL string `mapstructure:"geocode_base_url"`
	Timeout        int    `mapstructure:"timeout"`    // milliseconds
	RateLimit      int    `mapstructure:"rate_limit"` // milliseconds between requests, 0 = unlimited
}

// RegionConfig holds the address defaults for the single region the
// directory serves.
type RegionConfig struct {
	City       string `mapstructure:"city"`
	State      string `mapstructure:"state"`
	PostalCode string `mapstructure:"postal_code"`
}

type SeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Query   string `mapstructure:"query"`
}

type CacheConfig struct {
	TTL int `mapstructure:"ttl"` // seconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
