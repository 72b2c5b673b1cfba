// Package config loads server settings from an optional YAML file and the environment.
// Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // REPORT_TIMEZONE must resolve in minimal containers

	"kohisync_backend/pkg/utils"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type DatabaseConfig struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"sslmode"`
	SchemaPath string `yaml:"schema_path"`
}

// DSN is the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type Config struct {
	Port          string         `yaml:"port"`
	MetricsPort   string         `yaml:"metrics_port"`
	StorageDriver string         `yaml:"storage_driver"`
	Database      DatabaseConfig `yaml:"database"`

	JWTSecret string        `yaml:"jwt_secret"`
	JWTTTL    time.Duration `yaml:"jwt_ttl"`

	KioskSessionTTL time.Duration `yaml:"kiosk_session_ttl"`
	ReportTimezone  string        `yaml:"report_timezone"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	SeedDemoData  bool   `yaml:"seed_demo_data"`
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`

	envProblems []string
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Port:          "8080",
		MetricsPort:   "9090",
		StorageDriver: StoragePostgres,
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "kohisync",
			Name:    "kohisync_pos",
			SSLMode: "disable",
		},
		JWTTTL:             12 * time.Hour,
		KioskSessionTTL:    30 * time.Minute,
		ReportTimezone:     "UTC",
		CORSAllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		LogLevel:           "info",
		LogFormat:          "console",
		AdminUsername:      "admin",
	}
}

// Load reads path (skipped when empty) and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = utils.Getenv("PORT", c.Port)
	c.MetricsPort = utils.Getenv("METRICS_PORT", c.MetricsPort)
	c.StorageDriver = strings.ToLower(utils.Getenv("STORAGE_DRIVER", c.StorageDriver))

	c.Database.Host = utils.Getenv("DB_HOST", c.Database.Host)
	c.Database.Port = utils.Getenv("DB_PORT", c.Database.Port)
	c.Database.User = utils.Getenv("DB_USER", c.Database.User)
	c.Database.Password = utils.Getenv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = utils.Getenv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = utils.Getenv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.SchemaPath = utils.Getenv("DB_SCHEMA_PATH", c.Database.SchemaPath)

	c.JWTSecret = utils.Getenv("JWT_SECRET", c.JWTSecret)
	c.JWTTTL = c.envValue(utils.GetenvDuration("JWT_TTL", c.JWTTTL))
	c.KioskSessionTTL = c.envValue(utils.GetenvDuration("KIOSK_SESSION_TTL", c.KioskSessionTTL))
	c.ReportTimezone = utils.Getenv("REPORT_TIMEZONE", c.ReportTimezone)

	if origins := utils.Getenv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		c.CORSAllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSAllowedOrigins = append(c.CORSAllowedOrigins, o)
			}
		}
	}

	c.LogLevel = utils.Getenv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = utils.Getenv("LOG_FORMAT", c.LogFormat)
	seed, err := utils.GetenvBool("SEED_DEMO_DATA", c.SeedDemoData)
	if err != nil {
		c.envProblems = append(c.envProblems, err.Error())
	}
	c.SeedDemoData = seed
	c.AdminUsername = utils.Getenv("ADMIN_USERNAME", c.AdminUsername)
	c.AdminPassword = utils.Getenv("ADMIN_PASSWORD", c.AdminPassword)
}

// envValue keeps the parsed duration and remembers a malformed variable for Validate.
func (c *Config) envValue(d time.Duration, err error) time.Duration {
	if err != nil {
		c.envProblems = append(c.envProblems, err.Error())
	}
	return d
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.envProblems...)
	if c.StorageDriver != StorageMemory && c.StorageDriver != StoragePostgres {
		problems = append(problems, fmt.Sprintf("STORAGE_DRIVER must be %q or %q, got %q", StorageMemory, StoragePostgres, c.StorageDriver))
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.KioskSessionTTL <= 0 {
		problems = append(problems, "KIOSK_SESSION_TTL must be positive")
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		problems = append(problems, fmt.Sprintf("REPORT_TIMEZONE %q is not a known location", c.ReportTimezone))
	}
	if c.AdminPassword != "" && len(c.AdminPassword) < 8 {
		problems = append(problems, "ADMIN_PASSWORD must be at least 8 characters")
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// Location is the zone used to date daily sales. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
