// Package config holds the YAML-backed settings for the database connection
// and the streaming defaults.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"golang.org/x/xerrors"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Stream   StreamConfig   `yaml:"stream"`
	Seed     SeedConfig     `yaml:"seed"`
}

// DatabaseConfig describes how to reach the PostgreSQL instance holding the
// user_data table.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// StreamConfig carries the default page size for traversals.
type StreamConfig struct {
	PageSize int `yaml:"page_size"`
}

// SeedConfig points at the CSV export used to populate the table.
type SeedConfig struct {
	CSVPath string `yaml:"csv_path"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "userstream",
			SSLMode: "disable",
		},
		Stream: StreamConfig{
			PageSize: 100,
		},
	}
}

// Load reads the config at path. A missing file is not an error; the
// defaults are returned instead.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, xerrors.Errorf("load config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, xerrors.Errorf("load config: %w", err)
	}
	if cfg.Stream.PageSize <= 0 {
		return cfg, xerrors.Errorf("load config: stream.page_size must be positive, got %d", cfg.Stream.PageSize)
	}
	return cfg, nil
}

// DSN renders the database settings as a postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}
