package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"vaultview/internal/navigation"
	"vaultview/internal/player"
	"vaultview/internal/storage"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Database  DatabaseConfig  `yaml:"database"`
	Subtitles SubtitlesConfig `yaml:"subtitles"`
	Player    PlayerConfig    `yaml:"player"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Links     LinksConfig     `yaml:"links"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type CatalogConfig struct {
	// SeedPath overrides the embedded seed list when set.
	SeedPath    string `yaml:"seed_path"`
	TargetCount int    `yaml:"target_count"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type SubtitlesConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	MaxBytes      int64         `yaml:"max_bytes"`
	CacheCapacity int           `yaml:"cache_capacity"`
	CacheMaxSize  int64         `yaml:"cache_max_size"` // bytes
}

type PlayerConfig struct {
	ErrorHideDelay time.Duration `yaml:"error_hide_delay"`
}

type SessionsConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LinksConfig struct {
	FormURL      string `yaml:"form_url"`
	ContactEmail string `yaml:"contact_email"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

var ErrInvalid = errors.New("invalid config")

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         6540,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Catalog: CatalogConfig{
			TargetCount: 239,
		},
		Database: DatabaseConfig{
			Path: storage.MemoryPath,
		},
		Subtitles: SubtitlesConfig{
			Timeout:       10 * time.Second,
			MaxBytes:      2 * 1024 * 1024,
			CacheCapacity: 256,
			CacheMaxSize:  32 * 1024 * 1024, // 32 MB
		},
		Player: PlayerConfig{
			ErrorHideDelay: player.DefaultHideDelay,
		},
		Sessions: SessionsConfig{
			IdleTimeout:   30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Links: LinksConfig{
			FormURL: navigation.DefaultFormURL,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d", ErrInvalid, c.Server.Port)
	case c.Catalog.TargetCount < 0:
		return fmt.Errorf("%w: catalog.target_count must not be negative", ErrInvalid)
	case c.Player.ErrorHideDelay < 0:
		return fmt.Errorf("%w: player.error_hide_delay must not be negative", ErrInvalid)
	case c.Sessions.IdleTimeout <= 0:
		return fmt.Errorf("%w: sessions.idle_timeout must be positive", ErrInvalid)
	case c.Sessions.SweepInterval <= 0:
		return fmt.Errorf("%w: sessions.sweep_interval must be positive", ErrInvalid)
	}
	return nil
}
