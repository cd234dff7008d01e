package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Relay     RelayConfig     `koanf:"relay"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Capture   CaptureConfig   `koanf:"capture"`
	Access    AccessConfig    `koanf:"access"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"gt=0"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// RelayConfig addresses the pub/sub channel the door relay listens on.
type RelayConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	Channel     string        `koanf:"channel" validate:"required"`
	OpenPayload string        `koanf:"open_payload"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

// EmbeddingConfig addresses the external face-extraction service.
type EmbeddingConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type CaptureConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Interval      time.Duration `koanf:"interval"`
	Cooldown      time.Duration `koanf:"cooldown"`
	TestMode      bool          `koanf:"test_mode"`
	TestImagePath string        `koanf:"test_image_path"`
}

// AccessConfig carries the decision-policy constants. Thresholds are raw
// dissimilarity distances (lower = more similar).
type AccessConfig struct {
	UserMatchThreshold     float64       `koanf:"user_match_threshold" validate:"gt=0"`
	ObservedMatchThreshold float64       `koanf:"observed_match_threshold" validate:"gt=0"`
	ObservedValidity       time.Duration `koanf:"observed_validity" validate:"gt=0"`
	NewObservedStatusID    string        `koanf:"new_observed_status_id" validate:"required,uuid"`
	AccessDeniedStatusID   string        `koanf:"access_denied_status_id" validate:"required,uuid"`
	DeniedStreakThreshold  int           `koanf:"denied_streak_threshold"`
	ZoneID                 string        `koanf:"zone_id" validate:"required,uuid"`
	CameraID               string        `koanf:"camera_id" validate:"omitempty,uuid"`
}

// Load reads defaults, then the optional YAML file at path (or
// configs/config.yaml), then OPENDOOR_ environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Relay: RelayConfig{
			Addr:        "localhost:6379",
			Channel:     "opendoor/relay",
			OpenPayload: "ON",
			DialTimeout: 10 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Timeout: 15 * time.Second,
		},
		Capture: CaptureConfig{
			Enabled:  true,
			Interval: 1 * time.Second,
			Cooldown: 5 * time.Second,
		},
		Access: AccessConfig{
			UserMatchThreshold:     0.15,
			ObservedMatchThreshold: 0.08,
			ObservedValidity:       7 * 24 * time.Hour,
			DeniedStreakThreshold:  3,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = "configs/config.yaml"
	}
	// Config file is optional.
	_ = k.Load(file.Provider(path), yaml.Parser())

	// Double underscore separates nesting levels so keys may themselves
	// contain underscores, e.g. OPENDOOR_ACCESS__ZONE_ID -> access.zone_id.
	if err := k.Load(env.Provider("OPENDOOR_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "OPENDOOR_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
