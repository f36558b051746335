// Package config loads and validates report labeler configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Labeling modes.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Label    LabelConfig    `mapstructure:"label"`
	Labeling LabelingConfig `mapstructure:"labeling"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the gateway HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// FunctionsPort is where cmd/label-function listens when run locally.
	// PORT, as set by the functions runtime, overrides it.
	FunctionsPort int `mapstructure:"functions_port"`
}

// BackendConfig describes the reporting backend documents are fetched from.
type BackendConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxDocumentBytes int64  `mapstructure:"max_document_bytes"`
}

// LabelConfig holds the gateway's label text template.
// {region} and {sheet_name} are substituted per request.
type LabelConfig struct {
	Template string `mapstructure:"template"`
}

// LabelingConfig selects where labeling happens and configures the
// labeling service.
type LabelingConfig struct {
	Mode        string `mapstructure:"mode"`
	RemoteURL   string `mapstructure:"remote_url"`
	DefaultText string `mapstructure:"default_text"`
	Port        int    `mapstructure:"port"`
}

// StorageConfig chooses the artifact store.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// LedgerConfig enables the Firestore run ledger when ProjectID is set.
type LedgerConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	Collection string `mapstructure:"collection"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REPORTLABELER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := v.BindEnv("server.functions_port", "REPORTLABELER_SERVER_FUNCTIONS_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.functions_port", 8080)
	// Keys without a default must still be registered so AutomaticEnv can
	// resolve them during Unmarshal.
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.timeout_seconds", 0)
	v.SetDefault("backend.max_document_bytes", int64(64<<20))
	v.SetDefault("label.template", "Region: {region}")
	v.SetDefault("labeling.mode", ModeLocal)
	v.SetDefault("labeling.remote_url", "")
	v.SetDefault("labeling.default_text", "Processed by Labeling Service")
	v.SetDefault("labeling.port", 5001)
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.dir", "labeling_storage")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("ledger.project_id", "")
	v.SetDefault("ledger.collection", "label_runs")
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.FunctionsPort < 0 {
		return fmt.Errorf("server.functions_port must be >= 0")
	}
	if c.Labeling.Port <= 0 {
		return fmt.Errorf("labeling.port must be > 0")
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds must be >= 0")
	}
	if c.Backend.MaxDocumentBytes <= 0 {
		return fmt.Errorf("backend.max_document_bytes must be > 0")
	}
	if c.Backend.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
			return fmt.Errorf("backend.base_url is invalid: %w", err)
		}
	}
	switch c.Labeling.Mode {
	case ModeLocal:
	case ModeRemote:
		if c.Labeling.RemoteURL == "" {
			return fmt.Errorf("labeling.remote_url must be set when labeling.mode is remote")
		}
	default:
		return fmt.Errorf("labeling.mode must be %q or %q, got %q", ModeLocal, ModeRemote, c.Labeling.Mode)
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Storage.Dir) == "" {
			return fmt.Errorf("storage.dir must be set for the local backend")
		}
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendLocal, BackendGCS, c.Storage.Backend)
	}
	return nil
}

// RequireBackend reports an error when the gateway has no backend to fetch from.
func (c Config) RequireBackend() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url must be set")
	}
	return nil
}

// BackendTimeout converts the timeout setting to a duration. Zero leaves the
// transport default in place.
func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}
