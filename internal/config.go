package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type TinySQLConfig struct {
	AppName string `mapstructure:"app_name" validate:"required"`

	Storage struct {
		Root string `mapstructure:"root" validate:"required"`
	} `mapstructure:"storage"`

	Index struct {
		// MultiwayKey selects value-ordered or hash-keyed BTREE indices.
		MultiwayKey string `mapstructure:"multiway_key" validate:"oneof=value hash"`
	} `mapstructure:"index"`

	Log struct {
		Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" validate:"oneof=text json"`
	} `mapstructure:"log"`

	Metrics struct {
		// Addr is the listen address for /metrics; empty disables it.
		Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	} `mapstructure:"metrics"`
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "TinySQL"
	}
	return filepath.Join(home, "TinySQL")
}

// LoadConfig reads path (any format viper understands) over the defaults and
// TINYSQL_* environment overrides. An empty path means defaults + environment.
func LoadConfig(path string) (*TinySQLConfig, error) {
	v := viper.New()
	v.SetDefault("app_name", "tinysql")
	v.SetDefault("storage.root", defaultRoot())
	v.SetDefault("index.multiway_key", "value")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.addr", "")

	v.SetEnvPrefix("TINYSQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg TinySQLConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg *TinySQLConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
