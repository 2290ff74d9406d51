// Package config loads honeyfile settings from defaults, an optional TOML
// file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Points     PointsConfig     `toml:"points"`
	Upload     UploadConfig     `toml:"upload"`
	Auth       AuthConfig       `toml:"auth"`
	Settlement SettlementConfig `toml:"settlement"`
	Log        LogConfig        `toml:"log"`
}

type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`

	// CORSOrigins lists allowed browser origins. Empty allows any.
	CORSOrigins []string `toml:"cors_origins"`
}

type DatabaseConfig struct {
	Path        string        `toml:"path" validate:"required"`
	BusyTimeout time.Duration `toml:"busy_timeout" validate:"gte=0"`
}

// PointsConfig holds the point amounts of the ledger.
type PointsConfig struct {
	// Initial is credited to every new account.
	Initial int64 `toml:"initial" validate:"gte=0"`
	// UploadBonus is credited for every published file.
	UploadBonus int64 `toml:"upload_bonus" validate:"gt=0"`
	// DownloadCost is the default price of a file.
	DownloadCost int64 `toml:"download_cost" validate:"gte=0"`
}

type UploadConfig struct {
	MaxFileSizeMB     int64    `toml:"max_file_size_mb" validate:"gte=0"`
	AllowedExtensions []string `toml:"allowed_extensions"`
}

type AuthConfig struct {
	SecretKey      string        `toml:"secret_key" validate:"required,min=8"`
	SessionTimeout time.Duration `toml:"session_timeout" validate:"gt=0"`
}

type SettlementConfig struct {
	StorageRetries int `toml:"storage_retries" validate:"gte=0,lte=5"`
}

type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{
			Path:        "./data/honeyfile.db",
			BusyTimeout: 5 * time.Second,
		},
		Points: PointsConfig{
			Initial:      1000,
			UploadBonus:  50,
			DownloadCost: 10,
		},
		Upload: UploadConfig{MaxFileSizeMB: 500},
		Auth: AuthConfig{
			SecretKey:      "change-this-in-production",
			SessionTimeout: 24 * time.Hour,
		},
		Settlement: SettlementConfig{StorageRetries: 1},
		Log:        LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path may be empty, in which case
// HONEYFILE_CONFIG is consulted; no file at all is fine.
func Load(path string) (*Config, error) {
	// Load .env file in development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("HONEYFILE_CONFIG")
	}
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
		slog.Debug("Config file loaded", "path", path)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(c *Config) error {
	setString("HONEYFILE_ADDR", &c.Server.Addr)
	setString("DB_PATH", &c.Database.Path)
	setString("SECRET_KEY", &c.Auth.SecretKey)
	setString("LOG_LEVEL", &c.Log.Level)
	c.Log.Level = strings.ToLower(c.Log.Level)

	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("ALLOWED_EXTENSIONS"); ok {
		c.Upload.AllowedExtensions = splitList(v)
	}

	return errors.Join(
		setDuration("DB_BUSY_TIMEOUT", &c.Database.BusyTimeout),
		setInt64("INITIAL_POINTS", &c.Points.Initial),
		setInt64("UPLOAD_BONUS_POINTS", &c.Points.UploadBonus),
		setInt64("DOWNLOAD_COST_POINTS", &c.Points.DownloadCost),
		setInt64("MAX_FILE_SIZE_MB", &c.Upload.MaxFileSizeMB),
		setDuration("SESSION_TIMEOUT", &c.Auth.SessionTimeout),
		setInt("SETTLEMENT_STORAGE_RETRIES", &c.Settlement.StorageRetries),
	)
}

func setString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt64(key string, dst *int64) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt(key string, dst *int) error {
	n := int64(*dst)
	if err := setInt64(key, &n); err != nil {
		return err
	}
	*dst = int(n)
	return nil
}

func setDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
