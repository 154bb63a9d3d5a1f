package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	envConfigPath = "TGBRIDGE_CONFIG"
	configName    = "tgbridge.json"

	DefaultHost                 = "0.0.0.0"
	DefaultPort                 = 8765
	DefaultMaxUploadMB          = 50
	DefaultProbeIntervalSeconds = 30
	DefaultGIFBot               = "gif"
)

// Config is the root runtime configuration.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Server   ServerConfig   `json:"server"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// TelegramConfig holds the application credentials and the session source.
// At least one of SessionName and SessionString must be set; the string wins
// when both are.
type TelegramConfig struct {
	APIID         int    `json:"api_id"         envconfig:"TELEGRAM_API_ID"         validate:"required,gt=0"`
	APIHash       string `json:"api_hash"       envconfig:"TELEGRAM_API_HASH"       validate:"required"`
	SessionName   string `json:"session_name"   envconfig:"TELEGRAM_SESSION_NAME"   validate:"required_without=SessionString"`
	SessionString string `json:"session_string" envconfig:"TELEGRAM_SESSION_STRING" validate:"required_without=SessionName"`
	GIFBot        string `json:"gif_bot"        ignored:"true"                      validate:"required"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host                 string `json:"host"                   envconfig:"TGBRIDGE_HOST"`
	Port                 int    `json:"port"                   envconfig:"TGBRIDGE_PORT" validate:"min=1,max=65535"`
	MaxUploadMB          int    `json:"max_upload_mb"          ignored:"true"            validate:"min=1"`
	ProbeIntervalSeconds int    `json:"probe_interval_seconds" ignored:"true"            validate:"min=0"`

	// UploadDir holds staged uploads; empty means a directory under the system temp dir.
	UploadDir string `json:"upload_dir,omitempty" ignored:"true"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"     validate:"omitempty,oneof=json text"`
	Level     string `json:"level,omitempty"      validate:"omitempty,oneof=debug info warn warning error"`
	AddSource bool   `json:"add_source,omitempty"`
}

// Address returns the host:port the HTTP server binds to.
func (c ServerConfig) Address() string {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = DefaultHost
	}

	return fmt.Sprintf("%s:%d", host, c.Port)
}

// Default returns a config with every optional value filled in.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{GIFBot: DefaultGIFBot},
		Server: ServerConfig{
			Host:                 DefaultHost,
			Port:                 DefaultPort,
			MaxUploadMB:          DefaultMaxUploadMB,
			ProbeIntervalSeconds: DefaultProbeIntervalSeconds,
		},
		Logging: LoggingConfig{Format: "text", Level: "info"},
	}
}

// LoadConfig layers defaults, the optional config file, a .env file and the
// process environment, then validates the result.
func LoadConfig() (*Config, error) {
	cfg := Default()

	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints on a loaded config.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	if err := validator.New().Struct(cfg); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			return fmt.Errorf("invalid config: %s", describe(invalid))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// applyEnvOverrides injects env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) error {
	if err := envconfig.Process("", &cfg.Telegram); err != nil {
		return fmt.Errorf("read telegram environment: %w", err)
	}
	if err := envconfig.Process("", &cfg.Server); err != nil {
		return fmt.Errorf("read server environment: %w", err)
	}

	cfg.Telegram.SessionName = strings.TrimSpace(cfg.Telegram.SessionName)
	cfg.Telegram.SessionString = strings.TrimSpace(cfg.Telegram.SessionString)

	return nil
}

// loadDotEnv reads ./.env when present. Variables already set in the process
// environment are left untouched.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load .env: %w", err)
}

// findConfigPath resolves the active config file location, or "" when none exists.
//
// Precedence is TGBRIDGE_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, configName),
		filepath.Join(cwd, "config", configName),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", nil
}

func describe(invalid validator.ValidationErrors) string {
	parts := make([]string, 0, len(invalid))
	for _, fieldErr := range invalid {
		parts = append(parts, fmt.Sprintf("%s failed %q", fieldErr.Namespace(), fieldErr.Tag()))
	}

	return strings.Join(parts, "; ")
}
