package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMaxSizeBytes is the upload size limit when none is configured.
const DefaultMaxSizeBytes = 5 << 20

// DefaultAcceptedTypes lists the MIME types accepted for registration.
var DefaultAcceptedTypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain",
}

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Journal   JournalConfig   `yaml:"journal"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	// Path of the SQLite journal. Empty disables persistence.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "http" or "stdio"
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type UploadsConfig struct {
	MaxSizeBytes  int64    `yaml:"max_size_bytes"`
	AcceptedTypes []string `yaml:"accepted_types"`
}

type JournalConfig struct {
	Buffer int `yaml:"buffer"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "uploadtrack.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Uploads: UploadsConfig{
			MaxSizeBytes:  DefaultMaxSizeBytes,
			AcceptedTypes: append([]string(nil), DefaultAcceptedTypes...),
		},
		Journal: JournalConfig{
			Buffer: 256,
		},
	}

	if path := os.Getenv("UPLOADTRACK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		errs = append(errs, fmt.Errorf("transport.mode must be http or stdio, got %q", c.Transport.Mode))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		errs = append(errs, errors.New("auth.token is required when auth is enabled"))
	}
	if c.Uploads.MaxSizeBytes < 0 {
		errs = append(errs, fmt.Errorf("uploads.max_size_bytes must not be negative: %d", c.Uploads.MaxSizeBytes))
	}
	if c.Journal.Buffer < 0 {
		errs = append(errs, fmt.Errorf("journal.buffer must not be negative: %d", c.Journal.Buffer))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("UPLOADTRACK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("UPLOADTRACK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid UPLOADTRACK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath, ok := os.LookupEnv("UPLOADTRACK_DB_PATH"); ok {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("UPLOADTRACK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv("UPLOADTRACK_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = strings.ToLower(mode)
	}
	if enabled := os.Getenv("UPLOADTRACK_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid UPLOADTRACK_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if token := os.Getenv("UPLOADTRACK_AUTH_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}
	if size := os.Getenv("UPLOADTRACK_UPLOADS_MAX_SIZE_BYTES"); size != "" {
		v, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid UPLOADTRACK_UPLOADS_MAX_SIZE_BYTES: %w", err)
		}
		cfg.Uploads.MaxSizeBytes = v
	}
	if types := os.Getenv("UPLOADTRACK_UPLOADS_ACCEPTED_TYPES"); types != "" {
		cfg.Uploads.AcceptedTypes = splitList(types)
	}
	if buffer := os.Getenv("UPLOADTRACK_JOURNAL_BUFFER"); buffer != "" {
		v, err := strconv.Atoi(buffer)
		if err != nil {
			return fmt.Errorf("invalid UPLOADTRACK_JOURNAL_BUFFER: %w", err)
		}
		cfg.Journal.Buffer = v
	}
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

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
