package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/ohm/internal/logger"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// Config holds user preferences
type Config struct {
	DataDir string `yaml:"data_dir"` // Board database and token cache live here

	// Logging configuration
	LogLevel   string `yaml:"log_level"`   // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file"`    // Path to log file, defaults under data_dir
	LogConsole bool   `yaml:"log_console"` // Mirror log entries to stderr

	Drive  DriveConfig  `yaml:"drive"`
	Sync   SyncConfig   `yaml:"sync"`
	Net    NetConfig    `yaml:"net"`
	Server ServerConfig `yaml:"server"`
}

// DriveConfig holds the OAuth client used for remote sync
type DriveConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Endpoint     string `yaml:"endpoint,omitempty"` // Drive API base URL override
}

// Enabled reports whether remote sync can be offered at all
func (c *DriveConfig) Enabled() bool {
	return c.ClientID != ""
}

// SyncConfig holds the save and push timings
type SyncConfig struct {
	LocalDebounce    time.Duration `yaml:"local_debounce"`
	RemoteDebounce   time.Duration `yaml:"remote_debounce"`
	AuthPollInterval time.Duration `yaml:"auth_poll_interval"`
	AuthPollAttempts int           `yaml:"auth_poll_attempts"`
}

// Validate validates the sync timings. Remote pushes must never be more
// eager than local saves.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LocalDebounce, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.RemoteDebounce, validation.Required,
			validation.Min(c.LocalDebounce).Error("must not be shorter than local_debounce")),
		validation.Field(&c.AuthPollInterval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.AuthPollAttempts, validation.Required, validation.Min(1)),
	)
}

// NetConfig holds the connectivity probe
type NetConfig struct {
	ProbeURL      string        `yaml:"probe_url"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

// Validate validates the connectivity probe
func (c *NetConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ProbeURL, validation.Required),
		validation.Field(&c.ProbeInterval, validation.Required, validation.Min(time.Second)),
	)
}

// ServerConfig holds the local HTTP API settings
type ServerConfig struct {
	Host string `yaml:"host"` // loopback unless deliberately exposed
	Port int    `yaml:"port"`
	// AllowOrigins lists browser origins allowed to call the API. Empty
	// disables CORS entirely.
	AllowOrigins []string `yaml:"allow_origins"`
}

// Address returns the listen address
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the HTTP settings
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.AllowOrigins, validation.Each(validation.Required, is.URL)),
	)
}

// Validate validates the whole configuration
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.LogLevel, validation.By(validLevel)),
	); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := c.Net.Validate(); err != nil {
		return fmt.Errorf("net: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func validLevel(v interface{}) error {
	s, _ := v.(string)
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return nil
	}
	return errors.New("must be one of DEBUG, INFO, WARN, ERROR")
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := ".ohm"
	if home != "" {
		dataDir = filepath.Join(home, ".ohm")
	}

	return &Config{
		DataDir:    dataDir,
		LogLevel:   "INFO",
		LogConsole: false,
		Sync: SyncConfig{
			LocalDebounce:    500 * time.Millisecond,
			RemoteDebounce:   2 * time.Second,
			AuthPollInterval: 500 * time.Millisecond,
			AuthPollAttempts: 10,
		},
		Net: NetConfig{
			ProbeURL:      "https://www.googleapis.com/generate_204",
			ProbeInterval: 15 * time.Second,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}

// applyEnv overrides file settings with environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv("OHM_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("OHM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("OHM_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("OHM_LOG_CONSOLE"); v != "" {
		c.LogConsole = v == "true" || v == "1"
	}
	if v := os.Getenv("OHM_GOOGLE_CLIENT_ID"); v != "" {
		c.Drive.ClientID = v
	}
	if v := os.Getenv("OHM_GOOGLE_CLIENT_SECRET"); v != "" {
		c.Drive.ClientSecret = v
	}
	if v := os.Getenv("OHM_DRIVE_ENDPOINT"); v != "" {
		c.Drive.Endpoint = v
	}
	if v := os.Getenv("OHM_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Path returns the config file location: $OHM_CONFIG or ~/.ohm/config.yaml
func Path() (string, error) {
	if p := os.Getenv("OHM_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ohm", "config.yaml"), nil
}

// Load loads config from the default path
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults, applies env overrides and validates.
// A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes config to the default path
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes config as YAML to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// the file may carry a client secret
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DBPath returns the SQLite database location
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "ohm.db")
}

// LoggerConfig maps the logging settings onto the logger package
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(c.LogLevel)
	lc.FilePath = c.LogFile
	if lc.FilePath == "" {
		lc.FilePath = filepath.Join(c.DataDir, "logs", "ohm.log")
	}
	lc.Console = c.LogConsole
	return lc
}
