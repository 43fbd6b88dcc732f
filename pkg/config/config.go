package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrisonrobin/whattodo/pkg/slot"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	xdgAppName = "whattodo"
	configFile = "config.json"
	envPrefix  = "WHATTODO"

	DefaultCalendar = "Tasks"
	DefaultAddr     = ":8080"
)

type Config struct {
	Calendar string        `mapstructure:"calendar" json:"calendar" yaml:"calendar"`
	Storage  StorageConfig `mapstructure:"storage" json:"storage" yaml:"storage"`
	Server   ServerConfig  `mapstructure:"server" json:"server" yaml:"server"`
}

type StorageConfig struct {
	Backend    string `mapstructure:"backend" json:"backend" yaml:"backend"`
	Path       string `mapstructure:"path" json:"path,omitempty" yaml:"path,omitempty"`
	DSN        string `mapstructure:"dsn" json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Database   string `mapstructure:"database" json:"database,omitempty" yaml:"database,omitempty"`
	Collection string `mapstructure:"collection" json:"collection,omitempty" yaml:"collection,omitempty"`
	Key        string `mapstructure:"key" json:"key" yaml:"key"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr" json:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
}

// Dir returns the XDG-style config directory, ~/.config/whattodo unless
// WHATTODO_HOME points elsewhere.
func Dir() (string, error) {
	if dir := os.Getenv(envPrefix + "_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, configFile))
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("calendar", DefaultCalendar)
	v.SetDefault("storage.backend", slot.BackendFile)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.database", "")
	v.SetDefault("storage.collection", "")
	v.SetDefault("storage.key", slot.DefaultKey)
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.allowed_origins", []string{"*"})
	return v
}

// Load reads .env (if present), the config file and WHATTODO_* variables,
// in increasing order of precedence. A missing config file yields defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Calendar == "" {
		cfg.Calendar = DefaultCalendar
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStoragePath(dir, cfg.Storage.Backend)
	}
	return &cfg, nil
}

func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("calendar", cfg.Calendar)
	v.Set("storage.backend", cfg.Storage.Backend)
	v.Set("storage.key", cfg.Storage.Key)
	if cfg.Storage.Path != defaultStoragePath(dir, cfg.Storage.Backend) {
		v.Set("storage.path", cfg.Storage.Path)
	}
	for key, value := range map[string]string{
		"storage.dsn":        cfg.Storage.DSN,
		"storage.database":   cfg.Storage.Database,
		"storage.collection": cfg.Storage.Collection,
	} {
		if value != "" {
			v.Set(key, value)
		}
	}
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("server.allowed_origins", cfg.Server.AllowedOrigins)

	path := filepath.Join(dir, configFile)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(path, 0600)
}

// SlotOptions translates the storage section for slot.Open.
func (c *Config) SlotOptions() slot.Options {
	return slot.Options{
		Backend:    c.Storage.Backend,
		Path:       c.Storage.Path,
		DSN:        c.Storage.DSN,
		Database:   c.Storage.Database,
		Collection: c.Storage.Collection,
		Key:        c.Storage.Key,
	}
}

func defaultStoragePath(dir, backend string) string {
	if backend == slot.BackendSQLite {
		return filepath.Join(dir, "tasks.db")
	}
	return filepath.Join(dir, "tasks.json")
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
