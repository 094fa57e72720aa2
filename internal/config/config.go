// Package config loads markease configuration from defaults, an optional
// YAML file and MARKEASE_* environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/julianstephens/markease/internal/constants"
)

const (
	envPrefix         = "MARKEASE_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

type Config struct {
	Storage StorageConfig `koanf:"storage"`
	Log     LogConfig     `koanf:"log"`
	AI      AIConfig      `koanf:"ai"`
	Notes   NotesConfig   `koanf:"notes"`
	Habit   HabitConfig   `koanf:"habit"`
}

type StorageConfig struct {
	// Path is a SQLite file, a .json file, a PostgreSQL URL/DSN, or "keyring".
	Path string `koanf:"path"`
}

type LogConfig struct {
	Debug bool `koanf:"debug"`
}

type AIConfig struct {
	BaseURL string        `koanf:"base_url"`
	Model   string        `koanf:"model"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

type NotesConfig struct {
	AutosaveDelay time.Duration `koanf:"autosave_delay"`
	ExportDir     string        `koanf:"export_dir"`
}

type HabitConfig struct {
	Notify bool `koanf:"notify"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Path: constants.DefaultConfigPath},
		AI: AIConfig{
			BaseURL: constants.DefaultAIBaseURL,
			Model:   constants.DefaultAIModel,
			Timeout: constants.DefaultAITimeout,
		},
		Notes: NotesConfig{
			AutosaveDelay: constants.DefaultAutosaveDelay,
			ExportDir:     ".",
		},
		Habit: HabitConfig{Notify: true},
	}
}

// DefaultPath returns ~/.config/markease/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", constants.AppName, "config.yaml"), nil
}

// Load reads configuration with the following precedence (highest first):
//  1. MARKEASE_* environment variables (MARKEASE_AI_MODEL -> ai.model)
//  2. the YAML file at configPath (default path when empty; a missing file is fine)
//  3. built-in defaults
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	content, err := readConfigFile(ExpandHome(configPath))
	if err != nil {
		return nil, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps MARKEASE_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path is a directory: %s", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return io.ReadAll(f)
}

// Validate checks value ranges that koanf cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path cannot be empty")
	}
	if c.Notes.AutosaveDelay < 0 {
		return fmt.Errorf("notes.autosave_delay cannot be negative")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive")
	}
	return nil
}

// ConfigDir returns the directory used for logs and backups.
func (c *Config) ConfigDir() string {
	if IsPostgres(c.Storage.Path) || c.Storage.Path == "keyring" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		return filepath.Join(home, ".config", constants.AppName)
	}
	return filepath.Dir(ExpandHome(c.Storage.Path))
}

// IsPostgres reports whether path is a PostgreSQL URL.
func IsPostgres(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
