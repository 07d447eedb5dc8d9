package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/visitlog/config.yaml"

// Config holds all visitlog configuration.
type Config struct {
	History    HistoryConfig    `yaml:"history"`
	Storage    StorageConfig    `yaml:"storage"`
	Autosave   AutosaveConfig   `yaml:"autosave"`
	Completion CompletionConfig `yaml:"completion"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type HistoryConfig struct {
	// ExpireHistory selects the retention horizon; see RetentionDays.
	ExpireHistory int `yaml:"expireHistory"`
	// WalletBlackList belongs to the password wallet and is carried here
	// only so a shared config file round-trips.
	WalletBlackList  []string `yaml:"walletBlackList"`
	IgnoredSchemes   []string `yaml:"ignored_schemes"`
	PrivateBrowsing  bool     `yaml:"private_browsing"`
	ExcludedHosts    []string `yaml:"excluded_hosts"`
	ExcludeSensitive bool     `yaml:"exclude_sensitive"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	Backend           string `yaml:"backend"`
	HistoryFile       string `yaml:"history_file"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type AutosaveConfig struct {
	DelayMS   int `yaml:"delay_ms"`
	MaxWaitMS int `yaml:"max_wait_ms"`
}

type CompletionConfig struct {
	MaxSuggestions int `yaml:"max_suggestions"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Format     string `yaml:"format"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// retentionDays maps expireHistory choices to days. -1 is unlimited.
var retentionDays = map[int]int{0: 1, 1: 7, 2: 14, 3: 30, 4: 365, 5: -1}

// RetentionDays returns the retention horizon in days, or -1 for
// unlimited. Unknown choices are unlimited.
func (h HistoryConfig) RetentionDays() int {
	if d, ok := retentionDays[h.ExpireHistory]; ok {
		return d
	}
	return -1
}

// Excluded returns the hosts never recorded, including the built-in
// sensitive list when ExcludeSensitive is set.
func (h HistoryConfig) Excluded() []string {
	out := append([]string(nil), h.ExcludedHosts...)
	if h.ExcludeSensitive {
		out = append(out, SensitiveHosts()...)
	}
	return out
}

// Dir returns the storage directory with ~ expanded.
func (s StorageConfig) Dir() (string, error) {
	return ExpandPath(s.Path)
}

func (a AutosaveConfig) Delay() time.Duration {
	return time.Duration(a.DelayMS) * time.Millisecond
}

func (a AutosaveConfig) MaxWait() time.Duration {
	return time.Duration(a.MaxWaitMS) * time.Millisecond
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}
	switch c.Storage.SQLiteJournalMode {
	case "delete", "truncate", "persist", "memory", "wal", "off":
	default:
		return fmt.Errorf("storage.sqlite_journal_mode: unsupported mode %q", c.Storage.SQLiteJournalMode)
	}
	if c.Autosave.DelayMS < 0 || c.Autosave.MaxWaitMS < 0 {
		return fmt.Errorf("autosave: durations must not be negative")
	}
	if c.Autosave.MaxWaitMS > 0 && c.Autosave.MaxWaitMS < c.Autosave.DelayMS {
		return fmt.Errorf("autosave: max_wait_ms (%d) is shorter than delay_ms (%d)", c.Autosave.MaxWaitMS, c.Autosave.DelayMS)
	}
	return nil
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML or
// fails validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return cfg, nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
