package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/runnerr0/visitlog/internal/config"
	"github.com/runnerr0/visitlog/internal/history"
	"github.com/runnerr0/visitlog/internal/logging"
	"github.com/runnerr0/visitlog/internal/storage"
)

var cliLog = logging.ForComponent(logging.CompCLI)

// session is an opened history store together with the resources behind it.
type session struct {
	cfg        *config.Config
	configPath string
	log        storage.Log
	store      *history.Store
}

// configPath resolves --config, falling back to the default location.
func configPath(g *GlobalFlags) (string, error) {
	if g != nil && g.Config != "" {
		return config.ExpandPath(g.Config)
	}
	return config.ExpandPath(config.DefaultConfigPath)
}

// openSession loads the config, starts logging, opens the configured
// storage backend and loads the history from it. tune may adjust the store
// options derived from the config.
func openSession(g *GlobalFlags, tune ...func(*history.Options)) (*session, error) {
	path, err := configPath(g)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrCreateAt(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dir, err := cfg.Storage.Dir()
	if err != nil {
		return nil, err
	}
	logging.Init(loggingConfig(cfg, dir, g != nil && g.Verbose))

	l, err := storage.Open(storage.Options{
		Backend:     cfg.Storage.Backend,
		Dir:         dir,
		HistoryFile: cfg.Storage.HistoryFile,
		SQLiteFile:  cfg.Storage.SQLiteFile,
		JournalMode: cfg.Storage.SQLiteJournalMode,
	})
	if err != nil {
		logging.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	opts := storeOptions(cfg)
	for _, fn := range tune {
		fn(&opts)
	}
	store, err := history.Open(context.Background(), l, opts)
	if err != nil {
		l.Close()
		logging.Close()
		return nil, fmt.Errorf("load history: %w", err)
	}

	return &session{cfg: cfg, configPath: path, log: l, store: store}, nil
}

// Close flushes the store and releases the log and the log file.
func (s *session) Close() error {
	err := s.store.Close(context.Background())
	if cerr := s.log.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close storage: %w", cerr))
	}
	logging.Close()
	return err
}

// storeOptions maps the config onto history store options.
func storeOptions(cfg *config.Config) history.Options {
	return history.Options{
		LimitDays:       cfg.History.RetentionDays(),
		IgnoredSchemes:  cfg.History.IgnoredSchemes,
		ExcludedHosts:   cfg.History.Excluded(),
		Private:         cfg.History.PrivateBrowsing,
		AutosaveDelay:   cfg.Autosave.Delay(),
		AutosaveMaxWait: cfg.Autosave.MaxWait(),
	}
}

func loggingConfig(cfg *config.Config, dir string, verbose bool) logging.Config {
	lc := logging.Config{
		Dir:        dir,
		File:       cfg.Logging.File,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
	if verbose {
		lc.Level = "debug"
		lc.Stderr = true
	}
	return lc
}

func wantJSON(g *GlobalFlags) bool {
	return g != nil && g.JSON
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nowFunc(f func() time.Time) time.Time {
	if f != nil {
		return f()
	}
	return time.Now()
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 's':
		return time.Duration(n) * time.Second, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, m or s suffix)", s)
	}
}

// formatRetention renders a retention horizon in days.
func formatRetention(days int) string {
	switch {
	case days < 0:
		return "unlimited"
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int with comma separators.
func formatNumber(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var result strings.Builder
	if neg {
		result.WriteString("-")
	}
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
