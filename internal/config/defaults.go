package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			ExpireHistory:    3,
			WalletBlackList:  []string{},
			IgnoredSchemes:   []string{"rekonq"},
			PrivateBrowsing:  false,
			ExcludedHosts:    []string{},
			ExcludeSensitive: false,
		},
		Storage: StorageConfig{
			Path:              "~/.config/visitlog",
			Backend:           "file",
			HistoryFile:       "history",
			SQLiteFile:        "history.db",
			SQLiteJournalMode: "wal",
		},
		Autosave: AutosaveConfig{
			DelayMS:   3000,
			MaxWaitMS: 15000,
		},
		Completion: CompletionConfig{
			MaxSuggestions: 10,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "visitlog.log",
			Format:     "json",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAgeDays: 10,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Listen: "",
		},
	}
}
