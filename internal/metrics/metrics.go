package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var namespace = "visitlog"
var subsystem = "history"

var (
	// Entries is the current size of the in-memory history
	Entries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "entries",
		Help:      "Number of entries currently held in memory",
	})

	// EntriesAddedTotal counts accepted visits
	EntriesAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "entries_added_total",
		Help:      "Number of visits recorded",
	})

	// EntriesExpiredTotal counts entries evicted by the retention policy
	EntriesExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "entries_expired_total",
		Help:      "Number of entries evicted because they aged past the retention horizon",
	})

	// SavesTotal counts successful saves partitioned by mode (append, rewrite)
	SavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "saves_total",
		Help:      "Number of successful saves partitioned by mode",
	}, []string{"mode"})

	// SaveFailuresTotal counts saves that returned an error
	SaveFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "save_failures_total",
		Help:      "Number of saves that failed and will be retried",
	})

	// MalformedRecordsTotal counts chunks skipped during load
	MalformedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "malformed_records_total",
		Help:      "Number of persisted records skipped during load",
	})
)

const (
	ModeAppend  = "append"
	ModeRewrite = "rewrite"
)
