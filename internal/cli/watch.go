package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/visitlog/internal/config"
	"github.com/runnerr0/visitlog/internal/history"
)

const metricsShutdownTimeout = 5 * time.Second

// watchStats summarises a watch run.
type watchStats struct {
	Lines    int `json:"lines"`
	Recorded int `json:"recorded"`
	Ignored  int `json:"ignored"`
}

// Execute implements the go-flags Commander interface for WatchCommand.
func (c *WatchCommand) Execute(args []string) error {
	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listen := sess.cfg.Metrics.Listen
	if c.MetricsListen != "" {
		listen = c.MetricsListen
	}
	return c.executeWithStore(ctx, sess.store, sess.configPath, listen)
}

// executeWithStore records visits from the input until EOF or ctx is
// cancelled. A non-empty cfgPath is watched for retention and private
// browsing changes; a non-empty listen serves /metrics.
func (c *WatchCommand) executeWithStore(ctx context.Context, store *history.Store, cfgPath, listen string) error {
	var in io.Reader = os.Stdin
	if c.in != nil {
		in = c.in
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	var stats watchStats
	g.Go(func() error {
		defer cancel()
		return readVisits(ctx, in, store, c.now, &stats)
	})

	if cfgPath != "" {
		g.Go(func() error {
			return config.Watch(ctx, cfgPath, func(cfg *config.Config) {
				applyConfig(store, cfg)
			})
		})
	}

	if listen != "" {
		g.Go(func() error {
			return serveMetrics(ctx, listen)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if wantJSON(c.globals) {
		return printJSON(stats)
	}
	fmt.Printf("Read %s lines: %s recorded, %s ignored\n",
		formatNumber(stats.Lines), formatNumber(stats.Recorded), formatNumber(stats.Ignored))
	return nil
}

// readVisits consumes "URL[<TAB>TITLE]" lines, stamping each visit with now.
// Blank lines and lines starting with # are skipped.
func readVisits(ctx context.Context, in io.Reader, store *history.Store, now func() time.Time, stats *watchStats) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("read visits: %w", err)
				}
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			stats.Lines++

			rawURL, title, _ := strings.Cut(line, "\t")
			e, ok := store.AddEntry(strings.TrimSpace(rawURL), nowFunc(now))
			if !ok {
				stats.Ignored++
				cliLog.Debug("watch_visit_ignored", slog.String("url", rawURL))
				continue
			}
			if title = strings.TrimSpace(title); title != "" {
				store.UpdateTitle(e.URL, title)
			}
			stats.Recorded++
		}
	}
}

// applyConfig pushes the reloadable settings into a running store.
func applyConfig(store *history.Store, cfg *config.Config) {
	store.SetLimit(cfg.History.RetentionDays())
	store.SetPrivate(cfg.History.PrivateBrowsing)
	cliLog.Info("watch_config_applied",
		slog.Int("limit_days", cfg.History.RetentionDays()),
		slog.Bool("private_browsing", cfg.History.PrivateBrowsing))
}

// serveMetrics exposes the Prometheus registry until ctx is done.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		cliLog.Info("metrics_server_started", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	}
}
