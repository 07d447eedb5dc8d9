package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/runnerr0/visitlog/internal/expiry"
	"github.com/runnerr0/visitlog/internal/history"
	"github.com/runnerr0/visitlog/internal/record"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	// Load without a horizon; the configured one is applied below.
	sess, err := openSession(c.globals, func(o *history.Options) {
		o.LimitDays = expiry.Unlimited
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store, sess.cfg.History.RetentionDays())
}

// executeWithStore prunes store. retentionDays is applied when --older-than
// is not given.
func (c *PruneCommand) executeWithStore(store *history.Store, retentionDays int) error {
	now := nowFunc(c.now)

	var (
		pruned int
		rule   string
	)
	switch {
	case c.OlderThan != "":
		dur, err := parseDuration(c.OlderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than value %q: %w", c.OlderThan, err)
		}
		cutoff := now.Add(-dur)
		rule = "older than " + c.OlderThan
		if c.DryRun {
			pruned = countBefore(store.History(), cutoff)
		} else {
			pruned = store.PruneBefore(cutoff)
		}

	case retentionDays < 0:
		rule = "retention unlimited"

	default:
		rule = "retention " + formatRetention(retentionDays)
		if c.DryRun {
			entries := store.History()
			pruned = expiry.Sweep(entries, retentionDays, now).Expired(len(entries))
		} else {
			before := store.Len()
			store.SetLimit(retentionDays)
			pruned = before - store.Len()
		}
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{
			"dry_run":   c.DryRun,
			"rule":      rule,
			"pruned":    pruned,
			"remaining": store.Len(),
		})
	}

	if c.DryRun {
		fmt.Printf("Would prune %s entries (%s)\n", formatNumber(pruned), rule)
		return nil
	}
	fmt.Printf("Pruned %s entries (%s), %s remaining\n", formatNumber(pruned), rule, formatNumber(store.Len()))
	return nil
}

// countBefore counts newest-first entries visited before cutoff.
func countBefore(entries []record.Entry, cutoff time.Time) int {
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].VisitedAt.Before(cutoff)
	})
	return len(entries) - i
}
