package history

import (
	"log/slog"

	"github.com/runnerr0/visitlog/internal/expiry"
	"github.com/runnerr0/visitlog/internal/metrics"
)

// CheckForExpired evicts visits past the retention horizon and re-arms the
// expiry timer. It is the timer callback and is safe to call at any time.
func (s *Store) CheckForExpired() {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return
	}
	s.checkExpiredLocked()
}

// ExpiredCount reports how many visits the current horizon would evict now.
func (s *Store) ExpiredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return expiry.Sweep(s.entries, s.limit, s.clock.Now()).Expired(len(s.entries))
}

func (s *Store) checkExpiredLocked() {
	res := expiry.Sweep(s.entries, s.limit, s.clock.Now())
	if n := s.truncateLocked(res.Keep); n > 0 {
		metrics.EntriesExpiredTotal.Add(float64(n))
		histLog.Info("history_expired", slog.Int("count", n), slog.Int("limit_days", s.limit))
	}

	if res.Next > 0 {
		s.expiry.Arm(res.Next)
	} else {
		s.expiry.Stop()
	}
}
