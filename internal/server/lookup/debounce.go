package lookup

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/playtracker/internal/server/models"
)

const DefaultQuietPeriod = 500 * time.Millisecond

// SearchFunc matches (*Client).Search.
type SearchFunc func(ctx context.Context, query string) []models.SearchResult

// Debouncer runs a search only after the query has been stable for the
// quiet period, and delivers results only for the newest query. A search
// that completes after a newer Submit is dropped.
type Debouncer struct {
	quiet  time.Duration
	search SearchFunc

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

func NewDebouncer(quiet time.Duration, search SearchFunc) *Debouncer {
	return &Debouncer{quiet: quiet, search: search}
}

// Submit replaces any pending query with q. Queries shorter than
// MinQueryLength deliver an empty list right away.
func (d *Debouncer) Submit(ctx context.Context, q string, deliver func([]models.SearchResult)) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.stopLocked()

	if len([]rune(strings.TrimSpace(q))) < MinQueryLength {
		d.mu.Unlock()
		deliver([]models.SearchResult{})
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.timer = time.AfterFunc(d.quiet, func() {
		results := d.search(runCtx, q)

		d.mu.Lock()
		latest := seq == d.seq
		d.mu.Unlock()
		if latest {
			deliver(results)
		}
	})
	d.mu.Unlock()
}

// Stop drops any pending or in-flight query.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.stopLocked()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
