package pace

import (
	"sync"
	"time"
)

const DefaultRetention = time.Hour

type errorRecord struct {
	at  time.Time
	key string
}

// Window is a time-bounded counter of recent failures. Entries expire after
// the retention period; Size reports only live entries. Safe for use from
// concurrent transfers sharing one window.
type Window struct {
	mu        sync.Mutex
	retention time.Duration
	records   []errorRecord
	now       func() time.Time
}

func NewWindow(retention time.Duration) *Window {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Window{
		retention: retention,
		now:       time.Now,
	}
}

// Add records one failure at the current time.
func (w *Window) Add(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	w.records = append(w.records, errorRecord{at: w.now(), key: key})
}

// Size returns the count of non-expired failures.
func (w *Window) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	return len(w.records)
}

// Reset drops all recorded failures.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = nil
}

func (w *Window) prune() {
	cutoff := w.now().Add(-w.retention)
	live := w.records[:0]
	for _, r := range w.records {
		if r.at.After(cutoff) {
			live = append(live, r)
		}
	}
	w.records = live
}
