package streambroadcast

import (
	"sync"
	"time"
)

// ledger maps session IDs to the instant of that player's last successful
// broadcast. Process-local and non-persistent: restarts and reconnects
// reset the cooldown. The mutex covers only the map operations, never the
// broadcast itself, so unrelated broadcasts are not serialized.
type ledger struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func newLedger() *ledger {
	return &ledger{last: make(map[string]time.Time)}
}

// Last returns the zero time when the player has never broadcast.
func (l *ledger) Last(id string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last[id]
}

func (l *ledger) Mark(id string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[id] = now
}

// Sweep drops entries older than maxAge. Stale entries are harmless (an
// old instant always passes the cooldown check) so this is purely a memory
// bound for long uptimes.
func (l *ledger) Sweep(maxAge time.Duration, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, t := range l.last {
		if now.Sub(t) > maxAge {
			delete(l.last, id)
			removed++
		}
	}
	return removed
}

func (l *ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}
