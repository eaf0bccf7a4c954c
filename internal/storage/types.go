package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the broadcast audit store.
//
// Driver values:
//   - "file": dependency-free JSONL backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// BroadcastEntry records one successful stream announcement.
// Keep it compact and schema-stable.
type BroadcastEntry struct {
	At         time.Time `json:"at"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	URL        string    `json:"url"`
	Recipients int       `json:"recipients"`
	Failed     int       `json:"failed"`
}
