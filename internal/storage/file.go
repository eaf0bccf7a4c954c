package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"streamcast/pkg/logx"
)

// fileStore is a dependency-free JSONL backend: one entry per line,
// appended on write, rewritten on prune. Fine for small histories.
type fileStore struct {
	mu   sync.Mutex
	path string
	log  logx.Logger
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("file storage path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &fileStore{path: cfg.Path, log: log}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) AppendBroadcast(ctx context.Context, e BroadcastEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(b, '\n'))
	return err
}

func (s *fileStore) RecentBroadcasts(ctx context.Context, limit int) ([]BroadcastEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	// newest first
	out := make([]BroadcastEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *fileStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAllLocked()
	if err != nil {
		return 0, err
	}
	keep := all[:0]
	var removed int64
	for _, e := range all {
		if e.At.Before(cutoff) {
			removed++
			continue
		}
		keep = append(keep, e)
	}
	if removed == 0 {
		return 0, nil
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, e := range keep {
		if err := enc.Encode(e); err != nil {
			_ = f.Close()
			return 0, err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	return removed, os.Rename(tmp, s.path)
}

func (s *fileStore) readAll() ([]BroadcastEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAllLocked()
}

func (s *fileStore) readAllLocked() ([]BroadcastEntry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []BroadcastEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e BroadcastEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			// A torn line (crash mid-append) is skipped, not fatal.
			s.log.Warn("skipping bad audit line", logx.Err(err))
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
