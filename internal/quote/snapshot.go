package quote

import (
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
)

// Snapshot is the cache's durable backend: one JSON file mapping cache
// keys to {data, ts} entries, overwritten wholesale on every save. The
// on-disk layout is {"quote:AAPL": {"data": {...}, "ts": 1700000000000}}
// with ts in epoch milliseconds.
type Snapshot struct {
	path string
}

func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

type snapshotEntry struct {
	Data model.Quote `json:"data"`
	Ts   int64       `json:"ts"`
}

func (s *Snapshot) Load() (map[string]Entry, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("%w: can't read snapshot", err)
	}

	var stored map[string]snapshotEntry
	if err := sonic.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("%w: can't unmarshal snapshot", err)
	}

	entries := make(map[string]Entry, len(stored))
	for key, e := range stored {
		entries[key] = Entry{
			Quote:     e.Data,
			FetchedAt: time.UnixMilli(e.Ts),
		}
	}
	return entries, nil
}

func (s *Snapshot) Save(entries map[string]Entry) error {
	stored := make(map[string]snapshotEntry, len(entries))
	for key, e := range entries {
		stored[key] = snapshotEntry{
			Data: e.Quote,
			Ts:   e.FetchedAt.UnixMilli(),
		}
	}

	raw, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("%w: can't marshal snapshot", err)
	}

	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("%w: can't write snapshot", err)
	}
	return nil
}
