// Package actionlog persists the append-only daily audit ledger as one
// JSON file per calendar day (Logs/2006-01-02.json).
//
// Writes are read-whole-file, append, write-whole-file. A single-writer
// deployment is a precondition, not an enforced invariant: two processes
// appending concurrently can lose entries. In-process callers are
// serialized by a mutex.
package actionlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"postpilot/internal/core/domain"
)

const defaultActor = "postpilot"

// Store implements ports.ActionLedger over a directory of daily files.
type Store struct {
	dir   string
	actor string

	mu sync.Mutex
}

// New creates the logs directory if needed and returns a Store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}
	return &Store{dir: dir, actor: defaultActor}, nil
}

// Append adds one entry to today's file, preserving all prior entries.
// A write failure is surfaced to the caller: losing the ledger breaks
// quota enforcement and auditability.
func (s *Store) Append(ctx context.Context, entry domain.ActionEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Actor == "" {
		entry.Actor = s.actor
	}

	path := s.dayPath(time.Now())
	entries, err := readDay(path)
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger %s: %w", path, err)
	}
	return nil
}

// CountToday counts today's entries matching the predicate. A missing
// day file counts as zero.
func (s *Store) CountToday(ctx context.Context, pred func(domain.ActionEntry) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readDay(s.dayPath(time.Now()))
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if pred(e) {
			count++
		}
	}
	return count, nil
}

// EntriesSince returns all entries from the last n calendar days, today
// included, oldest day first, preserving insertion order within a day.
func (s *Store) EntriesSince(ctx context.Context, days int) ([]domain.ActionEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var all []domain.ActionEntry
	today := time.Now()
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		entries, err := readDay(s.dayPath(day))
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

func (s *Store) dayPath(day time.Time) string {
	return filepath.Join(s.dir, day.Format("2006-01-02")+".json")
}

func readDay(path string) ([]domain.ActionEntry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}
	var entries []domain.ActionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger %s: %w", path, err)
	}
	return entries, nil
}
