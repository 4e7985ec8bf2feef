package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"dealerwatch/internal/logging"
)

// Sentinel errors callers branch on.
var (
	ErrNotFound    = errors.New("record not found")
	ErrLockTimeout = errors.New("file lock acquisition timed out")
)

const (
	// resultCap bounds the results collection; oldest entries are trimmed
	// first (FIFO) so storage cannot grow without bound.
	resultCap = 1000

	// A writer holding a lock longer than this is presumed stuck; the waiting
	// operation fails loudly rather than queueing forever.
	lockTimeout    = 5 * time.Second
	lockRetryDelay = 100 * time.Millisecond
)

// Store is the only component that touches the on-disk JSON collections.
// Each collection lives in its own independently-locked file and is rewritten
// atomically (temp sibling + rename) on every mutation.
type Store struct {
	dataDir string

	Profiles *ProfileRepo
	Results  *ResultRepo
	Alerts   *AlertRepo
	Rules    *RuleRepo
}

// Open prepares the data directory and seeds the default rule set on first
// run.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}

	s := &Store{dataDir: dataDir}
	s.Profiles = &ProfileRepo{s: s, path: filepath.Join(dataDir, "profiles.json")}
	s.Results = &ResultRepo{s: s, path: filepath.Join(dataDir, "results.json")}
	s.Alerts = &AlertRepo{s: s, path: filepath.Join(dataDir, "alerts.json")}
	s.Rules = &RuleRepo{s: s, path: filepath.Join(dataDir, "rules.json")}

	if err := s.Rules.seedDefaults(); err != nil {
		return nil, err
	}
	return s, nil
}

// withLock runs fn while holding an exclusive advisory lock for the given
// collection file. The lock lives in a sibling .lock file so the atomic
// rename of the data file never invalidates it. Release is guaranteed on
// every exit path.
func (s *Store) withLock(path string, fn func() error) error {
	fl := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", path, ErrLockTimeout)
		}
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("%s: %w", path, ErrLockTimeout)
	}
	defer func() {
		if uerr := fl.Unlock(); uerr != nil {
			logging.Named("store").Warnw("failed to release file lock", "path", path, "error", uerr)
		}
	}()

	return fn()
}

// readJSON decodes the collection at path into v. A missing file is not an
// error: v keeps its zero value so callers see an empty collection.
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSON serializes v to a temporary sibling of path and atomically
// renames it over the target, so a crash mid-write can never truncate or
// tear the live file.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	if werr == nil {
		werr = tmp.Sync()
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write temp for %s: %w", path, werr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}

// update is the shared read-modify-write primitive: lock, decode, mutate,
// atomic rewrite.
func update[T any](s *Store, path string, mutate func(items []T) ([]T, error)) error {
	return s.withLock(path, func() error {
		var items []T
		if err := readJSON(path, &items); err != nil {
			return err
		}
		updated, err := mutate(items)
		if err != nil {
			return err
		}
		return writeJSON(path, updated)
	})
}

// readAll loads a whole collection under the lock.
func readAll[T any](s *Store, path string) ([]T, error) {
	var items []T
	err := s.withLock(path, func() error {
		return readJSON(path, &items)
	})
	return items, err
}
