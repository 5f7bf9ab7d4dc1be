package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// SweepResult summarizes one sweep pass
type SweepResult struct {
	Scanned int           `json:"scanned"`
	Removed int           `json:"removed"`
	Failed  int           `json:"failed"`
	Skipped bool          `json:"skipped"`
	MaxAge  time.Duration `json:"maxAge"`
}

// Sweep deletes every entry in the storage root whose modification time is
// older than maxAge. Reserved entries are left alone. Failures on individual
// entries are logged and counted but never abort the pass.
//
// Only one sweeper runs at a time across processes sharing the root. If
// another holds the sweep lock the pass is skipped. Store, Open and Delete
// never take this lock.
func (s *FileSystemStorage) Sweep(ctx context.Context, maxAge time.Duration) (*SweepResult, error) {
	result := &SweepResult{MaxAge: maxAge}
	if maxAge <= 0 {
		return nil, fmt.Errorf("sweep max age must be positive, got %s", maxAge)
	}

	lock := flock.New(filepath.Join(s.root, SweepLockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !locked {
		s.logger.Debug("sweep already running elsewhere, skipping")
		result.Skipped = true
		return result, nil
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release sweep lock", zap.Error(err))
		}
	}()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	cutoff := s.now().Add(-maxAge)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if isReserved(entry.Name()) {
			continue
		}
		result.Scanned++

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			result.Failed++
			s.logger.Warn("sweep: stat failed", zap.String("entry", entry.Name()), zap.Error(err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := s.removeAll(filepath.Join(s.root, entry.Name())); err != nil {
			result.Failed++
			s.logger.Warn("sweep: delete failed", zap.String("entry", entry.Name()), zap.Error(err))
			continue
		}
		result.Removed++
		s.logger.Debug("sweep: deleted expired document", zap.String("entry", entry.Name()))
	}

	s.logger.Info("sweep completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("removed", result.Removed),
		zap.Int("failed", result.Failed),
		zap.Duration("max_age", maxAge))

	return result, nil
}
