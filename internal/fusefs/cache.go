package fusefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/nivram913/fuse-digiposte/internal/logging"
)

// LockFileName guards a cache directory against concurrent mounts.
const LockFileName = ".lock"

// ErrCacheInUse is returned when another mount holds the cache lock.
var ErrCacheInUse = errors.New("cache directory is used by another mount")

// Downloader fetches a document into a local file. *digiposte.Client
// satisfies it.
type Downloader interface {
	DownloadFile(ctx context.Context, fileID, destPath string) error
}

// Cache stores downloaded documents under one directory, one file per
// document ID.
type Cache struct {
	dir        string
	downloader Downloader
	keep       bool
	lock       *flock.Flock
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[string]*sync.Mutex
}

// OpenCache creates dir if needed and takes its lock. keep leaves
// downloaded files in place on Close.
func OpenCache(dir string, downloader Downloader, keep bool, logger *slog.Logger) (*Cache, error) {
	if downloader == nil {
		return nil, errors.New("cache requires a downloader")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock cache directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrCacheInUse, dir)
	}

	return &Cache{
		dir:        dir,
		downloader: downloader,
		keep:       keep,
		lock:       lock,
		logger:     logging.NewComponentLogger(logger, "cache"),
		pending:    make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the local copy of a document, downloading it on first use.
// Concurrent calls for the same ID download once.
func (c *Cache) Path(ctx context.Context, fileID string) (string, error) {
	dest := filepath.Join(c.dir, url.PathEscape(fileID))

	mu := c.entryLock(fileID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}
	if err := c.downloader.DownloadFile(ctx, fileID, dest); err != nil {
		return "", err
	}
	c.logger.Debug("document cached", logging.String("file_id", fileID), logging.String("path", dest))
	return dest, nil
}

func (c *Cache) entryLock(fileID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	mu, ok := c.pending[fileID]
	if !ok {
		mu = &sync.Mutex{}
		c.pending[fileID] = mu
	}
	return mu
}

// Close purges downloaded files unless the cache was opened with keep, then
// releases the lock.
func (c *Cache) Close() error {
	var errs []error
	if !c.keep {
		if err := c.purge(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("unlock cache directory: %w", err))
	}
	if err := os.Remove(c.lock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove cache lock: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Cache) purge() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("list cache directory: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.Name() == LockFileName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(c.dir, entry.Name())); err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
		removed++
	}
	c.logger.Debug("cache purged", logging.Int("files", removed))
	return nil
}
