package fusefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/nivram913/fuse-digiposte/internal/logging"
	"github.com/nivram913/fuse-digiposte/internal/tree"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is created if it does not exist.
	Mountpoint string
	Tree       *tree.Tree
	Cache      *Cache

	// AllowOther requires user_allow_other in /etc/fuse.conf.
	AllowOther bool
	Debug      bool
	Logger     *slog.Logger
}

type filesystem struct {
	tree   *tree.Tree
	cache  *Cache
	logger *slog.Logger
}

// Mount mounts the read-only view at opts.Mountpoint. The caller must
// Unmount the returned server and Close the cache.
func Mount(opts Options) (*fuse.Server, error) {
	if opts.Mountpoint == "" {
		return nil, errors.New("mountpoint is required")
	}
	if opts.Tree == nil {
		return nil, errors.New("folder tree is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("download cache is required")
	}
	if err := os.MkdirAll(opts.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("create mountpoint %s: %w", opts.Mountpoint, err)
	}

	fsys := &filesystem{
		tree:   opts.Tree,
		cache:  opts.Cache,
		logger: logging.NewComponentLogger(opts.Logger, "fusefs"),
	}
	root := &dirNode{fsys: fsys, folder: opts.Tree.Root()}

	entryTimeout := time.Second
	attrTimeout := time.Second
	negativeTimeout := 100 * time.Millisecond
	uid := uint32(os.Getuid())
	gid := uint32(os.Getgid())

	server, err := gofuse.Mount(opts.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		UID:             uid,
		GID:             gid,
		MountOptions: fuse.MountOptions{
			FsName:     "digiposte",
			Name:       "digiposte",
			AllowOther: opts.AllowOther,
			Debug:      opts.Debug,
			Options:    []string{"ro"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mount FUSE filesystem at %s: %w", opts.Mountpoint, err)
	}

	fsys.logger.Info("digiposte mounted",
		logging.String("mountpoint", opts.Mountpoint),
		logging.String("cache_dir", opts.Cache.Dir()))
	return server, nil
}

// Serve blocks until ctx is done or the filesystem is unmounted externally,
// then unmounts if needed.
func Serve(ctx context.Context, server *fuse.Server, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "fusefs")
	done := make(chan struct{})
	go func() {
		server.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("filesystem unmounted externally")
		return nil
	case <-ctx.Done():
	}

	if err := server.Unmount(); err != nil {
		logging.WarnWithContext(logger, "unmount failed", "fuse_unmount_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the mountpoint stays busy"),
			logging.String(logging.FieldErrorHint, "close open files, then run fusermount -u on the mountpoint"))
		return fmt.Errorf("unmount: %w", err)
	}
	<-done
	logger.Info("digiposte unmounted")
	return nil
}
