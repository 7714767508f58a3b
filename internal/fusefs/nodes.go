package fusefs

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"os"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/nivram913/fuse-digiposte/internal/logging"
	"github.com/nivram913/fuse-digiposte/internal/services"
	"github.com/nivram913/fuse-digiposte/internal/tree"
)

const (
	dirMode  = 0o550
	fileMode = 0o440
)

// dirNode is a Digiposte folder. Every mutating call fails with EROFS.
type dirNode struct {
	gofuse.Inode
	fsys   *filesystem
	folder *tree.Folder
}

var _ gofuse.InodeEmbedder = (*dirNode)(nil)
var _ gofuse.NodeLookuper = (*dirNode)(nil)
var _ gofuse.NodeReaddirer = (*dirNode)(nil)
var _ gofuse.NodeGetattrer = (*dirNode)(nil)
var _ gofuse.NodeSetattrer = (*dirNode)(nil)
var _ gofuse.NodeMkdirer = (*dirNode)(nil)
var _ gofuse.NodeRmdirer = (*dirNode)(nil)
var _ gofuse.NodeUnlinker = (*dirNode)(nil)
var _ gofuse.NodeRenamer = (*dirNode)(nil)
var _ gofuse.NodeCreater = (*dirNode)(nil)

func (d *dirNode) Getattr(_ context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | dirMode
	return 0
}

func (d *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	folder, file, err := d.fsys.tree.Child(ctx, d.folder, name)
	if err != nil {
		return nil, d.fsys.errno("lookup", name, err)
	}
	if folder != nil {
		out.Mode = syscall.S_IFDIR | dirMode
		return d.fsys.folderInode(ctx, &d.Inode, folder), 0
	}
	out.Mode = syscall.S_IFREG | fileMode
	out.Size = uint64(file.Size)
	return d.fsys.fileInode(ctx, &d.Inode, file), 0
}

func (d *dirNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := d.fsys.tree.SortedEntries(ctx, d.folder)
	if err != nil {
		return nil, d.fsys.errno("readdir", d.folder.Name, err)
	}
	list := make([]fuse.DirEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			list = append(list, fuse.DirEntry{Name: entry.Name, Mode: syscall.S_IFDIR, Ino: inodeNumber("folder", entry.Folder.ID)})
			continue
		}
		list = append(list, fuse.DirEntry{Name: entry.Name, Mode: syscall.S_IFREG, Ino: inodeNumber("document", entry.File.ID)})
	}
	return gofuse.NewListDirStream(list), 0
}

func (d *dirNode) Setattr(context.Context, gofuse.FileHandle, *fuse.SetAttrIn, *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}

func (d *dirNode) Mkdir(context.Context, string, uint32, *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return nil, syscall.EROFS
}

func (d *dirNode) Rmdir(context.Context, string) syscall.Errno {
	return syscall.EROFS
}

func (d *dirNode) Unlink(context.Context, string) syscall.Errno {
	return syscall.EROFS
}

func (d *dirNode) Rename(context.Context, string, gofuse.InodeEmbedder, string, uint32) syscall.Errno {
	return syscall.EROFS
}

func (d *dirNode) Create(context.Context, string, uint32, uint32, *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	return nil, nil, 0, syscall.EROFS
}

// fileNode is a Digiposte document, downloaded into the cache on first open.
type fileNode struct {
	gofuse.Inode
	fsys *filesystem
	file *tree.File
}

var _ gofuse.InodeEmbedder = (*fileNode)(nil)
var _ gofuse.NodeGetattrer = (*fileNode)(nil)
var _ gofuse.NodeSetattrer = (*fileNode)(nil)
var _ gofuse.NodeOpener = (*fileNode)(nil)
var _ gofuse.NodeWriter = (*fileNode)(nil)

func (f *fileNode) Getattr(_ context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFREG | fileMode
	out.Size = uint64(f.file.Size)
	out.Blocks = (out.Size + 511) / 512
	return 0
}

func (f *fileNode) Setattr(context.Context, gofuse.FileHandle, *fuse.SetAttrIn, *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}

func (f *fileNode) Write(context.Context, gofuse.FileHandle, []byte, int64) (uint32, syscall.Errno) {
	return 0, syscall.EROFS
}

func (f *fileNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC|syscall.O_APPEND) != 0 {
		return nil, 0, syscall.EROFS
	}
	path, err := f.fsys.cache.Path(ctx, f.file.ID)
	if err != nil {
		return nil, 0, f.fsys.errno("open", f.file.Name, err)
	}
	handle, err := os.Open(path)
	if err != nil {
		return nil, 0, f.fsys.errno("open", f.file.Name, err)
	}
	// Documents never change under a mount, so the page cache stays valid.
	return &cachedFile{f: handle}, fuse.FOPEN_KEEP_CACHE, 0
}

// cachedFile serves reads from the downloaded copy.
type cachedFile struct {
	f *os.File
}

var _ gofuse.FileReader = (*cachedFile)(nil)
var _ gofuse.FileReleaser = (*cachedFile)(nil)

func (h *cachedFile) Read(_ context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := h.f.ReadAt(dest, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *cachedFile) Release(context.Context) syscall.Errno {
	if err := h.f.Close(); err != nil {
		return syscall.EIO
	}
	return 0
}

func (fsys *filesystem) folderInode(ctx context.Context, parent *gofuse.Inode, folder *tree.Folder) *gofuse.Inode {
	node := &dirNode{fsys: fsys, folder: folder}
	return parent.NewInode(ctx, node, gofuse.StableAttr{Mode: syscall.S_IFDIR, Ino: inodeNumber("folder", folder.ID)})
}

func (fsys *filesystem) fileInode(ctx context.Context, parent *gofuse.Inode, file *tree.File) *gofuse.Inode {
	node := &fileNode{fsys: fsys, file: file}
	return parent.NewInode(ctx, node, gofuse.StableAttr{Mode: syscall.S_IFREG, Ino: inodeNumber("document", file.ID)})
}

// errno maps err to ENOENT for missing names and EIO for everything else.
func (fsys *filesystem) errno(op, name string, err error) syscall.Errno {
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return syscall.ENOENT
	}
	logging.WarnWithContext(fsys.logger, "filesystem call failed", "fuse_call_failed",
		logging.String("op", op),
		logging.String("name", name),
		logging.Error(err),
		logging.String(logging.FieldImpact, "the caller received EIO"),
		logging.String(logging.FieldErrorHint, services.Hint(err)))
	return syscall.EIO
}

// inodeNumber derives a stable inode number from an object ID. 1 is the
// root's and is never returned.
func inodeNumber(kind, id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(id))
	ino := h.Sum64()
	if ino <= 1 {
		ino += 2
	}
	return ino
}
