package tree

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/nivram913/fuse-digiposte/internal/logging"
	"github.com/nivram913/fuse-digiposte/internal/services/digiposte"
)

// Folder is a node of the folder hierarchy. The root has an empty ID and name.
type Folder struct {
	ID      string
	Name    string
	Parent  *Folder
	Folders []*Folder

	// Files is valid once FilesLoaded is set.
	Files       []*File
	FilesLoaded bool
}

// File is a document stored in a folder.
type File struct {
	ID     string
	Name   string
	Size   int64
	Parent *Folder
}

// IsRoot reports whether f is the top of the hierarchy.
func (f *Folder) IsRoot() bool {
	return f.Parent == nil
}

// Loader lists the documents of a folder. *digiposte.Client satisfies it.
type Loader interface {
	Documents(ctx context.Context, folderID string) ([]digiposte.Document, error)
}

// Build converts a folder tree response into a hierarchy rooted at an
// unnamed folder. Files are not loaded.
func Build(ft *digiposte.FolderTree) *Folder {
	root := &Folder{}
	if ft == nil {
		return root
	}
	var add func(parent *Folder, entries []digiposte.FolderEntry)
	add = func(parent *Folder, entries []digiposte.FolderEntry) {
		for _, entry := range entries {
			child := &Folder{ID: entry.ID, Name: entry.Name, Parent: parent}
			parent.Folders = append(parent.Folders, child)
			add(child, entry.Folders)
		}
	}
	add(root, ft.Folders)
	return root
}

// Tree guards a folder hierarchy shared by concurrent readers and loads
// folder contents on demand.
type Tree struct {
	mu     sync.RWMutex
	root   *Folder
	loader Loader
	logger *slog.Logger
}

// New wraps root. loader may be nil when every folder is already loaded.
func New(root *Folder, loader Loader, logger *slog.Logger) *Tree {
	if root == nil {
		root = &Folder{}
	}
	return &Tree{
		root:   root,
		loader: loader,
		logger: logging.NewComponentLogger(logger, "tree"),
	}
}

// Load fetches the folder hierarchy from the API.
func Load(ctx context.Context, api interface {
	Loader
	Folders(ctx context.Context) (*digiposte.FolderTree, error)
}, logger *slog.Logger) (*Tree, error) {
	ft, err := api.Folders(ctx)
	if err != nil {
		return nil, err
	}
	return New(Build(ft), api, logger), nil
}

// Root returns the top folder.
func (t *Tree) Root() *Folder {
	return t.root
}

// EnsureFiles loads the documents of f once. Concurrent callers may both
// query the API; the first result stored wins.
func (t *Tree) EnsureFiles(ctx context.Context, f *Folder) error {
	t.mu.RLock()
	loaded := f.FilesLoaded
	t.mu.RUnlock()
	if loaded {
		return nil
	}
	if t.loader == nil {
		return fmt.Errorf("load files of %q: no loader configured", t.Path(f))
	}

	docs, err := t.loader.Documents(ctx, f.ID)
	if err != nil {
		return err
	}
	files := make([]*File, 0, len(docs))
	for _, doc := range docs {
		files = append(files, &File{ID: doc.ID, Name: doc.DisplayName(), Size: doc.Size, Parent: f})
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !f.FilesLoaded {
		f.Files = files
		f.FilesLoaded = true
		t.logger.Debug("folder files loaded",
			logging.String("folder_id", f.ID),
			logging.Int("files", len(files)))
	}
	return nil
}

// Path returns the slash-separated location of f.
func (t *Tree) Path(f *Folder) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return folderPath(f)
}

func folderPath(f *Folder) string {
	if f == nil || f.IsRoot() {
		return "/"
	}
	parent := folderPath(f.Parent)
	if parent == "/" {
		return "/" + f.Name
	}
	return parent + "/" + f.Name
}

// Entry is one item of a folder listing: exactly one of Folder and File is set.
type Entry struct {
	Name   string
	Folder *Folder
	File   *File
}

// IsDir reports whether the entry is a folder.
func (e Entry) IsDir() bool {
	return e.Folder != nil
}

// SortedEntries lists the subfolders of f, then its files, each group in
// French collation order. Files are loaded first if needed.
func (t *Tree) SortedEntries(ctx context.Context, f *Folder) ([]Entry, error) {
	if err := t.EnsureFiles(ctx, f); err != nil {
		return nil, err
	}

	t.mu.RLock()
	folders := make([]Entry, 0, len(f.Folders))
	for _, child := range f.Folders {
		folders = append(folders, Entry{Name: child.Name, Folder: child})
	}
	files := make([]Entry, 0, len(f.Files))
	for _, file := range f.Files {
		files = append(files, Entry{Name: file.Name, File: file})
	}
	t.mu.RUnlock()

	// A Collator is not safe for concurrent use.
	c := collate.New(language.French)
	sortEntries(c, folders)
	sortEntries(c, files)
	return append(folders, files...), nil
}

func sortEntries(c *collate.Collator, entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return c.CompareString(entries[i].Name, entries[j].Name) < 0
	})
}

// Walk visits every folder below f depth-first, subfolders in collation
// order. Files are not loaded. fn must not call back into t.
func (t *Tree) Walk(f *Folder, fn func(folder *Folder, depth int)) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c := collate.New(language.French)
	var visit func(folder *Folder, depth int)
	visit = func(folder *Folder, depth int) {
		children := append([]*Folder(nil), folder.Folders...)
		sort.SliceStable(children, func(i, j int) bool {
			return c.CompareString(children[i].Name, children[j].Name) < 0
		})
		for _, child := range children {
			fn(child, depth)
			visit(child, depth+1)
		}
	}
	visit(f, 0)
}

func sameName(a, b string) bool {
	return a == b || norm.NFC.String(a) == norm.NFC.String(b)
}
