package tree

import (
	"context"
	"path"
	"strings"

	"github.com/nivram913/fuse-digiposte/internal/services"
)

// Child looks up name directly below parent: a subfolder first, then a file.
// Files of parent are loaded when needed. Missing names return an error
// tagged services.ErrNotFound.
func (t *Tree) Child(ctx context.Context, parent *Folder, name string) (*Folder, *File, error) {
	if folder := t.findFolder(parent, name); folder != nil {
		return folder, nil, nil
	}
	if err := t.EnsureFiles(ctx, parent); err != nil {
		return nil, nil, err
	}
	if file := t.findFile(parent, name); file != nil {
		return nil, file, nil
	}
	return nil, nil, services.Wrap(services.ErrNotFound, "tree", "lookup", path.Join(t.Path(parent), name), nil)
}

// Resolve walks a slash-separated path from the root. Every segment but the
// last must name a folder. "/" and "" resolve to the root.
func (t *Tree) Resolve(ctx context.Context, p string) (*Folder, *File, error) {
	segments := splitPath(p)
	current := t.root
	for i, segment := range segments {
		last := i == len(segments)-1
		if !last {
			next := t.findFolder(current, segment)
			if next == nil {
				return nil, nil, services.Wrap(services.ErrNotFound, "tree", "resolve", p, nil)
			}
			current = next
			continue
		}
		folder, file, err := t.Child(ctx, current, segment)
		if err != nil {
			return nil, nil, err
		}
		return folder, file, nil
	}
	return current, nil, nil
}

// ResolveFolder is Resolve restricted to folders.
func (t *Tree) ResolveFolder(ctx context.Context, p string) (*Folder, error) {
	folder, _, err := t.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, services.Wrap(services.ErrValidation, "tree", "resolve", p+" is a file", nil)
	}
	return folder, nil
}

func (t *Tree) findFolder(parent *Folder, name string) *Folder {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, child := range parent.Folders {
		if sameName(child.Name, name) {
			return child
		}
	}
	return nil
}

func (t *Tree) findFile(parent *Folder, name string) *File {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, file := range parent.Files {
		if sameName(file.Name, name) {
			return file
		}
	}
	return nil
}

func splitPath(p string) []string {
	cleaned := path.Clean("/" + strings.TrimSpace(p))
	if cleaned == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(cleaned, "/"), "/")
}
