package digiposte

import (
	"encoding/json"
	"fmt"
)

// FolderTree is the body of GET /folders.
type FolderTree struct {
	Folders []FolderEntry `json:"folders"`
}

// FolderEntry is one node of the folder tree. Children are nested.
type FolderEntry struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Favorite bool          `json:"favorite,omitempty"`
	Folders  []FolderEntry `json:"folders"`
}

// SearchResult is the body of POST /documents/search.
type SearchResult struct {
	Count     int        `json:"count,omitempty"`
	Documents []Document `json:"documents"`
}

// Document is a stored file as listed by a folder search.
type Document struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	Title        string `json:"title,omitempty"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype,omitempty"`
	Location     string `json:"location,omitempty"`
	FolderID     string `json:"folder_id,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
}

// DisplayName returns the filename, falling back to the title.
func (d Document) DisplayName() string {
	if d.Filename != "" {
		return d.Filename
	}
	return d.Title
}

// DecodeFolderTree parses a folder tree body as returned by FoldersTree.
func DecodeFolderTree(body []byte) (*FolderTree, error) {
	var tree FolderTree
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("decode folder tree: %w", err)
	}
	return &tree, nil
}

// DecodeSearchResult parses a search body as returned by FolderContent.
func DecodeSearchResult(body []byte) (*SearchResult, error) {
	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search result: %w", err)
	}
	return &result, nil
}

// Walk calls fn for every folder of the tree in depth-first order. Depth is 0
// for top-level folders.
func (t *FolderTree) Walk(fn func(entry FolderEntry, depth int)) {
	if t == nil {
		return
	}
	var visit func(entries []FolderEntry, depth int)
	visit = func(entries []FolderEntry, depth int) {
		for _, entry := range entries {
			fn(entry, depth)
			visit(entry.Folders, depth+1)
		}
	}
	visit(t.Folders, 0)
}

type searchRequest struct {
	Locations []string `json:"locations"`
	FolderID  string   `json:"folder_id"`
}

type createFolderRequest struct {
	Name     string `json:"name"`
	Favorite bool   `json:"favorite"`
	ParentID string `json:"parent_id,omitempty"`
}

type selection struct {
	DocumentIDs []string `json:"document_ids"`
	FolderIDs   []string `json:"folder_ids"`
}

func newSelection(kind ObjectKind, id string) selection {
	sel := selection{DocumentIDs: []string{}, FolderIDs: []string{}}
	if kind == KindDocument {
		sel.DocumentIDs = append(sel.DocumentIDs, id)
	} else {
		sel.FolderIDs = append(sel.FolderIDs, id)
	}
	return sel
}
