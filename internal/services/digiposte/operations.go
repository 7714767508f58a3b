package digiposte

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nivram913/fuse-digiposte/internal/services"
)

var searchLocations = []string{"INBOX", "SAFE"}

// FoldersTree returns the raw folder tree document.
func (c *Client) FoldersTree(ctx context.Context) ([]byte, error) {
	return c.do(ctx, request{
		operation: "get folders tree",
		method:    http.MethodGet,
		path:      "/folders",
		expect:    http.StatusOK,
	})
}

// Folders returns the decoded folder tree.
func (c *Client) Folders(ctx context.Context) (*FolderTree, error) {
	body, err := c.FoldersTree(ctx)
	if err != nil {
		return nil, err
	}
	tree, err := DecodeFolderTree(body)
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, component, "get folders tree", "", err)
	}
	return tree, nil
}

// FolderContent returns the raw search result listing the documents of a
// folder. An empty folderID lists the root.
func (c *Client) FolderContent(ctx context.Context, folderID string) ([]byte, error) {
	body, err := jsonBody(searchRequest{Locations: searchLocations, FolderID: folderID})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, component, "get folder content", "", err)
	}
	return c.do(ctx, request{
		operation:   "get folder content",
		method:      http.MethodPost,
		path:        "/documents/search",
		query:       url.Values{"max_results": {"1000"}, "sort": {"TITLE"}},
		body:        body,
		contentType: "application/json",
		expect:      http.StatusOK,
	})
}

// Documents returns the decoded documents of a folder.
func (c *Client) Documents(ctx context.Context, folderID string) ([]Document, error) {
	body, err := c.FolderContent(ctx, folderID)
	if err != nil {
		return nil, err
	}
	result, err := DecodeSearchResult(body)
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, component, "get folder content", "", err)
	}
	return result.Documents, nil
}

// CreateFolder creates a folder and returns its ID. An empty parentID
// creates it at the root.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	body, err := jsonBody(createFolderRequest{Name: name, ParentID: parentID})
	if err != nil {
		return "", services.Wrap(services.ErrValidation, component, "create folder", "", err)
	}
	return c.doID(ctx, request{
		operation:   "create folder",
		method:      http.MethodPost,
		path:        "/folder",
		body:        body,
		contentType: "application/json",
		expect:      http.StatusOK,
	})
}

// RenameObject renames a document or a folder.
func (c *Client) RenameObject(ctx context.Context, kind ObjectKind, id, newName string) error {
	_, err := c.do(ctx, request{
		operation: "rename " + kind.String(),
		method:    http.MethodPut,
		path:      "/" + kind.String() + "/" + escape(id) + "/rename/" + escape(newName),
		expect:    http.StatusOK,
	})
	return err
}

// DeleteObject moves a document or a folder to the trash.
func (c *Client) DeleteObject(ctx context.Context, kind ObjectKind, id string) error {
	body, err := jsonBody(newSelection(kind, id))
	if err != nil {
		return services.Wrap(services.ErrValidation, component, "delete object", "", err)
	}
	_, err = c.do(ctx, request{
		operation:   "delete " + kind.String(),
		method:      http.MethodPost,
		path:        "/file/tree/trash",
		body:        body,
		contentType: "application/json",
		expect:      http.StatusNoContent,
	})
	return err
}

// MoveObject moves a document or a folder into destFolderID. An empty
// destFolderID leaves the destination unset.
func (c *Client) MoveObject(ctx context.Context, kind ObjectKind, id, destFolderID string) error {
	body, err := jsonBody(newSelection(kind, id))
	if err != nil {
		return services.Wrap(services.ErrValidation, component, "move object", "", err)
	}
	var query url.Values
	if destFolderID != "" {
		query = url.Values{"to": {destFolderID}}
	}
	_, err = c.do(ctx, request{
		operation:   "move " + kind.String(),
		method:      http.MethodPut,
		path:        "/file/tree/move",
		query:       query,
		body:        body,
		contentType: "application/json",
		expect:      http.StatusNoContent,
	})
	return err
}
