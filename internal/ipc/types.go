package ipc

import (
	"context"

	"github.com/nivram913/fuse-digiposte/internal/services/digiposte"
)

// Action names accepted on the pipe.
const (
	ActionGetFoldersTree   = "get_folders_tree"
	ActionGetFolderContent = "get_folder_content"
	ActionGetFile          = "get_file"
	ActionCreateFolder     = "create_folder"
	ActionRenameObject     = "rename_object"
	ActionDeleteObject     = "delete_object"
	ActionMoveObject       = "move_object"
	ActionUploadFile       = "upload_file"
)

// Fixed reply payloads.
const (
	ReplyOK    = "OK"
	ReplyErr   = "err"
	ReplyReady = "ready"
)

const (
	fieldSeparator  = '\x00'
	recordSeparator = '\n'
	// fileFlag marks the is_file argument of rename, delete and move as a document.
	fileFlag = "1"
)

// API is the subset of the Digiposte client the dispatcher drives.
// *digiposte.Client satisfies it.
type API interface {
	FoldersTree(ctx context.Context) ([]byte, error)
	FolderContent(ctx context.Context, folderID string) ([]byte, error)
	DownloadFile(ctx context.Context, fileID, destPath string) error
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	RenameObject(ctx context.Context, kind digiposte.ObjectKind, id, newName string) error
	DeleteObject(ctx context.Context, kind digiposte.ObjectKind, id string) error
	MoveObject(ctx context.Context, kind digiposte.ObjectKind, id, destFolderID string) error
	UploadFile(ctx context.Context, up digiposte.Upload) (string, error)
}

var _ API = (*digiposte.Client)(nil)

func kindFromFlag(flag string) digiposte.ObjectKind {
	if flag == fileFlag {
		return digiposte.KindDocument
	}
	return digiposte.KindFolder
}

func flagFromKind(kind digiposte.ObjectKind) string {
	if kind == digiposte.KindDocument {
		return fileFlag
	}
	return "0"
}
