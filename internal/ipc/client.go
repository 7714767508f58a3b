package ipc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/nivram913/fuse-digiposte/internal/services/digiposte"
)

// ErrRemote is returned when the server answers err.
var ErrRemote = errors.New("pipe server returned err")

// Client drives a pipe server from the parent side. Calls are serialized so
// replies always match their records.
type Client struct {
	mu     sync.Mutex
	reader *bufio.Reader
	writer io.Writer
}

// NewClient wraps the read side (server replies) and write side (commands).
func NewClient(r io.Reader, w io.Writer) *Client {
	return &Client{reader: bufio.NewReader(r), writer: w}
}

// WaitReady consumes the ready sentinel written when the server starts.
func (c *Client) WaitReady() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	reply, err := c.readReply()
	if err != nil {
		return err
	}
	if reply != ReplyReady {
		return fmt.Errorf("expected %q sentinel, got %q", ReplyReady, reply)
	}
	return nil
}

// Call sends one record and returns the reply payload.
func (c *Client) Call(action string, args ...string) (string, error) {
	record, err := encodeRecord(action, args)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.writer.Write(record); err != nil {
		return "", fmt.Errorf("write %s: %w", action, err)
	}
	reply, err := c.readReply()
	if err != nil {
		return "", fmt.Errorf("read %s reply: %w", action, err)
	}
	if reply == ReplyErr {
		return "", fmt.Errorf("%s: %w", action, ErrRemote)
	}
	return reply, nil
}

func (c *Client) readReply() (string, error) {
	reply, err := c.reader.ReadBytes(fieldSeparator)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return string(bytes.TrimSuffix(reply, []byte{fieldSeparator})), nil
}

func encodeRecord(action string, args []string) ([]byte, error) {
	fields := append([]string{action}, args...)
	for _, field := range fields {
		if strings.ContainsAny(field, "\x00\n") {
			return nil, fmt.Errorf("%s: field %q contains a separator", action, field)
		}
	}
	record := strings.Join(fields, string(fieldSeparator))
	return append([]byte(record), recordSeparator), nil
}

// FoldersTree returns the raw folder tree JSON.
func (c *Client) FoldersTree() (string, error) {
	return c.Call(ActionGetFoldersTree)
}

// FolderContent returns the raw search JSON for folderID.
func (c *Client) FolderContent(folderID string) (string, error) {
	return c.Call(ActionGetFolderContent, folderID)
}

// GetFile asks the server to download fileID to destPath.
func (c *Client) GetFile(fileID, destPath string) error {
	return c.expectOK(ActionGetFile, fileID, destPath)
}

// CreateFolder returns the new folder ID.
func (c *Client) CreateFolder(name, parentID string) (string, error) {
	return c.Call(ActionCreateFolder, name, parentID)
}

// RenameObject renames a document or folder.
func (c *Client) RenameObject(kind digiposte.ObjectKind, id, newName string) error {
	return c.expectOK(ActionRenameObject, flagFromKind(kind), id, newName)
}

// DeleteObject moves a document or folder to the trash.
func (c *Client) DeleteObject(kind digiposte.ObjectKind, id string) error {
	return c.expectOK(ActionDeleteObject, flagFromKind(kind), id)
}

// MoveObject moves a document or folder into destFolderID.
func (c *Client) MoveObject(kind digiposte.ObjectKind, id, destFolderID string) error {
	return c.expectOK(ActionMoveObject, flagFromKind(kind), id, destFolderID)
}

// UploadFile returns the new document ID.
func (c *Client) UploadFile(up digiposte.Upload) (string, error) {
	return c.Call(ActionUploadFile, up.FolderID, up.Path, up.Name, strconv.FormatInt(up.Size, 10))
}

func (c *Client) expectOK(action string, args ...string) error {
	reply, err := c.Call(action, args...)
	if err != nil {
		return err
	}
	if reply != ReplyOK {
		return fmt.Errorf("%s: unexpected reply %q", action, reply)
	}
	return nil
}
