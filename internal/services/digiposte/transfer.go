package digiposte

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/nivram913/fuse-digiposte/internal/fileutil"
	"github.com/nivram913/fuse-digiposte/internal/services"
)

// DownloadMode is the permission of files written by DownloadFile.
const DownloadMode os.FileMode = 0o600

// Upload describes a local file to store as a new document.
type Upload struct {
	// FolderID is the destination folder; empty stores at the root.
	FolderID string
	// Path is the local file to send.
	Path string
	// Name is used for both the multipart filename and the document title.
	Name string
	// Size is sent as archive_size. Zero means the size of Path.
	Size int64
}

// Download streams the content of a document into w and returns the number
// of bytes written.
func (c *Client) Download(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, request{
		operation: "get file",
		method:    http.MethodGet,
		path:      "/document/" + escape(fileID) + "/content",
		expect:    http.StatusOK,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, services.Wrap(services.ErrTransport, component, "get file", "copy response body", err)
	}
	return n, nil
}

// DownloadFile writes the content of a document to destPath. The file
// appears only once the whole body has been received.
func (c *Client) DownloadFile(ctx context.Context, fileID, destPath string) error {
	if strings.TrimSpace(destPath) == "" {
		return services.Wrap(services.ErrValidation, component, "get file", "destination path required", nil)
	}
	var downloadErr error
	err := fileutil.WriteAtomic(destPath, DownloadMode, func(w io.Writer) error {
		_, downloadErr = c.Download(ctx, fileID, w)
		return downloadErr
	})
	if downloadErr != nil {
		return downloadErr
	}
	if err != nil {
		return services.Wrap(services.ErrValidation, component, "get file", "write "+destPath, err)
	}
	return nil
}

// UploadFile stores a local file as a new document and returns its ID.
func (c *Client) UploadFile(ctx context.Context, up Upload) (string, error) {
	if up.Size < 0 {
		return "", services.Wrap(services.ErrValidation, component, "upload file", "negative size", nil)
	}

	src, err := os.Open(up.Path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, component, "upload file", "open source", err)
	}
	defer src.Close()

	size := up.Size
	if size == 0 {
		info, err := src.Stat()
		if err != nil {
			return "", services.Wrap(services.ErrValidation, component, "upload file", "stat source", err)
		}
		size = info.Size()
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writeUploadForm(writer, up, size, src); err != nil {
		return "", services.Wrap(services.ErrValidation, component, "upload file", "build multipart body", err)
	}

	return c.doID(ctx, request{
		operation:   "upload file",
		method:      http.MethodPost,
		path:        "/document",
		body:        &body,
		contentType: writer.FormDataContentType(),
		expect:      http.StatusOK,
	})
}

func writeUploadForm(writer *multipart.Writer, up Upload, size int64, src io.Reader) error {
	if err := writer.WriteField("archive_size", strconv.FormatInt(size, 10)); err != nil {
		return err
	}
	part, err := writer.CreateFormFile("archive", up.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy source: %w", err)
	}
	if err := writer.WriteField("health_document", "false"); err != nil {
		return err
	}
	if err := writer.WriteField("title", up.Name); err != nil {
		return err
	}
	if up.FolderID != "" {
		if err := writer.WriteField("folder_id", up.FolderID); err != nil {
			return err
		}
	}
	return writer.Close()
}
