package digiposte_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nivram913/fuse-digiposte/internal/services"
	"github.com/nivram913/fuse-digiposte/internal/services/digiposte"
	"github.com/nivram913/fuse-digiposte/internal/testsupport"
)

func TestNewRequiresToken(t *testing.T) {
	if _, err := digiposte.New("   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFoldersTreeSendsSessionHeaders(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	client := api.Client(t)

	body, err := client.FoldersTree(context.Background())
	if err != nil {
		t.Fatalf("FoldersTree: %v", err)
	}
	if !strings.Contains(string(body), `"Factures"`) {
		t.Fatalf("expected raw tree body, got %s", body)
	}

	reqs := api.RequestsFor(testsupport.RouteFolders)
	if len(reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(reqs))
	}
	if reqs[0].Authorization != "Bearer "+testsupport.FakeToken {
		t.Fatalf("unexpected authorization header %q", reqs[0].Authorization)
	}
}

func TestFoldersDecodesTree(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	tree, err := api.Client(t).Folders(context.Background())
	if err != nil {
		t.Fatalf("Folders: %v", err)
	}
	var names []string
	tree.Walk(func(entry digiposte.FolderEntry, depth int) {
		names = append(names, strings.Repeat(">", depth)+entry.Name)
	})
	want := "Factures,>2024,Fiches de paie"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("walk order: got %q want %q", got, want)
	}
}

func TestFolderContentPayload(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	client := api.Client(t)

	docs, err := client.Documents(context.Background(), "folder-paie")
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "doc-janvier" || docs[1].Size != 3 {
		t.Fatalf("unexpected documents %#v", docs)
	}

	req := api.RequestsFor(testsupport.RouteSearch)[0]
	if req.RawQuery != "max_results=1000&sort=TITLE" {
		t.Fatalf("unexpected query %q", req.RawQuery)
	}
	var payload map[string]any
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["folder_id"] != "folder-paie" {
		t.Fatalf("unexpected folder id in %s", req.Body)
	}
	locations, _ := payload["locations"].([]any)
	if len(locations) != 2 || locations[0] != "INBOX" || locations[1] != "SAFE" {
		t.Fatalf("unexpected locations in %s", req.Body)
	}
}

func TestFolderContentRootSendsEmptyFolderID(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	body, err := api.Client(t).FolderContent(context.Background(), "")
	if err != nil {
		t.Fatalf("FolderContent: %v", err)
	}
	if !strings.Contains(string(body), "bienvenue.pdf") {
		t.Fatalf("expected root documents, got %s", body)
	}
	req := api.RequestsFor(testsupport.RouteSearch)[0]
	if !strings.Contains(string(req.Body), `"folder_id":""`) {
		t.Fatalf("expected empty folder_id, got %s", req.Body)
	}
}

func TestCreateFolderReturnsID(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	client := api.Client(t)

	id, err := client.CreateFolder(context.Background(), "Impôts", "folder-factures")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if id != "folder-new-1" {
		t.Fatalf("unexpected id %q", id)
	}
	body := string(api.RequestsFor(testsupport.RouteCreateFolder)[0].Body)
	for _, fragment := range []string{`"name":"Impôts"`, `"favorite":false`, `"parent_id":"folder-factures"`} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected %s in %s", fragment, body)
		}
	}
}

func TestCreateFolderWithoutParentOmitsParentID(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	if _, err := api.Client(t).CreateFolder(context.Background(), "Top", ""); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	body := string(api.RequestsFor(testsupport.RouteCreateFolder)[0].Body)
	if strings.Contains(body, "parent_id") {
		t.Fatalf("expected parent_id to be omitted, got %s", body)
	}
}

func TestCreateFolderNumericAndMissingID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"numeric id", `{"id": 42}`, "42", false},
		{"missing id", `{"name":"x"}`, "", true},
		{"null id", `{"id": null}`, "", true},
		{"not json", `<html>`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			client, err := digiposte.New("tok", digiposte.WithBaseURL(srv.URL))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			id, err := client.CreateFolder(context.Background(), "x", "")
			if tt.wantErr {
				if !errors.Is(err, services.ErrDecode) {
					t.Fatalf("expected decode error, got %v (id %q)", err, id)
				}
				return
			}
			if err != nil || id != tt.want {
				t.Fatalf("got %q, %v; want %q", id, err, tt.want)
			}
		})
	}
}

func TestRenameObjectPaths(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	client := api.Client(t)
	ctx := context.Background()

	if err := client.RenameObject(ctx, digiposte.KindDocument, "doc-edf", "edf 2024.pdf"); err != nil {
		t.Fatalf("rename document: %v", err)
	}
	if err := client.RenameObject(ctx, digiposte.KindFolder, "folder-2024", "Année 2024"); err != nil {
		t.Fatalf("rename folder: %v", err)
	}

	docReq := api.RequestsFor(testsupport.RouteRenameDoc)
	folderReq := api.RequestsFor(testsupport.RouteRenameFolder)
	if len(docReq) != 1 || len(folderReq) != 1 {
		t.Fatalf("expected one rename per kind, got %d/%d", len(docReq), len(folderReq))
	}
	if docReq[0].Path != "/document/doc-edf/rename/edf%202024.pdf" {
		t.Fatalf("unexpected document rename path %q", docReq[0].Path)
	}
	if !strings.HasPrefix(folderReq[0].Path, "/folder/folder-2024/rename/") {
		t.Fatalf("unexpected folder rename path %q", folderReq[0].Path)
	}
}

func TestDeleteObjectPayloadAndStatus(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	client := api.Client(t)
	ctx := context.Background()

	if err := client.DeleteObject(ctx, digiposte.KindDocument, "doc-edf"); err != nil {
		t.Fatalf("delete document: %v", err)
	}
	if err := client.DeleteObject(ctx, digiposte.KindFolder, "folder-2024"); err != nil {
		t.Fatalf("delete folder: %v", err)
	}

	reqs := api.RequestsFor(testsupport.RouteTrash)
	if got := string(reqs[0].Body); got != `{"document_ids":["doc-edf"],"folder_ids":[]}` {
		t.Fatalf("unexpected document payload %s", got)
	}
	if got := string(reqs[1].Body); got != `{"document_ids":[],"folder_ids":["folder-2024"]}` {
		t.Fatalf("unexpected folder payload %s", got)
	}
}

func TestMoveObjectDestination(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	client := api.Client(t)
	ctx := context.Background()

	if err := client.MoveObject(ctx, digiposte.KindDocument, "doc-edf", "folder-paie"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := client.MoveObject(ctx, digiposte.KindFolder, "folder-2024", ""); err != nil {
		t.Fatalf("move without destination: %v", err)
	}

	reqs := api.RequestsFor(testsupport.RouteMove)
	if reqs[0].RawQuery != "to=folder-paie" {
		t.Fatalf("unexpected query %q", reqs[0].RawQuery)
	}
	if reqs[1].RawQuery != "" {
		t.Fatalf("expected no destination query, got %q", reqs[1].RawQuery)
	}
}

type operationCase struct {
	name  string
	route string
	call  func(context.Context, *testing.T, *digiposte.Client) error
}

// everyOperation calls each API operation once with arguments the fake API
// would otherwise accept.
func everyOperation() []operationCase {
	return []operationCase{
		{"folders tree", testsupport.RouteFolders, func(ctx context.Context, _ *testing.T, c *digiposte.Client) error {
			_, err := c.FoldersTree(ctx)
			return err
		}},
		{"folder content", testsupport.RouteSearch, func(ctx context.Context, _ *testing.T, c *digiposte.Client) error {
			_, err := c.FolderContent(ctx, "folder-2024")
			return err
		}},
		{"get file", testsupport.RouteContent, func(ctx context.Context, t *testing.T, c *digiposte.Client) error {
			return c.DownloadFile(ctx, "doc-edf", filepath.Join(t.TempDir(), "edf.pdf"))
		}},
		{"create folder", testsupport.RouteCreateFolder, func(ctx context.Context, _ *testing.T, c *digiposte.Client) error {
			_, err := c.CreateFolder(ctx, "n", "")
			return err
		}},
		{"rename document", testsupport.RouteRenameDoc, func(ctx context.Context, _ *testing.T, c *digiposte.Client) error {
			return c.RenameObject(ctx, digiposte.KindDocument, "doc-edf", "n")
		}},
		{"rename folder", testsupport.RouteRenameFolder, func(ctx context.Context, _ *testing.T, c *digiposte.Client) error {
			return c.RenameObject(ctx, digiposte.KindFolder, "folder-2024", "n")
		}},
		{"delete object", testsupport.RouteTrash, func(ctx context.Context, _ *testing.T, c *digiposte.Client) error {
			return c.DeleteObject(ctx, digiposte.KindDocument, "d")
		}},
		{"move object", testsupport.RouteMove, func(ctx context.Context, _ *testing.T, c *digiposte.Client) error {
			return c.MoveObject(ctx, digiposte.KindDocument, "d", "f")
		}},
		{"upload file", testsupport.RouteUpload, func(ctx context.Context, t *testing.T, c *digiposte.Client) error {
			src := filepath.Join(t.TempDir(), "scan.pdf")
			testsupport.WriteFile(t, src, 16)
			_, err := c.UploadFile(ctx, digiposte.Upload{FolderID: "folder-paie", Path: src, Name: "scan.pdf"})
			return err
		}},
	}
}

func TestUnexpectedStatusIsError(t *testing.T) {
	for _, tt := range everyOperation() {
		t.Run(tt.name, func(t *testing.T) {
			api := testsupport.NewFakeAPI(t)
			api.FailRoute(tt.route, http.StatusInternalServerError)
			err := tt.call(context.Background(), t, api.Client(t))
			if !errors.Is(err, services.ErrStatus) {
				t.Fatalf("expected status error, got %v", err)
			}
			if !digiposte.IsStatus(err, http.StatusInternalServerError) {
				t.Fatalf("expected StatusError with 500, got %v", err)
			}
			if got := len(api.RequestsFor(tt.route)); got != 1 {
				t.Fatalf("expected exactly one request, got %d", got)
			}
		})
	}
}

func TestSuccessStatusOfOtherEndpointIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client, err := digiposte.New("tok", digiposte.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = client.DeleteObject(context.Background(), digiposte.KindDocument, "d")
	if !digiposte.IsStatus(err, http.StatusOK) {
		t.Fatalf("expected 200 to be rejected for trash, got %v", err)
	}
}

func TestUnauthorizedIsTagged(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	client, err := digiposte.New("wrong", digiposte.WithBaseURL(api.URL()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.FoldersTree(context.Background())
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized marker, got %v", err)
	}
}

func TestRedirectIsNotFollowed(t *testing.T) {
	var followed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/elsewhere" {
			followed = true
			_, _ = w.Write([]byte(`{"folders":[]}`))
			return
		}
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	t.Cleanup(srv.Close)

	client, err := digiposte.New("tok", digiposte.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.FoldersTree(context.Background())
	if !digiposte.IsStatus(err, http.StatusFound) {
		t.Fatalf("expected redirect to surface as status error, got %v", err)
	}
	if followed {
		t.Fatal("redirect was followed")
	}
}

func TestTransportFailureIsTagged(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	for _, tt := range everyOperation() {
		t.Run(tt.name, func(t *testing.T) {
			client, err := digiposte.New("tok", digiposte.WithBaseURL(url))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if err := tt.call(context.Background(), t, client); !errors.Is(err, services.ErrTransport) {
				t.Fatalf("expected transport marker, got %v", err)
			}
		})
	}
}

func TestEmptyNamesReachTheAPI(t *testing.T) {
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.Method+" "+r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"id":"folder-x"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := digiposte.New("tok", digiposte.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.CreateFolder(context.Background(), "", ""); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if err := client.RenameObject(context.Background(), digiposte.KindFolder, "folder-x", ""); err != nil {
		t.Fatalf("RenameObject: %v", err)
	}
	want := []string{"POST /folder", "PUT /folder/folder-x/rename/"}
	if strings.Join(hits, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected requests %v", hits)
	}
}

func TestTimeoutIsTagged(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client, err := digiposte.New("tok", digiposte.WithBaseURL(srv.URL), digiposte.WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.FoldersTree(context.Background())
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestDownloadFileWritesExactBody(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	content := []byte{0x00, 0x01, 0xff, 'p', 'd', 'f', 0x00}
	api.SetContent("doc-edf", content)
	dest := filepath.Join(t.TempDir(), "edf.pdf")

	if err := api.Client(t).DownloadFile(context.Background(), "doc-edf", dest); err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %v want %v", got, content)
	}
}

func TestDownloadFileFailureCreatesNothing(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	dir := t.TempDir()
	dest := filepath.Join(dir, "missing.pdf")

	err := api.Client(t).DownloadFile(context.Background(), "doc-unknown", dest)
	if !digiposte.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404 status error, got %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files after failed download, found %d", len(entries))
	}
}

func TestUploadFileMultipartFields(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	src := filepath.Join(t.TempDir(), "scan.pdf")
	content := testsupport.WriteFile(t, src, 1024)

	id, err := api.Client(t).UploadFile(context.Background(), digiposte.Upload{
		FolderID: "folder-paie",
		Path:     src,
		Name:     "mars.pdf",
		Size:     1024,
	})
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if id != "doc-new-1" {
		t.Fatalf("unexpected id %q", id)
	}

	uploads := api.Uploads()
	if len(uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(uploads))
	}
	up := uploads[0]
	if up.Filename != "mars.pdf" || string(up.Content) != string(content) {
		t.Fatalf("unexpected archive part %q (%d bytes)", up.Filename, len(up.Content))
	}
	want := map[string]string{
		"archive_size":    "1024",
		"health_document": "false",
		"title":           "mars.pdf",
		"folder_id":       "folder-paie",
	}
	for key, value := range want {
		if up.Fields[key] != value {
			t.Fatalf("field %s = %q, want %q", key, up.Fields[key], value)
		}
	}
}

func TestUploadFileWithoutFolderOrSize(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	src := filepath.Join(t.TempDir(), "note.txt")
	testsupport.WriteFile(t, src, 10)

	if _, err := api.Client(t).UploadFile(context.Background(), digiposte.Upload{Path: src, Name: "note.txt"}); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	up := api.Uploads()[0]
	if _, ok := up.Fields["folder_id"]; ok {
		t.Fatal("expected folder_id to be omitted")
	}
	if up.Fields["archive_size"] != "10" {
		t.Fatalf("expected size from stat, got %q", up.Fields["archive_size"])
	}
}

func TestUploadFileMissingSource(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	_, err := api.Client(t).UploadFile(context.Background(), digiposte.Upload{
		Path: filepath.Join(t.TempDir(), "nope"),
		Name: "nope",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.Requests()) != 0 {
		t.Fatal("no request should be sent when the source is missing")
	}
}
