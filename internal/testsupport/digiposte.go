package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nivram913/fuse-digiposte/internal/services/digiposte"
)

// FakeToken is the bearer token accepted by a FakeAPI.
const FakeToken = "test-token"

// Route keys identify fake API endpoints for FailRoute.
const (
	RouteFolders      = "GET /folders"
	RouteSearch       = "POST /documents/search"
	RouteContent      = "GET /document/{id}/content"
	RouteCreateFolder = "POST /folder"
	RouteRenameDoc    = "PUT /document/{id}/rename/{name}"
	RouteRenameFolder = "PUT /folder/{id}/rename/{name}"
	RouteTrash        = "POST /file/tree/trash"
	RouteMove         = "PUT /file/tree/move"
	RouteUpload       = "POST /document"
)

// RecordedRequest is a request observed by the fake API.
type RecordedRequest struct {
	Route         string
	Method        string
	Path          string
	RawQuery      string
	ContentType   string
	Authorization string
	Body          []byte
}

// RecordedUpload is a decoded multipart upload.
type RecordedUpload struct {
	Fields   map[string]string
	Filename string
	Content  []byte
}

// FakeAPI is an in-memory Digiposte API served over httptest.
type FakeAPI struct {
	Server *httptest.Server

	mu        sync.Mutex
	tree      digiposte.FolderTree
	documents map[string][]digiposte.Document
	contents  map[string][]byte
	failures  map[string]int
	requests  []RecordedRequest
	uploads   []RecordedUpload
	nextID    int
}

// NewFakeAPI starts a fake API seeded with a small tree:
//
//	/Factures            (folder-factures)
//	/Factures/2024       (folder-2024)   edf.pdf
//	/Fiches de paie      (folder-paie)   janvier.pdf, février.pdf
//	/ (root)                             bienvenue.pdf
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		tree: digiposte.FolderTree{Folders: []digiposte.FolderEntry{
			{ID: "folder-factures", Name: "Factures", Folders: []digiposte.FolderEntry{
				{ID: "folder-2024", Name: "2024"},
			}},
			{ID: "folder-paie", Name: "Fiches de paie"},
		}},
		documents: map[string][]digiposte.Document{
			"":            {{ID: "doc-bienvenue", Filename: "bienvenue.pdf", Size: 7}},
			"folder-2024": {{ID: "doc-edf", Filename: "edf.pdf", Size: 11}},
			"folder-paie": {
				{ID: "doc-janvier", Filename: "janvier.pdf", Size: 3},
				{ID: "doc-fevrier", Filename: "février.pdf", Size: 3},
			},
		},
		contents: map[string][]byte{
			"doc-bienvenue": []byte("welcome"),
			"doc-edf":       []byte("electricity"),
			"doc-janvier":   []byte("jan"),
			"doc-fevrier":   []byte("feb"),
		},
		failures: map[string]int{},
	}

	mux := http.NewServeMux()
	f.handle(mux, RouteFolders, f.serveFolders)
	f.handle(mux, RouteSearch, f.serveSearch)
	f.handle(mux, RouteContent, f.serveContent)
	f.handle(mux, RouteCreateFolder, f.serveCreateFolder)
	f.handle(mux, RouteRenameDoc, f.serveRename)
	f.handle(mux, RouteRenameFolder, f.serveRename)
	f.handle(mux, RouteTrash, f.serveNoContent)
	f.handle(mux, RouteMove, f.serveNoContent)
	f.handle(mux, RouteUpload, f.serveUpload)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the API root to pass to digiposte.WithBaseURL.
func (f *FakeAPI) URL() string {
	return f.Server.URL + "/api/v3"
}

// Client builds a digiposte client bound to the fake API.
func (f *FakeAPI) Client(t testing.TB, opts ...digiposte.Option) *digiposte.Client {
	t.Helper()
	opts = append([]digiposte.Option{digiposte.WithBaseURL(f.URL())}, opts...)
	client, err := digiposte.New(FakeToken, opts...)
	if err != nil {
		t.Fatalf("digiposte.New: %v", err)
	}
	return client
}

// FailRoute makes every later request to route answer with status.
func (f *FakeAPI) FailRoute(route string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = status
}

// SetContent replaces the content served for a document.
func (f *FakeAPI) SetContent(id string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents[id] = content
}

// Requests returns a copy of the requests observed so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// RequestsFor returns the requests observed for one route.
func (f *FakeAPI) RequestsFor(route string) []RecordedRequest {
	var out []RecordedRequest
	for _, req := range f.Requests() {
		if req.Route == route {
			out = append(out, req)
		}
	}
	return out
}

// Uploads returns the decoded uploads observed so far.
func (f *FakeAPI) Uploads() []RecordedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedUpload(nil), f.uploads...)
}

func (f *FakeAPI) handle(mux *http.ServeMux, route string, fn func(http.ResponseWriter, *http.Request, []byte)) {
	method, path, _ := strings.Cut(route, " ")
	mux.HandleFunc(method+" /api/v3"+path, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Route:         route,
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.EscapedPath(), "/api/v3"),
			RawQuery:      r.URL.RawQuery,
			ContentType:   r.Header.Get("Content-Type"),
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		status, failing := f.failures[route]
		f.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+FakeToken {
			http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
			return
		}
		if failing {
			http.Error(w, `{"error":"forced failure"}`, status)
			return
		}
		fn(w, r, body)
	})
}

func (f *FakeAPI) serveFolders(w http.ResponseWriter, _ *http.Request, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, f.tree)
}

func (f *FakeAPI) serveSearch(w http.ResponseWriter, r *http.Request, body []byte) {
	if r.URL.Query().Get("max_results") != "1000" || r.URL.Query().Get("sort") != "TITLE" {
		http.Error(w, "bad query", http.StatusBadRequest)
		return
	}
	var payload struct {
		Locations []string `json:"locations"`
		FolderID  *string  `json:"folder_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.FolderID == nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	docs := f.documents[*payload.FolderID]
	if docs == nil {
		docs = []digiposte.Document{}
	}
	writeJSON(w, digiposte.SearchResult{Count: len(docs), Documents: docs})
}

func (f *FakeAPI) serveContent(w http.ResponseWriter, r *http.Request, _ []byte) {
	f.mu.Lock()
	content, ok := f.contents[r.PathValue("id")]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(content)
}

func (f *FakeAPI) serveCreateFolder(w http.ResponseWriter, _ *http.Request, body []byte) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Name == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"id": f.newID("folder"), "name": payload.Name})
}

func (f *FakeAPI) serveRename(w http.ResponseWriter, r *http.Request, _ []byte) {
	writeJSON(w, map[string]string{"id": r.PathValue("id"), "name": r.PathValue("name")})
}

func (f *FakeAPI) serveNoContent(w http.ResponseWriter, _ *http.Request, body []byte) {
	var payload struct {
		DocumentIDs []string `json:"document_ids"`
		FolderIDs   []string `json:"folder_ids"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.DocumentIDs == nil || payload.FolderIDs == nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) serveUpload(w http.ResponseWriter, r *http.Request, body []byte) {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || params["boundary"] == "" {
		http.Error(w, "expected multipart body", http.StatusBadRequest)
		return
	}
	reader := multipart.NewReader(strings.NewReader(string(body)), params["boundary"])
	upload := RecordedUpload{Fields: map[string]string{}}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, "bad multipart body", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(part)
		if part.FormName() == "archive" {
			upload.Filename = part.FileName()
			upload.Content = data
			continue
		}
		upload.Fields[part.FormName()] = string(data)
	}
	if upload.Filename == "" {
		http.Error(w, "missing archive part", http.StatusBadRequest)
		return
	}
	id := f.newID("doc")
	f.mu.Lock()
	f.uploads = append(f.uploads, upload)
	f.contents[id] = upload.Content
	f.mu.Unlock()
	writeJSON(w, map[string]any{"id": id, "filename": upload.Filename})
}

func (f *FakeAPI) newID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("%s-new-%d", prefix, f.nextID)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
