package treewalk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/config"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/nodes"
	"github.com/datavault/dvcli/internal/transfer"
)

// fakeVault emulates enough of the service for tree transfers: folder
// creation with conflict semantics, child listing, and the chunked upload
// channel protocol.
type fakeVault struct {
	t *testing.T

	mu      sync.Mutex
	nextID  uint64
	nodes   map[uint64]*models.Node // id -> node
	uploads map[string]*fakeUpload  // uploadID -> state

	baseURL string
}

type fakeUpload struct {
	parentID uint64
	name     string
	body     []byte
	done     bool
}

func newFakeVault(t *testing.T) *fakeVault {
	return &fakeVault{
		t:       t,
		nextID:  100,
		nodes:   map[uint64]*models.Node{},
		uploads: map[string]*fakeUpload{},
	}
}

func (v *fakeVault) addNode(n models.Node) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	n.ID = v.nextID
	v.nodes[n.ID] = &n
	return n.ID
}

func (v *fakeVault) childByName(parentID uint64, name string) *models.Node {
	for _, n := range v.nodes {
		if n.ParentID == parentID && n.Name == name {
			return n
		}
	}
	return nil
}

func (v *fakeVault) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v4/nodes/folders", func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateFolderRequest
		json.NewDecoder(r.Body).Decode(&req)

		v.mu.Lock()
		if existing := v.childByName(req.ParentID, req.Name); existing != nil {
			v.mu.Unlock()
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(models.APIErrorBody{Code: 409, Message: "name already in use"})
			return
		}
		v.nextID++
		node := &models.Node{ID: v.nextID, Type: models.NodeTypeFolder, Name: req.Name, ParentID: req.ParentID}
		v.nodes[node.ID] = node
		v.mu.Unlock()

		json.NewEncoder(w).Encode(node)
	})

	mux.HandleFunc("GET /api/v4/nodes", func(w http.ResponseWriter, r *http.Request) {
		parentID, _ := strconv.ParseUint(r.URL.Query().Get("parent_id"), 10, 64)

		v.mu.Lock()
		var items []models.Node
		for _, n := range v.nodes {
			if n.ParentID == parentID {
				items = append(items, *n)
			}
		}
		v.mu.Unlock()

		json.NewEncoder(w).Encode(models.NodeList{
			Range: models.Range{Total: int64(len(items))},
			Items: items,
		})
	})

	mux.HandleFunc("POST /api/v4/nodes/files/uploads", func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateFileUploadRequest
		json.NewDecoder(r.Body).Decode(&req)

		v.mu.Lock()
		id := fmt.Sprintf("UL-%d", len(v.uploads)+1)
		v.uploads[id] = &fakeUpload{parentID: req.ParentID, name: req.Name}
		v.mu.Unlock()

		json.NewEncoder(w).Encode(models.UploadChannel{UploadID: id})
	})

	mux.HandleFunc("/api/v4/nodes/files/uploads/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/v4/nodes/files/uploads/")
		parts := strings.SplitN(rest, "/", 2)
		id := parts[0]

		v.mu.Lock()
		up := v.uploads[id]
		v.mu.Unlock()
		if up == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		switch {
		case len(parts) == 2 && parts[1] == "s3_urls":
			var req models.GeneratePresignedURLsRequest
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(models.PresignedURLList{
				URLs: []models.PresignedURL{{
					URL:        fmt.Sprintf("%s/s3/%s/%d", v.baseURL, id, req.FirstPartNumber),
					PartNumber: req.FirstPartNumber,
				}},
			})

		case len(parts) == 2 && parts[1] == "s3":
			v.mu.Lock()
			up.done = true
			v.nextID++
			v.nodes[v.nextID] = &models.Node{
				ID: v.nextID, Type: models.NodeTypeFile,
				Name: up.name, ParentID: up.parentID,
				Size: int64(len(up.body)),
			}
			v.mu.Unlock()
			w.WriteHeader(http.StatusAccepted)

		default:
			v.mu.Lock()
			status := models.UploadStatus{Status: models.UploadStatusTransfer}
			if up.done {
				var node *models.Node
				for _, n := range v.nodes {
					if n.ParentID == up.parentID && n.Name == up.name {
						node = n
					}
				}
				status = models.UploadStatus{Status: models.UploadStatusDone, Node: node}
			}
			v.mu.Unlock()
			json.NewEncoder(w).Encode(status)
		}
	})

	mux.HandleFunc("PUT /s3/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/s3/")
		id := strings.SplitN(rest, "/", 2)[0]

		body := new(bytes.Buffer)
		body.ReadFrom(r.Body)

		v.mu.Lock()
		if up := v.uploads[id]; up != nil {
			up.body = append(up.body, body.Bytes()...)
		}
		v.mu.Unlock()

		w.Header().Set("ETag", `"e"`)
	})

	return mux
}

func (v *fakeVault) start(t *testing.T) (*nodes.Service, *transfer.Uploader) {
	t.Helper()
	srv := httptest.NewServer(v.handler())
	t.Cleanup(srv.Close)
	v.baseURL = srv.URL

	cfg := &config.Config{TargetURL: srv.URL, ProxyMode: "no-proxy"}
	client, err := api.NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	up, err := transfer.NewUploader(client)
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}
	return nodes.NewService(client), up
}

func makeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestTreeUpload(t *testing.T) {
	v := newFakeVault(t)
	roomID := v.addNode(models.Node{Type: models.NodeTypeRoom, Name: "room"})

	root := t.TempDir()
	makeTree(t, root, map[string]string{
		"top.txt":       "one",
		"a/mid.txt":     "two",
		"a/b/deep.txt":  "three",
		"a/b/deep2.txt": "four",
	})

	svc, fileUp := v.start(t)
	tu := NewUploader(svc, fileUp)

	err := tu.Upload(context.Background(), root, models.Node{ID: roomID, Type: models.NodeTypeRoom}, UploadOptions{Velocity: 2})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// Folder hierarchy replayed: room/a and room/a/b.
	a := v.childByName(roomID, "a")
	if a == nil {
		t.Fatal("folder a not created")
	}
	b := v.childByName(a.ID, "b")
	if b == nil {
		t.Fatal("folder a/b not created")
	}

	// Files landed under the right parents.
	checks := map[string]uint64{
		"top.txt":   roomID,
		"mid.txt":   a.ID,
		"deep.txt":  b.ID,
		"deep2.txt": b.ID,
	}
	for name, parent := range checks {
		if n := v.childByName(parent, name); n == nil {
			t.Errorf("file %s missing under node %d", name, parent)
		}
	}

	// Content made it through the chunk protocol.
	for _, up := range v.uploads {
		if up.name == "top.txt" && string(up.body) != "one" {
			t.Errorf("top.txt body = %q", up.body)
		}
	}
}

func TestTreeUploadAdoptsExistingFolder(t *testing.T) {
	v := newFakeVault(t)
	roomID := v.addNode(models.Node{Type: models.NodeTypeRoom, Name: "room"})
	// Folder "a" already exists from an earlier run.
	existingID := v.addNode(models.Node{Type: models.NodeTypeFolder, Name: "a", ParentID: roomID})

	root := t.TempDir()
	makeTree(t, root, map[string]string{"a/file.txt": "x"})

	svc, fileUp := v.start(t)
	tu := NewUploader(svc, fileUp)

	err := tu.Upload(context.Background(), root, models.Node{ID: roomID}, UploadOptions{Velocity: 1})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if n := v.childByName(existingID, "file.txt"); n == nil {
		t.Error("file not uploaded into the pre-existing folder")
	}

	// No duplicate "a" was created.
	count := 0
	for _, n := range v.nodes {
		if n.ParentID == roomID && n.Name == "a" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("folder a exists %d times, want 1", count)
	}
}
