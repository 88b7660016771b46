package nodes

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/models"
)

// searchHandler serves /nodes/search from a fixed node set, applying the
// same substring-match and parentPath filter the real endpoint uses.
func searchHandler(t *testing.T, all []models.Node) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v4/nodes/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		search := q.Get("search_string")
		wantParent := ""
		if f := q.Get("filter"); f != "" {
			// only parentPath:eq:<path> filters are issued here
			const prefix = "parentPath:eq:"
			if len(f) <= len(prefix) || f[:len(prefix)] != prefix {
				t.Errorf("unexpected filter %q", f)
			} else {
				wantParent = f[len(prefix):]
			}
		}

		var items []models.Node
		for _, n := range all {
			if wantParent != "" && n.ParentPath != wantParent {
				continue
			}
			if search != "" && !contains(n.Name, trimGlob(search)) {
				continue
			}
			items = append(items, n)
		}
		writeJSON(t, w, models.NodeList{
			Range: models.Range{Total: int64(len(items))},
			Items: items,
		})
	})
	return mux
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func trimGlob(s string) string {
	out := ""
	for _, r := range s {
		if r != '*' {
			out += string(r)
		}
	}
	return out
}

func TestNodeFromPath(t *testing.T) {
	all := []models.Node{
		{ID: 1, Type: models.NodeTypeRoom, Name: "projects", ParentPath: "/"},
		{ID: 2, Type: models.NodeTypeFolder, Name: "reports", ParentPath: "/projects/"},
		{ID: 3, Type: models.NodeTypeFile, Name: "q1.pdf", ParentPath: "/projects/reports/"},
		{ID: 4, Type: models.NodeTypeFile, Name: "q1.pdf.bak", ParentPath: "/projects/reports/"},
	}

	svc, srv := newTestService(t, searchHandler(t, all))
	_ = srv
	r := NewResolver(svc)

	node, err := r.NodeFromPath(context.Background(), "projects/reports/q1.pdf")
	if err != nil {
		t.Fatalf("NodeFromPath: %v", err)
	}
	if node.ID != 3 {
		t.Errorf("node.ID = %d, want 3 (exact name, not q1.pdf.bak)", node.ID)
	}

	node, err = r.NodeFromPath(context.Background(), "projects")
	if err != nil {
		t.Fatalf("NodeFromPath(room): %v", err)
	}
	if node.ID != 1 {
		t.Errorf("node.ID = %d, want 1", node.ID)
	}
}

func TestNodeFromPathNotFound(t *testing.T) {
	svc, _ := newTestService(t, searchHandler(t, nil))
	r := NewResolver(svc)

	_, err := r.NodeFromPath(context.Background(), "projects/missing.txt")
	if !errors.Is(err, api.ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
}

func TestNodeFromPathAmbiguous(t *testing.T) {
	all := []models.Node{
		{ID: 10, Type: models.NodeTypeFile, Name: "dup.txt", ParentPath: "/room/"},
		{ID: 11, Type: models.NodeTypeFile, Name: "dup.txt", ParentPath: "/room/"},
	}
	svc, _ := newTestService(t, searchHandler(t, all))
	r := NewResolver(svc)

	_, err := r.NodeFromPath(context.Background(), "room/dup.txt")
	if !errors.Is(err, api.ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound for ambiguous path", err)
	}
}

func TestNodeFromPathRootRejected(t *testing.T) {
	svc, _ := newTestService(t, searchHandler(t, nil))
	r := NewResolver(svc)

	if _, err := r.NodeFromPath(context.Background(), "/"); !errors.Is(err, api.ErrInvalidPath) {
		t.Errorf("err = %v, want ErrInvalidPath", err)
	}
}

func TestParentFromPathTopLevel(t *testing.T) {
	svc, _ := newTestService(t, searchHandler(t, nil))
	r := NewResolver(svc)

	parent, err := r.ParentFromPath(context.Background(), "newroom")
	if err != nil {
		t.Fatalf("ParentFromPath: %v", err)
	}
	if parent.ID != 0 {
		t.Errorf("parent.ID = %d, want 0 (root)", parent.ID)
	}
}

func TestGlob(t *testing.T) {
	all := []models.Node{
		{ID: 1, Type: models.NodeTypeFile, Name: "a.txt", ParentPath: "/room/"},
		{ID: 2, Type: models.NodeTypeFile, Name: "b.txt", ParentPath: "/room/"},
		{ID: 3, Type: models.NodeTypeFile, Name: "c.bin", ParentPath: "/room/"},
	}
	svc, _ := newTestService(t, searchHandler(t, all))
	r := NewResolver(svc)

	matches, err := r.Glob(context.Background(), "room/*.txt")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("matches = %d, want 2", len(matches))
	}
}
