package transfer

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/config"
	"github.com/datavault/dvcli/internal/crypto"
	"github.com/datavault/dvcli/internal/models"
)

func newTestDownloader(t *testing.T, object []byte) (*Downloader, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()

	var baseURL string
	mux.HandleFunc("/api/v4/nodes/files/777/downloads", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		json.NewEncoder(w).Encode(models.DownloadToken{DownloadURL: baseURL + "/s3/object"})
	})
	mux.HandleFunc("/s3/object", func(w http.ResponseWriter, r *http.Request) {
		w.Write(object)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	baseURL = srv.URL

	cfg := &config.Config{TargetURL: srv.URL, ProxyMode: "no-proxy"}
	client, err := api.NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	dl, err := NewDownloader(client)
	if err != nil {
		t.Fatalf("NewDownloader: %v", err)
	}
	return dl, srv
}

func TestDownloadFile(t *testing.T) {
	data := make([]byte, 300<<10)
	rand.Read(data)

	dl, _ := newTestDownloader(t, data)
	target := filepath.Join(t.TempDir(), "nested", "out.bin")

	err := dl.DownloadFile(context.Background(), DownloadRequest{
		Node:       models.Node{ID: 777, Size: int64(len(data))},
		TargetPath: target,
	})
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("downloaded bytes differ")
	}
}

func TestDownloadEncryptedRoundTrip(t *testing.T) {
	plain := make([]byte, 100<<10)
	rand.Read(plain)

	fk, err := crypto.GenerateFileKey()
	if err != nil {
		t.Fatal(err)
	}
	enc, err := crypto.NewEncryptingReader(bytes.NewReader(plain), fk)
	if err != nil {
		t.Fatal(err)
	}
	var ct bytes.Buffer
	ct.ReadFrom(enc)

	dl, _ := newTestDownloader(t, ct.Bytes())
	target := filepath.Join(t.TempDir(), "out.bin")

	err = dl.DownloadFile(context.Background(), DownloadRequest{
		Node:       models.Node{ID: 777, Size: int64(ct.Len())},
		TargetPath: target,
		FileKey:    &fk,
	})
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}

	got, _ := os.ReadFile(target)
	if !bytes.Equal(got, plain) {
		t.Error("decrypted download differs from plaintext")
	}
}

func TestDownloadCleansUpPartialFile(t *testing.T) {
	// Valid download of garbage ciphertext: the decrypting writer fails on
	// the tag check and the partial target must be removed.
	garbage := make([]byte, 64<<10)
	rand.Read(garbage)

	fk, err := crypto.GenerateFileKey()
	if err != nil {
		t.Fatal(err)
	}

	dl, _ := newTestDownloader(t, garbage)
	target := filepath.Join(t.TempDir(), "out.bin")

	err = dl.DownloadFile(context.Background(), DownloadRequest{
		Node:       models.Node{ID: 777, Size: int64(len(garbage))},
		TargetPath: target,
		FileKey:    &fk,
	})
	if !errors.Is(err, crypto.ErrIntegrity) {
		t.Fatalf("err = %v, want ErrIntegrity", err)
	}

	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Error("partial file left behind after failed download")
	}
}

func TestDownloadServerError(t *testing.T) {
	mux := http.NewServeMux()
	var baseURL string
	mux.HandleFunc("/api/v4/nodes/files/777/downloads", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.DownloadToken{DownloadURL: baseURL + "/s3/object"})
	})
	mux.HandleFunc("/s3/object", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<Error><Code>NoSuchKey</Code><Message>gone</Message></Error>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	baseURL = srv.URL

	cfg := &config.Config{TargetURL: srv.URL, ProxyMode: "no-proxy"}
	client, err := api.NewClient(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	dl, err := NewDownloader(client)
	if err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(t.TempDir(), "out.bin")
	err = dl.DownloadFile(context.Background(), DownloadRequest{
		Node:       models.Node{ID: 777, Size: 10},
		TargetPath: target,
	})

	var s3err *api.S3Error
	if !errors.As(err, &s3err) || s3err.Code != "NoSuchKey" {
		t.Errorf("err = %v, want S3Error NoSuchKey", err)
	}
	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Error("no file should be created for a failed GET")
	}
}
