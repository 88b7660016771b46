package transfer

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/constants"
	"github.com/datavault/dvcli/internal/crypto"
	"github.com/datavault/dvcli/internal/diskspace"
	dvhttp "github.com/datavault/dvcli/internal/http"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/progress"
	"github.com/datavault/dvcli/internal/util/buffers"
)

// Downloader streams files to local disk. Safe for concurrent use.
type Downloader struct {
	api      *api.Client
	transfer *nethttp.Client
}

// NewDownloader builds a downloader sharing the API client's configuration.
func NewDownloader(apiClient *api.Client) (*Downloader, error) {
	tc, err := dvhttp.NewTransferClient(apiClient.Config())
	if err != nil {
		return nil, fmt.Errorf("failed to configure transfer client: %w", err)
	}
	return &Downloader{api: apiClient, transfer: tc}, nil
}

// UserFileKey fetches the caller's wrapped file key for an encrypted file.
func (d *Downloader) UserFileKey(ctx context.Context, fileID uint64) (models.EncryptedFileKey, error) {
	var key models.EncryptedFileKey
	err := d.api.Get(ctx, fmt.Sprintf("/nodes/files/%d/user_file_key", fileID), nil, &key)
	return key, err
}

// DownloadRequest describes one file download.
type DownloadRequest struct {
	Node       models.Node
	TargetPath string
	// FileKey decrypts files from encrypted rooms; nil for plain files.
	FileKey *crypto.PlainFileKey
	Bar     progress.Bar
}

// DownloadFile fetches a node's content to req.TargetPath. Space is
// preflighted before the first byte moves; a failed or cancelled download
// removes the partial file.
func (d *Downloader) DownloadFile(ctx context.Context, req DownloadRequest) error {
	if err := diskspace.Check(req.TargetPath, req.Node.Size, constants.DiskSpaceSafetyFactor); err != nil {
		return err
	}

	var token models.DownloadToken
	path := fmt.Sprintf("/nodes/files/%d/downloads", req.Node.ID)
	if err := d.api.Post(ctx, path, nil, &token); err != nil {
		return err
	}

	return d.FetchURL(ctx, token.DownloadURL, req)
}

// FetchURL streams a presigned GET URL to req.TargetPath. Public download
// shares reuse this after minting their own URL.
func (d *Downloader) FetchURL(ctx context.Context, url string, req DownloadRequest) error {
	if err := os.MkdirAll(filepath.Dir(req.TargetPath), 0o755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.transfer.Do(httpReq)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return api.DecodeS3Error(resp.StatusCode, body)
	}

	out, err := os.Create(req.TargetPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", req.TargetPath, err)
	}

	if err := d.copyBody(resp.Body, out, req); err != nil {
		out.Close()
		if rmErr := os.Remove(req.TargetPath); rmErr == nil {
			log.Debug().Str("path", req.TargetPath).Msg("removed partial download")
		}
		return err
	}
	return out.Close()
}

func (d *Downloader) copyBody(body io.Reader, out *os.File, req DownloadRequest) error {
	bar := req.Bar
	if bar == nil {
		bar = progress.Nop().AddBar("", req.Node.Size)
	}
	src := bar.ProxyReader(body)
	defer src.Close()

	var dst io.Writer = out
	var closer io.Closer

	if req.FileKey != nil {
		dw, err := crypto.NewDecryptingWriter(out, *req.FileKey)
		if err != nil {
			return err
		}
		dst = dw
		closer = dw
	}

	buf := buffers.GetRead()
	defer buffers.PutRead(buf)

	if _, err := io.CopyBuffer(dst, src, *buf); err != nil {
		return fmt.Errorf("download stream failed: %w", err)
	}

	// The decrypting writer authenticates its final segment on Close; a
	// tampered or truncated stream fails here, not silently.
	if closer != nil {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	return nil
}
