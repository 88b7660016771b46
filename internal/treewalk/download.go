package treewalk

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/datavault/dvcli/internal/crypto"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/nodes"
	"github.com/datavault/dvcli/internal/progress"
	"github.com/datavault/dvcli/internal/transfer"
	"github.com/datavault/dvcli/internal/validation"
)

// DownloadOptions tunes a tree download.
type DownloadOptions struct {
	Velocity int
	// IncludeRooms descends into rooms nested inside the requested subtree.
	// Off by default: nested rooms are separate permission domains.
	IncludeRooms bool
	// PrivateKey unwraps file keys when downloading from encrypted rooms.
	PrivateKey *rsa.PrivateKey
	Reporter   progress.Reporter
}

// Downloader replays remote subtrees onto the local filesystem.
type Downloader struct {
	nodes *nodes.Service
	files *transfer.Downloader
}

// NewDownloader wires a tree downloader.
func NewDownloader(nodeSvc *nodes.Service, fileDl *transfer.Downloader) *Downloader {
	return &Downloader{nodes: nodeSvc, files: fileDl}
}

// Download fetches the subtree rooted at node into localRoot. remotePath is
// the node's canonical path, used to derive each item's relative location.
func (d *Downloader) Download(ctx context.Context, node models.Node, remotePath string, localRoot string, opts DownloadOptions) error {
	if node.Type == models.NodeTypeFile {
		if err := validation.CheckFilename(node.Name); err != nil {
			return fmt.Errorf("refusing to download %d: %w", node.ID, err)
		}
		return d.downloadOne(ctx, node, filepath.Join(localRoot, node.Name), opts)
	}

	items, err := d.nodes.List(ctx, nodes.ListOptions{ParentID: node.ID, DepthLevel: -1})
	if err != nil {
		return err
	}

	prefix := strings.TrimSuffix(remotePath, "/")
	folders, files := d.partition(items, prefix, opts)

	// Shallow directories first so every file's directory exists before its
	// download starts.
	sort.Slice(folders, func(i, j int) bool {
		return strings.Count(folders[i], "/") < strings.Count(folders[j], "/")
	})
	if err := os.MkdirAll(localRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", localRoot, err)
	}
	for _, rel := range folders {
		if err := validation.CheckPathInDirectory(filepath.FromSlash(rel), localRoot); err != nil {
			return fmt.Errorf("refusing to create directory: %w", err)
		}
		if err := os.MkdirAll(filepath.Join(localRoot, filepath.FromSlash(rel)), 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", rel, err)
		}
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Nop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut(opts.Velocity))

	for _, f := range files {
		g.Go(func() error {
			rel := relOf(f, prefix)
			if err := validation.CheckPathInDirectory(filepath.FromSlash(rel), localRoot); err != nil {
				return fmt.Errorf("refusing to download: %w", err)
			}
			target := filepath.Join(localRoot, filepath.FromSlash(rel))
			if err := d.downloadInto(gctx, f, target, opts, reporter); err != nil {
				return fmt.Errorf("failed to download %s: %w", rel, err)
			}
			return nil
		})
	}

	err = g.Wait()
	reporter.Wait()
	return err
}

// partition splits the subtree listing into folder paths to create and
// files to fetch, dropping nested rooms (and everything under them) unless
// requested.
func (d *Downloader) partition(items []models.Node, prefix string, opts DownloadOptions) ([]string, []models.Node) {
	var roomPaths []string
	if !opts.IncludeRooms {
		for _, it := range items {
			if it.Type == models.NodeTypeRoom {
				roomPaths = append(roomPaths, it.ParentPath+it.Name+"/")
				log.Debug().Str("room", it.Name).Msg("skipping nested room")
			}
		}
	}

	underRoom := func(n models.Node) bool {
		full := n.ParentPath + n.Name
		for _, rp := range roomPaths {
			if strings.HasPrefix(full, rp) || full+"/" == rp {
				return true
			}
		}
		return false
	}

	var folders []string
	var files []models.Node
	for _, it := range items {
		if underRoom(it) {
			continue
		}
		switch it.Type {
		case models.NodeTypeFolder:
			folders = append(folders, relOf(it, prefix))
		case models.NodeTypeRoom:
			if opts.IncludeRooms {
				folders = append(folders, relOf(it, prefix))
			}
		case models.NodeTypeFile:
			files = append(files, it)
		}
	}
	return folders, files
}

func (d *Downloader) downloadOne(ctx context.Context, node models.Node, target string, opts DownloadOptions) error {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Nop()
	}
	return d.downloadInto(ctx, node, target, opts, reporter)
}

func (d *Downloader) downloadInto(ctx context.Context, node models.Node, target string, opts DownloadOptions, reporter progress.Reporter) error {
	req := transfer.DownloadRequest{
		Node:       node,
		TargetPath: target,
		Bar:        reporter.AddBar(node.Name, node.Size),
	}

	if node.IsEncrypted {
		if opts.PrivateKey == nil {
			return fmt.Errorf("file %s is encrypted and no private key is unlocked", node.Name)
		}
		wrapped, err := d.files.UserFileKey(ctx, node.ID)
		if err != nil {
			return err
		}
		fk, err := crypto.UnwrapFileKey(wrapped, opts.PrivateKey)
		if err != nil {
			return err
		}
		req.FileKey = &fk
	}

	err := d.files.DownloadFile(ctx, req)
	req.Bar.Complete(err)
	return err
}

// relOf maps a node's full remote path to its path relative to the
// downloaded subtree root.
func relOf(n models.Node, prefix string) string {
	full := n.ParentPath + n.Name
	rel := strings.TrimPrefix(full, prefix+"/")
	return strings.TrimPrefix(rel, "/")
}
