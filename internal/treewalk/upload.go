// Package treewalk moves whole directory trees: local folders replayed as
// remote folder hierarchies with fanned-out file uploads, and remote
// subtrees replayed as local directories with fanned-out downloads.
package treewalk

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/constants"
	"github.com/datavault/dvcli/internal/crypto"
	"github.com/datavault/dvcli/internal/localfs"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/nodes"
	"github.com/datavault/dvcli/internal/progress"
	"github.com/datavault/dvcli/internal/transfer"
)

// UploadOptions tunes a tree upload.
type UploadOptions struct {
	// Velocity is the user-facing concurrency knob, 1..10.
	Velocity       int
	IncludeHidden  bool
	Resolution     models.ResolutionStrategy
	Classification int
	Reporter       progress.Reporter
}

// Uploader replays local trees into the remote namespace.
type Uploader struct {
	nodes *nodes.Service
	files *transfer.Uploader
}

// NewUploader wires a tree uploader from the node service and the file
// uploader.
func NewUploader(nodeSvc *nodes.Service, fileUp *transfer.Uploader) *Uploader {
	return &Uploader{nodes: nodeSvc, files: fileUp}
}

// Upload walks localRoot and recreates it under the target node.
func (u *Uploader) Upload(ctx context.Context, localRoot string, target models.Node, opts UploadOptions) error {
	tree, err := localfs.Collect(localRoot, localfs.Options{IncludeHidden: opts.IncludeHidden})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", localRoot, err)
	}
	if len(tree.Files) == 0 && len(tree.Dirs) == 0 {
		log.Info().Str("root", localRoot).Msg("nothing to upload")
		return nil
	}

	var encrypt *encryptionContext
	if target.IsEncrypted {
		encrypt, err = u.encryptionFor(ctx, target)
		if err != nil {
			return err
		}
	}

	// Folder ids by normalized relative path; "/" is the target itself.
	var folderIDs sync.Map
	folderIDs.Store("/", target.ID)

	if err := u.createFolders(ctx, tree, &folderIDs); err != nil {
		return err
	}

	return u.uploadFiles(ctx, tree, &folderIDs, encrypt, opts)
}

// createFolders creates the tree's directories level by level. Within one
// level every parent already exists, so the creations fan out freely.
func (u *Uploader) createFolders(ctx context.Context, tree localfs.Tree, folderIDs *sync.Map) error {
	for depth := 0; depth <= tree.MaxDepth; depth++ {
		level := tree.DirsAtDepth(depth)
		if len(level) == 0 {
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(constants.MaxConcurrentRequests)

		for _, dir := range level {
			g.Go(func() error {
				parentID, err := parentIDOf(folderIDs, dir.RelPath)
				if err != nil {
					return err
				}

				node, err := u.nodes.CreateFolder(gctx, models.CreateFolderRequest{
					ParentID: parentID,
					Name:     dir.Name,
				})
				if api.IsConflict(err) {
					// Already there from a previous run; adopt it.
					node, err = u.findExisting(gctx, parentID, dir.Name)
				}
				if err != nil {
					return fmt.Errorf("failed to create folder %s: %w", dir.RelPath, err)
				}

				folderIDs.Store(dir.RelPath, node.ID)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// findExisting resolves a folder that CreateFolder reported as a 409.
func (u *Uploader) findExisting(ctx context.Context, parentID uint64, name string) (models.Node, error) {
	children, err := u.nodes.List(ctx, nodes.ListOptions{ParentID: parentID})
	if err != nil {
		return models.Node{}, err
	}
	for _, n := range children {
		if n.Name == name && n.Type != models.NodeTypeFile {
			return n, nil
		}
	}
	return models.Node{}, fmt.Errorf("%w: folder %s vanished after conflict", api.ErrNodeNotFound, name)
}

func (u *Uploader) uploadFiles(ctx context.Context, tree localfs.Tree, folderIDs *sync.Map, encrypt *encryptionContext, opts UploadOptions) error {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Nop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut(opts.Velocity))

	for _, file := range tree.Files {
		g.Go(func() error {
			parentID, err := parentIDOf(folderIDs, file.RelPath)
			if err != nil {
				return err
			}

			req := transfer.UploadRequest{
				ParentID: parentID,
				Meta: models.FileMeta{
					Name:                  file.Name,
					Size:                  file.Size,
					TimestampModification: &file.ModTime,
				},
				Options: models.UploadOptions{
					ResolutionStrategy: opts.Resolution,
					Classification:     opts.Classification,
				},
				Bar: reporter.AddBar(file.Name, uploadedSize(file.Size, encrypt != nil)),
			}

			if encrypt != nil {
				fk, err := crypto.GenerateFileKey()
				if err != nil {
					return err
				}
				req.Encrypt = &transfer.EncryptInfo{FileKey: fk, Recipients: encrypt.recipients}
			}

			_, err = u.files.UploadFile(gctx, file.Path, req)
			req.Bar.Complete(err)
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", file.RelPath, err)
			}
			return nil
		})
	}

	err := g.Wait()
	reporter.Wait()
	return err
}

type encryptionContext struct {
	recipients []models.RoomUser
}

// encryptionFor collects the room members once per tree; every file wraps
// its key for the same recipient set.
func (u *Uploader) encryptionFor(ctx context.Context, room models.Node) (*encryptionContext, error) {
	members, err := u.nodes.RoomUsers(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list room members for key wrapping: %w", err)
	}
	return &encryptionContext{recipients: members}, nil
}

// parentIDOf maps "/a/b/name" to the folder id stored under "/a/b".
func parentIDOf(folderIDs *sync.Map, relPath string) (uint64, error) {
	parent := "/"
	if i := strings.LastIndex(relPath, "/"); i > 0 {
		parent = relPath[:i]
	}
	v, ok := folderIDs.Load(parent)
	if !ok {
		return 0, fmt.Errorf("no folder id recorded for %s", parent)
	}
	return v.(uint64), nil
}

// fanOut converts the velocity knob into a concurrent-transfer budget.
func fanOut(velocity int) int {
	if velocity < 1 {
		velocity = constants.DefaultVelocity
	}
	if velocity > constants.MaxVelocity {
		velocity = constants.MaxVelocity
	}
	return velocity * constants.ConcurrencyMultiplier
}

func uploadedSize(size int64, encrypted bool) int64 {
	if encrypted {
		return crypto.EncryptedSize(size)
	}
	return size
}
