package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/crypto"
	"github.com/datavault/dvcli/internal/localfs"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/pathutil"
	"github.com/datavault/dvcli/internal/progress"
	"github.com/datavault/dvcli/internal/transfer"
	"github.com/datavault/dvcli/internal/treewalk"
)

func newUploadCmd() *cobra.Command {
	var (
		includeHidden  bool
		overwrite      bool
		classification int
	)

	cmd := &cobra.Command{
		Use:   "upload <local-path> <remote-path>",
		Short: "Upload a file or directory tree",
		Long: `Upload a local file or a whole directory tree into a room or folder.
Directories are recreated remotely; uploads into encrypted rooms wrap a
fresh file key for every room member.

  dvcli upload ./results dv.example.com/projects/experiments`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			localPath, remotePath := args[0], args[1]

			e, err := connect(ctx, remotePath)
			if err != nil {
				return err
			}

			parsed, err := pathutil.Parse(remotePath, e.cfg.TargetURL)
			if err != nil {
				return err
			}
			if parsed.Name == "" {
				return fmt.Errorf("%w: cannot upload to the top level, target a room", api.ErrInvalidPath)
			}

			target, err := e.resolver.NodeFromPath(ctx, remotePath)
			if err != nil {
				return err
			}
			if target.Type == models.NodeTypeFile {
				return fmt.Errorf("%w: %s is a file", api.ErrInvalidPath, remotePath)
			}

			info, err := os.Stat(localPath)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", localPath, err)
			}

			uploader, err := transfer.NewUploader(e.api)
			if err != nil {
				return err
			}

			resolution := models.ResolutionAutoRename
			if overwrite {
				resolution = models.ResolutionOverwrite
			}

			if info.IsDir() {
				return uploadTree(cmd, e, uploader, localPath, target, parsed.String(), treewalk.UploadOptions{
					Velocity:       e.cfg.Velocity,
					IncludeHidden:  includeHidden,
					Resolution:     resolution,
					Classification: classification,
				})
			}
			return uploadOne(cmd, e, uploader, localPath, info, target, resolution, classification)
		},
	}

	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "include hidden files and directories")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing files instead of auto-renaming")
	cmd.Flags().IntVar(&classification, "classification", 0, "data classification 1-4 (0 = server default)")

	return cmd
}

func uploadTree(cmd *cobra.Command, e *env, uploader *transfer.Uploader, localRoot string, target models.Node, targetPath string, opts treewalk.UploadOptions) error {
	// A cheap pre-scan just for the bar count; the tree walker scans again
	// with the same options.
	tree, err := localfs.Collect(localRoot, localfs.Options{IncludeHidden: opts.IncludeHidden})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", localRoot, err)
	}

	reporter := progress.NewMulti(len(tree.Files))
	opts.Reporter = reporter
	defer releaseTerminal(reporter)
	logger.SetOutput(reporter.Writer())

	tw := treewalk.NewUploader(e.nodes, uploader)
	if err := tw.Upload(cmd.Context(), localRoot, target, opts); err != nil {
		return err
	}
	logger.Infof("uploaded %d file(s) to %s", len(tree.Files), targetPath)
	return nil
}

func uploadOne(cmd *cobra.Command, e *env, uploader *transfer.Uploader, localPath string, info os.FileInfo, target models.Node, resolution models.ResolutionStrategy, classification int) error {
	ctx := cmd.Context()

	reporter := progress.NewSingle()
	defer releaseTerminal(reporter)
	logger.SetOutput(reporter.Writer())

	modTime := info.ModTime()
	req := transfer.UploadRequest{
		ParentID: target.ID,
		Meta: models.FileMeta{
			Name:                  info.Name(),
			Size:                  info.Size(),
			TimestampModification: &modTime,
		},
		Options: models.UploadOptions{
			ResolutionStrategy: resolution,
			Classification:     classification,
		},
	}

	barSize := info.Size()
	if target.IsEncrypted {
		recipients, err := e.nodes.RoomUsers(ctx, target.ID)
		if err != nil {
			return fmt.Errorf("failed to list room members for key wrapping: %w", err)
		}
		fk, err := crypto.GenerateFileKey()
		if err != nil {
			return err
		}
		req.Encrypt = &transfer.EncryptInfo{FileKey: fk, Recipients: recipients}
		barSize = crypto.EncryptedSize(info.Size())
	}
	req.Bar = reporter.AddBar(info.Name(), barSize)

	node, err := uploader.UploadFile(ctx, localPath, req)
	req.Bar.Complete(err)
	reporter.Wait()
	if err != nil {
		return err
	}
	logger.Infof("uploaded %s (id %d)", node.Name, node.ID)
	return nil
}

// releaseTerminal waits out the bars and points the logger back at stderr.
func releaseTerminal(reporter progress.Reporter) {
	reporter.Wait()
	logger.SetOutput(os.Stderr)
}
