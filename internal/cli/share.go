package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/progress"
	"github.com/datavault/dvcli/internal/shares"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Work with public share links",
		Long: `Download from or upload to public shares. Shares are accessed
anonymously through their link; no login is required.

  dvcli share get dv.example.com/public/download-shares/AbCdEf123
  dvcli share put dv.example.com/public/upload-shares/AbCdEf123 report.pdf`,
	}

	cmd.AddCommand(newShareGetCmd(), newSharePutCmd())
	return cmd
}

func newShareGetCmd() *cobra.Command {
	var (
		password  string
		targetDir string
	)

	cmd := &cobra.Command{
		Use:   "get <share-link>",
		Short: "Download the file behind a download share",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			host, accessKey, err := parseShareLink(args[0])
			if err != nil {
				return err
			}

			svc, err := shareService(host)
			if err != nil {
				return err
			}

			reporter := progress.NewSingle()
			defer releaseTerminal(reporter)
			logger.SetOutput(reporter.Writer())

			target, err := svc.DownloadFromShare(ctx, accessKey, password, targetDir, reporter)
			if errors.Is(err, shares.ErrPasswordRequired) && password == "" {
				if password, err = promptPassword("Share password: "); err != nil {
					return err
				}
				target, err = svc.DownloadFromShare(ctx, accessKey, password, targetDir, reporter)
			}
			if err != nil {
				return err
			}

			logger.Infof("downloaded %s", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "share password (prompted when required and omitted)")
	cmd.Flags().StringVarP(&targetDir, "dir", "d", ".", "directory to download into")

	return cmd
}

func newSharePutCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "put <share-link> <local-file>",
		Short: "Upload a file into an upload share",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			host, accessKey, err := parseShareLink(args[0])
			if err != nil {
				return err
			}

			svc, err := shareService(host)
			if err != nil {
				return err
			}

			reporter := progress.NewSingle()
			defer releaseTerminal(reporter)
			logger.SetOutput(reporter.Writer())

			err = svc.UploadToShare(ctx, accessKey, password, args[1], reporter)
			if errors.Is(err, shares.ErrPasswordRequired) && password == "" {
				if password, err = promptPassword("Share password: "); err != nil {
					return err
				}
				err = svc.UploadToShare(ctx, accessKey, password, args[1], reporter)
			}
			if err != nil {
				return err
			}

			logger.Infof("uploaded %s", args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "share password (prompted when required and omitted)")

	return cmd
}

func shareService(host string) (*shares.Service, error) {
	client, _, err := anonymousClient(host)
	if err != nil {
		return nil, err
	}
	return shares.NewService(client)
}

// parseShareLink splits a share link into its host and access key. The
// access key is the last path component; everything the web UI inserts in
// between ("/public/download-shares/", a "/#/" fragment) is ignored.
func parseShareLink(link string) (host, accessKey string, err error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(link), "https://")
	trimmed = strings.ReplaceAll(trimmed, "/#/", "/")
	trimmed = strings.Trim(trimmed, "/")

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || !strings.Contains(parts[0], ".") {
		return "", "", fmt.Errorf("%w: %q is not a share link", api.ErrInvalidPath, link)
	}
	return parts[0], parts[len(parts)-1], nil
}
