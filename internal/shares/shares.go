// Package shares implements anonymous access to public shares: fetching
// share metadata, downloading through a share link, and uploading into an
// upload share, all without an authenticated session.
package shares

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/progress"
	"github.com/datavault/dvcli/internal/transfer"
	"github.com/datavault/dvcli/internal/validation"
)

// ErrPasswordRequired means the share is protected and no password was
// supplied.
var ErrPasswordRequired = errors.New("share is password protected")

// Service talks to the public share endpoints. The API client must be
// anonymous; shares never see the caller's session.
type Service struct {
	client *api.Client
	up     *transfer.Uploader
	dl     *transfer.Downloader
}

// NewService builds a share service on an anonymous API client.
func NewService(client *api.Client) (*Service, error) {
	up, err := transfer.NewUploader(client)
	if err != nil {
		return nil, err
	}
	dl, err := transfer.NewDownloader(client)
	if err != nil {
		return nil, err
	}
	return &Service{client: client, up: up, dl: dl}, nil
}

// DownloadShareInfo fetches the metadata of a download share.
func (s *Service) DownloadShareInfo(ctx context.Context, accessKey string) (models.PublicDownloadShare, error) {
	var share models.PublicDownloadShare
	err := s.client.Get(ctx, "/public/shares/downloads/"+accessKey, nil, &share)
	return share, err
}

// DownloadFromShare fetches the shared file into targetDir, named after the
// share's file name. Protected shares need the password up front; encrypted
// shares are refused since the share link carries no key material.
func (s *Service) DownloadFromShare(ctx context.Context, accessKey, password, targetDir string, reporter progress.Reporter) (string, error) {
	share, err := s.DownloadShareInfo(ctx, accessKey)
	if err != nil {
		return "", err
	}
	if share.IsProtected && password == "" {
		return "", ErrPasswordRequired
	}
	if share.IsEncrypted {
		return "", fmt.Errorf("share %s is encrypted and cannot be downloaded anonymously", accessKey)
	}
	if err := validation.CheckFilename(share.FileName); err != nil {
		return "", fmt.Errorf("refusing share download: %w", err)
	}

	var token models.DownloadToken
	err = s.client.Post(ctx, "/public/shares/downloads/"+accessKey,
		models.PublicDownloadTokenRequest{Password: password}, &token)
	if err != nil {
		return "", err
	}

	if reporter == nil {
		reporter = progress.Nop()
	}
	target := filepath.Join(targetDir, share.FileName)
	req := transfer.DownloadRequest{
		Node:       models.Node{Name: share.FileName, Size: share.Size},
		TargetPath: target,
		Bar:        reporter.AddBar(share.FileName, share.Size),
	}

	err = s.dl.FetchURL(ctx, token.DownloadURL, req)
	req.Bar.Complete(err)
	if err != nil {
		return "", err
	}
	return target, nil
}

// UploadShareInfo fetches the metadata of an upload share.
func (s *Service) UploadShareInfo(ctx context.Context, accessKey string) (models.PublicUploadShare, error) {
	var share models.PublicUploadShare
	err := s.client.Get(ctx, "/public/shares/uploads/"+accessKey, nil, &share)
	return share, err
}

// UploadToShare pushes one local file into an upload share through the
// chunked channel protocol. Directories are rejected; upload shares take
// flat files only.
func (s *Service) UploadToShare(ctx context.Context, accessKey, password, localPath string, reporter progress.Reporter) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", localPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory, upload shares take single files", api.ErrInvalidPath, localPath)
	}

	share, err := s.UploadShareInfo(ctx, accessKey)
	if err != nil {
		return err
	}
	if share.IsProtected && password == "" {
		return ErrPasswordRequired
	}

	var ch models.UploadChannel
	err = s.client.Post(ctx, "/public/shares/uploads/"+accessKey, models.CreatePublicUploadRequest{
		Name:           info.Name(),
		Size:           info.Size(),
		Password:       password,
		DirectS3Upload: true,
	}, &ch)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if reporter == nil {
		reporter = progress.Nop()
	}
	bar := reporter.AddBar(info.Name(), info.Size())

	_, err = s.up.Run(ctx, publicChannelPaths(accessKey, ch), f, info.Size(),
		models.CompleteS3UploadRequest{FileName: info.Name()}, bar)
	bar.Complete(err)
	return err
}

// publicChannelPaths addresses a share-scoped upload channel. The channel
// token authorizes the calls instead of a bearer header.
func publicChannelPaths(accessKey string, ch models.UploadChannel) transfer.ChannelPaths {
	base := "/public/shares/uploads/" + accessKey + "/" + ch.Token
	return transfer.ChannelPaths{
		S3URLs:   base + "/s3_urls",
		Complete: base + "/s3",
		Status:   base,
	}
}
