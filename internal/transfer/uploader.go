package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/constants"
	"github.com/datavault/dvcli/internal/crypto"
	dvhttp "github.com/datavault/dvcli/internal/http"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/progress"
	"github.com/datavault/dvcli/internal/util/buffers"
)

// Uploader runs chunked uploads. The control-plane calls go through the API
// client; the part PUTs go straight to the presigned URLs over a transfer-
// tuned HTTP client. Safe for concurrent use.
type Uploader struct {
	api      *api.Client
	transfer *nethttp.Client

	mu        sync.Mutex
	accountID uint64
}

// NewUploader builds an uploader sharing the API client's configuration.
func NewUploader(apiClient *api.Client) (*Uploader, error) {
	tc, err := dvhttp.NewTransferClient(apiClient.Config())
	if err != nil {
		return nil, fmt.Errorf("failed to configure transfer client: %w", err)
	}
	return &Uploader{api: apiClient, transfer: tc}, nil
}

// EncryptInfo carries the material for uploading into an encrypted room:
// the fresh file key and the room members it must be wrapped for.
type EncryptInfo struct {
	FileKey    crypto.PlainFileKey
	Recipients []models.RoomUser
}

// UploadRequest describes one file upload.
type UploadRequest struct {
	ParentID uint64
	Meta     models.FileMeta
	Options  models.UploadOptions
	Encrypt  *EncryptInfo
	Bar      progress.Bar
}

// UploadFile uploads the file at localPath under req.ParentID and returns
// the resulting node.
func (u *Uploader) UploadFile(ctx context.Context, localPath string, req UploadRequest) (models.Node, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return models.Node{}, fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	var src io.Reader = f
	size := req.Meta.Size

	if req.Encrypt != nil {
		src, err = crypto.NewEncryptingReader(f, req.Encrypt.FileKey)
		if err != nil {
			return models.Node{}, err
		}
		size = crypto.EncryptedSize(size)
	}

	create := models.CreateFileUploadRequest{
		ParentID:              req.ParentID,
		Name:                  req.Meta.Name,
		Size:                  size,
		Classification:        req.Options.Classification,
		DirectS3Upload:        true,
		TimestampCreation:     req.Meta.TimestampCreation,
		TimestampModification: req.Meta.TimestampModification,
	}
	if req.Options.ExpireAt != nil {
		create.Expiration = &models.ObjectExpiration{
			EnableExpiration: true,
			ExpireAt:         *req.Options.ExpireAt,
		}
	}

	var ch models.UploadChannel
	if err := u.api.Post(ctx, "/nodes/files/uploads", create, &ch); err != nil {
		return models.Node{}, err
	}

	complete := models.CompleteS3UploadRequest{
		ResolutionStrategy: req.Options.ResolutionStrategy,
		KeepShareLinks:     req.Options.KeepShareLinks,
	}
	if req.Encrypt != nil {
		uploaderID, err := u.currentUserID(ctx)
		if err != nil {
			return models.Node{}, fmt.Errorf("failed to resolve own account for key wrapping: %w", err)
		}
		keys, own, err := wrapForRecipients(req.Encrypt, uploaderID)
		if err != nil {
			return models.Node{}, err
		}
		complete.FileKey = own
		complete.UserFileKeyList = keys
	}

	return u.Run(ctx, NodeChannelPaths(ch.UploadID), src, size, complete, req.Bar)
}

// ChannelPaths names the three endpoints of one upload channel. Node
// uploads address the channel by upload id, public upload shares by the
// share access key plus channel token.
type ChannelPaths struct {
	S3URLs   string
	Complete string
	Status   string
}

// NodeChannelPaths addresses a node upload channel.
func NodeChannelPaths(uploadID string) ChannelPaths {
	base := "/nodes/files/uploads/" + uploadID
	return ChannelPaths{
		S3URLs:   base + "/s3_urls",
		Complete: base + "/s3",
		Status:   base,
	}
}

// Run pumps size bytes from src through the channel: one presigned URL per
// part, the recorded ETags handed to the completion call, then the status
// poll until the service has assembled the file.
func (u *Uploader) Run(ctx context.Context, paths ChannelPaths, src io.Reader, size int64, completeReq models.CompleteS3UploadRequest, bar progress.Bar) (models.Node, error) {
	if bar == nil {
		bar = progress.Nop().AddBar("", size)
	}

	chunkSize := EffectiveChunkSize(size)

	// Files past the part-count cap need parts bigger than the pooled
	// buffers; short-reading those would truncate the upload.
	var chunk []byte
	if chunkSize > int64(constants.ChunkSize) {
		chunk = make([]byte, chunkSize)
	} else {
		buf := buffers.GetChunk()
		defer buffers.PutChunk(buf)
		chunk = (*buf)[:chunkSize]
	}

	var parts []models.FilePart
	for partNum := int32(1); ; partNum++ {
		n, err := io.ReadFull(src, chunk)
		if err == io.EOF && partNum > 1 {
			break
		}
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return models.Node{}, fmt.Errorf("failed to read source: %w", err)
		}

		part, perr := u.uploadPart(ctx, paths, partNum, chunk[:n], bar)
		if perr != nil {
			return models.Node{}, perr
		}
		parts = append(parts, part)

		if err == io.ErrUnexpectedEOF || (err == io.EOF && partNum == 1) || int64(n) < chunkSize {
			break
		}
	}

	completeReq.Parts = parts
	if err := u.api.Put(ctx, paths.Complete, completeReq, nil); err != nil {
		return models.Node{}, err
	}

	return u.awaitAssembly(ctx, paths)
}

// uploadPart PUTs one part. The presigned URL authorizes a single attempt,
// so the credential-refresh hook of the retry loop fetches a fresh URL
// before retrying an expired or rejected one.
func (u *Uploader) uploadPart(ctx context.Context, paths ChannelPaths, partNum int32, data []byte, bar progress.Bar) (models.FilePart, error) {
	var target models.PresignedURL

	fetchURL := func(ctx context.Context) error {
		var list models.PresignedURLList
		err := u.api.Post(ctx, paths.S3URLs, models.GeneratePresignedURLsRequest{
			Size:            int64(len(data)),
			FirstPartNumber: partNum,
			LastPartNumber:  partNum,
		}, &list)
		if err != nil {
			return err
		}
		if len(list.URLs) != 1 {
			return fmt.Errorf("expected one presigned URL, got %d", len(list.URLs))
		}
		target = list.URLs[0]
		return nil
	}

	if err := fetchURL(ctx); err != nil {
		return models.FilePart{}, err
	}

	var etag string

	err := dvhttp.ExecuteWithRetry(ctx, dvhttp.RetryConfig{
		MaxRetries:        constants.MaxRetries,
		InitialDelay:      constants.RetryInitialDelay,
		MaxDelay:          constants.RetryMaxDelay,
		CredentialRefresh: fetchURL,
		OnRetry: func(attempt int, err error, kind dvhttp.ErrorType) {
			bar.SetRetry(attempt)
			log.Debug().
				Int32("part", partNum).
				Int("attempt", attempt).
				Str("class", dvhttp.ErrorTypeName(kind)).
				Err(err).
				Msg("retrying part upload")
		},
	}, func() error {
		req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPut, target.URL, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.ContentLength = int64(len(data))

		resp, err := u.transfer.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			return api.DecodeS3Error(resp.StatusCode, body)
		}
		io.Copy(io.Discard, resp.Body)

		etag = strings.Trim(resp.Header.Get("ETag"), `"`)
		if etag == "" {
			return fmt.Errorf("part %d: no ETag in response", partNum)
		}
		return nil
	})
	if err != nil {
		return models.FilePart{}, fmt.Errorf("part %d: %w", partNum, err)
	}

	// Count the part only once, however many attempts it took.
	bar.Advance(int64(len(data)))

	return models.FilePart{PartNumber: partNum, PartEtag: etag}, nil
}

// awaitAssembly polls the channel until the service reports the file done.
func (u *Uploader) awaitAssembly(ctx context.Context, paths ChannelPaths) (models.Node, error) {
	ticker := time.NewTicker(constants.UploadPollInterval)
	defer ticker.Stop()

	for {
		var status models.UploadStatus
		if err := u.api.Get(ctx, paths.Status, nil, &status); err != nil {
			return models.Node{}, err
		}

		switch status.Status {
		case models.UploadStatusDone:
			if status.Node == nil {
				return models.Node{}, fmt.Errorf("upload finished without node details")
			}
			return *status.Node, nil
		case models.UploadStatusError:
			if status.ErrorDetails != nil {
				return models.Node{}, &api.HTTPError{
					StatusCode: status.ErrorDetails.Code,
					Code:       status.ErrorDetails.Code,
					Message:    status.ErrorDetails.Message,
					DebugInfo:  status.ErrorDetails.DebugInfo,
					ErrorCode:  status.ErrorDetails.ErrorCode,
				}
			}
			return models.Node{}, fmt.Errorf("upload failed during assembly")
		}

		select {
		case <-ctx.Done():
			return models.Node{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// currentUserID resolves the authenticated account's id, cached after the
// first call so tree uploads pay for it once.
func (u *Uploader) currentUserID(ctx context.Context) (uint64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.accountID != 0 {
		return u.accountID, nil
	}

	var acct models.UserAccount
	if err := u.api.Get(ctx, "/user/account", nil, &acct); err != nil {
		return 0, err
	}
	u.accountID = acct.ID
	return u.accountID, nil
}

// wrapForRecipients wraps the file key for every room member with a public
// key and returns the uploader's own wrapped key separately, since the
// completion call records that one as the file's primary key. An uploader
// without a keypair in the room could never read their own upload, so that
// is an error.
func wrapForRecipients(info *EncryptInfo, uploaderID uint64) (*models.UserFileKeyList, *models.EncryptedFileKey, error) {
	list := &models.UserFileKeyList{}
	var own *models.EncryptedFileKey
	for _, member := range info.Recipients {
		if member.PublicKeyContainer == nil {
			log.Warn().Uint64("user", member.UserID).Msg("room member has no keypair, skipping file key")
			continue
		}
		wrapped, err := crypto.WrapFileKey(info.FileKey, *member.PublicKeyContainer)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to wrap file key for user %d: %w", member.UserID, err)
		}
		list.Items = append(list.Items, models.UserFileKey{UserID: member.UserID, FileKey: wrapped})
		if member.UserID == uploaderID {
			own = &list.Items[len(list.Items)-1].FileKey
		}
	}
	if len(list.Items) == 0 {
		return nil, nil, fmt.Errorf("no room member has a keypair to receive the file key")
	}
	if own == nil {
		return nil, nil, fmt.Errorf("uploading user %d has no keypair in the room", uploaderID)
	}
	return list, own, nil
}
