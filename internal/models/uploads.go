package models

import "time"

// ResolutionStrategy is the server-side conflict handling on upload.
type ResolutionStrategy string

const (
	// ResolutionAutoRename appends a numeric suffix on name collision.
	ResolutionAutoRename ResolutionStrategy = "autorename"
	// ResolutionOverwrite replaces the existing file, keeping its node id.
	ResolutionOverwrite ResolutionStrategy = "overwrite"
	// ResolutionFail rejects the upload on collision.
	ResolutionFail ResolutionStrategy = "fail"
)

// FileMeta describes a local file about to be uploaded.
type FileMeta struct {
	Name                  string
	Size                  int64
	TimestampCreation     *time.Time
	TimestampModification *time.Time
}

// UploadOptions tunes a single file upload.
type UploadOptions struct {
	ResolutionStrategy ResolutionStrategy
	// Classification is the data-sensitivity policy, 1..4. Zero means the
	// service default (2).
	Classification int
	ExpireAt       *time.Time
	KeepShareLinks bool
}

// CreateFileUploadRequest opens an upload channel.
type CreateFileUploadRequest struct {
	ParentID              uint64            `json:"parentId"`
	Name                  string            `json:"name"`
	Size                  int64             `json:"size"`
	Classification        int               `json:"classification,omitempty"`
	Expiration            *ObjectExpiration `json:"expiration,omitempty"`
	DirectS3Upload        bool              `json:"directS3Upload"`
	TimestampCreation     *time.Time        `json:"timestampCreation,omitempty"`
	TimestampModification *time.Time        `json:"timestampModification,omitempty"`
}

// ObjectExpiration sets a server-side expiry on the uploaded file.
type ObjectExpiration struct {
	EnableExpiration bool      `json:"enableExpiration"`
	ExpireAt         time.Time `json:"expireAt"`
}

// UploadChannel is the server-issued handle for an upload in progress.
// Token is only populated for public upload shares.
type UploadChannel struct {
	UploadID  string `json:"uploadId"`
	UploadURL string `json:"uploadUrl,omitempty"`
	Token     string `json:"token,omitempty"`
}

// GeneratePresignedURLsRequest allocates PUT URLs for a part range.
type GeneratePresignedURLsRequest struct {
	Size            int64 `json:"size"`
	FirstPartNumber int32 `json:"firstPartNumber"`
	LastPartNumber  int32 `json:"lastPartNumber"`
}

// PresignedURL authorizes exactly one PUT of one part.
type PresignedURL struct {
	URL        string `json:"url"`
	PartNumber int32  `json:"partNumber"`
}

// PresignedURLList is the response of an s3_urls call.
type PresignedURLList struct {
	URLs []PresignedURL `json:"urls"`
}

// FilePart records the ETag the S3 endpoint returned for one part.
// Part numbers are 1-based and contiguous.
type FilePart struct {
	PartNumber int32  `json:"partNumber"`
	PartEtag   string `json:"partEtag"`
}

// CompleteS3UploadRequest finishes a chunked upload.
type CompleteS3UploadRequest struct {
	Parts              []FilePart         `json:"parts"`
	ResolutionStrategy ResolutionStrategy `json:"resolutionStrategy,omitempty"`
	KeepShareLinks     bool               `json:"keepShareLinks,omitempty"`
	FileName           string             `json:"fileName,omitempty"`
	FileKey            *EncryptedFileKey  `json:"fileKey,omitempty"`
	UserFileKeyList    *UserFileKeyList   `json:"userFileKeyList,omitempty"`
}

// Upload status values polled after completion.
const (
	UploadStatusTransfer  = "transfer"
	UploadStatusFinishing = "finishing"
	UploadStatusDone      = "done"
	UploadStatusError     = "error"
)

// UploadStatus is the poll response for an upload channel.
type UploadStatus struct {
	Status       string        `json:"status"`
	Node         *Node         `json:"node,omitempty"`
	ErrorDetails *APIErrorBody `json:"errorDetails,omitempty"`
}

// DownloadToken carries the presigned GET URL for a file download.
type DownloadToken struct {
	DownloadURL string `json:"downloadUrl"`
}

// EncryptedFileKey is a per-file symmetric key wrapped for one key pair.
type EncryptedFileKey struct {
	Key     string `json:"key"`
	IV      string `json:"iv"`
	Tag     string `json:"tag,omitempty"`
	Version string `json:"version"`
}

// UserFileKey pairs a wrapped file key with its owning user.
type UserFileKey struct {
	UserID  uint64           `json:"userId"`
	FileKey EncryptedFileKey `json:"fileKey"`
}

// UserFileKeyList carries wrapped keys for every room member on completion
// of an encrypted upload.
type UserFileKeyList struct {
	Items []UserFileKey `json:"items"`
}

// PublicKeyContainer is a user's public key as stored by the service.
type PublicKeyContainer struct {
	PublicKey string `json:"publicKey"`
	Version   string `json:"version"`
}

// PrivateKeyContainer is the user's private key, sealed under their
// encryption passphrase. The service stores it but can never open it.
type PrivateKeyContainer struct {
	PrivateKey string `json:"privateKey"`
	Version    string `json:"version"`
}

// UserKeyPair is the account key pair as stored by the service.
type UserKeyPair struct {
	PublicKeyContainer  PublicKeyContainer  `json:"publicKeyContainer"`
	PrivateKeyContainer PrivateKeyContainer `json:"privateKeyContainer"`
}

// RoomUser is one member of a room, with the public key encrypted uploads
// must wrap the file key for.
type RoomUser struct {
	UserID             uint64              `json:"userId"`
	DisplayName        string              `json:"displayName,omitempty"`
	PublicKeyContainer *PublicKeyContainer `json:"publicKeyContainer,omitempty"`
}

// RoomUserList is a ranged list of room members.
type RoomUserList struct {
	Range Range      `json:"range"`
	Items []RoomUser `json:"items"`
}
