package models

// PublicDownloadShare is the metadata of a public download share, fetched
// without an authenticated session.
type PublicDownloadShare struct {
	IsProtected bool   `json:"isProtected"`
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	CreatorName string `json:"creatorName,omitempty"`
	Notes       string `json:"notes,omitempty"`
	IsEncrypted bool   `json:"isEncrypted,omitempty"`
}

// PublicDownloadTokenRequest unlocks a protected download share.
type PublicDownloadTokenRequest struct {
	Password string `json:"password,omitempty"`
}

// PublicUploadShare is the metadata of a public upload share.
type PublicUploadShare struct {
	IsProtected       bool   `json:"isProtected"`
	Name              string `json:"name,omitempty"`
	IsEncrypted       bool   `json:"isEncrypted,omitempty"`
	ShowUploadedFiles bool   `json:"showUploadedFiles,omitempty"`
	RemainingSize     int64  `json:"remainingSize,omitempty"`
	RemainingSlots    int    `json:"remainingSlots,omitempty"`
}

// CreatePublicUploadRequest opens an upload channel scoped to a share.
type CreatePublicUploadRequest struct {
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	Password       string `json:"password,omitempty"`
	DirectS3Upload bool   `json:"directS3Upload"`
}
