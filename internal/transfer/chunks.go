// Package transfer moves file content: chunked uploads against presigned
// part URLs and streamed downloads, with per-chunk retries and optional
// client-side encryption.
package transfer

import (
	"github.com/datavault/dvcli/internal/constants"
)

// EffectiveChunkSize returns the part size for an upload of the given total
// size. The default part size applies until it would exceed the part-count
// cap; beyond that the parts grow so the count stays under the cap.
func EffectiveChunkSize(totalSize int64) int64 {
	chunk := int64(constants.ChunkSize)
	if totalSize/chunk+1 > constants.MaxUploadParts {
		chunk = totalSize/constants.MaxUploadParts + 1
	}
	return chunk
}

// PartCount returns the number of parts an upload of totalSize splits into.
// A zero-byte file still transfers one empty part so the upload completes
// through the same protocol.
func PartCount(totalSize int64) int32 {
	if totalSize == 0 {
		return 1
	}
	chunk := EffectiveChunkSize(totalSize)
	n := totalSize / chunk
	if totalSize%chunk != 0 {
		n++
	}
	return int32(n)
}
