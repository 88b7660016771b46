// Package buffers pools the byte slices the transfer paths churn through.
// Chunk buffers back multipart uploads; read buffers back download streaming.
// Pooling keeps steady-state transfers allocation-free.
package buffers

import (
	"sync"

	"github.com/datavault/dvcli/internal/constants"
)

var chunkPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, constants.ChunkSize)
		return &buf
	},
}

var readPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, constants.DownloadReadSize)
		return &buf
	},
}

// GetChunk returns a ChunkSize buffer. Return it with PutChunk:
//
//	buf := buffers.GetChunk()
//	defer buffers.PutChunk(buf)
//	n, err := io.ReadFull(src, *buf)
func GetChunk() *[]byte {
	return chunkPool.Get().(*[]byte)
}

// PutChunk recycles a chunk buffer. Wrong-sized slices are dropped, and the
// buffer is zeroed first since chunks may hold plaintext from encrypted
// rooms.
func PutChunk(buf *[]byte) {
	if buf == nil || len(*buf) != constants.ChunkSize {
		return
	}
	clear(*buf)
	chunkPool.Put(buf)
}

// GetRead returns a DownloadReadSize buffer for streaming copies.
func GetRead() *[]byte {
	return readPool.Get().(*[]byte)
}

// PutRead recycles a read buffer.
func PutRead(buf *[]byte) {
	if buf == nil || len(*buf) != constants.DownloadReadSize {
		return
	}
	clear(*buf)
	readPool.Put(buf)
}
