package buffers

import (
	"testing"

	"github.com/datavault/dvcli/internal/constants"
)

func TestChunkBufferSize(t *testing.T) {
	buf := GetChunk()
	defer PutChunk(buf)

	if len(*buf) != constants.ChunkSize {
		t.Errorf("len = %d, want %d", len(*buf), constants.ChunkSize)
	}
}

func TestPutChunkClearsData(t *testing.T) {
	buf := GetChunk()
	(*buf)[0] = 0xAA
	(*buf)[constants.ChunkSize-1] = 0xBB
	PutChunk(buf)

	again := GetChunk()
	defer PutChunk(again)
	// The pool may hand back a fresh buffer, but a recycled one must be
	// zeroed.
	if (*again)[0] != 0 || (*again)[constants.ChunkSize-1] != 0 {
		t.Error("recycled buffer not cleared")
	}
}

func TestPutChunkRejectsWrongSize(t *testing.T) {
	short := make([]byte, 10)
	PutChunk(&short) // must not panic or pollute the pool
	PutChunk(nil)

	buf := GetChunk()
	defer PutChunk(buf)
	if len(*buf) != constants.ChunkSize {
		t.Errorf("pool polluted: len = %d", len(*buf))
	}
}

func TestReadBufferSize(t *testing.T) {
	buf := GetRead()
	defer PutRead(buf)

	if len(*buf) != constants.DownloadReadSize {
		t.Errorf("len = %d, want %d", len(*buf), constants.DownloadReadSize)
	}
}
