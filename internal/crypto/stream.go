package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
)

// SegmentSize is the plaintext segment length for streamed encryption. Each
// segment is sealed independently so transfers never hold a whole file in
// memory; the ciphertext grows by one GCM tag per segment.
const SegmentSize = 1 << 20

const tagSize = 16

// EncryptedSize returns the ciphertext length for a plaintext of n bytes.
func EncryptedSize(n int64) int64 {
	segments := n / SegmentSize
	if n%SegmentSize != 0 || n == 0 {
		segments++
	}
	return n + segments*tagSize
}

// segmentNonce derives the nonce for segment i from the file key's base
// nonce. Nonces must never repeat under one key; the counter guarantees
// that within a file and the random base across files.
func segmentNonce(base []byte, i uint64) []byte {
	nonce := make([]byte, nonceSize)
	copy(nonce, base)
	ctr := binary.BigEndian.Uint64(nonce[nonceSize-8:]) + i
	binary.BigEndian.PutUint64(nonce[nonceSize-8:], ctr)
	return nonce
}

// NewEncryptingReader wraps plaintext r so that reads yield the segmented
// GCM ciphertext. The final (possibly empty) segment is emitted at EOF.
func NewEncryptingReader(r io.Reader, fk PlainFileKey) (io.Reader, error) {
	aead, err := fileAEAD(fk)
	if err != nil {
		return nil, err
	}
	return &encryptingReader{src: r, aead: aead, base: fk.IV}, nil
}

type encryptingReader struct {
	src  io.Reader
	aead cipher.AEAD
	base []byte

	segment uint64
	buf     []byte
	done    bool
}

func (e *encryptingReader) Read(p []byte) (int, error) {
	if len(e.buf) == 0 && !e.done {
		plain := make([]byte, SegmentSize)
		n, err := io.ReadFull(e.src, plain)
		switch {
		case err == io.EOF || err == io.ErrUnexpectedEOF:
			e.done = true
		case err != nil:
			return 0, err
		}

		// A zero-byte file still gets one sealed empty segment so the
		// decryptor can verify the tag.
		if n > 0 || e.segment == 0 {
			e.buf = e.aead.Seal(nil, segmentNonce(e.base, e.segment), plain[:n], nil)
			e.segment++
		}
	}

	if len(e.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, e.buf)
	e.buf = e.buf[n:]
	return n, nil
}

// NewDecryptingWriter wraps w so that segmented GCM ciphertext written to it
// comes out as plaintext. Close must be called to flush and authenticate the
// final segment; a tampered stream fails with ErrIntegrity.
func NewDecryptingWriter(w io.Writer, fk PlainFileKey) (io.WriteCloser, error) {
	aead, err := fileAEAD(fk)
	if err != nil {
		return nil, err
	}
	return &decryptingWriter{dst: w, aead: aead, base: fk.IV}, nil
}

type decryptingWriter struct {
	dst  io.Writer
	aead cipher.AEAD
	base []byte

	segment uint64
	buf     []byte
}

func (d *decryptingWriter) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	for len(d.buf) > SegmentSize+tagSize {
		if err := d.open(d.buf[:SegmentSize+tagSize]); err != nil {
			return 0, err
		}
		d.buf = d.buf[SegmentSize+tagSize:]
	}
	return len(p), nil
}

// Close decrypts the trailing segment. Buffered data shorter than a tag is
// a truncated stream.
func (d *decryptingWriter) Close() error {
	if len(d.buf) == 0 && d.segment > 0 {
		return nil
	}
	if len(d.buf) < tagSize {
		return fmt.Errorf("%w: truncated stream", ErrIntegrity)
	}
	err := d.open(d.buf)
	d.buf = nil
	return err
}

func (d *decryptingWriter) open(ct []byte) error {
	plain, err := d.aead.Open(nil, segmentNonce(d.base, d.segment), ct, nil)
	if err != nil {
		return ErrIntegrity
	}
	d.segment++
	if len(plain) == 0 {
		return nil
	}
	_, err = d.dst.Write(plain)
	return err
}

func fileAEAD(fk PlainFileKey) (cipher.AEAD, error) {
	if len(fk.Key) != keySize || len(fk.IV) != nonceSize {
		return nil, fmt.Errorf("malformed file key")
	}
	block, err := aes.NewCipher(fk.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
