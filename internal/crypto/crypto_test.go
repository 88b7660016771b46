package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"testing"
)

func TestFileKeyWrapUnwrap(t *testing.T) {
	pub, sealed, err := GenerateKeyPair("hunter2")
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	fk, err := GenerateFileKey()
	if err != nil {
		t.Fatalf("GenerateFileKey: %v", err)
	}

	wrapped, err := WrapFileKey(fk, pub)
	if err != nil {
		t.Fatalf("WrapFileKey: %v", err)
	}
	if wrapped.Version != FileKeyVersion {
		t.Errorf("version = %q", wrapped.Version)
	}

	priv, err := OpenPrivateKey(sealed, "hunter2")
	if err != nil {
		t.Fatalf("OpenPrivateKey: %v", err)
	}

	got, err := UnwrapFileKey(wrapped, priv)
	if err != nil {
		t.Fatalf("UnwrapFileKey: %v", err)
	}
	if !bytes.Equal(got.Key, fk.Key) || !bytes.Equal(got.IV, fk.IV) {
		t.Error("unwrapped key does not match original")
	}
}

func TestOpenPrivateKeyWrongPassphrase(t *testing.T) {
	_, sealed, err := GenerateKeyPair("correct")
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	if _, err := OpenPrivateKey(sealed, "wrong"); !errors.Is(err, ErrBadPassphrase) {
		t.Errorf("err = %v, want ErrBadPassphrase", err)
	}
}

func roundTrip(t *testing.T, plain []byte) []byte {
	t.Helper()
	fk, err := GenerateFileKey()
	if err != nil {
		t.Fatalf("GenerateFileKey: %v", err)
	}

	enc, err := NewEncryptingReader(bytes.NewReader(plain), fk)
	if err != nil {
		t.Fatalf("NewEncryptingReader: %v", err)
	}
	ct, err := io.ReadAll(enc)
	if err != nil {
		t.Fatalf("read ciphertext: %v", err)
	}
	if int64(len(ct)) != EncryptedSize(int64(len(plain))) {
		t.Errorf("ciphertext length = %d, want %d", len(ct), EncryptedSize(int64(len(plain))))
	}

	var out bytes.Buffer
	dec, err := NewDecryptingWriter(&out, fk)
	if err != nil {
		t.Fatalf("NewDecryptingWriter: %v", err)
	}
	// Feed in awkward chunk sizes to exercise segment reassembly.
	for off := 0; off < len(ct); off += 3333 {
		end := off + 3333
		if end > len(ct) {
			end = len(ct)
		}
		if _, err := dec.Write(ct[off:end]); err != nil {
			t.Fatalf("decrypt write: %v", err)
		}
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("decrypt close: %v", err)
	}

	if !bytes.Equal(out.Bytes(), plain) {
		t.Fatal("round trip mismatch")
	}
	return ct
}

func TestStreamRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 100, SegmentSize - 1, SegmentSize, SegmentSize + 1, 3*SegmentSize + 17}
	for _, n := range sizes {
		plain := make([]byte, n)
		if _, err := rand.Read(plain); err != nil {
			t.Fatalf("rand: %v", err)
		}
		roundTrip(t, plain)
	}
}

func TestStreamDetectsTampering(t *testing.T) {
	fk, err := GenerateFileKey()
	if err != nil {
		t.Fatalf("GenerateFileKey: %v", err)
	}

	plain := bytes.Repeat([]byte("datavault"), 1000)
	enc, err := NewEncryptingReader(bytes.NewReader(plain), fk)
	if err != nil {
		t.Fatalf("NewEncryptingReader: %v", err)
	}
	ct, err := io.ReadAll(enc)
	if err != nil {
		t.Fatalf("read ciphertext: %v", err)
	}

	ct[len(ct)/2] ^= 0xff

	dec, err := NewDecryptingWriter(io.Discard, fk)
	if err != nil {
		t.Fatalf("NewDecryptingWriter: %v", err)
	}
	_, werr := dec.Write(ct)
	cerr := dec.Close()
	if !errors.Is(werr, ErrIntegrity) && !errors.Is(cerr, ErrIntegrity) {
		t.Errorf("tampering not detected: write=%v close=%v", werr, cerr)
	}
}

func TestStreamTruncationDetected(t *testing.T) {
	fk, err := GenerateFileKey()
	if err != nil {
		t.Fatalf("GenerateFileKey: %v", err)
	}

	dec, err := NewDecryptingWriter(io.Discard, fk)
	if err != nil {
		t.Fatalf("NewDecryptingWriter: %v", err)
	}
	if _, err := dec.Write([]byte{0x01, 0x02}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := dec.Close(); !errors.Is(err, ErrIntegrity) {
		t.Errorf("close err = %v, want ErrIntegrity", err)
	}
}

func TestWrongKeyFailsIntegrity(t *testing.T) {
	fk, _ := GenerateFileKey()
	other, _ := GenerateFileKey()

	enc, err := NewEncryptingReader(bytes.NewReader([]byte("secret")), fk)
	if err != nil {
		t.Fatalf("NewEncryptingReader: %v", err)
	}
	ct, _ := io.ReadAll(enc)

	dec, err := NewDecryptingWriter(io.Discard, other)
	if err != nil {
		t.Fatalf("NewDecryptingWriter: %v", err)
	}
	dec.Write(ct)
	if err := dec.Close(); !errors.Is(err, ErrIntegrity) {
		t.Errorf("close err = %v, want ErrIntegrity", err)
	}
}
