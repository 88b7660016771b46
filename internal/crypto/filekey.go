// Package crypto implements client-side encryption for encrypted rooms:
// per-file AES-256-GCM keys, RSA-OAEP key wrapping against room members'
// public keys, and passphrase protection for the user's private key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/datavault/dvcli/internal/models"
)

const (
	// FileKeyVersion tags the wrap format carried in EncryptedFileKey.Version.
	FileKeyVersion = "A"

	keySize   = 32 // AES-256
	nonceSize = 12 // GCM standard nonce

	pbkdf2Iterations = 310000
	saltSize         = 20
)

var (
	// ErrBadPassphrase means the private key could not be unlocked.
	ErrBadPassphrase = errors.New("wrong passphrase")
	// ErrIntegrity means an authentication tag did not verify.
	ErrIntegrity = errors.New("ciphertext integrity check failed")
)

// PlainFileKey is the unwrapped per-file secret: the AES key plus the base
// nonce for the file's segments.
type PlainFileKey struct {
	Key []byte
	IV  []byte
}

// GenerateFileKey draws a fresh random file key.
func GenerateFileKey() (PlainFileKey, error) {
	fk := PlainFileKey{
		Key: make([]byte, keySize),
		IV:  make([]byte, nonceSize),
	}
	if _, err := rand.Read(fk.Key); err != nil {
		return PlainFileKey{}, fmt.Errorf("failed to generate file key: %w", err)
	}
	if _, err := rand.Read(fk.IV); err != nil {
		return PlainFileKey{}, fmt.Errorf("failed to generate file IV: %w", err)
	}
	return fk, nil
}

// WrapFileKey encrypts a file key for one recipient's public key, producing
// the shape the completion call carries per room member.
func WrapFileKey(fk PlainFileKey, pub models.PublicKeyContainer) (models.EncryptedFileKey, error) {
	key, err := parsePublicKey(pub.PublicKey)
	if err != nil {
		return models.EncryptedFileKey{}, err
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, key, fk.Key, nil)
	if err != nil {
		return models.EncryptedFileKey{}, fmt.Errorf("failed to wrap file key: %w", err)
	}

	return models.EncryptedFileKey{
		Key:     base64.StdEncoding.EncodeToString(wrapped),
		IV:      base64.StdEncoding.EncodeToString(fk.IV),
		Version: FileKeyVersion,
	}, nil
}

// UnwrapFileKey decrypts a wrapped file key with the user's private key.
func UnwrapFileKey(efk models.EncryptedFileKey, priv *rsa.PrivateKey) (PlainFileKey, error) {
	wrapped, err := base64.StdEncoding.DecodeString(efk.Key)
	if err != nil {
		return PlainFileKey{}, fmt.Errorf("malformed file key: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(efk.IV)
	if err != nil {
		return PlainFileKey{}, fmt.Errorf("malformed file IV: %w", err)
	}

	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return PlainFileKey{}, fmt.Errorf("failed to unwrap file key: %w", err)
	}
	return PlainFileKey{Key: key, IV: iv}, nil
}

// GenerateKeyPair creates a fresh RSA key pair: the public half in PEM for
// the service, the private half sealed under the passphrase.
func GenerateKeyPair(passphrase string) (models.PublicKeyContainer, string, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return models.PublicKeyContainer{}, "", fmt.Errorf("failed to generate key pair: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return models.PublicKeyContainer{}, "", fmt.Errorf("failed to encode public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	sealed, err := SealPrivateKey(priv, passphrase)
	if err != nil {
		return models.PublicKeyContainer{}, "", err
	}

	return models.PublicKeyContainer{
		PublicKey: string(pubPEM),
		Version:   FileKeyVersion,
	}, sealed, nil
}

// SealPrivateKey encrypts a private key under a passphrase-derived AES key.
// Output layout, base64-encoded: salt | nonce | GCM ciphertext.
func SealPrivateKey(priv *rsa.PrivateKey, passphrase string) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("failed to encode private key: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := passphraseAEAD(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	blob := append(append(salt, nonce...), aead.Seal(nil, nonce, der, nil)...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// OpenPrivateKey reverses SealPrivateKey. A wrong passphrase surfaces as
// ErrBadPassphrase, never as a partial key.
func OpenPrivateKey(sealed, passphrase string) (*rsa.PrivateKey, error) {
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(blob) < saltSize+nonceSize {
		return nil, fmt.Errorf("malformed private key blob")
	}

	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+nonceSize]
	ct := blob[saltSize+nonceSize:]

	aead, err := passphraseAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	der, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrBadPassphrase
	}

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unexpected private key type %T", key)
	}
	return rsaKey, nil
}

func passphraseAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	derived := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func parsePublicKey(pemData string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("malformed public key PEM")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type %T", key)
	}
	return rsaKey, nil
}
