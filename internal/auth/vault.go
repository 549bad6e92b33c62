package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLen  = 16
	nonceLen = 24
	keyLen   = 32
)

var (
	// ErrNoSecret is returned by NewVault when no vault secret is configured.
	ErrNoSecret = errors.New("vault secret not set")
	// ErrVaultCorrupt means the token file could not be opened with the secret.
	ErrVaultCorrupt = errors.New("token vault corrupt or secret changed")
)

// Vault stores the session token encrypted on disk.
// File layout: salt | nonce | secretbox(token).
type Vault struct {
	path   string
	secret []byte
}

func NewVault(path, secret string) (*Vault, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Vault{path: path, secret: []byte(secret)}, nil
}

func (v *Vault) key(salt []byte) (*[keyLen]byte, error) {
	raw, err := scrypt.Key(v.secret, salt, 1<<15, 8, 1, keyLen)
	if err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}
	var k [keyLen]byte
	copy(k[:], raw)
	return &k, nil
}

// Save encrypts token and replaces the vault file.
func (v *Vault) Save(token string) error {
	var salt [saltLen]byte
	var nonce [nonceLen]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return fmt.Errorf("vault salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("vault nonce: %w", err)
	}
	k, err := v.key(salt[:])
	if err != nil {
		return err
	}
	out := make([]byte, 0, saltLen+nonceLen+len(token)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, []byte(token), &nonce, k)

	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return fmt.Errorf("vault dir: %w", err)
	}
	if err := os.WriteFile(v.path, out, 0o600); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	return nil
}

// Load returns the stored token, "" when none was saved.
func (v *Vault) Load() (string, error) {
	raw, err := os.ReadFile(v.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read vault: %w", err)
	}
	if len(raw) < saltLen+nonceLen+secretbox.Overhead {
		return "", ErrVaultCorrupt
	}
	var nonce [nonceLen]byte
	copy(nonce[:], raw[saltLen:saltLen+nonceLen])
	k, err := v.key(raw[:saltLen])
	if err != nil {
		return "", err
	}
	tok, ok := secretbox.Open(nil, raw[saltLen+nonceLen:], &nonce, k)
	if !ok {
		return "", ErrVaultCorrupt
	}
	return string(tok), nil
}

// Clear removes the stored token.
func (v *Vault) Clear() error {
	if err := os.Remove(v.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear vault: %w", err)
	}
	return nil
}
