package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/youmark/pkcs8"
)

// DefaultBits is the modulus size used by the key generation tool.
const DefaultBits = 2048

// File names written by WriteKeyPair.
const (
	PrivateKeyFile = "private_key.pem"
	PublicKeyFile  = "public_key.pem"
)

// GenerateKeyPair creates a new RSA key pair.
func GenerateKeyPair(bits int) (*KeyPair, error) {
	if bits < 2048 {
		return nil, fmt.Errorf("keys: key size %d is below 2048 bits", bits)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return &KeyPair{Private: priv, Public: &priv.PublicKey}, nil
}

// EncodePrivateKeyPEM encrypts priv as PKCS#8 with passphrase.
func EncodePrivateKeyPEM(priv *rsa.PrivateKey, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrMissingPassphrase
	}
	der, err := pkcs8.MarshalPrivateKey(priv, passphrase, nil)
	if err != nil {
		return nil, fmt.Errorf("keys: encrypt private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: blockEncryptedPrivate, Bytes: der}), nil
}

// EncodePublicKeyPEM encodes pub as SubjectPublicKeyInfo.
func EncodePublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("keys: encode public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: blockPublic, Bytes: der}), nil
}

// WriteKeyPair writes the encrypted private key (0600) and the public key
// (0644) into dir, creating it when needed. It returns the written paths.
func WriteKeyPair(dir string, pair *KeyPair, passphrase []byte) (Paths, error) {
	if pair == nil || pair.Private == nil {
		return Paths{}, errors.New("keys: nil key pair")
	}
	privPEM, err := EncodePrivateKeyPEM(pair.Private, passphrase)
	if err != nil {
		return Paths{}, err
	}
	pub := pair.Public
	if pub == nil {
		pub = &pair.Private.PublicKey
	}
	pubPEM, err := EncodePublicKeyPEM(pub)
	if err != nil {
		return Paths{}, err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Paths{}, fmt.Errorf("keys: create %s: %w", dir, err)
	}
	paths := Paths{
		PrivateKey: filepath.Join(dir, PrivateKeyFile),
		PublicKey:  filepath.Join(dir, PublicKeyFile),
	}
	if err := os.WriteFile(paths.PrivateKey, privPEM, 0o600); err != nil {
		return Paths{}, fmt.Errorf("keys: write private key: %w", err)
	}
	if err := os.WriteFile(paths.PublicKey, pubPEM, 0o644); err != nil {
		return Paths{}, fmt.Errorf("keys: write public key: %w", err)
	}
	return paths, nil
}
