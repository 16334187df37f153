// Package keys loads and generates the RSA key pair used to sign and verify
// access tokens. The private key lives on disk as an encrypted PKCS#8 PEM
// block and is only ever held decrypted in memory.
package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/youmark/pkcs8"
)

// PassphraseEnv is the environment variable consulted by ResolvePassphrase.
const PassphraseEnv = "JWT_PRIVATE_KEY_PASSWORD"

const (
	blockEncryptedPrivate = "ENCRYPTED PRIVATE KEY"
	blockPublic           = "PUBLIC KEY"
	blockRSAPublic        = "RSA PUBLIC KEY"
)

// KeyPair is an RSA key pair. It is never written back to disk decrypted.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// Paths locates the key files.
type Paths struct {
	PrivateKey string
	PublicKey  string
}

// LoadPublicKey reads a PEM encoded RSA public key (SPKI or PKCS#1).
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, path)
	}

	switch block.Type {
	case blockPublic:
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKey, path, err)
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: %s: key type %T", ErrInvalidKey, path, pub)
		}
		return rsaPub, nil
	case blockRSAPublic:
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKey, path, err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("%w: %s: unexpected block %q", ErrInvalidKey, path, block.Type)
	}
}

// LoadPrivateKey reads an encrypted PKCS#8 RSA private key and decrypts it
// with passphrase. A missing file is reported before a missing passphrase.
// Unencrypted keys are rejected with ErrKeyDecryptionFailed.
func LoadPrivateKey(path string, passphrase []byte) (*rsa.PrivateKey, error) {
	data, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	if len(passphrase) == 0 {
		return nil, ErrMissingPassphrase
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: %s: no PEM block", ErrKeyDecryptionFailed, path)
	}
	if block.Type != blockEncryptedPrivate {
		return nil, fmt.Errorf("%w: %s: expected %q block, got %q",
			ErrKeyDecryptionFailed, path, blockEncryptedPrivate, block.Type)
	}

	priv, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: check passphrase: %v", ErrKeyDecryptionFailed, path, err)
	}
	return priv, nil
}

// LoadKeyPair loads both keys and checks that they belong together.
func LoadKeyPair(paths Paths, passphrase []byte) (*KeyPair, error) {
	priv, err := LoadPrivateKey(paths.PrivateKey, passphrase)
	if err != nil {
		return nil, err
	}
	pub, err := LoadPublicKey(paths.PublicKey)
	if err != nil {
		return nil, err
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, fmt.Errorf("%w: %s", ErrKeyMismatch, paths.PublicKey)
	}
	return &KeyPair{Private: priv, Public: pub}, nil
}

// ResolvePassphrase returns explicit when set, otherwise the value of
// JWT_PRIVATE_KEY_PASSWORD from lookupEnv. A nil lookupEnv uses os.LookupEnv.
func ResolvePassphrase(explicit string, lookupEnv func(string) (string, bool)) ([]byte, error) {
	if explicit != "" {
		return []byte(explicit), nil
	}
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if v, ok := lookupEnv(PassphraseEnv); ok && v != "" {
		return []byte(v), nil
	}
	return nil, ErrMissingPassphrase
}

func readKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKeyNotFound, path, err)
	}
	return data, nil
}
