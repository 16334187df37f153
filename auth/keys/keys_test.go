package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

var (
	testPairOnce sync.Once
	testPair     *KeyPair
	testPairErr  error
)

func sharedPair(t *testing.T) *KeyPair {
	t.Helper()
	testPairOnce.Do(func() {
		testPair, testPairErr = GenerateKeyPair(DefaultBits)
	})
	if testPairErr != nil {
		t.Fatalf("GenerateKeyPair: %v", testPairErr)
	}
	return testPair
}

func writePair(t *testing.T, passphrase string) Paths {
	t.Helper()
	paths, err := WriteKeyPair(t.TempDir(), sharedPair(t), []byte(passphrase))
	if err != nil {
		t.Fatalf("WriteKeyPair: %v", err)
	}
	return paths
}

func TestLoadKeyPairRoundTrip(t *testing.T) {
	paths := writePair(t, "correct horse")

	pair, err := LoadKeyPair(paths, []byte("correct horse"))
	if err != nil {
		t.Fatalf("LoadKeyPair: %v", err)
	}
	if !pair.Private.Equal(sharedPair(t).Private) {
		t.Error("decrypted private key differs from the generated one")
	}
	if !pair.Public.Equal(sharedPair(t).Public) {
		t.Error("public key differs from the generated one")
	}
}

func TestWriteKeyPairPermissions(t *testing.T) {
	paths := writePair(t, "secret-pass")

	for path, want := range map[string]os.FileMode{
		paths.PrivateKey: 0o600,
		paths.PublicKey:  0o644,
	} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if got := info.Mode().Perm(); got != want {
			t.Errorf("%s mode = %o, want %o", filepath.Base(path), got, want)
		}
	}

	data, _ := os.ReadFile(paths.PrivateKey)
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "ENCRYPTED PRIVATE KEY" {
		t.Fatalf("private key block = %+v, want ENCRYPTED PRIVATE KEY", block)
	}
}

func TestLoadPrivateKeyErrors(t *testing.T) {
	paths := writePair(t, "right-pass")

	plainPath := filepath.Join(t.TempDir(), "plain.pem")
	der, err := x509.MarshalPKCS8PrivateKey(sharedPair(t).Private)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(plainPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}

	garbagePath := filepath.Join(t.TempDir(), "garbage.pem")
	if err := os.WriteFile(garbagePath, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		path       string
		passphrase string
		want       error
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.pem"), "right-pass", ErrKeyNotFound},
		{"missing file wins over missing passphrase", filepath.Join(t.TempDir(), "nope.pem"), "", ErrKeyNotFound},
		{"empty passphrase", paths.PrivateKey, "", ErrMissingPassphrase},
		{"wrong passphrase", paths.PrivateKey, "wrong-pass", ErrKeyDecryptionFailed},
		{"unencrypted key", plainPath, "right-pass", ErrKeyDecryptionFailed},
		{"not PEM", garbagePath, "right-pass", ErrKeyDecryptionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPrivateKey(tt.path, []byte(tt.passphrase))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadPublicKey(t *testing.T) {
	pub := sharedPair(t).Public
	dir := t.TempDir()

	pkcs1 := filepath.Join(dir, "pkcs1.pem")
	if err := os.WriteFile(pkcs1, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(pub),
	}), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadPublicKey(pkcs1)
	if err != nil {
		t.Fatalf("LoadPublicKey(pkcs1): %v", err)
	}
	if !got.Equal(pub) {
		t.Error("pkcs1 public key mismatch")
	}

	if _, err := LoadPublicKey(filepath.Join(dir, "missing.pem")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("missing: err = %v, want ErrKeyNotFound", err)
	}

	bad := filepath.Join(dir, "bad.pem")
	if err := os.WriteFile(bad, []byte("-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPublicKey(bad); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("bad block: err = %v, want ErrInvalidKey", err)
	}
}

func TestLoadKeyPairMismatch(t *testing.T) {
	paths := writePair(t, "pass-1234")

	other, err := GenerateKeyPair(DefaultBits)
	if err != nil {
		t.Fatal(err)
	}
	otherPub, err := EncodePublicKeyPEM(other.Public)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(paths.PublicKey, otherPub, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadKeyPair(paths, []byte("pass-1234")); !errors.Is(err, ErrKeyMismatch) {
		t.Fatalf("err = %v, want ErrKeyMismatch", err)
	}
}

func TestResolvePassphrase(t *testing.T) {
	env := func(vals map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := vals[k]
			return v, ok
		}
	}

	tests := []struct {
		name     string
		explicit string
		env      map[string]string
		want     string
		wantErr  error
	}{
		{"explicit wins", "from-config", map[string]string{PassphraseEnv: "from-env"}, "from-config", nil},
		{"env fallback", "", map[string]string{PassphraseEnv: "from-env"}, "from-env", nil},
		{"empty env is missing", "", map[string]string{PassphraseEnv: ""}, "", ErrMissingPassphrase},
		{"neither", "", nil, "", ErrMissingPassphrase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePassphrase(tt.explicit, env(tt.env))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("passphrase = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateKeyPairRejectsSmallKeys(t *testing.T) {
	if _, err := GenerateKeyPair(1024); err == nil {
		t.Fatal("expected error for 1024-bit key")
	}
}

func TestEncodePrivateKeyPEMRequiresPassphrase(t *testing.T) {
	var priv *rsa.PrivateKey = sharedPair(t).Private
	if _, err := EncodePrivateKeyPEM(priv, nil); !errors.Is(err, ErrMissingPassphrase) {
		t.Fatalf("err = %v, want ErrMissingPassphrase", err)
	}
}
