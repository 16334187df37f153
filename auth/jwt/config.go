package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/todoapi/auth/keys"
)

// Defaults.
const (
	DefaultAccessTokenTTL = 15 * time.Minute
	DefaultLoginTokenTTL  = 24 * time.Hour
	DefaultPrivateKeyPath = "keys/private_key.pem"
	DefaultPublicKeyPath  = "keys/public_key.pem"
)

// Config configures token signing. Environment variables such as
// JWT_PRIVATE_KEY_PATH and JWT_PRIVATE_KEY_PASSWORD bind to these keys
// through the config loader.
type Config struct {
	// PrivateKeyPath points to the encrypted PKCS#8 private key.
	PrivateKeyPath string `mapstructure:"private_key_path"`

	// PublicKeyPath points to the PEM public key.
	PublicKeyPath string `mapstructure:"public_key_path"`

	// PrivateKeyPassword decrypts the private key.
	PrivateKeyPassword string `mapstructure:"private_key_password"`

	// AccessTokenTTL is the default token lifetime (default: 15m).
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`

	// LoginTokenTTL is the lifetime of tokens issued by the login endpoint
	// (default: 24h).
	LoginTokenTTL time.Duration `mapstructure:"login_token_ttl"`

	// Issuer is the "iss" claim (optional). When set, tokens from other
	// issuers are rejected.
	Issuer string `mapstructure:"issuer"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.PrivateKeyPath == "" {
		c.PrivateKeyPath = DefaultPrivateKeyPath
	}
	if c.PublicKeyPath == "" {
		c.PublicKeyPath = DefaultPublicKeyPath
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.LoginTokenTTL == 0 {
		c.LoginTokenTTL = DefaultLoginTokenTTL
	}
}

// Validate checks the configuration. The passphrase is not required here;
// it may still come from the environment when the keys are loaded.
func (c *Config) Validate() error {
	if c.PrivateKeyPath == "" || c.PublicKeyPath == "" {
		return errors.New("private_key_path and public_key_path are required")
	}
	if c.AccessTokenTTL < 0 {
		return fmt.Errorf("access_token_ttl must be positive (got: %s)", c.AccessTokenTTL)
	}
	if c.LoginTokenTTL < 0 {
		return fmt.Errorf("login_token_ttl must be positive (got: %s)", c.LoginTokenTTL)
	}
	return nil
}

// Paths returns the key file locations.
func (c *Config) Paths() keys.Paths {
	return keys.Paths{PrivateKey: c.PrivateKeyPath, PublicKey: c.PublicKeyPath}
}
