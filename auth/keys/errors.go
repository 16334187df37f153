package keys

import "errors"

// Error kinds returned by the loaders. Wrapped errors keep the path and the
// underlying cause; match them with errors.Is.
var (
	ErrKeyNotFound         = errors.New("keys: key file not found")
	ErrMissingPassphrase   = errors.New("keys: private key passphrase is required")
	ErrKeyDecryptionFailed = errors.New("keys: failed to decrypt private key")
	ErrInvalidKey          = errors.New("keys: not a PEM encoded RSA key")
	ErrKeyMismatch         = errors.New("keys: public key does not match private key")
)
