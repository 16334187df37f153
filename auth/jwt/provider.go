package jwt

import (
	"sync"

	"github.com/kbukum/todoapi/auth/keys"
)

// Loader builds a Manager.
type Loader func() (*Manager, error)

// Provider constructs a Manager on first use. Concurrent first calls share
// one construction and a failed construction is never retried.
type Provider struct {
	load Loader

	once    sync.Once
	manager *Manager
	err     error
}

// NewProvider creates a Provider around load.
func NewProvider(load Loader) *Provider {
	return &Provider{load: load}
}

// NewStaticProvider wraps an existing Manager.
func NewStaticProvider(m *Manager) *Provider {
	p := &Provider{}
	p.once.Do(func() { p.manager = m })
	return p
}

// Manager returns the Manager, building it on the first call.
func (p *Provider) Manager() (*Manager, error) {
	p.once.Do(func() {
		p.manager, p.err = p.load()
	})
	return p.manager, p.err
}

// FromConfig returns a Loader that reads the key pair described by cfg.
// The passphrase comes from cfg, falling back to lookupEnv.
func FromConfig(cfg Config, lookupEnv func(string) (string, bool), opts ...Option) Loader {
	return func() (*Manager, error) {
		cfg.ApplyDefaults()
		passphrase, err := keys.ResolvePassphrase(cfg.PrivateKeyPassword, lookupEnv)
		if err != nil {
			return nil, err
		}
		pair, err := keys.LoadKeyPair(cfg.Paths(), passphrase)
		if err != nil {
			return nil, err
		}
		base := []Option{WithTTL(cfg.AccessTokenTTL), WithIssuer(cfg.Issuer)}
		return NewManager(pair, append(base, opts...)...)
	}
}
