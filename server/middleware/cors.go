package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// CORSConfig is the server.cors section.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers" mapstructure:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
}

// ApplyDefaults allows any origin and the API's methods and headers.
func (c *CORSConfig) ApplyDefaults() {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{RequestIDHeader, ProcessTimeHeader}
	}
}

// corsPolicy is a CORSConfig with its header values joined once.
type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	static      map[string]string
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	p := &corsPolicy{
		origins:     cfg.AllowedOrigins,
		wildcard:    slices.Contains(cfg.AllowedOrigins, "*"),
		credentials: cfg.AllowCredentials,
		static:      map[string]string{},
	}
	for name, values := range map[string][]string{
		"Access-Control-Allow-Methods":  cfg.AllowedMethods,
		"Access-Control-Allow-Headers":  cfg.AllowedHeaders,
		"Access-Control-Expose-Headers": cfg.ExposedHeaders,
	} {
		if len(values) > 0 {
			p.static[name] = strings.Join(values, ", ")
		}
	}
	if cfg.AllowCredentials {
		p.static["Access-Control-Allow-Credentials"] = "true"
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	return p.wildcard || slices.Contains(p.origins, origin)
}

// apply sets the response headers for origin. Credentialed responses must
// echo the origin rather than "*".
func (p *corsPolicy) apply(h http.Header, origin string) {
	if origin == "" || !p.allows(origin) {
		return
	}
	allow := origin
	if p.wildcard && !p.credentials {
		allow = "*"
	}
	h.Set("Access-Control-Allow-Origin", allow)
	for k, v := range p.static {
		h.Set(k, v)
	}
}

// CORS sets CORS headers and answers preflights. A preflight is an OPTIONS
// request that carries Access-Control-Request-Method.
func CORS(cfg CORSConfig) Middleware {
	p := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			p.apply(w.Header(), r.Header.Get("Origin"))
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
