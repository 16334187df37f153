// Package auth guards protected routes.
//
// Gate turns an Authorization header into an authenticated principal:
// it extracts the bearer token, verifies it with the token manager, resolves
// the subject through an injected Lookup and rejects inactive principals.
// Failures come back as *AuthError (errors.Is(err, ErrUnauthenticated)) or,
// when the lookup itself breaks, *LookupError (errors.Is(err, ErrLookupFailed)).
//
// Subpackages:
//
//   - auth/keys      RSA key pair loading and generation
//   - auth/password  bcrypt hashing behind a bounded pool
//   - auth/jwt       RS256 token issue and verify, lazily constructed
//   - auth/authctx   principal and claims in the request context
//
// Invalid, unknown-subject and inactive outcomes share one outward message
// (see HTTPError) so clients cannot probe which accounts exist. Reasons are
// still logged at warn level.
package auth
