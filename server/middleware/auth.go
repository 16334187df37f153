package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/auth"
	"github.com/kbukum/todoapi/auth/authctx"
	"github.com/kbukum/todoapi/auth/jwt"
	"github.com/kbukum/todoapi/logger"
)

// Authenticator resolves an Authorization header to a principal.
// *auth.Gate satisfies it.
type Authenticator[P any] interface {
	AuthenticateWithClaims(ctx context.Context, header string) (P, *jwt.Claims, error)
}

// Auth runs the authentication gate for every request on the group it is
// attached to. On success the principal and claims are stored in the request
// context (see authctx) and the subject is attached to request logs; on
// failure the request is aborted with the gate's error mapped to HTTP.
func Auth[P any](a Authenticator[P]) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, claims, err := a.AuthenticateWithClaims(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			WriteError(c.Writer, c.Request, auth.HTTPError(err))
			c.Abort()
			return
		}

		ctx := authctx.WithPrincipal(c.Request.Context(), principal)
		ctx = authctx.WithClaims(ctx, claims)
		ctx = logger.ContextWithUserID(ctx, claims.Subject)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
