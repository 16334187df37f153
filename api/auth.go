package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/todoapi/auth/authctx"
	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/observability"
	"github.com/kbukum/todoapi/server"
	"github.com/kbukum/todoapi/store"
)

const tokenTypeBearer = "bearer"

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	u, err := h.createAccount(c, req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.WithContext(c.Request.Context()).Info("User registered", logger.Fields(
		logger.FieldUserID, u.ID,
		"username", u.Username,
	))
	server.RespondCreated(c, userResponse(u))
}

// createAccount checks uniqueness, hashes the password and inserts the user.
func (h *Handler) createAccount(c *gin.Context, req RegisterRequest) (*store.User, error) {
	ctx := c.Request.Context()
	taken, err := h.Users.EmailTaken(ctx, req.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Conflict(fmt.Sprintf("User with email '%s' already exists", req.Email))
	}
	taken, err = h.Users.UsernameTaken(ctx, req.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Conflict(fmt.Sprintf("Username '%s' is already taken", req.Username))
	}

	hash, err := h.Passwords.Hash(ctx, req.Password)
	if err != nil {
		return nil, passwordUnavailable(err)
	}
	u := &store.User{
		Email:          req.Email,
		Username:       req.Username,
		FullName:       req.FullName,
		HashedPassword: hash,
		IsActive:       true,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	log := h.log.WithContext(ctx)

	u, err := h.Users.FindByLogin(ctx, req.Username)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if u == nil {
		// Same bcrypt cost as a real check, so timing does not reveal
		// which logins exist.
		if err := h.Passwords.VerifyDummy(ctx, req.Password); err != nil {
			server.RespondWithError(c, passwordUnavailable(err))
			return
		}
		log.Warn("Login failed", logger.Fields(logger.FieldReason, "unknown_login"))
		server.RespondWithError(c, apperrors.Unauthorized("Incorrect username or password"))
		return
	}

	ok, err := h.Passwords.Verify(ctx, req.Password, u.HashedPassword)
	if err != nil {
		server.RespondWithError(c, passwordUnavailable(err))
		return
	}
	if !ok {
		log.Warn("Login failed", logger.Fields(
			logger.FieldReason, "bad_password",
			logger.FieldUserID, u.ID,
		))
		server.RespondWithError(c, apperrors.Unauthorized("Incorrect username or password"))
		return
	}
	if !u.IsActive {
		log.Warn("Inactive user login attempt", logger.Fields(logger.FieldUserID, u.ID))
		server.RespondWithError(c, apperrors.Unauthorized("User account is inactive"))
		return
	}

	token, err := h.issue(c, u)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	log.Info("Login successful", logger.Fields(logger.FieldUserID, u.ID))
	server.RespondOK(c, TokenResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(h.LoginTTL / time.Second),
	})
}

// issue signs a login token for u.
func (h *Handler) issue(c *gin.Context, u *store.User) (string, error) {
	ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanTokenIssue)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrUserID, u.Subject()))

	mgr, err := h.Tokens.Manager()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", apperrors.Internal(fmt.Errorf("token manager: %w", err))
	}
	token, _, err := mgr.Issue(u.Subject(), h.LoginTTL)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", apperrors.Internal(fmt.Errorf("issue token: %w", err))
	}
	h.Metrics.RecordTokenIssued(ctx)
	return token, nil
}

func (h *Handler) me(c *gin.Context) {
	u, err := currentUser(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, userResponse(u))
}

// currentUser returns the principal stored by the auth middleware.
func currentUser(c *gin.Context) (*store.User, error) {
	u, err := authctx.PrincipalOrError[*store.User](c.Request.Context())
	if err != nil {
		return nil, apperrors.Unauthorized("")
	}
	return u, nil
}

// passwordUnavailable maps a rejected hashing call to 503.
func passwordUnavailable(err error) error {
	return apperrors.ServiceUnavailable("authentication service").WithCause(err)
}
