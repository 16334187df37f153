package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/server/middleware"
)

// RespondWithError renders err in the API error envelope and aborts the
// chain. Server-side errors are logged with their cause; client errors are
// logged at warn level without one.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	log := logger.WithContext(c.Request.Context())
	fields := logger.Fields(
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", appErr.HTTPStatus,
		"code", string(appErr.Code),
	)
	if appErr.IsServerError() {
		if appErr.Cause != nil {
			fields = logger.MergeWithError(fields, appErr.Cause)
		}
		log.Error(appErr.Message, fields)
	} else {
		log.Warn(appErr.Message, fields)
	}
	middleware.WriteError(c.Writer, c.Request, appErr)
	c.Abort()
}

// RespondOK sends a 200 response with data as the body.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// RespondCreated sends a 201 response with data as the body.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
