package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"slices"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	apperrors "github.com/kbukum/todoapi/errors"
)

// SQLSTATE unique_violation.
const pqUniqueViolation pq.ErrorCode = "23505"

// connectionHints match driver messages that carry no typed error.
var connectionHints = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no route to host",
	"network is unreachable",
	"connection closed",
	"database is closed",
}

// IsConnectionError reports errors a reconnect might cure.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return slices.ContainsFunc(connectionHints, func(h string) bool { return strings.Contains(msg, h) })
}

// IsNotFoundError reports gorm.ErrRecordNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports a unique constraint violation. GORM translates
// the SQLite error; lib/pq errors are matched on SQLSTATE.
func IsDuplicateError(err error) bool {
	var pqErr *pq.Error
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return true
	case errors.As(err, &pqErr):
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

// FromDatabase maps a store error onto the API error for resource. An
// AppError passes through unchanged.
func FromDatabase(err error, resource string, id any) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case IsNotFoundError(err):
		return apperrors.NotFound(resource, id).WithCause(err)
	case IsDuplicateError(err):
		return apperrors.Conflict(resource + " already exists").WithCause(err)
	case IsConnectionError(err):
		return apperrors.ServiceUnavailable("database").WithCause(err)
	}
	return apperrors.DatabaseError(err)
}
