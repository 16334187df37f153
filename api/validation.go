package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/kbukum/todoapi/errors"
)

// Error locations, prefixed to field names in validation details.
const (
	locBody  = "body"
	locQuery = "query"
	locPath  = "path"
)

var registerOnce sync.Once

// registerValidators teaches gin's validator the custom rules and makes it
// report fields by their JSON or query name.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("username", validUsername)
	})
}

// fieldName returns the wire name of a struct field.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// validUsername accepts letters, digits and underscores, with at least one
// letter or digit.
func validUsername(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	alnum := false
	for _, r := range s {
		switch {
		case r == '_':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			alnum = true
		default:
			return false
		}
	}
	return alnum
}

// bindJSON decodes and validates the request body into dst.
func bindJSON(c *gin.Context, dst any) error {
	registerValidators()
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(locBody, err)
	}
	return nil
}

// bindQuery decodes and validates query parameters into dst.
func bindQuery(c *gin.Context, dst any) error {
	registerValidators()
	if err := c.ShouldBindQuery(dst); err != nil {
		return bindError(locQuery, err)
	}
	return nil
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apperrors.Validation([]apperrors.FieldError{{
			Field:   locPath + "." + name,
			Message: "Input should be a valid integer",
			Type:    "int_parsing",
		}})
	}
	if id < 1 {
		return 0, apperrors.Validation([]apperrors.FieldError{{
			Field:   locPath + "." + name,
			Message: "Input should be greater than or equal to 1",
			Type:    "greater_than_equal",
		}})
	}
	return uint(id), nil
}

// bindError maps a gin binding failure to an AppError.
func bindError(loc string, err error) error {
	var (
		verrs    validator.ValidationErrors
		maxErr   *http.MaxBytesError
		synErr   *json.SyntaxError
		typeErr  *json.UnmarshalTypeError
		numErr   *strconv.NumError
		fieldErr = func(field, msg, typ string) error {
			return apperrors.Validation([]apperrors.FieldError{{Field: field, Message: msg, Type: typ}})
		}
	)
	switch {
	case errors.As(err, &verrs):
		fields := make([]apperrors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, describe(loc, fe))
		}
		return apperrors.Validation(fields)
	case errors.As(err, &maxErr):
		return apperrors.PayloadTooLarge(maxErr.Limit)
	case errors.Is(err, io.EOF):
		return fieldErr(loc, "Field required", "missing")
	case errors.As(err, &synErr), errors.Is(err, io.ErrUnexpectedEOF):
		return fieldErr(loc, "JSON decode error", "json_invalid")
	case errors.As(err, &typeErr):
		return fieldErr(loc+"."+typeErr.Field, fmt.Sprintf("Input should be a valid %s", typeErr.Type.Kind()), "type_error")
	case errors.As(err, &numErr):
		return fieldErr(loc, "Input should be a valid number", "parsing")
	default:
		return apperrors.Validation([]apperrors.FieldError{{Field: loc, Message: err.Error(), Type: "value_error"}})
	}
}

// describe renders one failed rule in the API's wording.
func describe(loc string, fe validator.FieldError) apperrors.FieldError {
	field := loc + "." + fe.Field()
	param := fe.Param()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return apperrors.FieldError{Field: field, Message: "Field required", Type: "missing"}
	case "email":
		return apperrors.FieldError{Field: field, Message: "value is not a valid email address", Type: "value_error"}
	case "username":
		return apperrors.FieldError{Field: field, Message: "Username must be alphanumeric (underscores allowed)", Type: "value_error"}
	case "oneof":
		opts := strings.Fields(param)
		return apperrors.FieldError{
			Field:   field,
			Message: "Input should be " + quoteList(opts),
			Type:    "enum",
		}
	case "min":
		if isString {
			return apperrors.FieldError{Field: field, Message: fmt.Sprintf("String should have at least %s %s", param, plural("character", param)), Type: "string_too_short"}
		}
		return apperrors.FieldError{Field: field, Message: "Input should be greater than or equal to " + param, Type: "greater_than_equal"}
	case "max":
		if isString {
			return apperrors.FieldError{Field: field, Message: fmt.Sprintf("String should have at most %s %s", param, plural("character", param)), Type: "string_too_long"}
		}
		return apperrors.FieldError{Field: field, Message: "Input should be less than or equal to " + param, Type: "less_than_equal"}
	case "gte":
		return apperrors.FieldError{Field: field, Message: "Input should be greater than or equal to " + param, Type: "greater_than_equal"}
	case "lte":
		return apperrors.FieldError{Field: field, Message: "Input should be less than or equal to " + param, Type: "less_than_equal"}
	default:
		return apperrors.FieldError{Field: field, Message: fmt.Sprintf("Failed on the '%s' rule", fe.Tag()), Type: "value_error"}
	}
}

func quoteList(opts []string) string {
	quoted := make([]string, len(opts))
	for i, o := range opts {
		quoted[i] = "'" + o + "'"
	}
	if len(quoted) <= 1 {
		return strings.Join(quoted, "")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}

func plural(word, n string) string {
	if n == "1" {
		return word
	}
	return word + "s"
}
