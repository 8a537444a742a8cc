package utils

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"feature-voting-backend/internal/shared/apperror"
)

// PathID parses a positive integer path parameter
func PathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NewFieldError(name, "must be a valid integer")
	}
	if id <= 0 {
		return 0, apperror.NewFieldError(name, "must be a positive integer")
	}
	return id, nil
}

// BindJSON decodes the request body, reporting decode failures as Validation errors
func BindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperror.NewFieldError(field, "must be of type "+typeErr.Type.String())
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperror.NewFieldError("body", "malformed JSON")
	case errors.Is(err, io.EOF):
		return apperror.NewFieldError("body", "request body is required")
	default:
		return apperror.NewFieldError("body", err.Error())
	}
}

// TrimPtr trims the string behind p, leaving nil untouched
func TrimPtr(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}
