// Package request decodes JSON request bodies into typed inputs, reporting failures as validation errors.
package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/fooder/backend/pkg/apperr"
)

// BindJSON decodes the request body into dst. A missing body, malformed JSON and fields of the
// wrong type are all reported as validation errors.
func BindJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return apperr.Validation("Request body is required")
	}
	err := c.ShouldBindWith(dst, binding.JSON)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return apperr.Validation("Request body is required")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Validationf("Invalid value for %s", typeErr.Field)
	}
	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		return apperr.Validation("Timestamps must be valid ISO 8601 datetimes")
	}
	return apperr.Validation("Invalid JSON")
}
