package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/synergy-circle/internal/domain/access"
	"github.com/yanqian/synergy-circle/internal/domain/discovery"
	apperrors "github.com/yanqian/synergy-circle/pkg/errors"
)

// HTTPError is what handlers abort with. Message is the only text a client sees.
type HTTPError struct {
	Status     int
	Code       string
	Message    string
	Err        error
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

type errorMapping struct {
	status int
	code   string
}

// appErrorMappings translates domain codes into a status and a public code.
var appErrorMappings = map[string]errorMapping{
	discovery.CodeInvalidInput:      {http.StatusBadRequest, "invalid_request"},
	discovery.CodeProviderFailure:   {http.StatusBadGateway, "analysis_failed"},
	discovery.CodeMalformedResponse: {http.StatusBadGateway, "analysis_failed"},
	discovery.CodeNotFound:          {http.StatusNotFound, "not_found"},
	discovery.CodeHistory:           {http.StatusInternalServerError, "history_error"},
	access.CodeInvalidToken:         {http.StatusForbidden, "invalid_token"},
}

// fromAppError maps a service error. The wrapped cause is kept for logging only.
func fromAppError(err error) *HTTPError {
	if mapping, ok := appErrorMappings[apperrors.Code(err)]; ok {
		return NewHTTPError(mapping.status, mapping.code, apperrors.Message(err), err)
	}
	return NewHTTPError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return fromAppError(err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
