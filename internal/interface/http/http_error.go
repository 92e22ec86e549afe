package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/newsdigest/internal/infra/docstore"
	apperrors "github.com/yanqian/newsdigest/pkg/errors"
)

// HTTPError is the transport form of a failed request: status, stable code, client message.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
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

// NewHTTPError builds an HTTPError.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

func badRequest(err error) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
}

// appErrorStatus maps application error codes onto statuses and response codes.
var appErrorStatus = map[string]struct {
	status int
	code   string
}{
	apperrors.CodeInvalidInput:  {http.StatusBadRequest, "invalid_request"},
	apperrors.CodeInvalidConfig: {http.StatusInternalServerError, "misconfigured"},
	apperrors.CodeNotFound:      {http.StatusNotFound, "not_found"},
	apperrors.CodeModel:         {http.StatusBadGateway, "model_error"},
	apperrors.CodeStorage:       {http.StatusServiceUnavailable, "storage_unavailable"},
}

// serviceError converts a summarizer failure; unknown failures keep the fallback code with a 500.
func serviceError(fallback string, err error) *HTTPError {
	if errors.Is(err, docstore.ErrInvalidGroup) {
		return badRequest(err)
	}
	if mapped, ok := appErrorStatus[apperrors.Code(err)]; ok {
		return NewHTTPError(mapped.status, mapped.code, errMessage(err), err)
	}
	return NewHTTPError(http.StatusInternalServerError, fallback, errMessage(err), err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
