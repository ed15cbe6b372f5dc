package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError classifies a service error into an HTTP status and stable code.
// Dependency and internal failures are reported generically so storage details never leak.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch aggregates.CodeOf(err) {
	case aggregates.CodeValidation:
		return New(http.StatusBadRequest, string(aggregates.CodeValidation), err)
	case aggregates.CodeNotFound:
		return New(http.StatusNotFound, string(aggregates.CodeNotFound), errors.New("not found"))
	case aggregates.CodeConflict:
		return New(http.StatusConflict, string(aggregates.CodeConflict), err)
	case aggregates.CodeDependency:
		return New(http.StatusBadGateway, string(aggregates.CodeDependency), errors.New("upstream dependency failed"))
	default:
		return New(http.StatusInternalServerError, string(aggregates.CodeInternal), errors.New("internal error"))
	}
}
