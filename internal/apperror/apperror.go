package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lunagic/agora/agora"
	"github.com/lunagic/agora/agoraservices/database"
	"github.com/lunagic/poseidon/poseidon"
)

// AppError is an error with the HTTP status it should be answered with.
type AppError struct {
	Code    int
	Message string
	Detail  string
	Err     error
}

func (err AppError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("%s: %s", err.Message, err.Err)
	}

	return err.Message
}

func (err AppError) Unwrap() error {
	return err.Err
}

func (err AppError) WithDetail(detail string) AppError {
	err.Detail = detail
	return err
}

func newError(code int, message string, wrapped ...error) AppError {
	return AppError{
		Code:    code,
		Message: message,
		Err:     errors.Join(wrapped...),
	}
}

func NotFound(message string, wrapped ...error) AppError {
	return newError(http.StatusNotFound, message, wrapped...)
}

func Forbidden(message string, wrapped ...error) AppError {
	return newError(http.StatusForbidden, message, wrapped...)
}

func BadRequest(message string, wrapped ...error) AppError {
	return newError(http.StatusBadRequest, message, wrapped...)
}

func Unauthorized(message string, wrapped ...error) AppError {
	return newError(http.StatusUnauthorized, message, wrapped...)
}

func Conflict(message string, wrapped ...error) AppError {
	return newError(http.StatusConflict, message, wrapped...)
}

func TooManyRequests(message string) AppError {
	return newError(http.StatusTooManyRequests, message)
}

func Internal(wrapped ...error) AppError {
	return newError(http.StatusInternalServerError, "Internal server error", wrapped...)
}

// FromDatabase classifies storage errors. ErrNoRows becomes a 404 carrying
// notFoundMessage; constraint violations become 409; a bad sort directive
// or an out of range page becomes 400. Anything else, unknown filter operators included, is a 500.
func FromDatabase(err error, notFoundMessage string) error {
	if err == nil {
		return nil
	}

	appError := AppError{}
	if errors.As(err, &appError) {
		return err
	}

	switch {
	case errors.Is(err, database.ErrNoRows):
		return NotFound(notFoundMessage, err)
	case errors.Is(err, database.ErrDuplicate):
		return Conflict("Duplicate entry detected", err)
	case errors.Is(err, database.ErrForeignKey):
		return Conflict("Foreign key constraint violation", err)
	case errors.Is(err, database.ErrInvalidSort):
		return BadRequest("Invalid sort directive", err).WithDetail(`sort must look like "field.ASC" or "field.DESC"`)
	case errors.Is(err, database.ErrInvalidFilter):
		return BadRequest("Invalid filter", err)
	case errors.Is(err, database.ErrPageOutOfRange):
		return InvalidPage(err)
	}

	return Internal(err)
}

// InvalidPage is the 400 answered for a page or skip whose offset overflows.
func InvalidPage(err error) AppError {
	return BadRequest("Invalid pagination", err).WithDetail("page and skip point past the last possible row")
}

type response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
}

// Respond writes err as the JSON error body. It is the router's error handler.
func Respond(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, agora.ErrMalformedBody) {
		err = BadRequest("Malformed request body", err)
	}

	appError := AppError{}
	if !errors.As(err, &appError) {
		appError = Internal(err)
	}

	poseidon.RespondJSON(w, appError.Code, response{
		StatusCode: appError.Code,
		Message:    appError.Message,
		Detail:     appError.Detail,
	})
}
