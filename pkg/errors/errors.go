package errors

import (
	"errors"
	"fmt"
	"net/http"

	"syncwatch/internal/core/domain"
)

// ErrorCode represents application error codes surfaced at the API and
// websocket boundary.
type ErrorCode string

const (
	ErrCodeNotAuthorized     ErrorCode = "NOT_AUTHORIZED"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyVoted      ErrorCode = "ALREADY_VOTED"
	ErrCodeNoPollOpen        ErrorCode = "NO_POLL_OPEN"
	ErrCodeReactionsDisabled ErrorCode = "REACTIONS_DISABLED"
	ErrCodeRoomFull          ErrorCode = "ROOM_FULL"
	ErrCodeRateLimit         ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// AppError carries an error code and HTTP status alongside the message.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// FromDomain maps a domain sentinel to a boundary error. Every room
// rejection is recoverable and scoped to its caller, so nothing here
// maps above 4xx except genuinely unknown errors.
func FromDomain(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrNotAuthorized):
		return &AppError{Code: ErrCodeNotAuthorized, Message: err.Error(), HTTPStatus: http.StatusForbidden, Cause: err}
	case errors.Is(err, domain.ErrRoomFull):
		return &AppError{Code: ErrCodeRoomFull, Message: err.Error(), HTTPStatus: http.StatusConflict, Cause: err}
	case errors.Is(err, domain.ErrAlreadyVoted):
		return &AppError{Code: ErrCodeAlreadyVoted, Message: err.Error(), HTTPStatus: http.StatusConflict, Cause: err}
	case errors.Is(err, domain.ErrNoPollOpen):
		return &AppError{Code: ErrCodeNoPollOpen, Message: err.Error(), HTTPStatus: http.StatusConflict, Cause: err}
	case errors.Is(err, domain.ErrReactionsDisabled):
		return &AppError{Code: ErrCodeReactionsDisabled, Message: err.Error(), HTTPStatus: http.StatusConflict, Cause: err}
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrParticipantNotFound),
		errors.Is(err, domain.ErrInvalidOption):
		return &AppError{Code: ErrCodeNotFound, Message: err.Error(), HTTPStatus: http.StatusNotFound, Cause: err}
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrInvalidSource),
		errors.Is(err, domain.ErrInvalidPoll),
		errors.Is(err, domain.ErrPollAlreadyOpen),
		errors.Is(err, domain.ErrInvalidInput):
		return &AppError{Code: ErrCodeInvalidInput, Message: err.Error(), HTTPStatus: http.StatusBadRequest, Cause: err}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "internal error", HTTPStatus: http.StatusInternalServerError, Cause: err}
	}
}

// IsAppError checks if error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
