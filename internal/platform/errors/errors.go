package errors

import (
	stderrors "errors"

	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/oracle"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/payout"
	"github.com/0xGIDHUB/raffle-engine/internal/storage"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context for API responses
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// FromError classifies err into a coded error. Raffle, oracle, payout and
// storage sentinels each map to their code; anything unrecognized becomes
// CodeUnknown.
func FromError(err error) *Error {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded
	}

	var feeErr *domain.InsufficientFeeError
	if stderrors.As(err, &feeErr) {
		return &Error{
			Code:    CodeInsufficientFee,
			Message: feeErr.Error(),
			Metadata: map[string]string{
				"required": feeErr.Required.Dec(),
				"paid":     feeErr.Paid.Dec(),
			},
			Cause: err,
		}
	}

	var transferErr *payout.TransferFailedError
	if stderrors.As(err, &transferErr) {
		return &Error{
			Code:    CodeTransferFailed,
			Message: transferErr.Error(),
			Metadata: map[string]string{
				"recipient": transferErr.Recipient.String(),
				"amount":    transferErr.Amount.Dec(),
			},
			Cause: err,
		}
	}

	code := CodeUnknown
	switch {
	case stderrors.Is(err, domain.ErrAlreadyInSession):
		code = CodeAlreadyInSession
	case stderrors.Is(err, domain.ErrNotOpen):
		code = CodeNotOpen
	case stderrors.Is(err, domain.ErrOwnerCannotEnter):
		code = CodeOwnerCannotEnter
	case stderrors.Is(err, domain.ErrNotOwner):
		code = CodeNotOwner
	case stderrors.Is(err, domain.ErrUnknownRequest), stderrors.Is(err, oracle.ErrUnknownRequest):
		code = CodeUnknownRequest
	case stderrors.Is(err, domain.ErrNoPlayers):
		code = CodeNoPlayers
	case stderrors.Is(err, domain.ErrNoRandomWords):
		code = CodeNoRandomWords
	case stderrors.Is(err, storage.ErrNotFound):
		code = CodeNotFound
	case stderrors.Is(err, storage.ErrInsufficientBalance):
		code = CodeInsufficientBalance
	}

	return &Error{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}
