// Package errors provides structured error handling for the raffle engine.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Raffle lifecycle errors
	CodeAlreadyInSession Code = "ALREADY_IN_SESSION"
	CodeNotOpen          Code = "NOT_OPEN"
	CodeOwnerCannotEnter Code = "OWNER_CANNOT_ENTER"
	CodeInsufficientFee  Code = "INSUFFICIENT_FEE"
	CodeNotOwner         Code = "NOT_OWNER"

	// Draw errors
	CodeUnknownRequest Code = "UNKNOWN_REQUEST"
	CodeNoPlayers      Code = "NO_PLAYERS"
	CodeNoRandomWords  Code = "NO_RANDOM_WORDS"

	// Payout errors
	CodeTransferFailed Code = "TRANSFER_FAILED"

	// Ledger and storage errors
	CodeNotFound            Code = "NOT_FOUND"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"

	// Input errors
	CodeInvalidAddress Code = "INVALID_ADDRESS"
	CodeInvalidAmount  Code = "INVALID_AMOUNT"
	CodeInvalidPayload Code = "INVALID_PAYLOAD"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeInvalidAddress,
		CodeInvalidAmount,
		CodeInvalidPayload,
		CodeNoRandomWords:
		return http.StatusBadRequest

	// Conflict - state doesn't allow the operation
	case CodeAlreadyInSession,
		CodeNotOpen,
		CodeNoPlayers:
		return http.StatusConflict

	// Payment required - underpaid entry or underfunded account
	case CodeInsufficientFee,
		CodeInsufficientBalance:
		return http.StatusPaymentRequired

	// Forbidden - caller lacks the role the operation requires
	case CodeOwnerCannotEnter,
		CodeNotOwner:
		return http.StatusForbidden

	// Not found - resource doesn't exist
	case CodeNotFound,
		CodeUnknownRequest:
		return http.StatusNotFound

	// Unprocessable - accepted input, settlement failed
	case CodeTransferFailed:
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}
