package errors

import (
	"minechain/jsonx"
)

// ChainErrorCode represents standardized error codes for chain operations
type ChainErrorCode string

const (
	// General errors
	ErrCodeInternal ChainErrorCode = "internal_error"

	// Validation errors
	ErrCodeInvalidRequest    ChainErrorCode = "invalid_request"
	ErrCodeMissingField      ChainErrorCode = "missing_field"
	ErrCodeInvalidDifficulty ChainErrorCode = "invalid_difficulty"
	ErrCodeInvalidBlock      ChainErrorCode = "invalid_block"

	// Lifecycle errors
	ErrCodeAlreadyFinalized ChainErrorCode = "already_finalized"
	ErrCodeAlreadyAborted   ChainErrorCode = "already_aborted"
)

// ChainError represents a standardized chain error
type ChainError struct {
	Code    ChainErrorCode `json:"code"`
	Message string         `json:"message"`
}

// Error implements the error interface
func (e *ChainError) Error() string {
	err, _ := jsonx.Marshal(ChainError{
		Code:    e.Code,
		Message: e.Message,
	})
	return string(err)
}

// Error message constants - user-friendly and concise
const (
	ErrMsgInvalidRequest    = "Request format is invalid"
	ErrMsgMissingPayload    = "Payload is required"
	ErrMsgMissingSignature  = "Signature is required"
	ErrMsgMissingField      = "Required field '%s' is missing"
	ErrMsgInvalidDifficulty = "Difficulty must be a numeric value"
	ErrMsgInvalidBlock      = "Block failed hash or linkage validation"
	ErrMsgAlreadyFinalized  = "Block has already been finalized"
	ErrMsgInternal          = "Server error, please try again"
)

// NewError creates a new ChainError and returns it as error interface
func NewError(code ChainErrorCode, message string) error {
	return &ChainError{
		Code:    code,
		Message: message,
	}
}

// CodeOf extracts the ChainErrorCode from err, or ErrCodeInternal for
// foreign errors.
func CodeOf(err error) ChainErrorCode {
	if ce, ok := err.(*ChainError); ok {
		return ce.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err is a ChainError carrying code.
func IsCode(err error, code ChainErrorCode) bool {
	ce, ok := err.(*ChainError)
	return ok && ce.Code == code
}
