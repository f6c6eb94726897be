package errors

import "fmt"

// ErrorCode represents a Cull error code.
type ErrorCode string

const (
	ErrUnavailable      ErrorCode = "UNAVAILABLE"       // 404: item unreadable, skipped without occupying a slot
	ErrCorrupt          ErrorCode = "CORRUPT"           // 422: decoded geometry invalid
	ErrTimeout          ErrorCode = "TIMEOUT"           // 504: no terminal decode result in time
	ErrCancelled        ErrorCode = "CANCELLED"         // 499: caller abandoned the load
	ErrAuthorityFailure ErrorCode = "AUTHORITY_FAILURE" // 502: batch delete rejected, items stay pending
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// CullError represents a structured error with code, status, and details.
type CullError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *CullError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewUnavailable creates an error for an item the catalog cannot read.
func NewUnavailable(id string) *CullError {
	return &CullError{
		Code:    ErrUnavailable,
		Status:  404,
		Message: fmt.Sprintf("item not readable: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewCorrupt creates an error for decoded content with invalid geometry.
func NewCorrupt(id string, width, height int) *CullError {
	return &CullError{
		Code:    ErrCorrupt,
		Status:  422,
		Message: fmt.Sprintf("decoded geometry invalid for %s: %dx%d", id, width, height),
		Details: map[string]any{"id": id, "width": width, "height": height},
	}
}

// NewTimeout creates an error for a load with no terminal result in time.
func NewTimeout(id string) *CullError {
	return &CullError{
		Code:    ErrTimeout,
		Status:  504,
		Message: fmt.Sprintf("load timed out: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewCancelled creates an error for a caller-cancelled load.
func NewCancelled(id string) *CullError {
	return &CullError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("load cancelled: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewAuthorityFailure creates an error for a rejected deletion batch.
// The attempted identifiers remain pending and are retried on the next flush.
func NewAuthorityFailure(err error, attempted int) *CullError {
	msg := "deletion authority rejected batch"
	if err != nil {
		msg = fmt.Sprintf("deletion authority rejected batch: %s", err.Error())
	}
	return &CullError{
		Code:    ErrAuthorityFailure,
		Status:  502,
		Message: msg,
		Details: map[string]any{"attempted": attempted},
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CullError {
	return &CullError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(what string) *CullError {
	return &CullError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", what),
		Details: map[string]any{"identifier": what},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CullError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CullError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a CullError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*CullError); ok {
		return cErr.Code == code
	}
	return false
}
