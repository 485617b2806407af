// Package apperr provides the unified error type used across the
// recording and transcription pipeline. It implements structured errors
// with machine-readable codes and HTTP status mapping so handlers can
// translate any pipeline failure into an accurate response.
package apperr

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Domain Error Constructors ---

// DeviceEnumeration creates an error for an audio subsystem that cannot
// be queried for input devices.
func DeviceEnumeration(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDeviceEnumeration, Message: "Unable to query audio input devices.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
	}
}

// AlreadyRecording creates an error for a start request while a session
// is already recording.
func AlreadyRecording() *AppError {
	return &AppError{
		Code: ErrCodeAlreadyRecording, Message: "A recording is already in progress.",
		HTTPStatus: http.StatusConflict, Retryable: false,
	}
}

// NotRecording creates an error for a stop request while no session is
// recording.
func NotRecording() *AppError {
	return &AppError{
		Code: ErrCodeNotRecording, Message: "No recording is in progress.",
		HTTPStatus: http.StatusConflict, Retryable: false,
	}
}

// DeviceUnavailable creates an error for an input device that could not
// be opened for capture.
func DeviceUnavailable(deviceID int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDeviceUnavailable, Message: fmt.Sprintf("Audio device %d could not be opened.", deviceID),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"device_id": deviceID}, Cause: cause,
	}
}

// UnsupportedFormat creates an error for an audio file outside the
// supported format set.
func UnsupportedFormat(name, reason string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedFormat, Message: fmt.Sprintf("Unsupported audio format: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"filename": name},
	}
}

// Conversion creates an error for a format conversion that failed.
func Conversion(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConversion, Message: "Audio conversion failed. The file may be corrupt.",
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// TranscriptionService creates an error for a transcription engine that
// failed or could not be reached.
func TranscriptionService(cause error) *AppError {
	return &AppError{
		Code: ErrCodeTranscriptionService, Message: "The transcription service could not be reached. Please try again later.",
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
	}
}

// NotFound creates an error for an artifact that was not found.
func NotFound(path string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: "The requested file was not found.",
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"path": path},
	}
}

// InvalidInput creates an error for invalid request input.
func InvalidInput(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Validation creates an error for request validation failures.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Internal creates an error for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
