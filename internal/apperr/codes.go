package apperr

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Recording session errors
const (
	// ErrCodeDeviceEnumeration indicates the audio subsystem could not be queried.
	ErrCodeDeviceEnumeration ErrorCode = "DEVICE_ENUMERATION"
	// ErrCodeAlreadyRecording indicates a recording session is already active.
	ErrCodeAlreadyRecording ErrorCode = "ALREADY_RECORDING"
	// ErrCodeNotRecording indicates no recording session is active.
	ErrCodeNotRecording ErrorCode = "NOT_RECORDING"
	// ErrCodeDeviceUnavailable indicates the input device could not be opened.
	ErrCodeDeviceUnavailable ErrorCode = "DEVICE_UNAVAILABLE"
)

// Ingestion errors
const (
	// ErrCodeUnsupportedFormat indicates the audio format is outside the supported set.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeConversion indicates the conversion to canonical form failed.
	ErrCodeConversion ErrorCode = "CONVERSION_FAILED"
)

// Dispatch errors
const (
	// ErrCodeTranscriptionService indicates the transcription engine failed or is unreachable.
	ErrCodeTranscriptionService ErrorCode = "TRANSCRIPTION_SERVICE"
)

// Generic errors
const (
	// ErrCodeNotFound indicates the requested artifact was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeDeviceEnumeration:    true,
	ErrCodeTranscriptionService: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
