package validation

import "errors"

var (
	ErrEmptyFilename     = errors.New("empty filename")
	ErrInvalidFileType   = errors.New("unsupported file type, only PDF and DOCX are accepted")
	ErrFileTooLarge      = errors.New("file size exceeds the configured limit")
	ErrExtensionMismatch = errors.New("file content does not match its extension")
)

// IsValidationError reports whether err is a user-correctable intake error,
// as opposed to an internal failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyFilename) ||
		errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrExtensionMismatch)
}
