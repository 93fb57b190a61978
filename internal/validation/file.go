package validation

import (
	"bytes"
	"path/filepath"
	"strings"

	"docshrink/internal/models"
)

var magicBytes = map[models.Format][]byte{
	models.FormatPDF:  {0x25, 0x50, 0x44, 0x46}, // %PDF
	models.FormatDOCX: {0x50, 0x4B, 0x03, 0x04}, // zip local file header
}

var extensions = map[string]models.Format{
	".pdf":  models.FormatPDF,
	".docx": models.FormatDOCX,
}

// DetectFormat sniffs the declared container format from the leading bytes.
func DetectFormat(data []byte) (models.Format, error) {
	for format, signature := range magicBytes {
		if bytes.HasPrefix(data, signature) {
			return format, nil
		}
	}
	return "", ErrInvalidFileType
}

// ValidateUpload is the single intake gate: extension, size and content
// signature are checked here and nowhere else. It returns the document
// format the rest of the pipeline can trust.
func ValidateUpload(filename string, data []byte, maxSize int64) (models.Format, error) {
	if filename == "" {
		return "", ErrEmptyFilename
	}

	ext := strings.ToLower(filepath.Ext(filename))
	declared, ok := extensions[ext]
	if !ok {
		return "", ErrInvalidFileType
	}

	if int64(len(data)) > maxSize {
		return "", ErrFileTooLarge
	}

	detected, err := DetectFormat(data)
	if err != nil || detected != declared {
		return "", ErrExtensionMismatch
	}

	return declared, nil
}
