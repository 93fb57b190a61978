// Package document rewrites the embedded raster images of a container
// format (PDF, DOCX) according to a quality profile, leaving everything
// else in the container untouched.
package document

import (
	"errors"
	"fmt"

	"docshrink/internal/models"
	"docshrink/internal/profile"
)

var (
	ErrUnsupportedContainer = errors.New("unsupported container")
	ErrReassembly           = errors.New("reassemble container")
	ErrUnknownFormat        = errors.New("unknown document format")
)

// Adapter compresses one container format. Implementations must uphold the
// size floor: the returned bytes are never larger than src (they fall back
// to src itself when recompression would inflate the file), and a single
// bad embedded image never fails the whole document.
type Adapter interface {
	Compress(src []byte, p profile.Profile) ([]byte, error)
}

// ForFormat selects the adapter for a validated document format.
func ForFormat(f models.Format) (Adapter, error) {
	switch f {
	case models.FormatPDF:
		return &PDFAdapter{}, nil
	case models.FormatDOCX:
		return &DOCXAdapter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}
