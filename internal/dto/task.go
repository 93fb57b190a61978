package dto

import "fmt"

// VariantResponse describes one profile's result. Either the download
// fields or Error is set, never both.
type VariantResponse struct {
	Level            string `json:"level"`
	Filename         string `json:"filename,omitempty"`
	Size             int64  `json:"size,omitempty"`
	SizeFormatted    string `json:"size_formatted,omitempty"`
	CompressionRatio string `json:"compression_ratio,omitempty"`
	DownloadURL      string `json:"download_url,omitempty"`
	Error            string `json:"error,omitempty"`
}

type TaskResponse struct {
	ID                    string            `json:"id"`
	OriginalFilename      string            `json:"original_filename"`
	OriginalSize          int64             `json:"original_size"`
	OriginalSizeFormatted string            `json:"original_size_formatted"`
	Status                string            `json:"status"`
	ErrorMessage          string            `json:"error_message,omitempty"`
	Files                 []VariantResponse `json:"files,omitempty"`
	CreatedAt             string            `json:"created_at"`
	CompletedAt           *string           `json:"completed_at,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// FormatFileSize renders a byte count the way the result view shows it.
func FormatFileSize(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/(1<<20))
	}
}
