package models

import (
	"time"

	"docshrink/internal/profile"
)

type TaskStatus string

const (
	StatusProcessing TaskStatus = "processing"
	StatusComplete   TaskStatus = "complete"
	StatusFailed     TaskStatus = "failed"
	StatusDeleted    TaskStatus = "deleted"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Task is the unit of work and storage scope for one uploaded document and
// its generated variants. All files for a task live under Dir; once the task
// is deleted nothing references that directory again.
type Task struct {
	ID               string
	OriginalFilename string
	Format           Format
	OriginalSize     int64
	Dir              string
	Status           TaskStatus
	Outcomes         map[profile.Level]Outcome
	ErrorMessage     string
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// Outcome is the result of running one profile against the task's source.
// Bytes is only populated while the outcome travels from the orchestrator to
// the store; the store persists it to disk and drops it.
type Outcome struct {
	Level    profile.Level
	Filename string
	Size     int64
	Ratio    float64
	Err      string
	Bytes    []byte
}

func (o Outcome) Success() bool { return o.Err == "" }
