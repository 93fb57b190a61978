package stats

import (
	"path/filepath"
	"testing"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return r
}

func TestRecorder_EmptySummary(t *testing.T) {
	r := openTestRecorder(t)

	s, err := r.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if s.Documents != 0 || s.Variants != 0 || s.BytesSaved != 0 || s.AverageRatio != 0 {
		t.Errorf("expected zeroed summary, got %+v", s)
	}
}

func TestRecorder_Aggregates(t *testing.T) {
	r := openTestRecorder(t)

	records := []*Record{
		{TaskID: "a", Format: "pdf", Level: "extreme", OriginalSize: 1000, CompressedSize: 400, Ratio: 0.6},
		{TaskID: "a", Format: "pdf", Level: "medium", OriginalSize: 1000, CompressedSize: 600, Ratio: 0.4},
		{TaskID: "b", Format: "docx", Level: "extreme", OriginalSize: 2000, CompressedSize: 1000, Ratio: 0.5},
	}
	for _, rec := range records {
		if err := r.Record(rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	s, err := r.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if s.Documents != 2 {
		t.Errorf("expected 2 distinct documents, got %d", s.Documents)
	}
	if s.Variants != 3 {
		t.Errorf("expected 3 variants, got %d", s.Variants)
	}
	if s.BytesSaved != 2000 {
		t.Errorf("expected 2000 bytes saved, got %d", s.BytesSaved)
	}
	if s.AverageRatio < 0.49 || s.AverageRatio > 0.51 {
		t.Errorf("expected average ratio near 0.5, got %f", s.AverageRatio)
	}
}
