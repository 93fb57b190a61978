package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"docshrink/internal/models"
	"docshrink/internal/profile"
	"docshrink/internal/store"
)

const testContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Default Extension="png" ContentType="image/png"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const testDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/></Relationships>`

const testDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/></w:body></w:document>`

func sampleDOCX(t *testing.T) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(99))
	img := image.NewNRGBA(image.Rect(0, 0, 400, 400))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var imgBuf bytes.Buffer
	if err := png.Encode(&imgBuf, img); err != nil {
		t.Fatalf("encode test PNG: %v", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := map[string][]byte{
		"[Content_Types].xml":          []byte(testContentTypes),
		"word/document.xml":            []byte(testDocument),
		"word/_rels/document.xml.rels": []byte(testDocumentRels),
		"word/media/image1.png":        imgBuf.Bytes(),
	}
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func newProcessorFixture(t *testing.T) (*Processor, *store.Store) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	st, err := store.New(t.TempDir(), 1<<24, time.Hour, logger)
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	return NewProcessor(st, nil, logger), st
}

func TestProcessor_ProducesAllVariants(t *testing.T) {
	proc, st := newProcessorFixture(t)

	src := sampleDOCX(t)
	task, err := st.Create(src, "report.docx")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	proc.Process(context.Background(), task.ID)

	got, err := st.Get(task.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.StatusComplete {
		t.Fatalf("expected status complete, got %s (%s)", got.Status, got.ErrorMessage)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}

	for _, lvl := range profile.Levels() {
		o, ok := got.Outcomes[lvl]
		if !ok {
			t.Fatalf("missing outcome for %s", lvl)
		}
		if !o.Success() {
			t.Fatalf("%s variant failed: %s", lvl, o.Err)
		}
		if o.Size > got.OriginalSize {
			t.Errorf("%s variant larger than original: %d > %d", lvl, o.Size, got.OriginalSize)
		}
		if o.Ratio < 0 || o.Ratio > 1 {
			t.Errorf("%s ratio out of range: %f", lvl, o.Ratio)
		}

		data, err := st.GetDownload(task.ID, o.Filename)
		if err != nil {
			t.Errorf("%s variant not downloadable: %v", lvl, err)
		} else if int64(len(data)) != o.Size {
			t.Errorf("%s artifact size mismatch: %d != %d", lvl, len(data), o.Size)
		}
	}

	if got.Outcomes[profile.Extreme].Filename != "report_extreme.docx" {
		t.Errorf("unexpected variant name %q", got.Outcomes[profile.Extreme].Filename)
	}
}

func TestProcessor_DeletedTaskIsNoOp(t *testing.T) {
	proc, st := newProcessorFixture(t)

	task, err := st.Create(sampleDOCX(t), "report.docx")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := st.Delete(task.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Must return quietly without resurrecting the task.
	proc.Process(context.Background(), task.ID)

	if _, err := st.Get(task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted task must stay deleted, got %v", err)
	}
}

func TestProcessor_CanceledContextFailsProfiles(t *testing.T) {
	proc, st := newProcessorFixture(t)

	task, err := st.Create(sampleDOCX(t), "report.docx")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc.Process(ctx, task.ID)

	got, err := st.Get(task.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.StatusFailed {
		t.Errorf("expected status failed, got %s", got.Status)
	}
	for lvl, o := range got.Outcomes {
		if o.Success() {
			t.Errorf("%s should have been canceled", lvl)
		}
	}
}

func TestVariantFilename(t *testing.T) {
	tests := []struct {
		original string
		level    profile.Level
		want     string
	}{
		{"report.pdf", profile.Extreme, "report_extreme.pdf"},
		{"my notes.docx", profile.Medium, "my notes_medium.docx"},
		{"archive.v2.pdf", profile.Basic, "archive.v2_basic.pdf"},
	}
	for _, tt := range tests {
		if got := variantFilename(tt.original, tt.level); got != tt.want {
			t.Errorf("variantFilename(%q, %s) = %q, want %q", tt.original, tt.level, got, tt.want)
		}
	}
}
