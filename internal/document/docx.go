package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"docshrink/internal/converter"
	"docshrink/internal/profile"
)

// DOCXAdapter recompresses the media entries of a DOCX package. A DOCX file
// is a zip archive; raster images live under word/media/ and are referenced
// by name from the relationship and content-type parts.
type DOCXAdapter struct{}

const (
	mediaPrefix  = "word/media/"
	relsPart     = "word/_rels/document.xml.rels"
	typesPart    = "[Content_Types].xml"
	minMediaSize = 1 << 10
)

var rasterExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

func (a *DOCXAdapter) Compress(src []byte, p profile.Profile) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
	}

	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}

	// First pass: recompress eligible media entries. Renames map old base
	// names to new ones so document references can be patched on repack.
	replaced := make(map[string][]byte)
	renames := make(map[string]string)

	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, mediaPrefix) {
			continue
		}
		ext := strings.ToLower(path.Ext(f.Name))
		if !rasterExtensions[ext] {
			continue
		}

		data, err := readZipEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
		}
		if len(data) < minMediaSize {
			continue
		}

		out, err := converter.Recompress(data, p)
		if err != nil || len(out) >= len(data) {
			// Keep the original image. One bad image never fails the
			// document.
			continue
		}

		newName := f.Name
		if ext != ".jpeg" && ext != ".jpg" {
			newName = strings.TrimSuffix(f.Name, ext) + ".jpeg"
			if names[newName] {
				// Renaming would collide with an existing entry.
				continue
			}
			renames[path.Base(f.Name)] = path.Base(newName)
		}
		replaced[f.Name] = out
		if newName != f.Name {
			names[newName] = true
		}
	}

	if len(replaced) == 0 {
		return src, nil
	}

	out, err := repack(zr, replaced, renames)
	if err != nil {
		return nil, err
	}

	// Size floor: discard a repack that grew.
	if len(out) >= len(src) {
		return src, nil
	}
	return out, nil
}

func repack(zr *zip.Reader, replaced map[string][]byte, renames map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range zr.File {
		data, err := readZipEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReassembly, err)
		}

		name := f.Name
		if sub, ok := replaced[name]; ok {
			data = sub
			if newBase, ok := renames[path.Base(name)]; ok {
				name = path.Dir(name) + "/" + newBase
			}
		} else if name == relsPart || name == typesPart {
			data = patchReferences(name, data, renames)
		}

		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReassembly, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReassembly, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReassembly, err)
	}
	return buf.Bytes(), nil
}

// patchReferences rewrites renamed media file names inside the relationship
// part and makes sure the package declares a content type for jpeg.
func patchReferences(part string, data []byte, renames map[string]string) []byte {
	s := string(data)
	for oldName, newName := range renames {
		s = strings.ReplaceAll(s, oldName, newName)
	}
	if part == typesPart &&
		!strings.Contains(s, `Extension="jpeg"`) && !strings.Contains(s, `Extension="jpg"`) {
		s = strings.Replace(s, "</Types>",
			`<Default Extension="jpeg" ContentType="image/jpeg"/></Types>`, 1)
	}
	return []byte(s)
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
